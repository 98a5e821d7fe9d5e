package middlewares_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/letterpress/internal"
	"github.com/dmitrymomot/letterpress/middlewares"
)

func serve(app http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	app := internal.New(
		internal.WithLogger(log, middlewares.RequestIDExtractor()),
		internal.WithMiddleware(middlewares.RequestID()),
		internal.WithHandlers(internal.RoutesFunc(func(r internal.Router) {
			r.GET("/id", func(c internal.Context) error {
				c.LogInfo("handled")
				return c.String(http.StatusOK, middlewares.GetRequestID(c))
			})
		})),
	)

	t.Run("generated", func(t *testing.T) {
		rec := serve(app, httptest.NewRequest(http.MethodGet, "/id", nil))
		id := rec.Body.String()
		require.Len(t, id, 36)
		require.Equal(t, id, rec.Header().Get("X-Request-ID"))
	})

	t.Run("upstream header kept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/id", nil)
		req.Header.Set("X-Correlation-ID", "abc")
		rec := serve(app, req)
		require.Equal(t, "abc", rec.Body.String())
		require.Contains(t, buf.String(), `"request_id":"abc"`)
	})
}

func TestRecover(t *testing.T) {
	t.Parallel()

	var caught *middlewares.PanicError
	app := internal.New(
		internal.WithMiddleware(middlewares.Recover()),
		internal.WithErrorHandler(func(c internal.Context, err error) error {
			caught, _ = middlewares.AsPanicError(err)
			return c.String(http.StatusInternalServerError, "recovered")
		}),
		internal.WithHandlers(internal.RoutesFunc(func(r internal.Router) {
			r.GET("/boom", func(internal.Context) error { panic("kaboom") })
		})),
	)

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "recovered", rec.Body.String())
	require.NotNil(t, caught)
	require.Equal(t, "kaboom", caught.Value)
	require.NotEmpty(t, caught.Stack)
	require.Equal(t, "panic: kaboom", caught.Error())
}

func TestCORS(t *testing.T) {
	t.Parallel()

	app := internal.New(
		internal.WithMiddleware(middlewares.CORS(middlewares.WithAllowOrigins("http://ui.local"))),
		internal.WithHandlers(internal.RoutesFunc(func(r internal.Router) {
			r.GET("/api/x", func(c internal.Context) error { return c.NoContent(http.StatusOK) })
		})),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("Origin", "http://ui.local")
	rec := serve(app, req)
	require.Equal(t, "http://ui.local", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/x", nil)
	req.Header.Set("Origin", "http://ui.local")
	rec = serve(app, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
	require.Equal(t, "43200", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/api/x", nil)
	req.Header.Set("Origin", "http://evil.local")
	rec = serve(app, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHandlers(internal.RoutesFunc(func(r internal.Router) {
		r.POST("/send", func(c internal.Context) error {
			return c.NoContent(http.StatusAccepted)
		}, middlewares.RateLimit(rate.Every(time.Hour), 2))
	})))

	from := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/send", nil)
		req.RemoteAddr = addr
		return serve(app, req)
	}

	require.Equal(t, http.StatusAccepted, from("10.0.0.1:1000").Code)
	require.Equal(t, http.StatusAccepted, from("10.0.0.1:1001").Code)

	rec := from("10.0.0.1:1002")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body internal.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "rate_limited", body.Error.Code)

	require.Equal(t, http.StatusAccepted, from("10.0.0.2:1000").Code)
}

func TestAccessLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	app := internal.New(
		internal.WithLogger(log),
		internal.WithMiddleware(middlewares.AccessLog(middlewares.WithAccessLogSkip("/quiet"))),
		internal.WithHandlers(internal.RoutesFunc(func(r internal.Router) {
			r.GET("/items/{id}", func(c internal.Context) error {
				return c.String(http.StatusCreated, "hello")
			})
			r.GET("/missing", func(c internal.Context) error {
				return internal.ErrNotFound("nope")
			})
			r.GET("/quiet", func(c internal.Context) error {
				return c.NoContent(http.StatusNoContent)
			})
		})),
	)

	decode := func(t *testing.T) map[string]any {
		t.Helper()
		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		buf.Reset()
		return line
	}

	rec := serve(app, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	line := decode(t)
	require.Equal(t, "http request", line["msg"])
	require.Equal(t, "/items/{id}", line["route"])
	require.EqualValues(t, http.StatusCreated, line["status"])
	require.EqualValues(t, 5, line["bytes"])

	rec = serve(app, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	line = decode(t)
	require.Equal(t, "WARN", line["level"])
	require.EqualValues(t, http.StatusNotFound, line["status"])

	serve(app, httptest.NewRequest(http.MethodGet, "/quiet", nil))
	require.Empty(t, buf.String())
}
