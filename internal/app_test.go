package internal_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/letterpress/internal"
	"github.com/dmitrymomot/letterpress/pkg/health"
)

type ctxKey struct{}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) internal.ErrorDetail {
	t.Helper()
	var body internal.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestApp_Routing(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHandlers(internal.RoutesFunc(func(r internal.Router) {
		r.Route("/api", func(r internal.Router) {
			r.GET("/items/{id}", func(c internal.Context) error {
				return c.JSON(http.StatusOK, map[string]string{"id": c.Param("id"), "q": c.QueryDefault("q", "none")})
			})
			r.POST("/echo", func(c internal.Context) error {
				var in map[string]any
				if err := c.BindJSON(&in); err != nil {
					return internal.ErrBadRequest("invalid body", internal.WithError(err))
				}
				return c.JSON(http.StatusCreated, in)
			})
		})
	})))

	rec := do(t, app, http.MethodGet, "/api/items/42?q=x", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"id":"42","q":"x"}`, rec.Body.String())

	rec = do(t, app, http.MethodPost, "/api/echo", `{"a":1}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.JSONEq(t, `{"a":1}`, rec.Body.String())

	rec = do(t, app, http.MethodPost, "/api/echo", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid body", decodeError(t, rec).Message)

	req := httptest.NewRequest(http.MethodPost, "/api/echo", strings.NewReader("a=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, app, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, http.StatusNotFound, decodeError(t, rec).Status)

	rec = do(t, app, http.MethodDelete, "/api/echo", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestApp_Errors(t *testing.T) {
	t.Parallel()

	app := internal.New(
		internal.WithErrorHandler(internal.JSONErrorHandler(func(internal.Context) string { return "req-1" })),
		internal.WithHandlers(internal.RoutesFunc(func(r internal.Router) {
			r.GET("/plain", func(internal.Context) error { return errors.New("secret detail") })
			r.GET("/coded", func(internal.Context) error {
				return internal.ErrUnprocessable("bad field", internal.WithErrorCode("invalid_field"))
			})
			r.GET("/late", func(c internal.Context) error {
				_ = c.String(http.StatusAccepted, "started")
				return errors.New("too late")
			})
		})),
	)

	rec := do(t, app, http.MethodGet, "/plain", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	detail := decodeError(t, rec)
	require.Equal(t, "Internal Server Error", detail.Message)
	require.Equal(t, "req-1", detail.RequestID)

	rec = do(t, app, http.MethodGet, "/coded", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "invalid_field", decodeError(t, rec).Code)

	rec = do(t, app, http.MethodGet, "/late", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "started", rec.Body.String())
}

func TestApp_Middleware(t *testing.T) {
	t.Parallel()

	var order []string
	trace := func(name string) internal.Middleware {
		return func(next internal.HandlerFunc) internal.HandlerFunc {
			return func(c internal.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}
	setValue := func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			c.Set(ctxKey{}, "from-middleware")
			return next(c)
		}
	}
	deny := func(internal.HandlerFunc) internal.HandlerFunc {
		return func(internal.Context) error {
			return internal.ErrTooManyRequests("slow down")
		}
	}

	app := internal.New(
		internal.WithMiddleware(trace("global-1"), setValue, trace("global-2")),
		internal.WithHandlers(internal.RoutesFunc(func(r internal.Router) {
			r.GET("/value", func(c internal.Context) error {
				v, _ := c.Get(ctxKey{}).(string)
				return c.String(http.StatusOK, v)
			}, trace("route-1"), trace("route-2"))
			r.GET("/denied", func(c internal.Context) error {
				return c.NoContent(http.StatusOK)
			}, deny)
		})),
	)

	rec := do(t, app, http.MethodGet, "/value", "")
	require.Equal(t, "from-middleware", rec.Body.String())
	require.Equal(t, []string{"global-1", "global-2", "route-1", "route-2"}, order)

	rec = do(t, app, http.MethodGet, "/denied", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestApp_HealthAndMounts(t *testing.T) {
	t.Parallel()

	app := internal.New(
		internal.WithHealthChecks(health.Checks{"store": func(context.Context) error { return nil }}),
		internal.WithMount("/metrics", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		})),
	)

	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/health/live", "").Code)
	require.Equal(t, http.StatusOK, do(t, app, http.MethodGet, "/health/ready", "").Code)
	require.Equal(t, "metrics", do(t, app, http.MethodGet, "/metrics", "").Body.String())
}

func TestApp_Run(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	app := internal.New(internal.WithHandlers(internal.RoutesFunc(func(r internal.Router) {
		r.GET("/ping", func(c internal.Context) error { return c.String(http.StatusOK, "pong") })
	})))

	ctx, cancel := context.WithCancel(context.Background())
	var started, stopped bool
	hookErr := errors.New("hook failed")

	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx, ln.Addr().String(),
			internal.Listener(ln),
			internal.StartupHook(func(context.Context) error { started = true; return nil }),
			internal.ShutdownHook(func(context.Context) error { stopped = true; return nil }),
			internal.ShutdownHook(func(context.Context) error { return hookErr }),
		)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, hookErr)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	require.True(t, started)
	require.True(t, stopped)
}

func TestApp_RunStartupHookFails(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	err := internal.New().Run(context.Background(), "127.0.0.1:0",
		internal.StartupHook(func(context.Context) error { return boom }),
	)
	require.ErrorIs(t, err, boom)
}
