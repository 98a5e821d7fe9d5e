package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// DefaultMaxBodyBytes caps JSON request bodies.
const DefaultMaxBodyBytes int64 = 8 << 20

var (
	ErrEmptyBody            = errors.New("internal: empty request body")
	ErrUnsupportedMediaType = errors.New("internal: request body is not JSON")
)

// Context provides request/response access and helper methods.
// It implements context.Context by delegating to the request context.
type Context interface {
	context.Context

	Request() *http.Request
	Response() http.ResponseWriter

	// Param returns a URL path parameter, or "" when absent.
	Param(name string) string
	// Query returns a query parameter, or "" when absent.
	Query(name string) string
	QueryDefault(name, defaultValue string) string

	Header(name string) string
	SetHeader(name, value string)

	// BindJSON decodes the request body into v.
	BindJSON(v any) error

	JSON(code int, v any) error
	String(code int, s string) error
	NoContent(code int) error
	// Error creates an HTTPError without writing anything; return it from
	// the handler.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// Written reports whether the response has been started.
	Written() bool

	Logger() *slog.Logger
	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context; Get reads it back.
	Set(key, value any)
	Get(key any) any
}

type requestContext struct {
	request  *http.Request
	response *ResponseWriter
	logger   *slog.Logger
	maxBody  int64
}

func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	return &requestContext{
		request:  r,
		response: NewResponseWriter(w),
		logger:   app.logger,
		maxBody:  app.maxBodyBytes,
	}
}

// context.Context is served by the current request context, which Set
// replaces.
func (c *requestContext) Deadline() (time.Time, bool) { return c.request.Context().Deadline() }
func (c *requestContext) Done() <-chan struct{}       { return c.request.Context().Done() }
func (c *requestContext) Err() error                  { return c.request.Context().Err() }
func (c *requestContext) Value(key any) any           { return c.request.Context().Value(key) }

func (c *requestContext) Request() *http.Request        { return c.request }
func (c *requestContext) Response() http.ResponseWriter { return c.response }
func (c *requestContext) Written() bool                 { return c.response.Written() }
func (c *requestContext) Logger() *slog.Logger          { return c.logger }

func (c *requestContext) Param(name string) string { return chi.URLParam(c.request, name) }
func (c *requestContext) Query(name string) string { return c.request.URL.Query().Get(name) }

func (c *requestContext) QueryDefault(name, defaultValue string) string {
	if v := c.Query(name); v != "" {
		return v
	}
	return defaultValue
}

func (c *requestContext) Header(name string) string { return c.request.Header.Get(name) }

func (c *requestContext) SetHeader(name, value string) { c.response.Header().Set(name, value) }

// BindJSON rejects bodies declared as anything but JSON; a missing
// Content-Type is accepted.
func (c *requestContext) BindJSON(v any) error {
	if ct := c.Header("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != "application/json" {
			return ErrUnsupportedMediaType
		}
	}
	if c.request.Body == nil || c.request.Body == http.NoBody {
		return ErrEmptyBody
	}

	dec := json.NewDecoder(http.MaxBytesReader(c.response, c.request.Body, c.maxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("bind json: %w", err)
	}
	return nil
}

func (c *requestContext) JSON(code int, v any) error {
	return c.write(code, "application/json; charset=utf-8", func(w io.Writer) error {
		return json.NewEncoder(w).Encode(v)
	})
}

func (c *requestContext) String(code int, s string) error {
	return c.write(code, "text/plain; charset=utf-8", func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) write(code int, contentType string, body func(io.Writer) error) error {
	c.response.Header().Set("Content-Type", contentType)
	c.response.WriteHeader(code)
	return body(c.response)
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) LogDebug(msg string, attrs ...any) { c.log(slog.LevelDebug, msg, attrs) }
func (c *requestContext) LogInfo(msg string, attrs ...any)  { c.log(slog.LevelInfo, msg, attrs) }
func (c *requestContext) LogWarn(msg string, attrs ...any)  { c.log(slog.LevelWarn, msg, attrs) }
func (c *requestContext) LogError(msg string, attrs ...any) { c.log(slog.LevelError, msg, attrs) }

func (c *requestContext) log(level slog.Level, msg string, attrs []any) {
	c.logger.Log(c.request.Context(), level, msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	c.request = c.request.WithContext(context.WithValue(c.request.Context(), key, value))
}

func (c *requestContext) Get(key any) any { return c.request.Context().Value(key) }
