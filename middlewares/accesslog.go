package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/letterpress/internal"
)

// AccessLogOption configures AccessLog.
type AccessLogOption func(*accessLogConfig)

type accessLogConfig struct {
	skip map[string]bool
}

// WithAccessLogSkip leaves requests for the given paths unlogged.
//
// Example:
//
//	middlewares.AccessLog(middlewares.WithAccessLogSkip("/health/live", "/metrics"))
func WithAccessLogSkip(paths ...string) AccessLogOption {
	return func(cfg *accessLogConfig) {
		for _, p := range paths {
			cfg.skip[p] = true
		}
	}
}

// AccessLog logs one line per request with its route, status, size and
// duration. Server errors are logged at error level, client errors at warn.
// When the handler returns an error the status is taken from it, since the
// error handler renders it after this middleware returns.
func AccessLog(opts ...AccessLogOption) internal.Middleware {
	cfg := &accessLogConfig{skip: map[string]bool{}}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			req := c.Request()
			if cfg.skip[req.URL.Path] {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			status, size := http.StatusOK, int64(0)
			if rw, ok := c.Response().(*internal.ResponseWriter); ok {
				if rw.Written() {
					status = rw.Status()
				}
				size = rw.Size()
			}
			if err != nil && !c.Written() {
				status = http.StatusInternalServerError
				if he, ok := internal.AsHTTPError(err); ok {
					status = he.Code
				}
			}

			route := req.URL.Path
			if rctx := chi.RouteContext(req.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}

			level := slog.LevelInfo
			switch {
			case status >= http.StatusInternalServerError:
				level = slog.LevelError
			case status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}
			c.Logger().Log(req.Context(), level, "http request",
				slog.String("method", req.Method),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Int64("bytes", size),
				slog.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}
