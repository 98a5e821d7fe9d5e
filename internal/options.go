package internal

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/letterpress/pkg/health"
	"github.com/dmitrymomot/letterpress/pkg/logger"
)

// Option configures an App.
type Option func(*App)

// WithMiddleware adds global middleware. The first one listed runs first.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers route handlers.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithErrorHandler replaces the default JSON error handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		if h != nil {
			a.errorHandler = h
		}
	}
}

// WithNotFoundHandler sets the handler for unknown routes.
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFound = h
	}
}

// WithHealthChecks serves /health/live and /health/ready. Readiness runs
// checks through health.NewChecker with opts.
//
// Example:
//
//	internal.WithHealthChecks(health.Checks{"redis": redis.Healthcheck(client)})
func WithHealthChecks(checks health.Checks, opts ...health.Option) Option {
	return func(a *App) {
		a.health = health.NewChecker(checks, opts...)
	}
}

// WithMount attaches a plain http.Handler, such as a metrics endpoint.
func WithMount(pattern string, h http.Handler) Option {
	return func(a *App) {
		if pattern != "" && h != nil {
			a.mounts = append(a.mounts, mount{pattern: pattern, handler: h})
		}
	}
}

// WithLogger sets the request logger. Extractors add request-scoped
// attributes such as the request ID.
func WithLogger(l *slog.Logger, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		if l == nil {
			return
		}
		if len(extractors) > 0 {
			l = slog.New(logger.WithExtractors(l.Handler(), extractors...))
		}
		a.logger = l.With(logger.Component("http"))
	}
}

// WithMaxBodyBytes caps JSON request bodies.
// Default: 8 MiB
func WithMaxBodyBytes(n int64) Option {
	return func(a *App) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}
