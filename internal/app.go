package internal

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/letterpress/pkg/health"
	"github.com/dmitrymomot/letterpress/pkg/logger"
)

const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20
	defaultShutdownTimeout   = 30 * time.Second

	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// App owns the router and the server lifecycle.
// It is immutable after New.
type App struct {
	router       chi.Router
	errorHandler ErrorHandler
	notFound     HandlerFunc
	logger       *slog.Logger
	health       *health.Checker
	mounts       []mount
	middlewares  []Middleware
	handlers     []Handler
	maxBodyBytes int64
}

type mount struct {
	handler http.Handler
	pattern string
}

// New creates an App with the given options.
func New(opts ...Option) *App {
	a := &App{
		router:       chi.NewRouter(),
		logger:       logger.NewNope(),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.errorHandler == nil {
		a.errorHandler = JSONErrorHandler(nil)
	}
	a.setupRoutes()
	return a
}

// ServeHTTP makes App an http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is done or the process receives SIGINT or
// SIGTERM, then shuts down gracefully.
func (a *App) Run(ctx context.Context, addr string, opts ...RunOption) error {
	cfg := &runConfig{shutdownTimeout: defaultShutdownTimeout, logger: a.logger}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.handler = a
	cfg.address = addr
	cfg.baseCtx = ctx
	return runServer(cfg)
}

func (a *App) setupRoutes() {
	notFound := a.notFound
	if notFound == nil {
		notFound = func(c Context) error {
			return ErrNotFound("route not found")
		}
	}
	a.router.NotFound(a.wrapHandler(notFound))
	a.router.MethodNotAllowed(a.wrapHandler(func(c Context) error {
		return NewHTTPError(http.StatusMethodNotAllowed, "method not allowed")
	}))

	for _, mw := range a.middlewares {
		a.router.Use(a.adaptMiddleware(mw))
	}

	if a.health != nil {
		a.router.Get(defaultLivenessPath, health.LivenessHandler())
		a.router.Get(defaultReadinessPath, health.ReadinessHandler(a.health))
	}
	for _, m := range a.mounts {
		a.router.Mount(m.pattern, m.handler)
	}

	r := &chiRouter{mux: a.router, app: a}
	for _, h := range a.handlers {
		h.Routes(r)
	}
}

func (a *App) wrapHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, a)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// adaptMiddleware turns a Middleware into chi middleware. Values stored with
// Context.Set travel to the next handler on the request.
func (a *App) adaptMiddleware(mw Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := newContext(w, r, a)
			wrapped := mw(func(c Context) error {
				next.ServeHTTP(c.Response(), c.Request())
				return nil
			})
			if err := wrapped(c); err != nil {
				a.handleError(c, err)
			}
		})
	}
}

func (a *App) handleError(c Context, err error) {
	if c.Written() {
		c.LogWarn("error after response started", logger.Error(err))
		return
	}
	if herr := a.errorHandler(c, err); herr != nil {
		c.LogError("error handler failed", logger.Error(herr))
	}
}
