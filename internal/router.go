package internal

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
)

// Router is what handlers see when they declare their routes.
type Router interface {
	// Handle registers h for method and path. Route middleware runs in the
	// order given, after the global middleware.
	Handle(method, path string, h HandlerFunc, mw ...Middleware)

	GET(path string, h HandlerFunc, mw ...Middleware)
	POST(path string, h HandlerFunc, mw ...Middleware)
	PUT(path string, h HandlerFunc, mw ...Middleware)
	PATCH(path string, h HandlerFunc, mw ...Middleware)
	DELETE(path string, h HandlerFunc, mw ...Middleware)

	// Route declares a sub-tree under pattern.
	Route(pattern string, fn func(r Router))
	// Use adds middleware to every route declared afterwards in this
	// sub-tree.
	Use(mw ...Middleware)
	// Mount serves a plain http.Handler under pattern.
	Mount(pattern string, h http.Handler)
}

type chiRouter struct {
	mux chi.Router
	app *App
}

func (r *chiRouter) Handle(method, path string, h HandlerFunc, mw ...Middleware) {
	for _, m := range slices.Backward(mw) {
		h = m(h)
	}
	r.mux.Method(method, path, r.app.wrapHandler(h))
}

func (r *chiRouter) GET(path string, h HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodGet, path, h, mw...)
}

func (r *chiRouter) POST(path string, h HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPost, path, h, mw...)
}

func (r *chiRouter) PUT(path string, h HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPut, path, h, mw...)
}

func (r *chiRouter) PATCH(path string, h HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodPatch, path, h, mw...)
}

func (r *chiRouter) DELETE(path string, h HandlerFunc, mw ...Middleware) {
	r.Handle(http.MethodDelete, path, h, mw...)
}

func (r *chiRouter) Route(pattern string, fn func(Router)) {
	r.mux.Route(pattern, func(sub chi.Router) {
		fn(&chiRouter{mux: sub, app: r.app})
	})
}

func (r *chiRouter) Use(mw ...Middleware) {
	for _, m := range mw {
		r.mux.Use(r.app.adaptMiddleware(m))
	}
}

func (r *chiRouter) Mount(pattern string, h http.Handler) {
	r.mux.Mount(pattern, h)
}
