package internal

// Handler owns a set of routes, typically one API resource.
type Handler interface {
	Routes(r Router)
}

// RoutesFunc lets a plain function act as a Handler.
//
// Example:
//
//	internal.WithHandlers(internal.RoutesFunc(func(r internal.Router) {
//	    r.GET("/ping", func(c internal.Context) error {
//	        return c.String(http.StatusOK, "pong")
//	    })
//	}))
type RoutesFunc func(r Router)

func (f RoutesFunc) Routes(r Router) { f(r) }

// HandlerFunc serves one route. A returned error is rendered by the
// ErrorHandler unless the response has already started.
type HandlerFunc func(c Context) error

// Middleware decorates a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler writes the response for an error returned by a handler or
// middleware.
type ErrorHandler func(c Context, err error) error
