// Package middlewares provides the HTTP middleware of the letterpress
// server.
//
// RequestID tags each request with an ID taken from the incoming headers or
// generated as a UUID. Pair it with RequestIDExtractor so every log line of
// the request carries request_id:
//
//	app := internal.New(
//	    internal.WithLogger(log, middlewares.RequestIDExtractor()),
//	    internal.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.AccessLog(),
//	        middlewares.Recover(),
//	        middlewares.CORS(middlewares.WithAllowOrigins("http://localhost:5173")),
//	    ),
//	)
//
// AccessLog writes one line per request with the matched route pattern,
// status, body size and duration.
//
// Recover turns panics into *PanicError values for the error handler.
//
// RateLimit guards expensive routes, such as sending mail, with a token
// bucket per client:
//
//	r.POST("/api/compose/send", h.send, middlewares.RateLimit(rate.Every(time.Second), 5))
package middlewares
