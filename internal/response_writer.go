package internal

import "net/http"

// ResponseWriter remembers the status code and body size of a response so
// error handling can tell whether headers already went out and access logs
// can report what was sent. A request is served by one goroutine, so it is
// not synchronized.
type ResponseWriter struct {
	http.ResponseWriter
	status int
	size   int64
}

// NewResponseWriter wraps w. An existing *ResponseWriter is returned as is.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w}
}

// WriteHeader sends code the first time it is called.
func (w *ResponseWriter) WriteHeader(code int) {
	if w.status != 0 {
		return
	}
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// Status is the status code sent, or 0 while nothing was sent.
func (w *ResponseWriter) Status() int { return w.status }

// Size is the number of body bytes written.
func (w *ResponseWriter) Size() int64 { return w.size }

// Written reports whether the response has started.
func (w *ResponseWriter) Written() bool { return w.status != 0 }

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func (w *ResponseWriter) Flush() {
	if w.status == 0 {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
