package internal

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/letterpress/pkg/logger"
)

// HTTPError is an error with everything needed to render it.
type HTTPError struct {
	// Err is the underlying error. It is logged, never sent.
	Err error
	// Message is the client-facing message.
	Message string
	// ErrorCode is a stable machine-readable code.
	ErrorCode string
	Code      int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates an HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithErrorCode(code string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.ErrorCode = code
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusConflict, message, opts...)
}

func ErrUnprocessable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusUnprocessableEntity, message, opts...)
}

func ErrTooManyRequests(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusTooManyRequests, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

func ErrServiceUnavailable(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message, opts...)
}

func ErrBadGateway(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadGateway, message, opts...)
}

// AsHTTPError finds an HTTPError in err's chain.
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Status    int    `json:"status"`
}

// JSONErrorHandler renders errors as ErrorBody. HTTPErrors keep their code
// and message; anything else becomes a 500 with a generic message.
// requestID may be nil.
func JSONErrorHandler(requestID func(Context) string) ErrorHandler {
	return func(c Context, err error) error {
		he, ok := AsHTTPError(err)
		if !ok {
			he = ErrInternal(http.StatusText(http.StatusInternalServerError), WithError(err))
		}

		attrs := []any{slog.Int("status", he.Code), slog.String("path", c.Request().URL.Path)}
		if he.Err != nil {
			attrs = append(attrs, logger.Error(he.Err))
		}
		if he.Code >= http.StatusInternalServerError {
			c.LogError("request failed", attrs...)
		} else {
			c.LogDebug("request rejected", attrs...)
		}

		body := ErrorBody{Error: ErrorDetail{
			Message: he.Message,
			Code:    he.ErrorCode,
			Status:  he.Code,
		}}
		if requestID != nil {
			body.Error.RequestID = requestID(c)
		}
		return c.JSON(he.Code, body)
	}
}
