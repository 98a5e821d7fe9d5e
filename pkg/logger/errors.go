package logger

import "errors"

var (
	ErrSentryInit  = errors.New("logger: failed to initialize sentry")
	ErrSentryFlush = errors.New("logger: sentry flush timed out")
)
