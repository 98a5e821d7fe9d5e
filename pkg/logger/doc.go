// Package logger builds the service's slog loggers.
//
// Loggers write JSON (or text) to stdout at a configured level. Context
// extractors add request-scoped attributes, such as the request ID, to every
// record logged with a context. When a Sentry DSN is configured, warnings
// and errors are also forwarded to Sentry; errors become Sentry issues.
//
//	log := logger.New(logger.Config{Level: "debug"},
//	    middlewares.RequestIDExtractor(),
//	)
//	log.InfoContext(ctx, "document composed", logger.Component("compose"))
//
// Components that accept an optional logger default to [NewNope].
package logger
