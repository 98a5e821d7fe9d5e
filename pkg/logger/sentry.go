package logger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds Sentry integration settings.
// An empty DSN disables Sentry.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	Release     string `env:"SENTRY_RELEASE"`
	// OnlyErrors sends error records only; otherwise warnings are kept as Sentry logs too.
	OnlyErrors bool `env:"SENTRY_ONLY_ERRORS" envDefault:"false"`
}

func newSentryHandler(cfg SentryConfig) (slog.Handler, error) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		EnableLogs:  true,
	}); err != nil {
		return nil, errors.Join(ErrSentryInit, err)
	}

	logLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.OnlyErrors {
		logLevels = []slog.Level{slog.LevelError}
	}

	return sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevels,
	}.NewSentryHandler(context.Background()), nil
}

// SentryFlush returns a shutdown hook that delivers buffered Sentry events.
// It is a no-op when Sentry was never initialized.
func SentryFlush(timeout time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if sentry.CurrentHub().Client() == nil {
			return nil
		}
		if deadline, ok := ctx.Deadline(); ok {
			timeout = min(timeout, time.Until(deadline))
		}
		if !sentry.Flush(timeout) {
			return ErrSentryFlush
		}
		return nil
	}
}
