package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger settings.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json or text
	Sentry SentryConfig
}

// New creates a stdout logger. Records are also sent to Sentry when
// cfg.Sentry.DSN is set and the SDK initializes.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg, extractors...)
}

// NewWithWriter is New with an explicit output.
func NewWithWriter(w io.Writer, cfg Config, extractors ...ContextExtractor) *slog.Logger {
	base := newBaseHandler(w, cfg)

	handler := base
	if cfg.Sentry.DSN != "" {
		sentryHandler, err := newSentryHandler(cfg.Sentry)
		if err != nil {
			slog.New(base).Error("sentry disabled", Error(err))
		} else {
			handler = fanout(base, sentryHandler)
		}
	}

	return slog.New(WithExtractors(handler, extractors...))
}

// NewNope creates a logger that discards everything.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Unknown values map to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newBaseHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// Error returns an "error" attribute. A nil error yields an empty attribute,
// which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// Component returns a "component" attribute naming the emitting subsystem.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
