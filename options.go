package letterpress

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/letterpress/pkg/compose"
	"github.com/dmitrymomot/letterpress/pkg/metrics"
	"github.com/dmitrymomot/letterpress/pkg/notify"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNotifier sets where user-facing notices go.
// Default: notify.Nop
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithMetrics records service activity on r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Service) {
		s.metrics = r
	}
}

// WithComposer replaces the default document composer.
func WithComposer(c *compose.Composer) Option {
	return func(s *Service) {
		if c != nil {
			s.composer = c
		}
	}
}

// WithQuietPeriod sets how long view state must stay unchanged before it is
// written.
// Default: 300ms
func WithQuietPeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.quietPeriod = d
		}
	}
}

// WithCoalescedViewState merges every update of a burst instead of sending
// only the last one.
func WithCoalescedViewState() Option {
	return func(s *Service) {
		s.coalesce = true
	}
}

// WithWriteTimeout bounds each background write to the backend.
// Default: 10s
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// WithImageTimeout bounds profile image resolution during Compose.
// Default: 3s
func WithImageTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.imageTimeout = d
		}
	}
}
