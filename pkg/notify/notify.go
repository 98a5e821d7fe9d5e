// Package notify keeps short-lived, non-blocking notices for the user, the
// service-side equivalent of toast messages.
package notify

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Variant is the visual weight of a notice.
type Variant string

const (
	Success Variant = "success"
	Danger  Variant = "danger"
	Info    Variant = "info"
	Warning Variant = "warning"
)

// DefaultLifetime is how long a notice stays active.
const DefaultLifetime = 2200 * time.Millisecond

// Standard messages.
const (
	MsgCopied       = "Copied to clipboard"
	MsgSaved        = "Saved changes"
	MsgCacheCleared = "Cache cleared"
	MsgSent         = "Message sent"
)

// MsgDeleted is the notice for a deleted item.
func MsgDeleted(name string) string {
	return "Deleted “" + name + "”"
}

// Notice is one message shown to the user.
type Notice struct {
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Variant   Variant   `json:"variant"`
}

// Notifier accepts notices.
type Notifier interface {
	Notify(ctx context.Context, variant Variant, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, variant Variant, message string)

func (f NotifierFunc) Notify(ctx context.Context, variant Variant, message string) {
	f(ctx, variant, message)
}

// Nop discards notices.
var Nop Notifier = NotifierFunc(func(context.Context, Variant, string) {})

// Center stores notices until they expire or are dismissed.
// Expired notices are dropped lazily on the next access.
type Center struct {
	now      func() time.Time
	notices  []Notice
	lifetime time.Duration
	limit    int
	mu       sync.Mutex
}

var _ Notifier = (*Center)(nil)

// Option configures a Center.
type Option func(*Center)

// WithLifetime sets how long notices stay active.
// Default: 2200ms
func WithLifetime(d time.Duration) Option {
	return func(c *Center) {
		if d > 0 {
			c.lifetime = d
		}
	}
}

// WithLimit caps the number of active notices; the oldest are dropped first.
// Default: 20
func WithLimit(n int) Option {
	return func(c *Center) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Center) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCenter creates an empty Center.
func NewCenter(opts ...Option) *Center {
	c := &Center{
		now:      time.Now,
		lifetime: DefaultLifetime,
		limit:    20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notify adds a notice. Empty messages are ignored.
func (c *Center) Notify(_ context.Context, variant Variant, message string) {
	if message == "" {
		return
	}
	if variant == "" {
		variant = Info
	}

	now := c.now()
	n := Notice{
		ID:        uuid.NewString(),
		Message:   message,
		Variant:   variant,
		CreatedAt: now,
		ExpiresAt: now.Add(c.lifetime),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(now)
	c.notices = append(c.notices, n)
	if over := len(c.notices) - c.limit; over > 0 {
		c.notices = slices.Delete(c.notices, 0, over)
	}
}

// Active returns the notices that have not expired, oldest first.
func (c *Center) Active() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(c.now())
	return slices.Clone(c.notices)
}

// Dismiss removes a notice and reports whether it was active.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(c.now())
	i := slices.IndexFunc(c.notices, func(n Notice) bool { return n.ID == id })
	if i < 0 {
		return false
	}
	c.notices = slices.Delete(c.notices, i, i+1)
	return true
}

func (c *Center) pruneLocked(now time.Time) {
	c.notices = slices.DeleteFunc(c.notices, func(n Notice) bool {
		return !now.Before(n.ExpiresAt)
	})
}
