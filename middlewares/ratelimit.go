package middlewares

import (
	"math"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/letterpress/internal"
)

// RateLimitOption configures RateLimit.
type RateLimitOption func(*rateLimiter)

// WithRateLimitKey sets how clients are told apart.
// Default: the remote IP address
func WithRateLimitKey(fn func(internal.Context) string) RateLimitOption {
	return func(l *rateLimiter) {
		if fn != nil {
			l.key = fn
		}
	}
}

// WithRateLimitIdle sets how long an unused client bucket is kept.
// Default: 10m
func WithRateLimitIdle(d time.Duration) RateLimitOption {
	return func(l *rateLimiter) {
		if d > 0 {
			l.idle = d
		}
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	key     func(internal.Context) string
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	swept   time.Time
	mu      sync.Mutex
}

// RateLimit allows each client limit events per second with bursts of
// burst. Rejected requests get 429 with a Retry-After header.
func RateLimit(limit rate.Limit, burst int, opts ...RateLimitOption) internal.Middleware {
	l := &rateLimiter{
		key:     remoteIP,
		buckets: make(map[string]*bucket),
		limit:   limit,
		burst:   max(burst, 1),
		idle:    10 * time.Minute,
	}
	for _, opt := range opts {
		opt(l)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			r := l.get(l.key(c), time.Now()).ReserveN(time.Now(), 1)
			if delay := r.Delay(); delay > 0 {
				r.Cancel()
				c.SetHeader("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				c.LogWarn("rate limit exceeded", "path", c.Request().URL.Path)
				return internal.ErrTooManyRequests("too many requests", internal.WithErrorCode("rate_limited"))
			}
			return next(c)
		}
	}
}

func (l *rateLimiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.swept) > l.idle {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > l.idle {
				delete(l.buckets, k)
			}
		}
		l.swept = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

func remoteIP(c internal.Context) string {
	host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
	if err != nil {
		return c.Request().RemoteAddr
	}
	return host
}
