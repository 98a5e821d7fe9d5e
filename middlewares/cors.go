package middlewares

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/letterpress/internal"
)

// CORSOption configures CORS.
type CORSOption func(*corsConfig)

type corsConfig struct {
	origins []string
	methods []string
	headers []string
	maxAge  time.Duration
}

// WithAllowOrigins sets the allowed origins. "*" allows any origin.
// Default: "*"
func WithAllowOrigins(origins ...string) CORSOption {
	return func(cfg *corsConfig) {
		if len(origins) > 0 {
			cfg.origins = origins
		}
	}
}

// WithCORSMaxAge sets how long browsers may cache a preflight answer.
// Default: 12h
func WithCORSMaxAge(d time.Duration) CORSOption {
	return func(cfg *corsConfig) {
		cfg.maxAge = d
	}
}

// CORS answers preflight requests and adds CORS headers for allowed
// origins. Requests from other origins pass through without headers.
func CORS(opts ...CORSOption) internal.Middleware {
	cfg := &corsConfig{
		origins: []string{"*"},
		methods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		headers: []string{"Content-Type", "Accept", "X-Request-ID"},
		maxAge:  12 * time.Hour,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	wildcard := slices.Contains(cfg.origins, "*")
	methods := strings.Join(cfg.methods, ", ")
	headers := strings.Join(cfg.headers, ", ")
	maxAge := strconv.Itoa(int(cfg.maxAge.Seconds()))

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			origin := c.Header("Origin")
			if origin == "" || (!wildcard && !slices.Contains(cfg.origins, origin)) {
				return next(c)
			}

			h := c.Response().Header()
			h.Add("Vary", "Origin")
			if wildcard {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			h.Set("Access-Control-Expose-Headers", "X-Request-ID")

			if c.Request().Method != http.MethodOptions {
				return next(c)
			}
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if cfg.maxAge > 0 {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}
