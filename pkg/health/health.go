// Package health serves liveness and readiness probes.
//
// Readiness runs every registered check in parallel under one timeout. A
// response is plain text unless the client asks for JSON with
// ?format=json or an Accept header.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/letterpress/pkg/logger"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

var ErrNotWritable = errors.New("health: directory not writable")

// CheckFunc reports whether a dependency is usable.
type CheckFunc func(ctx context.Context) error

// Checks maps check names to checks.
type Checks map[string]CheckFunc

// Response is the aggregated probe result.
type Response struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check is the result of one check.
type Check struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Checker runs a fixed set of checks.
type Checker struct {
	logger  *slog.Logger
	checks  Checks
	timeout time.Duration
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout bounds a whole readiness run.
// Default: 5s
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for failed checks.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewChecker creates a Checker.
func NewChecker(checks Checks, opts ...Option) *Checker {
	c := &Checker{checks: checks, timeout: 5 * time.Second, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes every check in parallel.
func (c *Checker) Run(ctx context.Context) Response {
	if len(c.checks) == 0 {
		return Response{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]Check, len(c.checks))
	)
	for name, check := range c.checks {
		wg.Go(func() {
			start := time.Now()
			res := Check{Status: StatusHealthy}
			if err := check(ctx); err != nil {
				res.Status = StatusUnhealthy
				res.Error = err.Error()
				c.logger.WarnContext(ctx, "health check failed", slog.String("check", name), logger.Error(err))
			}
			res.LatencyMS = time.Since(start).Milliseconds()

			mu.Lock()
			results[name] = res
			mu.Unlock()
		})
	}
	wg.Wait()

	status := StatusHealthy
	for _, r := range results {
		if r.Status == StatusUnhealthy {
			status = StatusUnhealthy
			break
		}
	}
	return Response{Status: status, Checks: results}
}

// LivenessHandler always answers OK while the process runs.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusOK, Response{Status: StatusHealthy})
	}
}

// ReadinessHandler answers 200 when every check passes and 503 otherwise.
func ReadinessHandler(c *Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := c.Run(r.Context())
		status := http.StatusOK
		if resp.Status != StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		respond(w, r, status, resp)
	}
}

// DirWritable checks that dir exists and a file can be created in it.
func DirWritable(dir string) CheckFunc {
	return func(context.Context) error {
		f, err := os.CreateTemp(dir, ".health-*")
		if err != nil {
			return errors.Join(ErrNotWritable, err)
		}
		name := f.Name()
		f.Close()
		return os.Remove(filepath.Clean(name))
	}
}

func respond(w http.ResponseWriter, r *http.Request, status int, resp Response) {
	if r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if status == http.StatusOK {
		_, _ = w.Write([]byte("OK"))
		return
	}
	_, _ = w.Write([]byte("Service Unavailable"))
}
