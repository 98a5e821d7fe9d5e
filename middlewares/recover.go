package middlewares

import (
	"runtime"

	"github.com/dmitrymomot/letterpress/internal"
)

// DefaultStackSize caps the captured stack trace in bytes.
const DefaultStackSize = 4096

// RecoverOption configures Recover.
type RecoverOption func(*recoverConfig)

type recoverConfig struct {
	stackSize    int
	disableStack bool
}

// WithRecoverStackSize sets the stack trace cap.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *recoverConfig) {
		if size > 0 {
			cfg.stackSize = size
		}
	}
}

// WithoutRecoverStack disables stack capture.
func WithoutRecoverStack() RecoverOption {
	return func(cfg *recoverConfig) {
		cfg.disableStack = true
	}
}

// Recover converts a panic into a *PanicError returned to the error
// handler, logging it first.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &recoverConfig{stackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				pe := &PanicError{Value: r}
				if !cfg.disableStack {
					stack := make([]byte, cfg.stackSize)
					pe.Stack = stack[:runtime.Stack(stack, false)]
					c.LogError("panic recovered", "panic", r, "stack", string(pe.Stack))
				} else {
					c.LogError("panic recovered", "panic", r)
				}
				err = pe
			}()
			return next(c)
		}
	}
}
