package viewstate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/letterpress/pkg/logger"
)

// Writer applies a patch to the stored view state with merge semantics.
type Writer interface {
	UpdateViewState(ctx context.Context, patch Patch) error
}

// Policy decides what a burst of schedules sends.
type Policy uint8

const (
	// LatestOnly sends the last patch of a burst; earlier ones are dropped.
	LatestOnly Policy = iota
	// Coalesce merges every patch of a burst, later values winning.
	Coalesce
)

type phase uint8

const (
	idle phase = iota
	pending
)

// Synchronizer debounces view-state writes.
//
// It is a two-state machine. Schedule moves it to pending, cancelling any
// earlier timer and starting a new quiet period. When a quiet period ends
// without another Schedule, one write is issued and the machine returns to
// idle. Writes are not awaited: a new quiet period may start while the
// previous write is still in flight.
type Synchronizer struct {
	writer   Writer
	opts     *options
	timer    *time.Timer
	patch    Patch
	deadline time.Time
	inflight sync.WaitGroup
	mu       sync.Mutex
	gen      uint64
	phase    phase
	closed   bool
}

// NewSynchronizer creates an idle Synchronizer writing to w.
func NewSynchronizer(w Writer, opts ...Option) *Synchronizer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Synchronizer{writer: w, opts: o}
}

// Schedule records patch and restarts the quiet period.
// Unknown fields are dropped. Calls after Close are ignored.
func (s *Synchronizer) Schedule(patch Patch) {
	patch = known(patch)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.opts.logger.Warn("view-state update scheduled after close", slog.Int("fields", len(patch)))
		return
	}

	if s.phase == pending && s.opts.policy == Coalesce {
		s.patch = s.patch.Merge(patch)
	} else {
		s.patch = patch
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.phase = pending
	s.deadline = time.Now().Add(s.opts.quiet)
	s.timer = time.AfterFunc(s.opts.quiet, func() { s.fire(gen) })
}

// Pending returns the patch waiting for its quiet period to end and the
// time it is due. ok is false when the synchronizer is idle.
func (s *Synchronizer) Pending() (patch Patch, deadline time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != pending {
		return nil, time.Time{}, false
	}
	return s.patch.Clone(), s.deadline, true
}

// Flush writes the pending patch now, if any, and waits for that write.
func (s *Synchronizer) Flush(ctx context.Context) error {
	s.mu.Lock()
	patch, ok := s.takeLocked()
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.write(ctx, patch)
}

// Close flushes the pending patch and waits for in-flight writes.
// Later calls to Schedule are ignored.
func (s *Synchronizer) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	patch, ok := s.takeLocked()
	s.mu.Unlock()

	var err error
	if ok {
		err = s.write(ctx, patch)
	}

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// fire runs on the timer goroutine. A stale generation means the timer was
// superseded after it had already started.
func (s *Synchronizer) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.phase != pending {
		s.mu.Unlock()
		return
	}
	patch, _ := s.takeLocked()
	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()
	_ = s.write(context.Background(), patch)
}

// takeLocked moves the machine to idle and returns the pending patch.
func (s *Synchronizer) takeLocked() (Patch, bool) {
	if s.phase != pending {
		return nil, false
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	patch := s.patch
	s.patch = nil
	s.phase = idle
	s.deadline = time.Time{}
	s.gen++
	return patch, true
}

func (s *Synchronizer) write(ctx context.Context, patch Patch) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.writeTimeout)
	defer cancel()

	err := s.writer.UpdateViewState(ctx, patch)
	if s.opts.onWrite != nil {
		s.opts.onWrite(patch, err)
	}
	if err != nil {
		s.opts.logger.ErrorContext(ctx, "failed to update view state",
			slog.Any("fields", patch.Fields()),
			logger.Error(err),
		)
		return err
	}
	s.opts.logger.DebugContext(ctx, "view state updated", slog.Any("fields", patch.Fields()))
	return nil
}

func known(p Patch) Patch {
	out := make(Patch, len(p))
	for f, v := range p {
		if f.Valid() {
			out[f] = v
		}
	}
	return out
}

// DefaultQuietPeriod is the debounce window used when none is configured.
const DefaultQuietPeriod = 300 * time.Millisecond

type options struct {
	logger       *slog.Logger
	onWrite      func(Patch, error)
	quiet        time.Duration
	writeTimeout time.Duration
	policy       Policy
}

// Option configures a Synchronizer.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:       logger.NewNope(),
		quiet:        DefaultQuietPeriod,
		writeTimeout: 10 * time.Second,
		policy:       LatestOnly,
	}
}

// WithQuietPeriod sets the debounce window.
// Default: 300ms
func WithQuietPeriod(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.quiet = d
		}
	}
}

// WithWriteTimeout bounds each backend write.
// Default: 10 seconds
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

// WithCoalesce merges all patches of a burst instead of keeping only the last.
func WithCoalesce() Option {
	return func(o *options) {
		o.policy = Coalesce
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.With(logger.Component("viewstate"))
		}
	}
}

// WithWriteHook is called after every write attempt with the patch and result.
func WithWriteHook(fn func(Patch, error)) Option {
	return func(o *options) {
		o.onWrite = fn
	}
}
