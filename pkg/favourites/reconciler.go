package favourites

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/letterpress/pkg/logger"
)

// Store loads and saves the persisted favourites payload.
type Store interface {
	// LoadFavourites returns the raw stored payload, or nil when nothing is stored.
	LoadFavourites(ctx context.Context) ([]byte, error)
	// SaveFavourites replaces the stored payload with the canonical array.
	SaveFavourites(ctx context.Context, ids []string) error
}

// Reconciler owns the in-memory favourites set of a session and keeps the
// store in step with it.
//
// Toggles update memory first and persist in the background. A failed save
// is logged and reported but never rolled back: memory is the source of
// truth until the next successful load.
type Reconciler struct {
	store     Store
	opts      *options
	set       Set
	wg        sync.WaitGroup
	mu        sync.RWMutex
	saveMu    sync.Mutex
	version   uint64
	persisted uint64 // guarded by saveMu
	loaded    bool
}

// NewReconciler creates a Reconciler backed by store.
// Call Load before Toggle.
func NewReconciler(store Store, opts ...Option) *Reconciler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Reconciler{
		store: store,
		opts:  o,
		set:   NewSet(),
	}
}

// Load reads the stored favourites, replacing the in-memory set.
// A store failure or an unreadable payload leaves the set empty.
func (r *Reconciler) Load(ctx context.Context) Set {
	set := NewSet()

	data, err := r.store.LoadFavourites(ctx)
	switch {
	case err != nil:
		r.opts.logger.WarnContext(ctx, "failed to load favourites, starting empty", logger.Error(err))
	case data != nil:
		var st Stored
		if err := st.UnmarshalJSON(data); err != nil {
			r.opts.logger.WarnContext(ctx, "unreadable favourites payload, starting empty", logger.Error(err))
			break
		}
		set = Normalize(st)
		if st.Shape == ShapeFlags {
			r.opts.logger.InfoContext(ctx, "loaded legacy favourites map", slog.Int("count", set.Len()))
		}
	}

	r.mu.Lock()
	r.set = set
	r.loaded = true
	r.mu.Unlock()

	return NewSet(set.order...)
}

// Toggle flips the membership of id and schedules a save of the whole set.
// It returns whether id is a favourite afterwards.
func (r *Reconciler) Toggle(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, ErrEmptyID
	}

	r.mu.Lock()
	if !r.loaded {
		r.mu.Unlock()
		return false, ErrNotLoaded
	}
	r.set = Toggle(r.set, id)
	r.version++
	member := r.set.Has(id)
	r.mu.Unlock()

	r.persist(ctx, id)
	return member, nil
}

// Has reports whether id is currently a favourite.
func (r *Reconciler) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.Has(id)
}

// Snapshot returns a copy of the current set.
func (r *Reconciler) Snapshot() Set {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return NewSet(r.set.order...)
}

// Wait blocks until all scheduled saves have finished.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

// persist saves the latest snapshot on a background goroutine. Saves run one
// at a time; a save whose snapshot was already written by a later one is skipped.
func (r *Reconciler) persist(ctx context.Context, id string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.saveMu.Lock()
		defer r.saveMu.Unlock()

		r.mu.RLock()
		ids := r.set.Items()
		version := r.version
		r.mu.RUnlock()

		if version <= r.persisted {
			return
		}

		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.saveTimeout)
		defer cancel()

		err := r.store.SaveFavourites(saveCtx, ids)
		if r.opts.onSave != nil {
			r.opts.onSave(err)
		}
		if err != nil {
			r.opts.logger.ErrorContext(ctx, "failed to save favourites",
				slog.String("id", id),
				slog.Int("count", len(ids)),
				logger.Error(err),
			)
			if r.opts.onFailure != nil {
				r.opts.onFailure(saveCtx, id, err)
			}
			return
		}
		r.persisted = version
	}()
}

// options configures a Reconciler.
type options struct {
	logger      *slog.Logger
	onFailure   func(ctx context.Context, id string, err error)
	onSave      func(err error)
	saveTimeout time.Duration
}

// Option configures a Reconciler.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:      logger.NewNope(),
		saveTimeout: 10 * time.Second,
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l.With(logger.Component("favourites"))
		}
	}
}

// WithSaveTimeout bounds each background save.
// Default: 10 seconds
func WithSaveTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.saveTimeout = d
		}
	}
}

// WithFailureHandler is called after a save fails, with the identifier
// whose toggle triggered the save.
func WithFailureHandler(fn func(ctx context.Context, id string, err error)) Option {
	return func(o *options) {
		o.onFailure = fn
	}
}

// WithSaveHook is called after every save attempt with its result.
func WithSaveHook(fn func(err error)) Option {
	return func(o *options) {
		o.onSave = fn
	}
}
