package letterpress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/letterpress/pkg/compose"
	"github.com/dmitrymomot/letterpress/pkg/favourites"
	"github.com/dmitrymomot/letterpress/pkg/logger"
	"github.com/dmitrymomot/letterpress/pkg/metrics"
	"github.com/dmitrymomot/letterpress/pkg/notify"
	"github.com/dmitrymomot/letterpress/pkg/viewstate"
)

// Notice texts for failed user-initiated writes.
const (
	MsgFavouriteFailed = "Could not save favourites"
	MsgClearFailed     = "Could not clear cache"
)

// Draft is the set of fragments a document is composed from.
type Draft struct {
	Profile   *compose.Profile `json:"profile,omitempty"`
	Opening   string           `json:"opening"`
	Recipient string           `json:"recipient"`
	Body      string           `json:"body"`
	Closing   string           `json:"closing"`
}

// Service composes documents and keeps favourites and view state in sync
// with a Backend. It is safe for concurrent use.
type Service struct {
	backend      Backend
	logger       *slog.Logger
	notifier     notify.Notifier
	metrics      *metrics.Recorder
	composer     *compose.Composer
	favourites   *favourites.Reconciler
	sync         *viewstate.Synchronizer
	state        viewstate.State
	quietPeriod  time.Duration
	writeTimeout time.Duration
	imageTimeout time.Duration
	mu           sync.RWMutex
	coalesce     bool
	started      bool
}

// New creates a Service. Call Start before using favourites or view state.
func New(b Backend, opts ...Option) *Service {
	s := &Service{
		backend:      b,
		logger:       logger.NewNope(),
		notifier:     notify.Nop,
		composer:     compose.New(),
		state:        viewstate.State{},
		quietPeriod:  viewstate.DefaultQuietPeriod,
		writeTimeout: 10 * time.Second,
		imageTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("service"))

	s.favourites = favourites.NewReconciler(b,
		favourites.WithLogger(s.logger),
		favourites.WithSaveTimeout(s.writeTimeout),
		favourites.WithSaveHook(s.metrics.FavouritesSave),
		favourites.WithFailureHandler(func(ctx context.Context, _ string, _ error) {
			s.Notify(ctx, notify.Danger, MsgFavouriteFailed)
		}),
	)

	syncOpts := []viewstate.Option{
		viewstate.WithLogger(s.logger),
		viewstate.WithQuietPeriod(s.quietPeriod),
		viewstate.WithWriteTimeout(s.writeTimeout),
		viewstate.WithWriteHook(func(_ viewstate.Patch, err error) {
			s.metrics.ViewStateWrite(err)
		}),
	}
	if s.coalesce {
		syncOpts = append(syncOpts, viewstate.WithCoalesce())
	}
	s.sync = viewstate.NewSynchronizer(b, syncOpts...)

	return s
}

// Start loads favourites and view state concurrently. A failed load is
// logged and leaves the corresponding value empty. Calling Start again is
// a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	var state viewstate.State
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.favourites.Load(gctx)
		return nil
	})
	g.Go(func() error {
		st, err := s.backend.LoadViewState(gctx)
		if err != nil {
			s.logger.WarnContext(gctx, "failed to load view state, starting empty", logger.Error(err))
			st = viewstate.State{}
		}
		state = st
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if state == nil {
		state = viewstate.State{}
	}

	s.state = state
	s.started = true
	s.logger.InfoContext(ctx, "service started",
		slog.Int("favourites", s.favourites.Snapshot().Len()),
		slog.Int("view_state_fields", len(state)),
	)
	return nil
}

// Compose renders d. When the profile names an image it is resolved first;
// a resolution failure renders the document without the image.
func (s *Service) Compose(ctx context.Context, d Draft) compose.Document {
	in := compose.Input{
		Opening:   d.Opening,
		Recipient: d.Recipient,
		Body:      d.Body,
		Closing:   d.Closing,
		Profile:   d.Profile,
	}
	if d.Profile != nil && d.Profile.ImageRef != "" {
		in.Image = s.resolveImage(ctx, d.Profile.ImageRef)
	}

	doc := s.composer.Compose(in)
	s.metrics.DocumentComposed()
	return doc
}

func (s *Service) resolveImage(ctx context.Context, ref string) *compose.Image {
	ctx, cancel := context.WithTimeout(ctx, s.imageTimeout)
	defer cancel()

	p, err := s.backend.ResolveImage(ctx, ref)
	if err != nil {
		s.logger.WarnContext(ctx, "profile image unavailable",
			slog.String("ref", ref),
			logger.Error(err),
		)
		return nil
	}
	return &compose.Image{ContentType: p.ContentType, Base64: p.Base64()}
}

// ToggleFavourite flips id and persists the set in the background.
// It reports whether id is a favourite afterwards.
func (s *Service) ToggleFavourite(ctx context.Context, id string) (bool, error) {
	if !s.isStarted() {
		return false, ErrNotStarted
	}
	return s.favourites.Toggle(ctx, id)
}

// IsFavourite reports whether id is a favourite.
func (s *Service) IsFavourite(id string) bool {
	return s.favourites.Has(id)
}

// Favourites returns the favourite identifiers in toggle order.
func (s *Service) Favourites() []string {
	items := s.favourites.Snapshot().Items()
	if items == nil {
		return []string{}
	}
	return items
}

// ScheduleViewStateUpdate applies patch to the in-memory view state and
// schedules a debounced write.
func (s *Service) ScheduleViewStateUpdate(patch viewstate.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.state = s.state.Apply(patch)
	s.mu.Unlock()

	s.sync.Schedule(patch)
	return nil
}

// ViewState returns the loaded view state with scheduled updates applied.
func (s *Service) ViewState() (viewstate.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.state.Apply(nil), nil
}

// ClearViewState writes absence for every known field right away.
// A pending debounced update is sent first so it cannot land afterwards.
func (s *Service) ClearViewState(ctx context.Context) error {
	if !s.isStarted() {
		return ErrNotStarted
	}

	if err := s.sync.Flush(ctx); err != nil {
		s.logger.DebugContext(ctx, "pending view state not flushed before clear", logger.Error(err))
	}

	patch := viewstate.AllCleared()
	err := s.backend.UpdateViewState(ctx, patch)
	s.metrics.ViewStateWrite(err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to clear view state", logger.Error(err))
		s.Notify(ctx, notify.Danger, MsgClearFailed)
		return err
	}

	s.mu.Lock()
	s.state = viewstate.State{}
	s.mu.Unlock()

	s.Notify(ctx, notify.Success, notify.MsgCacheCleared)
	return nil
}

// Notify raises a user-facing notice.
func (s *Service) Notify(ctx context.Context, variant notify.Variant, message string) {
	s.metrics.Notice(string(variant))
	s.notifier.Notify(ctx, variant, message)
}

// Close flushes pending view state and waits for background saves.
func (s *Service) Close(ctx context.Context) error {
	err := s.sync.Close(ctx)

	done := make(chan struct{})
	go func() {
		s.favourites.Wait()
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

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
