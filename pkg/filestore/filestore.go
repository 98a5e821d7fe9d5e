// Package filestore keeps favourites and view state in JSON files inside the
// library data directory:
//
//	data/favourites.json   JSON array of favourite template names
//	data/cache.json        view state document
//	data/cache.json.lock   lock file held during read-modify-write
//
// View-state updates take an exclusive flock on the lock file, so several
// processes sharing one data directory never lose each other's fields.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrymomot/letterpress/internal/atomicfile"
	"github.com/dmitrymomot/letterpress/pkg/logger"
	"github.com/dmitrymomot/letterpress/pkg/viewstate"
)

const (
	favouritesFile = "favourites.json"
	viewStateFile  = "cache.json"
	lockFile       = "cache.json.lock"
)

var (
	ErrLockTimeout = errors.New("filestore: timed out waiting for lock")
	ErrIO          = errors.New("filestore: i/o failure")
)

// Store is a file-backed state store.
type Store struct {
	logger      *slog.Logger
	dir         string
	lockTimeout time.Duration
	mu          sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long an update waits for the lock file.
// Default: 5s
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a store in dir. The directory is created on first write.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:         dir,
		lockTimeout: 5 * time.Second,
		logger:      logger.NewNope(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("filestore"))
	return s
}

// LoadFavourites returns the raw favourites file, or nil when it does not
// exist.
func (s *Store) LoadFavourites(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, favouritesFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Join(ErrIO, err)
	}
	return data, nil
}

// SaveFavourites writes ids as a pretty-printed JSON array.
func (s *Store) SaveFavourites(_ context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomicfile.Write(filepath.Join(s.dir, favouritesFile), data); err != nil {
		return errors.Join(ErrIO, err)
	}
	return nil
}

// LoadViewState reads the view state document. A missing file is an empty
// state.
func (s *Store) LoadViewState(_ context.Context) (viewstate.State, error) {
	doc, err := s.readDocument()
	if err != nil {
		return nil, err
	}
	state := viewstate.State{}
	for _, f := range viewstate.Fields() {
		var v *string
		if raw, ok := doc[string(f)]; ok && json.Unmarshal(raw, &v) == nil && v != nil {
			state[f] = *v
		}
	}
	return state, nil
}

// UpdateViewState merges patch into the document under the lock file.
// Cleared fields are written as null; keys the patch does not mention,
// unknown ones included, are kept.
func (s *Store) UpdateViewState(ctx context.Context, patch viewstate.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := s.readDocument()
	if err != nil {
		s.logger.WarnContext(ctx, "view state document unreadable, rewriting", logger.Error(err))
		doc = map[string]json.RawMessage{}
	}

	for f, v := range patch {
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		doc[string(f)] = raw
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := atomicfile.Write(filepath.Join(s.dir, viewStateFile), data); err != nil {
		return errors.Join(ErrIO, err)
	}
	return nil
}

func (s *Store) readDocument() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, viewStateFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, errors.Join(ErrIO, err)
	}

	doc := map[string]json.RawMessage{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	return doc, nil
}

// lock takes an exclusive flock on the lock file, polling until it is free,
// ctx is done or the lock timeout passes.
func (s *Store) lock(ctx context.Context) (func(), error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, errors.Join(ErrIO, err)
	}
	f, err := os.OpenFile(filepath.Join(s.dir, lockFile), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Join(ErrIO, err)
	}

	deadline := time.Now().Add(s.lockTimeout)
	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, syscall.EWOULDBLOCK) {
			f.Close()
			return nil, errors.Join(ErrIO, err)
		}
		if time.Now().After(deadline) {
			f.Close()
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			f.Close()
			return nil, ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}

	return func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		_ = f.Close()
	}, nil
}
