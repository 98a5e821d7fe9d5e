// Package pebblestore keeps favourites and view state in an embedded Pebble
// key-value store.
//
// Keys:
//
//	<prefix>favourites         JSON array of favourite names
//	<prefix>viewstate/<field>  one key per view state field
//
// A view state patch is written as one atomic, synced batch.
package pebblestore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/cockroachdb/pebble"

	"github.com/dmitrymomot/letterpress/pkg/viewstate"
)

var (
	ErrOpenFailed  = errors.New("pebblestore: failed to open database")
	ErrReadFailed  = errors.New("pebblestore: read failed")
	ErrWriteFailed = errors.New("pebblestore: write failed")
)

// Open opens or creates a Pebble database in dir.
func Open(dir string) (*pebble.DB, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	return db, nil
}

// Shutdown returns a shutdown hook that closes db.
func Shutdown(db *pebble.DB) func(context.Context) error {
	return func(context.Context) error {
		return db.Close()
	}
}

// Store is a Pebble-backed state store.
type Store struct {
	db     *pebble.DB
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix namespaces every key.
// Default: none
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a store on an open database.
func New(db *pebble.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) favouritesKey() []byte   { return []byte(s.prefix + "favourites") }
func (s *Store) viewStatePrefix() string { return s.prefix + "viewstate/" }
func (s *Store) fieldKey(f viewstate.Field) []byte {
	return []byte(s.viewStatePrefix() + string(f))
}

// LoadFavourites returns the stored JSON array, or nil when unset.
func (s *Store) LoadFavourites(_ context.Context) ([]byte, error) {
	v, closer, err := s.db.Get(s.favouritesKey())
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}
	defer closer.Close()

	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// SaveFavourites stores ids as a JSON array.
func (s *Store) SaveFavourites(_ context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := s.db.Set(s.favouritesKey(), data, pebble.Sync); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

// LoadViewState scans the view state keys.
func (s *Store) LoadViewState(_ context.Context) (viewstate.State, error) {
	prefix := s.viewStatePrefix()
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefix),
		UpperBound: upperBound([]byte(prefix)),
	})
	if err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}

	state := viewstate.State{}
	for iter.First(); iter.Valid(); iter.Next() {
		f := viewstate.Field(strings.TrimPrefix(string(iter.Key()), prefix))
		if f.Valid() {
			state[f] = string(iter.Value())
		}
	}
	if err := errors.Join(iter.Error(), iter.Close()); err != nil {
		return nil, errors.Join(ErrReadFailed, err)
	}
	return state, nil
}

// UpdateViewState applies patch as one batch.
func (s *Store) UpdateViewState(_ context.Context, patch viewstate.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}

	b := s.db.NewBatch()
	defer b.Close()

	for f, v := range patch {
		var err error
		if v != nil {
			err = b.Set(s.fieldKey(f), []byte(*v), nil)
		} else {
			err = b.Delete(s.fieldKey(f), nil)
		}
		if err != nil {
			return errors.Join(ErrWriteFailed, err)
		}
	}

	if err := b.Commit(pebble.Sync); err != nil {
		return errors.Join(ErrWriteFailed, err)
	}
	return nil
}

// upperBound returns the smallest key greater than every key with prefix.
func upperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
