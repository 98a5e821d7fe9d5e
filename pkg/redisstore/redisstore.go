// Package redisstore keeps favourites and view state in Redis.
//
// Favourites are stored as a JSON array under "<prefix>favourites". View
// state is a hash under "<prefix>viewstate" with one field per known view
// state key; a patch is applied in a single MULTI/EXEC.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/letterpress/pkg/viewstate"
)

// DefaultPrefix namespaces every key.
const DefaultPrefix = "letterpress:"

var ErrCommandFailed = errors.New("redisstore: command failed")

// Store is a Redis-backed state store.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets the key prefix.
// Default: "letterpress:"
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a store on top of client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) favouritesKey() string { return s.prefix + "favourites" }
func (s *Store) viewStateKey() string  { return s.prefix + "viewstate" }

// LoadFavourites returns the stored JSON payload, or nil when unset.
func (s *Store) LoadFavourites(ctx context.Context) ([]byte, error) {
	data, err := s.client.Get(ctx, s.favouritesKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrCommandFailed, err)
	}
	return data, nil
}

// SaveFavourites stores ids as a JSON array.
func (s *Store) SaveFavourites(ctx context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.favouritesKey(), data, 0).Err(); err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	return nil
}

// LoadViewState reads the view state hash.
func (s *Store) LoadViewState(ctx context.Context) (viewstate.State, error) {
	fields, err := s.client.HGetAll(ctx, s.viewStateKey()).Result()
	if err != nil {
		return nil, errors.Join(ErrCommandFailed, err)
	}
	state := viewstate.State{}
	for _, f := range viewstate.Fields() {
		if v, ok := fields[string(f)]; ok {
			state[f] = v
		}
	}
	return state, nil
}

// UpdateViewState sets the values and deletes the absences of patch in one
// transaction.
func (s *Store) UpdateViewState(ctx context.Context, patch viewstate.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}

	key := s.viewStateKey()
	var set []any
	var del []string
	for _, f := range patch.Fields() {
		if v := patch[f]; v != nil {
			set = append(set, string(f), *v)
		} else {
			del = append(del, string(f))
		}
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(set) > 0 {
			pipe.HSet(ctx, key, set...)
		}
		if len(del) > 0 {
			pipe.HDel(ctx, key, del...)
		}
		return nil
	})
	if err != nil {
		return errors.Join(ErrCommandFailed, err)
	}
	return nil
}
