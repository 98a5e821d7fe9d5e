package letterpress

import (
	"context"

	"github.com/dmitrymomot/letterpress/pkg/favourites"
	"github.com/dmitrymomot/letterpress/pkg/images"
	"github.com/dmitrymomot/letterpress/pkg/viewstate"
)

// StateStore persists favourites and view state.
// Every package under pkg/*store implements it.
type StateStore interface {
	favourites.Store
	viewstate.Writer
	LoadViewState(ctx context.Context) (viewstate.State, error)
}

// Backend is everything the service reads from and writes to.
type Backend interface {
	StateStore
	images.Resolver
}

type backend struct {
	StateStore
	images.Resolver
}

// NewBackend joins a state store with an image resolver.
// A nil resolver resolves nothing.
func NewBackend(state StateStore, resolver images.Resolver) Backend {
	if resolver == nil {
		resolver = images.ResolverFunc(func(context.Context, string) (images.Payload, error) {
			return images.Payload{}, images.ErrNotFound
		})
	}
	return backend{StateStore: state, Resolver: resolver}
}
