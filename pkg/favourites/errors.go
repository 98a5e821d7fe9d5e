package favourites

import "errors"

var (
	ErrNotLoaded = errors.New("favourites: toggle before load")
	ErrEmptyID   = errors.New("favourites: empty identifier")
)
