package letterpress

import "errors"

var ErrNotStarted = errors.New("letterpress: service not started")
