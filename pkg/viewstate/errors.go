package viewstate

import "errors"

var ErrUnknownField = errors.New("viewstate: unknown field")
