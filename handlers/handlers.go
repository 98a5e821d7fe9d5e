package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/dmitrymomot/letterpress"
	"github.com/dmitrymomot/letterpress/internal"
)

// Notice texts for failed user actions.
const (
	MsgSaveFailed   = "Could not save changes"
	MsgDeleteFailed = "Could not delete"
	MsgSendFailed   = "Could not send message"
)

// pathParam returns a URL parameter with percent-escapes decoded.
func pathParam(c internal.Context, name string) string {
	raw := c.Param(name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

// serviceError maps service misuse onto HTTP errors.
func serviceError(err error) error {
	if errors.Is(err, letterpress.ErrNotStarted) {
		return internal.ErrServiceUnavailable("service is starting", internal.WithError(err))
	}
	return err
}

func badBody(err error) error {
	if errors.Is(err, internal.ErrUnsupportedMediaType) {
		return internal.NewHTTPError(http.StatusUnsupportedMediaType, "request body must be JSON",
			internal.WithErrorCode("unsupported_media_type"), internal.WithError(err))
	}
	return internal.ErrBadRequest("invalid request body", internal.WithErrorCode("invalid_body"), internal.WithError(err))
}
