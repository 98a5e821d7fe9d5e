package handlers

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrymomot/letterpress"
	"github.com/dmitrymomot/letterpress/internal"
	"github.com/dmitrymomot/letterpress/middlewares"
	"github.com/dmitrymomot/letterpress/pkg/compose"
	"github.com/dmitrymomot/letterpress/pkg/library"
	"github.com/dmitrymomot/letterpress/pkg/mailer"
	"github.com/dmitrymomot/letterpress/pkg/notify"
	"github.com/dmitrymomot/letterpress/pkg/sanitizer"
)

// draftRequest names its profile from the library or carries one inline.
// profile_data wins when both are given.
type draftRequest struct {
	ProfileData *library.ProfileFile `json:"profile_data,omitempty"`
	Opening     string               `json:"opening"`
	Recipient   string               `json:"recipient"`
	Body        string               `json:"body"`
	Closing     string               `json:"closing"`
	Profile     string               `json:"profile,omitempty"`
}

type sendRequest struct {
	draftRequest
	Subject  string   `json:"subject,omitempty"`
	Template string   `json:"template,omitempty"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	To       []string `json:"to"`
	CC       []string `json:"cc,omitempty"`
	BCC      []string `json:"bcc,omitempty"`
}

type previewResponse struct {
	HTML string `json:"html"`
}

// ComposeHandler renders drafts and delivers them by mail.
type ComposeHandler struct {
	svc       *letterpress.Service
	lib       *library.Library
	mailer    *mailer.Mailer
	sendLimit internal.Middleware
}

// ComposeOption configures a ComposeHandler.
type ComposeOption func(*ComposeHandler)

// WithSendLimit sets the per-client limit on sending.
// Default: 1 per 2s with bursts of 5
func WithSendLimit(limit rate.Limit, burst int) ComposeOption {
	return func(h *ComposeHandler) {
		h.sendLimit = middlewares.RateLimit(limit, burst)
	}
}

// NewComposeHandler creates a ComposeHandler. A nil mailer disables
// sending.
func NewComposeHandler(svc *letterpress.Service, lib *library.Library, m *mailer.Mailer, opts ...ComposeOption) *ComposeHandler {
	h := &ComposeHandler{
		svc:       svc,
		lib:       lib,
		mailer:    m,
		sendLimit: middlewares.RateLimit(rate.Every(2*time.Second), 5),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *ComposeHandler) Routes(r internal.Router) {
	r.Route("/api/compose", func(r internal.Router) {
		r.POST("/", h.compose)
		r.POST("/preview", h.preview)
		r.POST("/send", h.send, h.sendLimit)
	})
}

func (h *ComposeHandler) compose(c internal.Context) error {
	var req draftRequest
	if err := c.BindJSON(&req); err != nil {
		return badBody(err)
	}
	doc, err := h.render(c, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *ComposeHandler) preview(c internal.Context) error {
	var req draftRequest
	if err := c.BindJSON(&req); err != nil {
		return badBody(err)
	}
	doc, err := h.render(c, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, previewResponse{HTML: sanitizer.Preview(doc.HTML)})
}

func (h *ComposeHandler) send(c internal.Context) error {
	if h.mailer == nil {
		return internal.ErrServiceUnavailable("mail delivery is not configured", internal.WithErrorCode("delivery_disabled"))
	}

	var req sendRequest
	if err := c.BindJSON(&req); err != nil {
		return badBody(err)
	}
	doc, err := h.render(c, req.draftRequest)
	if err != nil {
		return err
	}

	msg := mailer.Message{
		Document: doc,
		Subject:  req.Subject,
		ReplyTo:  req.ReplyTo,
		To:       req.To,
		CC:       req.CC,
		BCC:      req.BCC,
	}
	if req.Template != "" {
		tpl, err := h.lib.Template(c, req.Template)
		if err != nil {
			if errors.Is(err, library.ErrTemplateNotFound) {
				return internal.ErrNotFound("template not found", internal.WithError(err))
			}
			return err
		}
		msg.TemplateSubject = tpl.Subject
	}

	err = h.mailer.Deliver(c, msg)
	switch {
	case err == nil:
		h.svc.Notify(c, notify.Success, notify.MsgSent)
		return c.JSON(http.StatusAccepted, map[string]string{"status": "sent"})
	case errors.Is(err, mailer.ErrNoRecipient), errors.Is(err, mailer.ErrInvalidRecipient), errors.Is(err, mailer.ErrNoContent):
		return internal.ErrUnprocessable(err.Error(), internal.WithError(err))
	default:
		h.svc.Notify(c, notify.Danger, MsgSendFailed)
		return internal.ErrBadGateway("message could not be sent", internal.WithError(err))
	}
}

// render resolves the draft's profile and composes it.
func (h *ComposeHandler) render(c internal.Context, req draftRequest) (compose.Document, error) {
	draft := letterpress.Draft{
		Opening:   req.Opening,
		Recipient: req.Recipient,
		Body:      req.Body,
		Closing:   req.Closing,
	}

	switch {
	case req.ProfileData != nil:
		draft.Profile = req.ProfileData.ToProfile()
	case req.Profile != "":
		p, err := h.lib.Profile(c, req.Profile)
		if err != nil {
			if errors.Is(err, library.ErrProfileNotFound) {
				return compose.Document{}, internal.ErrNotFound("profile not found", internal.WithError(err))
			}
			return compose.Document{}, err
		}
		draft.Profile = p.ToProfile()
	}

	return h.svc.Compose(c, draft), nil
}
