// Package mailer delivers composed documents as email, HTML with a plain
// text alternative, through a pluggable Sender.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/dmitrymomot/letterpress/pkg/compose"
	"github.com/dmitrymomot/letterpress/pkg/logger"
)

var (
	ErrNoRecipient      = errors.New("mailer: at least one recipient is required")
	ErrInvalidRecipient = errors.New("mailer: invalid recipient address")
	ErrNoContent        = errors.New("mailer: document is empty")
	ErrSendFailed       = errors.New("mailer: failed to send email")
)

// Config holds mailer settings.
type Config struct {
	FallbackSubject string `env:"MAILER_FALLBACK_SUBJECT" envDefault:"Message"`
}

// Email is a fully prepared message handed to a Sender.
type Email struct {
	Tags    map[string]string
	Subject string
	HTML    string
	Text    string
	From    string
	ReplyTo string
	To      []string
	CC      []string
	BCC     []string
}

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, email *Email) error

func (f SenderFunc) Send(ctx context.Context, email *Email) error {
	return f(ctx, email)
}

// LogSender logs messages instead of sending them. Used when no mail
// provider is configured.
func LogSender(log *slog.Logger) Sender {
	return SenderFunc(func(ctx context.Context, email *Email) error {
		log.InfoContext(ctx, "email not sent, no provider configured",
			slog.Any("to", email.To),
			slog.String("subject", email.Subject),
			slog.Int("html_bytes", len(email.HTML)),
		)
		return nil
	})
}

// Message is a composed document addressed to recipients.
type Message struct {
	Document        compose.Document
	Subject         string // explicit subject, wins over everything else
	TemplateSubject string // subject from the template frontmatter
	ReplyTo         string
	To              []string
	CC              []string
	BCC             []string
}

// Mailer turns messages into emails.
type Mailer struct {
	sender Sender
	logger *slog.Logger
	config Config
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mailer) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Mailer.
func New(sender Sender, cfg Config, opts ...Option) *Mailer {
	m := &Mailer{sender: sender, config: cfg, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("mailer"))
	return m
}

// Deliver validates msg and sends it.
// Subject resolution: msg.Subject, then msg.TemplateSubject, then the
// configured fallback.
func (m *Mailer) Deliver(ctx context.Context, msg Message) error {
	email, err := m.build(msg)
	if err != nil {
		return err
	}

	if err := m.sender.Send(ctx, email); err != nil {
		m.logger.ErrorContext(ctx, "delivery failed", slog.Any("to", email.To), logger.Error(err))
		return errors.Join(ErrSendFailed, err)
	}

	m.logger.InfoContext(ctx, "email delivered", slog.Any("to", email.To))
	return nil
}

func (m *Mailer) build(msg Message) (*Email, error) {
	to, err := addresses(msg.To)
	if err != nil {
		return nil, err
	}
	if len(to) == 0 {
		return nil, ErrNoRecipient
	}
	cc, err := addresses(msg.CC)
	if err != nil {
		return nil, err
	}
	bcc, err := addresses(msg.BCC)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.Document.HTML) == "" && strings.TrimSpace(msg.Document.Plain) == "" {
		return nil, ErrNoContent
	}

	subject := firstNonBlank(msg.Subject, msg.TemplateSubject, m.config.FallbackSubject)

	return &Email{
		To:      to,
		CC:      cc,
		BCC:     bcc,
		ReplyTo: strings.TrimSpace(msg.ReplyTo),
		Subject: subject,
		HTML:    msg.Document.HTML,
		Text:    msg.Document.Plain,
	}, nil
}

func addresses(list []string) ([]string, error) {
	out := make([]string, 0, len(list))
	for _, raw := range list {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRecipient, raw)
		}
		if addr.Name == "" {
			out = append(out, addr.Address)
		} else {
			out = append(out, addr.String())
		}
	}
	return out, nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
