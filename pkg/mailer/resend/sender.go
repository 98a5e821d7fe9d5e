// Package resend sends mailer emails through the Resend API.
package resend

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/letterpress/pkg/mailer"
)

var ErrMissingConfig = errors.New("resend: api key and sender email are required")

// Config holds Resend credentials and the default sender.
type Config struct {
	APIKey      string `env:"RESEND_API_KEY"`
	SenderEmail string `env:"RESEND_FROM_EMAIL"`
	SenderName  string `env:"RESEND_FROM_NAME"`
}

// Enabled reports whether enough is configured to send.
func (c Config) Enabled() bool {
	return c.APIKey != "" && c.SenderEmail != ""
}

// Sender implements mailer.Sender.
type Sender struct {
	client *resend.Client
	config Config
}

var _ mailer.Sender = (*Sender)(nil)

// New creates a Sender.
func New(cfg Config) (*Sender, error) {
	if !cfg.Enabled() {
		return nil, ErrMissingConfig
	}
	return &Sender{client: resend.NewClient(cfg.APIKey), config: cfg}, nil
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if _, err := s.client.Emails.SendWithContext(ctx, s.request(email)); err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	return nil
}

func (s *Sender) request(email *mailer.Email) *resend.SendEmailRequest {
	from := email.From
	if from == "" {
		from = s.config.SenderEmail
		if s.config.SenderName != "" {
			from = fmt.Sprintf("%s <%s>", s.config.SenderName, s.config.SenderEmail)
		}
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Cc:      email.CC,
		Bcc:     email.BCC,
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
	}
	for _, name := range slices.Sorted(maps.Keys(email.Tags)) {
		req.Tags = append(req.Tags, resend.Tag{Name: name, Value: email.Tags[name]})
	}
	return req
}
