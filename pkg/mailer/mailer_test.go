package mailer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/letterpress/pkg/compose"
	"github.com/dmitrymomot/letterpress/pkg/logger"
	"github.com/dmitrymomot/letterpress/pkg/mailer"
)

type captureSender struct {
	err  error
	sent []*mailer.Email
}

func (c *captureSender) Send(_ context.Context, email *mailer.Email) error {
	c.sent = append(c.sent, email)
	return c.err
}

var doc = compose.Document{HTML: "<div>Hi</div>", Plain: "Hi"}

func TestDeliver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("subject precedence", func(t *testing.T) {
		t.Parallel()

		s := &captureSender{}
		m := mailer.New(s, mailer.Config{FallbackSubject: "Message"})

		require.NoError(t, m.Deliver(ctx, mailer.Message{To: []string{"sam@example.com"}, Document: doc, Subject: "Explicit", TemplateSubject: "Template"}))
		require.NoError(t, m.Deliver(ctx, mailer.Message{To: []string{"sam@example.com"}, Document: doc, TemplateSubject: "Template"}))
		require.NoError(t, m.Deliver(ctx, mailer.Message{To: []string{"sam@example.com"}, Document: doc, Subject: "  "}))

		require.Len(t, s.sent, 3)
		require.Equal(t, "Explicit", s.sent[0].Subject)
		require.Equal(t, "Template", s.sent[1].Subject)
		require.Equal(t, "Message", s.sent[2].Subject)
	})

	t.Run("carries both renderings", func(t *testing.T) {
		t.Parallel()

		s := &captureSender{}
		m := mailer.New(s, mailer.Config{})

		err := m.Deliver(ctx, mailer.Message{
			To:       []string{"Sam Roe <sam@example.com>", " "},
			CC:       []string{"kim@example.com"},
			ReplyTo:  " alex@example.com ",
			Document: doc,
		})
		require.NoError(t, err)

		got := s.sent[0]
		require.Equal(t, []string{`"Sam Roe" <sam@example.com>`}, got.To)
		require.Equal(t, []string{"kim@example.com"}, got.CC)
		require.Equal(t, "alex@example.com", got.ReplyTo)
		require.Equal(t, doc.HTML, got.HTML)
		require.Equal(t, doc.Plain, got.Text)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()

		s := &captureSender{}
		m := mailer.New(s, mailer.Config{})

		require.ErrorIs(t, m.Deliver(ctx, mailer.Message{Document: doc}), mailer.ErrNoRecipient)
		require.ErrorIs(t, m.Deliver(ctx, mailer.Message{To: []string{"not an address"}, Document: doc}), mailer.ErrInvalidRecipient)
		require.ErrorIs(t, m.Deliver(ctx, mailer.Message{To: []string{"a@example.com"}, BCC: []string{"@"}, Document: doc}), mailer.ErrInvalidRecipient)
		require.ErrorIs(t, m.Deliver(ctx, mailer.Message{To: []string{"a@example.com"}}), mailer.ErrNoContent)
		require.Empty(t, s.sent)
	})

	t.Run("sender failure", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		m := mailer.New(&captureSender{err: boom}, mailer.Config{})

		err := m.Deliver(ctx, mailer.Message{To: []string{"a@example.com"}, Document: doc})
		require.ErrorIs(t, err, mailer.ErrSendFailed)
		require.ErrorIs(t, err, boom)
	})
}

func TestLogSender(t *testing.T) {
	t.Parallel()

	require.NoError(t, mailer.LogSender(logger.NewNope()).Send(context.Background(), &mailer.Email{To: []string{"a@example.com"}}))
}
