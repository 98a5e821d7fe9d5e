package resend

import (
	"testing"

	"github.com/resend/resend-go/v3"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/letterpress/pkg/mailer"
)

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(Config{APIKey: "key"})
	require.ErrorIs(t, err, ErrMissingConfig)

	s, err := New(Config{APIKey: "key", SenderEmail: "alex@example.com"})
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestRequest(t *testing.T) {
	t.Parallel()

	s, err := New(Config{APIKey: "key", SenderEmail: "alex@example.com", SenderName: "Alex"})
	require.NoError(t, err)

	req := s.request(&mailer.Email{
		To:      []string{"sam@example.com"},
		Subject: "Hi",
		HTML:    "<p>Hi</p>",
		Text:    "Hi",
		Tags:    map[string]string{"kind": "draft", "app": "letterpress"},
	})
	require.Equal(t, "Alex <alex@example.com>", req.From)
	require.Equal(t, []string{"sam@example.com"}, req.To)
	require.Equal(t, "<p>Hi</p>", req.Html)
	require.Equal(t, "Hi", req.Text)
	require.Equal(t, []resend.Tag{{Name: "app", Value: "letterpress"}, {Name: "kind", Value: "draft"}}, req.Tags)

	req = s.request(&mailer.Email{From: "other@example.com"})
	require.Equal(t, "other@example.com", req.From)
}
