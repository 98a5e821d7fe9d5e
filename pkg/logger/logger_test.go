package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/letterpress/pkg/logger"
)

type traceKey struct{}

func traceExtractor(ctx context.Context) (slog.Attr, bool) {
	if v, ok := ctx.Value(traceKey{}).(string); ok && v != "" {
		return slog.String("trace", v), true
	}
	return slog.Attr{}, false
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	t.Run("adds extracted attributes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithWriter(&buf, logger.Config{Level: "info"}, traceExtractor, nil)

		ctx := context.WithValue(context.Background(), traceKey{}, "abc")
		log.InfoContext(ctx, "hello", logger.Component("test"))

		line := decodeLine(t, &buf)
		require.Equal(t, "hello", line["msg"])
		require.Equal(t, "abc", line["trace"])
		require.Equal(t, "test", line["component"])
	})

	t.Run("respects level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithWriter(&buf, logger.Config{Level: "warn"})
		log.Info("dropped")
		require.Zero(t, buf.Len())

		log.Warn("kept")
		require.Equal(t, "kept", decodeLine(t, &buf)["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithWriter(&buf, logger.Config{Format: "text"})
		log.Info("plain")
		require.Contains(t, buf.String(), "msg=plain")
	})
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, logger.ParseLevel("nonsense"))
}

func TestError(t *testing.T) {
	t.Parallel()

	require.Equal(t, "boom", logger.Error(errors.New("boom")).Value.String())
	require.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestSentryFlush_NotInitialized(t *testing.T) {
	t.Parallel()

	require.NoError(t, logger.SentryFlush(0)(context.Background()))
}
