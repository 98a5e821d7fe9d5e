package viewstate_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/letterpress/pkg/viewstate"
)

const quiet = 30 * time.Millisecond

type recordingWriter struct {
	err     error
	patches []viewstate.Patch
	mu      sync.Mutex
}

func (w *recordingWriter) UpdateViewState(_ context.Context, p viewstate.Patch) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.patches = append(w.patches, p.Clone())
	return w.err
}

func (w *recordingWriter) writes() []viewstate.Patch {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]viewstate.Patch(nil), w.patches...)
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.patches)
}

func TestSynchronizer_Debounce(t *testing.T) {
	t.Parallel()

	t.Run("burst sends only the last patch", func(t *testing.T) {
		t.Parallel()

		w := &recordingWriter{}
		s := viewstate.NewSynchronizer(w, viewstate.WithQuietPeriod(quiet))

		p1 := viewstate.Patch{}.Set(viewstate.FieldOpening, "Hello").Set(viewstate.FieldClosing, "Thanks")
		p2 := viewstate.Patch{}.Set(viewstate.FieldOpening, "Hi")
		p3 := viewstate.Patch{}.Set(viewstate.FieldProfile, "Jane")

		s.Schedule(p1)
		s.Schedule(p2)
		s.Schedule(p3)

		require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(3 * quiet)

		writes := w.writes()
		require.Len(t, writes, 1)
		require.Equal(t, p3, writes[0])
		_, hasOpening := writes[0][viewstate.FieldOpening]
		require.False(t, hasOpening, "fields omitted by the last patch are left unchanged")
	})

	t.Run("coalesce merges the burst into one write", func(t *testing.T) {
		t.Parallel()

		w := &recordingWriter{}
		s := viewstate.NewSynchronizer(w, viewstate.WithQuietPeriod(quiet), viewstate.WithCoalesce())

		s.Schedule(viewstate.Patch{}.Set(viewstate.FieldOpening, "Hello").Set(viewstate.FieldClosing, "Thanks"))
		s.Schedule(viewstate.Patch{}.Set(viewstate.FieldOpening, "Hi"))
		s.Schedule(viewstate.Patch{}.Clear(viewstate.FieldClosing).Set(viewstate.FieldProfile, "Jane"))

		require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(3 * quiet)

		writes := w.writes()
		require.Len(t, writes, 1)
		require.Equal(t, viewstate.Patch{
			viewstate.FieldOpening: viewstate.Value("Hi"),
			viewstate.FieldClosing: nil,
			viewstate.FieldProfile: viewstate.Value("Jane"),
		}, writes[0])
	})

	t.Run("separate quiet periods send separate writes", func(t *testing.T) {
		t.Parallel()

		w := &recordingWriter{}
		s := viewstate.NewSynchronizer(w, viewstate.WithQuietPeriod(quiet))

		s.Schedule(viewstate.Patch{}.Set(viewstate.FieldOpening, "Hello"))
		require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 5*time.Millisecond)

		s.Schedule(viewstate.Patch{}.Set(viewstate.FieldClosing, "Thanks"))
		require.Eventually(t, func() bool { return w.count() == 2 }, time.Second, 5*time.Millisecond)

		writes := w.writes()
		require.Len(t, writes[0], 1)
		require.Len(t, writes[1], 1)
		require.Equal(t, "Thanks", *writes[1][viewstate.FieldClosing])
	})

	t.Run("nothing is written before the quiet period ends", func(t *testing.T) {
		t.Parallel()

		w := &recordingWriter{}
		s := viewstate.NewSynchronizer(w, viewstate.WithQuietPeriod(time.Hour))
		s.Schedule(viewstate.Patch{}.Set(viewstate.FieldOpening, "Hello"))

		time.Sleep(20 * time.Millisecond)
		require.Zero(t, w.count())

		p, deadline, ok := s.Pending()
		require.True(t, ok)
		require.Equal(t, "Hello", *p[viewstate.FieldOpening])
		require.True(t, deadline.After(time.Now()))
	})

	t.Run("unknown fields are dropped", func(t *testing.T) {
		t.Parallel()

		w := &recordingWriter{}
		s := viewstate.NewSynchronizer(w, viewstate.WithQuietPeriod(time.Hour))
		s.Schedule(viewstate.Patch{"bogus": viewstate.Value("x")}.Set(viewstate.FieldClosing, "Bye"))

		require.NoError(t, s.Flush(context.Background()))
		writes := w.writes()
		require.Len(t, writes, 1)
		require.Len(t, writes[0], 1)
	})
}

func TestSynchronizer_Flush(t *testing.T) {
	t.Parallel()

	t.Run("writes pending patch immediately and goes idle", func(t *testing.T) {
		t.Parallel()

		w := &recordingWriter{}
		s := viewstate.NewSynchronizer(w, viewstate.WithQuietPeriod(time.Hour))
		s.Schedule(viewstate.Patch{}.Set(viewstate.FieldOpening, "Hello"))

		require.NoError(t, s.Flush(context.Background()))
		require.Equal(t, 1, w.count())

		_, _, ok := s.Pending()
		require.False(t, ok)

		require.NoError(t, s.Flush(context.Background()))
		require.Equal(t, 1, w.count(), "idle flush writes nothing")
	})

	t.Run("returns write error", func(t *testing.T) {
		t.Parallel()

		w := &recordingWriter{err: errors.New("offline")}
		s := viewstate.NewSynchronizer(w, viewstate.WithQuietPeriod(time.Hour))
		s.Schedule(viewstate.Patch{}.Set(viewstate.FieldOpening, "Hello"))

		require.Error(t, s.Flush(context.Background()))
	})
}

func TestSynchronizer_Failure(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{err: errors.New("offline")}

	var (
		mu     sync.Mutex
		failed []viewstate.Patch
	)
	s := viewstate.NewSynchronizer(w,
		viewstate.WithQuietPeriod(quiet),
		viewstate.WithWriteHook(func(p viewstate.Patch, err error) {
			if err != nil {
				mu.Lock()
				failed = append(failed, p)
				mu.Unlock()
			}
		}),
	)

	s.Schedule(viewstate.Patch{}.Set(viewstate.FieldOpening, "Hello"))
	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(5 * quiet)
	require.Equal(t, 1, w.count(), "failed writes are not retried on a schedule")

	s.Schedule(viewstate.Patch{}.Set(viewstate.FieldOpening, "Hello"))
	require.Eventually(t, func() bool { return w.count() == 2 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failed, 2)
}

func TestSynchronizer_Close(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{}
	s := viewstate.NewSynchronizer(w, viewstate.WithQuietPeriod(time.Hour))
	s.Schedule(viewstate.Patch{}.Set(viewstate.FieldProfile, "Jane"))

	require.NoError(t, s.Close(context.Background()))
	require.Equal(t, 1, w.count(), "close flushes the pending patch")

	s.Schedule(viewstate.Patch{}.Set(viewstate.FieldProfile, "Other"))
	_, _, ok := s.Pending()
	require.False(t, ok, "schedule after close is ignored")
}
