package filestore_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/letterpress/pkg/favourites"
	"github.com/dmitrymomot/letterpress/pkg/filestore"
	"github.com/dmitrymomot/letterpress/pkg/viewstate"
)

var (
	_ favourites.Store = (*filestore.Store)(nil)
	_ viewstate.Writer = (*filestore.Store)(nil)
)

func TestFavourites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	s := filestore.New(dir)

	data, err := s.LoadFavourites(ctx)
	require.NoError(t, err)
	require.Nil(t, data)

	require.NoError(t, s.SaveFavourites(ctx, []string{"b", "a"}))
	data, err = s.LoadFavourites(ctx)
	require.NoError(t, err)
	require.Equal(t, "[\n  \"b\",\n  \"a\"\n]", string(data))

	require.NoError(t, s.SaveFavourites(ctx, nil))
	data, err = s.LoadFavourites(ctx)
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))
}

func TestFavouritesLegacyMapPassesThrough(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "favourites.json"), []byte(`{"a.txt":true,"b.txt":false}`), 0o644))

	data, err := filestore.New(dir).LoadFavourites(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt"}, favourites.Decode(data).Items())
}

func TestViewState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing file is empty", func(t *testing.T) {
		t.Parallel()

		st, err := filestore.New(t.TempDir()).LoadViewState(ctx)
		require.NoError(t, err)
		require.Empty(t, st)
	})

	t.Run("patch merges and keeps unknown keys", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cache.json"), []byte(`{
			"email_view_last_selected_salutation": "Hi",
			"email_view_last_selected_signature": "Work",
			"window": {"w": 800}
		}`), 0o644))
		s := filestore.New(dir)

		err := s.UpdateViewState(ctx, viewstate.Patch{}.
			Set(viewstate.FieldClosing, "Thanks").
			Clear(viewstate.FieldProfile))
		require.NoError(t, err)

		st, err := s.LoadViewState(ctx)
		require.NoError(t, err)
		require.Equal(t, viewstate.State{
			viewstate.FieldOpening: "Hi",
			viewstate.FieldClosing: "Thanks",
		}, st)

		raw, err := os.ReadFile(filepath.Join(dir, "cache.json"))
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(raw, &doc))
		require.Contains(t, doc, "window")
		require.Contains(t, doc, string(viewstate.FieldProfile))
		require.Nil(t, doc[string(viewstate.FieldProfile)])
	})

	t.Run("corrupt document is rewritten", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cache.json"), []byte("{oops"), 0o644))
		s := filestore.New(dir)

		_, err := s.LoadViewState(ctx)
		require.ErrorIs(t, err, filestore.ErrIO)

		require.NoError(t, s.UpdateViewState(ctx, viewstate.Patch{}.Set(viewstate.FieldOpening, "Hello")))
		st, err := s.LoadViewState(ctx)
		require.NoError(t, err)
		require.Equal(t, viewstate.State{viewstate.FieldOpening: "Hello"}, st)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		t.Parallel()

		err := filestore.New(t.TempDir()).UpdateViewState(ctx, viewstate.Patch{"bogus": viewstate.Value("x")})
		require.ErrorIs(t, err, viewstate.ErrUnknownField)
	})

	t.Run("concurrent writers keep every field", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		a, b := filestore.New(dir), filestore.New(dir)

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Go(func() {
				s, f := a, viewstate.FieldOpening
				if i%2 == 1 {
					s, f = b, viewstate.FieldClosing
				}
				require.NoError(t, s.UpdateViewState(ctx, viewstate.Patch{}.Set(f, "v")))
			})
		}
		wg.Wait()

		st, err := a.LoadViewState(ctx)
		require.NoError(t, err)
		require.Equal(t, viewstate.State{viewstate.FieldOpening: "v", viewstate.FieldClosing: "v"}, st)
	})

	t.Run("lock timeout", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		f, err := os.OpenFile(filepath.Join(dir, "cache.json.lock"), os.O_CREATE|os.O_RDWR, 0o644)
		require.NoError(t, err)
		defer f.Close()
		require.NoError(t, syscall.Flock(int(f.Fd()), syscall.LOCK_EX))

		s := filestore.New(dir, filestore.WithLockTimeout(50*time.Millisecond))
		err = s.UpdateViewState(ctx, viewstate.Patch{}.Set(viewstate.FieldOpening, "Hi"))
		require.ErrorIs(t, err, filestore.ErrLockTimeout)

		require.NoError(t, syscall.Flock(int(f.Fd()), syscall.LOCK_UN))
		require.NoError(t, s.UpdateViewState(ctx, viewstate.Patch{}.Set(viewstate.FieldOpening, "Hi")))
	})
}
