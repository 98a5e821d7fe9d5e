package favourites_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/letterpress/pkg/favourites"
)

func TestSet(t *testing.T) {
	t.Parallel()

	t.Run("zero value is empty", func(t *testing.T) {
		t.Parallel()

		var s favourites.Set
		require.Zero(t, s.Len())
		require.False(t, s.Has("a"))
		require.Empty(t, s.Items())

		data, err := json.Marshal(s)
		require.NoError(t, err)
		require.JSONEq(t, `[]`, string(data))
	})

	t.Run("removes duplicates and keeps insertion order", func(t *testing.T) {
		t.Parallel()

		s := favourites.NewSet("b", "a", "b", "c")
		require.Equal(t, []string{"b", "a", "c"}, s.Items())
	})

	t.Run("equality ignores order", func(t *testing.T) {
		t.Parallel()

		require.True(t, favourites.NewSet("a", "b").Equal(favourites.NewSet("b", "a")))
		require.False(t, favourites.NewSet("a").Equal(favourites.NewSet("a", "b")))
		require.False(t, favourites.NewSet("a", "c").Equal(favourites.NewSet("a", "b")))
	})

	t.Run("marshals as canonical array", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(favourites.NewSet("x", "y"))
		require.NoError(t, err)
		require.JSONEq(t, `["x","y"]`, string(data))
	})

	t.Run("items are a copy", func(t *testing.T) {
		t.Parallel()

		s := favourites.NewSet("a")
		items := s.Items()
		items[0] = "changed"
		require.True(t, s.Has("a"))
		require.Equal(t, []string{"a"}, s.Items())
	})
}

func TestToggle(t *testing.T) {
	t.Parallel()

	t.Run("adds absent identifier at the end", func(t *testing.T) {
		t.Parallel()

		s := favourites.Toggle(favourites.NewSet("a"), "b")
		require.Equal(t, []string{"a", "b"}, s.Items())
	})

	t.Run("removes present identifier", func(t *testing.T) {
		t.Parallel()

		s := favourites.Toggle(favourites.NewSet("a", "b"), "a")
		require.Equal(t, []string{"b"}, s.Items())
	})

	t.Run("does not modify the input", func(t *testing.T) {
		t.Parallel()

		in := favourites.NewSet("a")
		_ = favourites.Toggle(in, "a")
		_ = favourites.Toggle(in, "b")
		require.Equal(t, []string{"a"}, in.Items())
	})

	t.Run("round trip restores the set", func(t *testing.T) {
		t.Parallel()

		sets := []favourites.Set{
			{},
			favourites.NewSet("a"),
			favourites.NewSet("a", "b", "c"),
		}
		for _, s := range sets {
			for _, id := range []string{"a", "b", "z"} {
				back := favourites.Toggle(favourites.Toggle(s, id), id)
				require.True(t, back.Equal(s), "set %v id %q", s.Items(), id)
			}
		}
	})

	t.Run("even number of toggles is a no-op", func(t *testing.T) {
		t.Parallel()

		s := favourites.NewSet("a")
		for range 4 {
			s = favourites.Toggle(s, "x")
		}
		require.True(t, s.Equal(favourites.NewSet("a")))
	})
}
