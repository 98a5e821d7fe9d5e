package atomicfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/letterpress/internal/atomicfile"
)

func TestWrite(t *testing.T) {
	t.Parallel()

	t.Run("creates parent directories", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "a", "b", "doc.json")
		require.NoError(t, atomicfile.Write(path, []byte(`{"x":1}`)))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, `{"x":1}`, string(raw))

		info, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	})

	t.Run("replaces content and leaves no temp files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path := filepath.Join(dir, "doc.txt")
		require.NoError(t, atomicfile.Write(path, []byte("first version, longer")))
		require.NoError(t, atomicfile.Write(path, []byte("second")))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Equal(t, "second", string(raw))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "doc.txt", entries[0].Name())
	})

	t.Run("fails when the parent is a file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))

		require.Error(t, atomicfile.Write(filepath.Join(blocker, "doc.txt"), []byte("x")))
	})
}
