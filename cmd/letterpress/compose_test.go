package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/letterpress"
	"github.com/dmitrymomot/letterpress/pkg/compose"
	"github.com/dmitrymomot/letterpress/pkg/filestore"
	"github.com/dmitrymomot/letterpress/pkg/images"
	"github.com/dmitrymomot/letterpress/pkg/library"
)

func newComposeEnv(t *testing.T) (*letterpress.Service, *library.Library) {
	t.Helper()

	lib := library.New(t.TempDir())
	require.NoError(t, lib.Layout().EnsureDirs())
	svc := letterpress.New(letterpress.NewBackend(
		filestore.New(lib.Layout().DataDir()),
		images.NewDirResolver(lib.Layout().ImagesDir()),
	))
	return svc, lib
}

func TestRunCompose(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("plain from flags", func(t *testing.T) {
		t.Parallel()

		svc, lib := newComposeEnv(t)
		var out bytes.Buffer
		err := runCompose(ctx, nil, &out, composeFlags{
			opening: "Hi,", recipient: "Alex", body: "See attached.", closing: "Bye", format: formatPlain,
		}, svc, lib)
		require.NoError(t, err)
		require.Equal(t, "Hi Alex,\n\nSee attached.\n\nBye,\n", out.String())
	})

	t.Run("body from stdin", func(t *testing.T) {
		t.Parallel()

		svc, lib := newComposeEnv(t)
		var out bytes.Buffer
		err := runCompose(ctx, strings.NewReader("a < b\n"), &out, composeFlags{bodyFile: "-", format: formatHTML}, svc, lib)
		require.NoError(t, err)
		require.Contains(t, out.String(), "a &lt; b")
	})

	t.Run("template and profile from library", func(t *testing.T) {
		t.Parallel()

		svc, lib := newComposeEnv(t)
		_, err := lib.SaveTemplate(ctx, library.Template{Name: "Weekly", Subject: "Weekly", Content: "Numbers below."})
		require.NoError(t, err)
		_, err = lib.SaveProfile(ctx, library.ProfileFile{SignatureName: "Work", Name: "Alex Doe", Company: "Acme"})
		require.NoError(t, err)

		var out bytes.Buffer
		err = runCompose(ctx, nil, &out, composeFlags{template: "Weekly", profile: "Work", format: formatJSON}, svc, lib)
		require.NoError(t, err)

		var doc compose.Document
		require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
		require.True(t, strings.HasPrefix(doc.Plain, "Numbers below."))
		require.Contains(t, doc.Plain, "Alex Doe")
		require.Contains(t, doc.HTML, "Acme")
	})

	t.Run("profile file", func(t *testing.T) {
		t.Parallel()

		svc, lib := newComposeEnv(t)
		path := filepath.Join(t.TempDir(), "p.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"name":"Sam","position":"Lead"}`), 0o644))

		var out bytes.Buffer
		err := runCompose(ctx, nil, &out, composeFlags{body: "Hello", profileFile: path, format: formatPreview}, svc, lib)
		require.NoError(t, err)
		require.Contains(t, out.String(), "Sam")
		require.NotContains(t, out.String(), "<script")
	})

	t.Run("errors", func(t *testing.T) {
		t.Parallel()

		svc, lib := newComposeEnv(t)
		err := runCompose(ctx, nil, &bytes.Buffer{}, composeFlags{format: "pdf"}, svc, lib)
		require.ErrorContains(t, err, "unknown format")

		err = runCompose(ctx, nil, &bytes.Buffer{}, composeFlags{template: "missing", format: formatPlain}, svc, lib)
		require.ErrorIs(t, err, library.ErrTemplateNotFound)

		err = runCompose(ctx, nil, &bytes.Buffer{}, composeFlags{profile: "missing", format: formatPlain}, svc, lib)
		require.ErrorIs(t, err, library.ErrProfileNotFound)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("STATE_BACKEND", "sqlite")
	t.Setenv("LIBRARY_ROOT", "/srv/letters")

	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, backendSQLite, cfg.Backend)
	require.Equal(t, filepath.Join("/srv/letters", "data", "letterpress.db"), cfg.sqlitePath())
	require.Equal(t, "letterpress_migrations", cfg.DB.MigrationsTable)
	require.Equal(t, imagesDir, cfg.ImageSource)

	t.Setenv("STATE_BACKEND", "mongo")
	_, err = loadConfig("")
	require.ErrorContains(t, err, "STATE_BACKEND")
}
