package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/letterpress/pkg/metrics"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := metrics.New()
	r.DocumentComposed()
	r.DocumentComposed()
	r.ViewStateWrite(nil)
	r.ViewStateWrite(errors.New("boom"))
	r.FavouritesSave(nil)
	r.ImageLookup("hit")
	r.Notice("danger")

	body := scrape(t, r.Handler())
	require.Contains(t, body, "letterpress_documents_composed_total 2")
	require.Contains(t, body, `letterpress_viewstate_writes_total{outcome="success"} 1`)
	require.Contains(t, body, `letterpress_viewstate_writes_total{outcome="failure"} 1`)
	require.Contains(t, body, `letterpress_favourites_saves_total{outcome="success"} 1`)
	require.Contains(t, body, `letterpress_image_lookups_total{outcome="hit"} 1`)
	require.Contains(t, body, `letterpress_notices_total{variant="danger"} 1`)
	require.Contains(t, body, "go_goroutines")

	families, err := r.Registry().Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestNilRecorder(t *testing.T) {
	t.Parallel()

	var r *metrics.Recorder
	r.DocumentComposed()
	r.ViewStateWrite(nil)
	r.FavouritesSave(nil)
	r.ImageLookup("miss")
	r.Notice("info")
	require.Nil(t, r.Registry())

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
