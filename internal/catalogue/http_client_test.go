// internal/catalogue/http_client_test.go
package catalogue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeCatalogue(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cards/{id}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.PathValue("id") {
		case "toscana":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"id":          7,
				"name":        "Toscana",
				"economy":     12,
				"food":        14,
				"environment": 12,
				"special":     4,
				"total":       33.0,
			})
		case "boom":
			http.Error(w, "internal error", http.StatusInternalServerError)
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTPClientLookup(t *testing.T) {
	var hits atomic.Int64
	ts := newFakeCatalogue(t, &hits)
	c := NewHTTPClient(ts.URL)
	ctx := context.Background()

	stats, err := c.Lookup(ctx, "toscana")
	require.NoError(t, err)
	assert.Equal(t, 12.0, stats.Economy)
	assert.Equal(t, 33.0, stats.Total)

	// The second lookup is served from the cache.
	_, err = c.Lookup(ctx, "toscana")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())

	_, err = c.Lookup(ctx, "atlantis")
	assert.ErrorIs(t, err, ErrUnknownCard)

	_, err = c.Lookup(ctx, "boom")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClientFetchStatsFailsFast(t *testing.T) {
	var hits atomic.Int64
	ts := newFakeCatalogue(t, &hits)
	c := NewHTTPClient(ts.URL)

	deck, err := c.FetchStats(context.Background(), []string{"toscana", "atlantis"})
	assert.ErrorIs(t, err, ErrUnknownCard)
	assert.Nil(t, deck)
}

func TestHTTPClientValidateMembership(t *testing.T) {
	var hits atomic.Int64
	ts := newFakeCatalogue(t, &hits)
	c := NewHTTPClient(ts.URL)
	ctx := context.Background()

	ok, err := c.ValidateMembership(ctx, []string{"toscana"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ValidateMembership(ctx, []string{"toscana", "atlantis"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.ValidateMembership(ctx, []string{"boom"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClientUnreachable(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1")
	_, err := c.Lookup(context.Background(), "toscana")
	assert.ErrorIs(t, err, ErrUnavailable)
}
