package tracking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/evlq/internal/fingerprint"
	"github.com/wonny/evlq/internal/payload"
	"github.com/wonny/evlq/pkg/config"
	"github.com/wonny/evlq/pkg/httputil"
	"github.com/wonny/evlq/pkg/logger"
)

func newHTTPClient(t *testing.T, sourceID string) (*HTTPClient, func() int) {
	t.Helper()
	tr, rec := newTracker(t)
	cfg := &config.Config{Fetch: config.FetchConfig{Timeout: 2 * time.Second}}
	client := NewHTTPClient(tr, httputil.New(cfg, logger.Nop()), sourceID)

	count := func() int {
		got, err := rec.GetRecentFetches(context.Background(), sourceID, 100)
		require.NoError(t, err)
		return len(got)
	}
	return client, count
}

func TestHTTPClient_GetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [{"id": 1}, {"id": 2}]}`))
	}))
	defer server.Close()

	c, count := newHTTPClient(t, "openchargemap")

	resp, err := c.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, payload.KindMap, resp.Payload.Kind())

	assert.True(t, resp.Record.Success)
	assert.Equal(t, 200, resp.Record.StatusCode)
	assert.Equal(t, 2, resp.Record.RowCount)
	assert.Equal(t, server.URL, resp.Record.SourceURL)
	assert.Equal(t, 1, count())
}

func TestHTTPClient_TextFallback(t *testing.T) {
	const body = "station,power\nA,50\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer server.Close()

	c, _ := newHTTPClient(t, "eafo")

	resp, err := c.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, resp.Payload.Equal(payload.String(body)))
	assert.Equal(t, 1, resp.Record.RowCount)
	assert.Equal(t, len(body), resp.Record.DataSizeBytes)
	assert.Equal(t, fingerprint.ContentHash(payload.String(body)), resp.Record.ContentHash)
}

func TestHTTPClient_Non200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "no such area"}`))
	}))
	defer server.Close()

	c, count := newHTTPClient(t, "ons_demographics")

	resp, err := c.Get(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assert.False(t, resp.Record.Success)
	assert.Equal(t, 404, resp.Record.StatusCode)
	assert.Equal(t, "unexpected status 404", resp.Record.ErrorMessage)
	assert.NotEmpty(t, resp.Record.ContentHash)
	assert.Equal(t, 0.0, resp.Record.DataQualityScore)
	assert.Equal(t, 1, count())
}

func TestHTTPClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, count := newHTTPClient(t, "national_grid_eso")

	_, err := c.Get(context.Background(), url)
	require.Error(t, err)
	assert.Equal(t, 1, count())
}

func TestHTTPClient_CancelledNotRecorded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	c, count := newHTTPClient(t, "osm_traffic")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, server.URL)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, count())
}

func TestHTTPClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"records": [1]}`))
	}))
	defer server.Close()

	c, count := newHTTPClient(t, "eurostat")

	resp, err := c.PostJSON(context.Background(), server.URL, map[string]string{"geo": "UK"})
	require.NoError(t, err)
	assert.True(t, resp.Record.Success)
	assert.Equal(t, 1, resp.Record.RowCount)
	assert.Equal(t, 1, count())
}
