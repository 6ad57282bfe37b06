package server

import (
	"bytes"
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeviz/saeview/internal/metrics"
)

func newTestServer(t *testing.T) (*httptest.Server, string, *metrics.Collector) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	collector := metrics.NewCollector()
	srv := httptest.NewServer(New(dir, logger, collector).Handler())
	t.Cleanup(srv.Close)
	return srv, dir, collector
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServeArtifactWithContentLength(t *testing.T) {
	srv, dir, collector := newTestServer(t)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`{"meta": {"activation_threshold": 0}, "features": {}}`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	payload := buf.Bytes()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "windows.json.gz"), payload, 0644))

	resp, err := http.Get(srv.URL + "/data/windows.json.gz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(len(payload)), resp.ContentLength, "server must declare Content-Length")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// Compressed bytes must arrive verbatim: magic-byte detection happens
	// client-side, not via transport negotiation.
	assert.Equal(t, payload, body)

	assert.Equal(t, int64(len(payload)), collector.Snapshot().Bytes)
}

func TestServeArtifactNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/data/missing.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatsEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "uptime_seconds")
}

func TestRateLimit(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var limited bool
	for range clientBurst * 2 {
		resp, err := http.Get(srv.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited, "burst of requests should trip the rate limiter")
}
