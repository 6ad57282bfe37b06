package ingest

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeviz/saeview/internal/model"
)

const artifactJSON = `{
  "meta": {
    "model_path": "test/model", "layer": 3, "sae_release": "rel", "sae_id": "sae",
    "features": [1], "max_examples_per_feature": 10,
    "activation_threshold": 0.25, "min_active_width": 1,
    "max_window_width": 32, "buffer_tokens": 4, "max_tokens_per_turn": 512,
    "filters": {"only_correct": false, "only_with_answers": false,
                "only_selected": false, "turn": "any", "max_attempts": 1}
  },
  "features": {
    "1": {
      "feature_id": 1, "num_examples": 1, "mention_rate": 0.5,
      "nnz_count": 2, "mean_when_active": 0.9,
      "examples": [{
        "feature_id": 1, "score": 1.0, "peak_activation": 0.8,
        "peak_token_index_in_window": 0,
        "problem_id": null, "turn_index": null, "solution_status": null,
        "attempt_answer": null, "reference_answer": null,
        "text": "hi",
        "highlight": {"char_start": 0, "char_end": 2,
                      "max_act_in_highlight": 0.8, "mean_act_in_highlight": 0.8,
                      "active_token_indices": [0]},
        "tokens": [{"i": 0, "token_id": 5, "char_start": 0, "char_end": 2,
                    "token_text": "hi", "act": 0.8}]
      }]
    }
  }
}`

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestIsGzip(t *testing.T) {
	assert.True(t, IsGzip([]byte{0x1f, 0x8b, 0x08}))
	assert.False(t, IsGzip([]byte{0x1f}))
	assert.False(t, IsGzip([]byte(`{"meta": {}}`)))
	assert.False(t, IsGzip(nil))
}

func TestLoadFile_PlainJSON(t *testing.T) {
	path := writeTemp(t, "windows.json", []byte(artifactJSON))

	loader := NewLoader(nil)
	doc, err := loader.LoadFile(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Len(t, doc.Features, 1)
	assert.Equal(t, 0.25, doc.Meta.ActivationThreshold)
}

func TestLoadFile_GzipRoundTrip(t *testing.T) {
	path := writeTemp(t, "windows.json.gz", gzipBytes(t, []byte(artifactJSON)))

	loader := NewLoader(nil)
	doc, err := loader.LoadFile(context.Background(), path, nil)
	require.NoError(t, err)

	plain, err := model.Parse([]byte(artifactJSON))
	require.NoError(t, err)
	assert.Equal(t, plain, doc, "gzip round trip must yield a deep-equal document")
}

func TestLoadFile_NotFound(t *testing.T) {
	loader := NewLoader(nil)
	_, err := loader.LoadFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"), nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestLoadFile_MalformedGzip(t *testing.T) {
	// Gzip magic followed by garbage must fail as a decode error, never
	// silently fall back to treating the bytes as text.
	path := writeTemp(t, "bad.gz", []byte{0x1f, 0x8b, 0xff, 0x00, 0x01})

	loader := NewLoader(nil)
	_, err := loader.LoadFile(context.Background(), path, nil)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestLoadFile_InvalidUTF8(t *testing.T) {
	path := writeTemp(t, "bad.json", []byte{0xff, 0xfe, 0xfd})

	loader := NewLoader(nil)
	_, err := loader.LoadFile(context.Background(), path, nil)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
}

func TestLoadFile_EmptyFeatureMapIsValid(t *testing.T) {
	payload := gzipBytes(t, []byte(`{"meta": {"activation_threshold": 0.1}, "features": {}}`))
	path := writeTemp(t, "empty.json.gz", payload)

	loader := NewLoader(nil)
	doc, err := loader.LoadFile(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Features)
}

func TestLoadURL_StreamedWithContentLength(t *testing.T) {
	payload := gzipBytes(t, []byte(artifactJSON))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// httptest sets Content-Length for fixed-size writes
		w.Write(payload)
	}))
	defer srv.Close()

	loader := NewLoader(nil)
	doc, err := loader.LoadURL(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Len(t, doc.Features, 1)
}

func TestLoadURL_UnknownContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flushing forces chunked transfer, so no Content-Length reaches
		// the client and the heuristic progress path runs.
		flusher := w.(http.Flusher)
		data := []byte(artifactJSON)
		half := len(data) / 2
		w.Write(data[:half])
		flusher.Flush()
		w.Write(data[half:])
	}))
	defer srv.Close()

	var events []Progress
	loader := NewLoader(nil)
	doc, err := loader.LoadURL(context.Background(), srv.URL, func(p Progress) {
		events = append(events, p)
	})
	require.NoError(t, err)
	assert.Len(t, doc.Features, 1)

	require.NotEmpty(t, events)
	for _, ev := range events {
		if ev.Phase == PhaseDownloading {
			assert.Zero(t, ev.TotalBytes, "chunked response should not report a total")
		}
	}
}

func TestLoadURL_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	loader := NewLoader(nil)
	_, err := loader.LoadURL(context.Background(), srv.URL, nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusNotFound, transportErr.Status)
}

func TestLoadURL_ConnectionRefused(t *testing.T) {
	loader := NewLoader(nil)
	_, err := loader.LoadURL(context.Background(), "http://127.0.0.1:1/never", nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Zero(t, transportErr.Status)
}

func TestLoad_ProgressMonotonicAndTerminatesAt100(t *testing.T) {
	sources := map[string]string{
		"file": writeTemp(t, "windows.json.gz", gzipBytes(t, []byte(artifactJSON))),
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(gzipBytes(t, []byte(artifactJSON)))
	}))
	defer srv.Close()
	sources["url"] = srv.URL

	for name, source := range sources {
		t.Run(name, func(t *testing.T) {
			var events []Progress
			loader := NewLoader(nil)
			_, err := loader.Load(context.Background(), source, func(p Progress) {
				events = append(events, p)
			})
			require.NoError(t, err)
			require.NotEmpty(t, events)

			last := -1
			doneCount := 0
			for _, ev := range events {
				assert.GreaterOrEqual(t, ev.Percent, last, "progress must be non-decreasing")
				last = ev.Percent
				if ev.Phase == PhaseDone {
					doneCount++
					assert.Equal(t, 100, ev.Percent)
				}
			}
			assert.Equal(t, 100, last, "progress must terminate at 100")
			assert.Equal(t, 1, doneCount, "done must be emitted exactly once")
		})
	}
}

func TestLoad_SchemaFailurePropagates(t *testing.T) {
	path := writeTemp(t, "bad.json", []byte(`{"meta": {"activation_threshold": 0}, "features": {"1": {"feature_id": 1}}}`))

	loader := NewLoader(nil)
	_, err := loader.Load(context.Background(), path, nil)

	var schemaErr *model.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestLoad_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := writeTemp(t, "windows.json", []byte(artifactJSON))
	loader := NewLoader(nil)
	_, err := loader.Load(ctx, path, nil)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}
