// Package server provides the artifact HTTP server: it exposes a data
// directory of feature-windows files for the viewer's remote load path.
package server

import (
	"log/slog"
	"net/http"

	"github.com/bytedance/sonic/encoder"

	"github.com/saeviz/saeview/internal/metrics"
)

// Server serves artifact files with correct Content-Length headers.
// Compressed artifacts (.gz) are served byte-for-byte so the client's
// magic-byte detection decides decompression, never the transport.
type Server struct {
	dataDir   string
	logger    *slog.Logger
	collector *metrics.Collector
}

// New creates a server over dataDir.
func New(dataDir string, logger *slog.Logger, collector *metrics.Collector) *Server {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Server{dataDir: dataDir, logger: logger, collector: collector}
}

// Handler builds the route table: /data/ for artifacts, /health, and
// /stats with a JSON metrics snapshot.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	files := http.StripPrefix("/data/", http.FileServer(http.Dir(s.dataDir)))
	mux.Handle("/data/", s.countBytes(files))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := encoder.NewStreamEncoder(w).Encode(s.collector.Snapshot()); err != nil {
			s.logger.Warn("encode stats", "error", err)
		}
	})

	return RateLimitMiddleware(s.logger, LoggingMiddleware(s.logger, mux))
}

// countBytes tracks how many artifact bytes the server has handed out.
func (s *Server) countBytes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := &countingWriter{ResponseWriter: w}
		next.ServeHTTP(cw, r)
		s.collector.AddBytes(cw.written)
	})
}

type countingWriter struct {
	http.ResponseWriter
	written int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.ResponseWriter.Write(p)
	w.written += int64(n)
	return n, err
}
