// Package ingest acquires feature-windows artifact bytes from a local file
// or an HTTP source, reverses gzip compression when the payload carries the
// gzip magic bytes, and hands the decoded text to the model parser. Every
// load reports progress through an explicit event stream and fails as a
// whole: no partial document ever escapes.
package ingest

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/saeviz/saeview/internal/metrics"
	"github.com/saeviz/saeview/internal/model"
)

const chunkSize = 64 * 1024

// gzip member header magic, checked against raw bytes rather than any
// transport-declared content encoding, which static hosts routinely get wrong.
var gzipMagic = []byte{0x1f, 0x8b}

// IsGzip reports whether buf starts with the gzip magic pair.
func IsGzip(buf []byte) bool {
	return bytes.HasPrefix(buf, gzipMagic)
}

// Loader performs load operations. The zero value is not usable; construct
// with NewLoader.
type Loader struct {
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Collector
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) { l.client = c }
}

// WithMetrics attaches a collector that records per-phase timings.
func WithMetrics(m *metrics.Collector) Option {
	return func(l *Loader) { l.metrics = m }
}

// NewLoader creates a Loader. A nil logger discards log output.
func NewLoader(logger *slog.Logger, opts ...Option) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Loader{
		client: &http.Client{Timeout: 5 * time.Minute},
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load acquires, decodes, and parses the artifact at source, which is an
// HTTP(S) URL or a local file path. Progress events arrive on fn in
// non-decreasing percent order; the final event is phase "done" at 100 and
// is emitted exactly once, only on success. On failure the returned error
// is one of *TransportError, *DecodeError, *model.ParseError, or
// *model.SchemaError.
func (l *Loader) Load(ctx context.Context, source string, fn ProgressFunc) (*model.Document, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return l.LoadURL(ctx, source, fn)
	}
	return l.LoadFile(ctx, source, fn)
}

// LoadFile reads a local artifact file. The read fills the first 60% of
// the progress range; decompression and parsing fill the rest.
func (l *Loader) LoadFile(ctx context.Context, path string, fn ProgressFunc) (*model.Document, error) {
	rep := newReporter(fn)
	l.logger.Debug("loading artifact", "op", rep.opID, "file", path)

	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		return nil, &TransportError{Source: path, Err: err}
	}
	defer f.Close()

	var total int64
	if fi, err := f.Stat(); err == nil {
		total = fi.Size()
	}
	rep.emit(PhaseReading, 0, 0, total, "Reading file...")

	buf, err := l.readAll(ctx, f, func(received int64) {
		pct := 0
		if total > 0 {
			pct = int(received * filePortion / total)
		}
		rep.emit(PhaseReading, pct, received, total, "Reading file...")
	})
	if err != nil {
		return nil, &TransportError{Source: path, Err: err}
	}
	l.record(PhaseReading, start)

	return l.process(rep, buf, filePortion)
}

// LoadURL fetches an artifact over HTTP GET. The download fills the first
// 80% of the progress range, linearly when the server declares a
// Content-Length and by a bounded logarithmic heuristic otherwise.
func (l *Loader) LoadURL(ctx context.Context, url string, fn ProgressFunc) (*model.Document, error) {
	rep := newReporter(fn)
	l.logger.Debug("loading artifact", "op", rep.opID, "url", url)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &TransportError{Source: url, Err: err}
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &TransportError{Source: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TransportError{
			Source: url,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	rep.emit(PhaseDownloading, 0, 0, total, "Downloading...")

	buf, err := l.readAll(ctx, resp.Body, func(received int64) {
		rep.emit(PhaseDownloading, downloadPercent(received, total), received, total,
			downloadStatus(received, total))
	})
	if err != nil {
		return nil, &TransportError{Source: url, Err: err}
	}
	l.record(PhaseDownloading, start)

	return l.process(rep, buf, downloadPortion)
}

// readAll consumes r chunk by chunk into one contiguous buffer, invoking
// onChunk with the running byte count after every chunk.
func (l *Loader) readAll(ctx context.Context, r io.Reader, onChunk func(int64)) ([]byte, error) {
	var (
		buf      bytes.Buffer
		chunk    = make([]byte, chunkSize)
		received int64
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			received += int64(n)
			onChunk(received)
		}
		if err == io.EOF {
			return buf.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// process reverses compression if present, validates the text encoding,
// and parses the document. base is the percent the acquisition phase
// finished at.
func (l *Loader) process(rep *reporter, buf []byte, base int) (*model.Document, error) {
	text := buf
	if IsGzip(buf) {
		rep.emit(PhaseDecompressing, base, int64(len(buf)), int64(len(buf)), "Decompressing...")
		start := time.Now()
		zr, err := gzip.NewReader(bytes.NewReader(buf))
		if err != nil {
			return nil, &DecodeError{Reason: "malformed gzip stream", Err: err}
		}
		text, err = io.ReadAll(zr)
		if err != nil {
			return nil, &DecodeError{Reason: "malformed gzip stream", Err: err}
		}
		if err := zr.Close(); err != nil {
			return nil, &DecodeError{Reason: "malformed gzip stream", Err: err}
		}
		l.record(PhaseDecompressing, start)
	}
	if !utf8.Valid(text) {
		return nil, &DecodeError{Reason: "payload is not valid UTF-8"}
	}

	rep.emit(PhaseParsing, 90, int64(len(text)), int64(len(text)), "Parsing JSON...")
	start := time.Now()
	doc, err := model.Parse(text)
	if err != nil {
		return nil, err
	}
	l.record(PhaseParsing, start)

	rep.emit(PhaseDone, 100, int64(len(text)), int64(len(text)), "Done")
	l.logger.Info("artifact loaded", "op", rep.opID,
		"features", len(doc.Features), "bytes", len(buf))
	return doc, nil
}

func (l *Loader) record(phase Phase, start time.Time) {
	if l.metrics != nil {
		l.metrics.Record(string(phase), time.Since(start))
	}
}

// downloadPercent maps received bytes into the download band. With a known
// total the mapping is linear; without one it grows logarithmically so the
// indicator still moves.
func downloadPercent(received, total int64) int {
	if total > 0 {
		pct := int(received * downloadPortion / total)
		if pct > downloadPortion {
			pct = downloadPortion
		}
		return pct
	}
	pct := 5 + int(math.Log10(float64(received+1))*15)
	if pct > downloadPortion {
		pct = downloadPortion
	}
	return pct
}

func downloadStatus(received, total int64) string {
	mb := func(n int64) int64 { return n / (1 << 20) }
	if total > 0 {
		return fmt.Sprintf("Downloading... %d MB / %d MB", mb(received), mb(total))
	}
	return fmt.Sprintf("Downloading... %d MB", mb(received))
}
