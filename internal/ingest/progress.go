package ingest

import "github.com/google/uuid"

// Phase labels the stage of a load operation a progress event belongs to.
type Phase string

const (
	PhaseReading       Phase = "reading"
	PhaseDownloading   Phase = "downloading"
	PhaseDecompressing Phase = "decompressing"
	PhaseParsing       Phase = "parsing"
	PhaseDone          Phase = "done"
)

// Progress portions of the 0-100 range. Local reads fill 0-60 and hand the
// rest to decompression and parsing; downloads fill 0-80.
const (
	filePortion     = 60
	downloadPortion = 80
)

// Progress is one event in a load operation's stream. Percent is in
// [0,100] and non-decreasing across one operation; TotalBytes is 0 when
// the source does not declare its size.
type Progress struct {
	OpID           uuid.UUID
	Phase          Phase
	Percent        int
	BytesProcessed int64
	TotalBytes     int64
	Status         string
}

// ProgressFunc receives progress events during a load. It is called from
// the loading goroutine; a nil func disables reporting.
type ProgressFunc func(Progress)

// reporter clamps emitted percentages so the stream is monotone even when
// the underlying byte accounting is jumpy.
type reporter struct {
	opID uuid.UUID
	fn   ProgressFunc
	last int
}

func newReporter(fn ProgressFunc) *reporter {
	return &reporter{opID: uuid.New(), fn: fn}
}

func (r *reporter) emit(phase Phase, percent int, processed, total int64, status string) {
	if percent < r.last {
		percent = r.last
	}
	if percent > 100 {
		percent = 100
	}
	r.last = percent
	if r.fn != nil {
		r.fn(Progress{
			OpID:           r.opID,
			Phase:          phase,
			Percent:        percent,
			BytesProcessed: processed,
			TotalBytes:     total,
			Status:         status,
		})
	}
}
