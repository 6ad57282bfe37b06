package index

import "sync/atomic"

// Session holds the currently loaded index. Publication is atomic: readers
// either see the previous document in full or the new one in full, never a
// partially loaded state. When overlapping loads race, the last one to
// publish wins; a failed load never publishes and so never disturbs the
// current document.
type Session struct {
	current atomic.Pointer[Index]
}

// Current returns the active index, or nil when nothing has loaded yet.
func (s *Session) Current() *Index {
	return s.current.Load()
}

// Publish replaces the active index in one step. Call only with a fully
// built index from a successful load.
func (s *Session) Publish(ix *Index) {
	s.current.Store(ix)
}
