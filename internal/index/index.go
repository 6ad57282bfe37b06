// Package index provides read-only queries over a loaded feature-windows
// document: sorted feature listings, id filtering, and per-feature example
// ordering. All queries are pure reads over the immutable document and are
// safe to call concurrently.
package index

import (
	"sort"
	"strconv"
	"strings"

	"github.com/saeviz/saeview/internal/model"
)

// SortKey selects the summary statistic used to order features.
type SortKey string

const (
	SortMentionRate    SortKey = "mention_rate"
	SortMeanWhenActive SortKey = "mean_when_active"
	SortMeanAll        SortKey = "mean_all"
)

// ExampleSortKey selects the field used to order a feature's examples.
type ExampleSortKey string

const (
	SortScore   ExampleSortKey = "score"
	SortMeanAct ExampleSortKey = "mean_act"
)

// Index wraps a validated document and answers read queries without
// re-validating. Entries are held in ascending feature-id order so that
// every derived listing starts from a deterministic base order.
type Index struct {
	doc     *model.Document
	entries []*model.FeatureEntry
}

// New builds an Index over doc. The document must come from model.Parse;
// its invariants are assumed, not re-checked.
func New(doc *model.Document) *Index {
	entries := make([]*model.FeatureEntry, 0, len(doc.Features))
	for _, e := range doc.Features {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FeatureID < entries[j].FeatureID
	})
	return &Index{doc: doc, entries: entries}
}

// Meta returns the document-level configuration.
func (ix *Index) Meta() model.Meta { return ix.doc.Meta }

// Len returns the number of features in the document.
func (ix *Index) Len() int { return len(ix.entries) }

// ListFeatures returns the feature entries sorted descending by the given
// statistic. Entries lacking the statistic sort as zero rather than being
// excluded; ties keep their ascending-id base order.
func (ix *Index) ListFeatures(key SortKey) []*model.FeatureEntry {
	out := make([]*model.FeatureEntry, len(ix.entries))
	copy(out, ix.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return statValue(out[i], key) > statValue(out[j], key)
	})
	return out
}

// FilterFeatures returns the ListFeatures ordering restricted to features
// whose decimal id contains query as a substring. An empty query passes
// everything through.
func (ix *Index) FilterFeatures(key SortKey, query string) []*model.FeatureEntry {
	sorted := ix.ListFeatures(key)
	if query == "" {
		return sorted
	}
	out := sorted[:0]
	for _, e := range sorted {
		if strings.Contains(strconv.Itoa(e.FeatureID), query) {
			out = append(out, e)
		}
	}
	return out
}

// GetFeature returns the entry for id, or false if the document does not
// contain it.
func (ix *Index) GetFeature(id int) (*model.FeatureEntry, bool) {
	e, ok := ix.doc.Features[strconv.Itoa(id)]
	return e, ok
}

// SortExamples returns the examples of a feature sorted descending by key.
// The second return is false when the feature is unknown.
func (ix *Index) SortExamples(id int, key ExampleSortKey) ([]*model.Example, bool) {
	entry, ok := ix.GetFeature(id)
	if !ok {
		return nil, false
	}
	out := make([]*model.Example, len(entry.Examples))
	for i := range entry.Examples {
		out[i] = &entry.Examples[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return exampleValue(out[i], key) > exampleValue(out[j], key)
	})
	return out, true
}

// IsActive reports whether an activation counts as active under the
// document's threshold convention: strictly greater than a positive
// threshold, or any nonzero activation when the threshold is zero or
// negative. The asymmetry is part of the data format and must not change.
func IsActive(act, threshold float64) bool {
	if threshold > 0 {
		return act > threshold
	}
	return act != 0
}

func statValue(e *model.FeatureEntry, key SortKey) float64 {
	switch key {
	case SortMeanWhenActive:
		return e.MeanWhenActive
	case SortMeanAll:
		if e.MeanAll == nil {
			return 0
		}
		return *e.MeanAll
	default:
		if e.MentionRate == nil {
			return 0
		}
		return *e.MentionRate
	}
}

func exampleValue(e *model.Example, key ExampleSortKey) float64 {
	if key == SortMeanAct {
		return e.Highlight.MeanActInHighlight
	}
	return e.Score
}
