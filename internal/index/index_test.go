package index

import (
	"testing"

	"github.com/saeviz/saeview/internal/model"
)

func fptr(v float64) *float64 { return &v }

func testDoc() *model.Document {
	return &model.Document{
		Meta: model.Meta{ActivationThreshold: 0.5},
		Features: map[string]*model.FeatureEntry{
			"7": {
				FeatureID:      7,
				NumExamples:    2,
				MentionRate:    fptr(0.42),
				MeanWhenActive: 1.0,
				Examples: []model.Example{
					{Score: 1.0, Highlight: model.Highlight{MeanActInHighlight: 5.0}},
					{Score: 3.0, Highlight: model.Highlight{MeanActInHighlight: 2.0}},
				},
			},
			"3": {
				FeatureID:      3,
				NumExamples:    0,
				MentionRate:    nil,
				MeanWhenActive: 2.0,
				MeanAll:        fptr(0.1),
			},
		},
	}
}

func TestIsActive(t *testing.T) {
	tests := []struct {
		name      string
		act       float64
		threshold float64
		want      bool
	}{
		{"zero threshold zero act", 0, 0, false},
		{"zero threshold negative act", -0.5, 0, true},
		{"zero threshold positive act", 0.001, 0, true},
		{"positive threshold equal act", 0.5, 0.5, false},
		{"positive threshold act just above", 0.50001, 0.5, true},
		{"positive threshold act below", 0.4, 0.5, false},
		{"positive threshold negative act", -1.0, 0.5, false},
		{"negative threshold nonzero act", 0.1, -1.0, true},
		{"negative threshold zero act", 0, -1.0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsActive(tt.act, tt.threshold); got != tt.want {
				t.Errorf("IsActive(%v, %v) = %t, want %t", tt.act, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestListFeatures_NullStatSortsAsZero(t *testing.T) {
	ix := New(testDoc())

	got := ix.ListFeatures(SortMentionRate)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// 7 has mention_rate 0.42; 3 has null, sorting as 0 but not excluded.
	if got[0].FeatureID != 7 || got[1].FeatureID != 3 {
		t.Errorf("order = [%d, %d], want [7, 3]", got[0].FeatureID, got[1].FeatureID)
	}
}

func TestListFeatures_SortKeys(t *testing.T) {
	ix := New(testDoc())

	if got := ix.ListFeatures(SortMeanWhenActive); got[0].FeatureID != 3 {
		t.Errorf("mean_when_active order starts with %d, want 3", got[0].FeatureID)
	}
	// mean_all: 3 has 0.1, 7 is absent (sorts as 0)
	if got := ix.ListFeatures(SortMeanAll); got[0].FeatureID != 3 {
		t.Errorf("mean_all order starts with %d, want 3", got[0].FeatureID)
	}
}

func TestListFeatures_StableOnTies(t *testing.T) {
	doc := &model.Document{
		Meta: model.Meta{},
		Features: map[string]*model.FeatureEntry{
			"5": {FeatureID: 5, MentionRate: fptr(0.3)},
			"1": {FeatureID: 1, MentionRate: fptr(0.3)},
			"9": {FeatureID: 9, MentionRate: fptr(0.3)},
		},
	}
	ix := New(doc)
	got := ix.ListFeatures(SortMentionRate)
	// Equal keys keep the ascending-id base order.
	want := []int{1, 5, 9}
	for i, e := range got {
		if e.FeatureID != want[i] {
			t.Fatalf("order[%d] = %d, want %d", i, e.FeatureID, want[i])
		}
	}
}

func TestFilterFeatures(t *testing.T) {
	ix := New(testDoc())

	if got := ix.FilterFeatures(SortMentionRate, ""); len(got) != 2 {
		t.Errorf("empty query filtered to %d entries, want 2 (pass-through)", len(got))
	}
	got := ix.FilterFeatures(SortMentionRate, "7")
	if len(got) != 1 || got[0].FeatureID != 7 {
		t.Errorf("query 7 -> %v", got)
	}
	if got := ix.FilterFeatures(SortMentionRate, "99"); len(got) != 0 {
		t.Errorf("query 99 -> %d entries, want 0", len(got))
	}
}

func TestGetFeature_AbsentIsNotError(t *testing.T) {
	ix := New(testDoc())

	if _, ok := ix.GetFeature(7); !ok {
		t.Error("GetFeature(7) not found")
	}
	if e, ok := ix.GetFeature(999); ok || e != nil {
		t.Errorf("GetFeature(999) = (%v, %t), want (nil, false)", e, ok)
	}
}

func TestSortExamples(t *testing.T) {
	ix := New(testDoc())

	byScore, ok := ix.SortExamples(7, SortScore)
	if !ok {
		t.Fatal("feature 7 not found")
	}
	if byScore[0].Score != 3.0 {
		t.Errorf("score sort first = %v, want 3.0", byScore[0].Score)
	}

	byMean, ok := ix.SortExamples(7, SortMeanAct)
	if !ok {
		t.Fatal("feature 7 not found")
	}
	if byMean[0].Highlight.MeanActInHighlight != 5.0 {
		t.Errorf("mean_act sort first = %v, want 5.0", byMean[0].Highlight.MeanActInHighlight)
	}

	if _, ok := ix.SortExamples(999, SortScore); ok {
		t.Error("SortExamples(999) reported found")
	}
}

func TestSession_AtomicReplace(t *testing.T) {
	var s Session
	if s.Current() != nil {
		t.Fatal("fresh session should have no index")
	}

	first := New(testDoc())
	s.Publish(first)

	// A failed load never publishes, so the first document stays queryable.
	if _, err := model.Parse([]byte(`{"meta": {}}`)); err == nil {
		t.Fatal("expected second load to fail")
	}
	if got := s.Current(); got != first {
		t.Fatal("failed load disturbed the current index")
	}
	if e, ok := s.Current().GetFeature(7); !ok || e.FeatureID != 7 {
		t.Error("feature 7 unavailable after failed reload")
	}

	second := New(testDoc())
	s.Publish(second)
	if s.Current() != second {
		t.Error("publish did not replace the index")
	}
}
