// Package model defines the feature-windows artifact schema and the
// parse/validate pipeline that turns untrusted bytes into a trusted Document.
package model

// Token is one lexical unit within an example's text window.
type Token struct {
	I         int     `json:"i"`
	TokenID   int     `json:"token_id"`
	CharStart int     `json:"char_start"`
	CharEnd   int     `json:"char_end"`
	TokenText string  `json:"token_text"`
	Act       float64 `json:"act"`
}

// Highlight is the region of an example considered active, with its
// in-span activation summary.
type Highlight struct {
	CharStart          int     `json:"char_start"`
	CharEnd            int     `json:"char_end"`
	MaxActInHighlight  float64 `json:"max_act_in_highlight"`
	MeanActInHighlight float64 `json:"mean_act_in_highlight"`
	ActiveTokenIndices []int   `json:"active_token_indices"`
}

// Example is one occurrence of a feature firing within some source text.
// Provenance fields are optional and opaque: they are carried through
// verbatim for display, never interpreted.
type Example struct {
	FeatureID              int       `json:"feature_id"`
	Score                  float64   `json:"score"`
	PeakActivation         float64   `json:"peak_activation"`
	PeakTokenIndexInWindow int       `json:"peak_token_index_in_window"`
	ProblemID              *string   `json:"problem_id"`
	TurnIndex              *int      `json:"turn_index"`
	SolutionStatus         *string   `json:"solution_status"`
	AttemptAnswer          any       `json:"attempt_answer"`
	ReferenceAnswer        any       `json:"reference_answer"`
	Text                   string    `json:"text"`
	Highlight              Highlight `json:"highlight"`
	Tokens                 []Token   `json:"tokens"`
}

// FeatureEntry aggregates the examples and summary statistics for one feature.
//
// MentionRate and MeanAll are nullable in the artifact; a nil value sorts
// as zero and renders as a placeholder, it is never treated as an error.
type FeatureEntry struct {
	FeatureID      int       `json:"feature_id"`
	NumExamples    int       `json:"num_examples"`
	MentionRate    *float64  `json:"mention_rate"`
	NnzCount       int       `json:"nnz_count"`
	MeanWhenActive float64   `json:"mean_when_active"`
	MeanAll        *float64  `json:"mean_all,omitempty"`
	Examples       []Example `json:"examples"`
}

// Filters records the filter configuration applied when the artifact was
// generated. Document-level provenance, not consulted by any query.
type Filters struct {
	OnlyCorrect     bool   `json:"only_correct"`
	OnlyWithAnswers bool   `json:"only_with_answers"`
	OnlySelected    bool   `json:"only_selected"`
	Turn            string `json:"turn"`
	MaxAttempts     int    `json:"max_attempts"`
}

// Meta is the document-level configuration shared by all features.
type Meta struct {
	ModelPath             string  `json:"model_path"`
	Layer                 int     `json:"layer"`
	SAERelease            string  `json:"sae_release"`
	SAEID                 string  `json:"sae_id"`
	Features              []int   `json:"features"`
	MaxExamplesPerFeature int     `json:"max_examples_per_feature"`
	ActivationThreshold   float64 `json:"activation_threshold"`
	MinActiveWidth        int     `json:"min_active_width"`
	MaxWindowWidth        int     `json:"max_window_width"`
	BufferTokens          int     `json:"buffer_tokens"`
	MaxTokensPerTurn      int     `json:"max_tokens_per_turn"`
	Filters               Filters `json:"filters"`
}

// Document is the fully validated feature-windows artifact. It is immutable
// for the lifetime of a loaded session; a new load replaces it wholesale.
type Document struct {
	Meta     Meta                     `json:"meta"`
	Features map[string]*FeatureEntry `json:"features"`
}
