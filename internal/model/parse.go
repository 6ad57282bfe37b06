package model

import (
	"fmt"
	"math"
	"strconv"

	"github.com/bytedance/sonic"
)

// Raw decode targets. Required fields are pointers so that "absent" is
// distinguishable from a legitimate zero value; validation rejects nil
// required pointers with the field path instead of coercing defaults.

type rawDocument struct {
	Meta     *rawMeta                    `json:"meta"`
	Features map[string]*rawFeatureEntry `json:"features"`
}

type rawMeta struct {
	ModelPath             string   `json:"model_path"`
	Layer                 int      `json:"layer"`
	SAERelease            string   `json:"sae_release"`
	SAEID                 string   `json:"sae_id"`
	Features              []int    `json:"features"`
	MaxExamplesPerFeature int      `json:"max_examples_per_feature"`
	ActivationThreshold   *float64 `json:"activation_threshold"`
	MinActiveWidth        int      `json:"min_active_width"`
	MaxWindowWidth        int      `json:"max_window_width"`
	BufferTokens          int      `json:"buffer_tokens"`
	MaxTokensPerTurn      int      `json:"max_tokens_per_turn"`
	Filters               Filters  `json:"filters"`
}

type rawFeatureEntry struct {
	FeatureID      *int          `json:"feature_id"`
	NumExamples    *int          `json:"num_examples"`
	MentionRate    *float64      `json:"mention_rate"`
	NnzCount       int           `json:"nnz_count"`
	MeanWhenActive float64       `json:"mean_when_active"`
	MeanAll        *float64      `json:"mean_all"`
	Examples       *[]rawExample `json:"examples"`
}

type rawExample struct {
	FeatureID              *int          `json:"feature_id"`
	Score                  *float64      `json:"score"`
	PeakActivation         *float64      `json:"peak_activation"`
	PeakTokenIndexInWindow *int          `json:"peak_token_index_in_window"`
	ProblemID              *string       `json:"problem_id"`
	TurnIndex              *int          `json:"turn_index"`
	SolutionStatus         *string       `json:"solution_status"`
	AttemptAnswer          any           `json:"attempt_answer"`
	ReferenceAnswer        any           `json:"reference_answer"`
	Text                   *string       `json:"text"`
	Highlight              *rawHighlight `json:"highlight"`
	Tokens                 []rawToken    `json:"tokens"`
}

type rawHighlight struct {
	CharStart          *int     `json:"char_start"`
	CharEnd            *int     `json:"char_end"`
	MaxActInHighlight  *float64 `json:"max_act_in_highlight"`
	MeanActInHighlight *float64 `json:"mean_act_in_highlight"`
	ActiveTokenIndices []int    `json:"active_token_indices"`
}

type rawToken struct {
	I         *int     `json:"i"`
	TokenID   *int     `json:"token_id"`
	CharStart int      `json:"char_start"`
	CharEnd   int      `json:"char_end"`
	TokenText *string  `json:"token_text"`
	Act       *float64 `json:"act"`
}

// Parse decodes UTF-8 JSON text into a validated Document. The returned
// error is a *ParseError for malformed JSON and a *SchemaError for a
// document that decodes but does not conform; a partial document is never
// returned. Downstream consumers rely on the invariants established here
// and do not re-validate.
func Parse(data []byte) (*Document, error) {
	var raw rawDocument
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Err: err}
	}
	return buildDocument(&raw)
}

func buildDocument(raw *rawDocument) (*Document, error) {
	if raw.Meta == nil {
		return nil, schemaErrf("meta", "missing required object")
	}
	if raw.Features == nil {
		return nil, schemaErrf("features", "missing required mapping")
	}
	meta, err := buildMeta(raw.Meta)
	if err != nil {
		return nil, err
	}

	features := make(map[string]*FeatureEntry, len(raw.Features))
	for key, entry := range raw.Features {
		path := fmt.Sprintf("features[%q]", key)
		if entry == nil {
			return nil, schemaErrf(path, "entry is null")
		}
		fe, err := buildFeatureEntry(path, key, entry)
		if err != nil {
			return nil, err
		}
		features[key] = fe
	}

	return &Document{Meta: *meta, Features: features}, nil
}

func buildMeta(raw *rawMeta) (*Meta, error) {
	if raw.ActivationThreshold == nil {
		return nil, schemaErrf("meta.activation_threshold", "missing required field")
	}
	t := *raw.ActivationThreshold
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return nil, schemaErrf("meta.activation_threshold", "must be finite, got %v", t)
	}
	return &Meta{
		ModelPath:             raw.ModelPath,
		Layer:                 raw.Layer,
		SAERelease:            raw.SAERelease,
		SAEID:                 raw.SAEID,
		Features:              raw.Features,
		MaxExamplesPerFeature: raw.MaxExamplesPerFeature,
		ActivationThreshold:   t,
		MinActiveWidth:        raw.MinActiveWidth,
		MaxWindowWidth:        raw.MaxWindowWidth,
		BufferTokens:          raw.BufferTokens,
		MaxTokensPerTurn:      raw.MaxTokensPerTurn,
		Filters:               raw.Filters,
	}, nil
}

func buildFeatureEntry(path, key string, raw *rawFeatureEntry) (*FeatureEntry, error) {
	if raw.FeatureID == nil {
		return nil, schemaErrf(path+".feature_id", "missing required field")
	}
	if raw.NumExamples == nil {
		return nil, schemaErrf(path+".num_examples", "missing required field")
	}
	if raw.Examples == nil {
		return nil, schemaErrf(path+".examples", "missing required field")
	}
	id := *raw.FeatureID
	if keyID, err := strconv.Atoi(key); err != nil || keyID != id {
		return nil, schemaErrf(path, "key does not match feature_id %d", id)
	}
	rawExamples := *raw.Examples
	if *raw.NumExamples != len(rawExamples) {
		return nil, schemaErrf(path+".num_examples",
			"claims %d examples, found %d", *raw.NumExamples, len(rawExamples))
	}
	if raw.MentionRate != nil {
		if mr := *raw.MentionRate; mr < 0 || mr > 1 {
			return nil, schemaErrf(path+".mention_rate", "out of range [0,1]: %v", mr)
		}
	}
	if raw.MeanWhenActive < 0 {
		return nil, schemaErrf(path+".mean_when_active", "must be non-negative, got %v", raw.MeanWhenActive)
	}
	if raw.MeanAll != nil && *raw.MeanAll < 0 {
		return nil, schemaErrf(path+".mean_all", "must be non-negative, got %v", *raw.MeanAll)
	}

	examples := make([]Example, len(rawExamples))
	for i := range rawExamples {
		ex, err := buildExample(fmt.Sprintf("%s.examples[%d]", path, i), &rawExamples[i])
		if err != nil {
			return nil, err
		}
		examples[i] = *ex
	}

	return &FeatureEntry{
		FeatureID:      id,
		NumExamples:    *raw.NumExamples,
		MentionRate:    raw.MentionRate,
		NnzCount:       raw.NnzCount,
		MeanWhenActive: raw.MeanWhenActive,
		MeanAll:        raw.MeanAll,
		Examples:       examples,
	}, nil
}

func buildExample(path string, raw *rawExample) (*Example, error) {
	switch {
	case raw.FeatureID == nil:
		return nil, schemaErrf(path+".feature_id", "missing required field")
	case raw.Score == nil:
		return nil, schemaErrf(path+".score", "missing required field")
	case raw.PeakActivation == nil:
		return nil, schemaErrf(path+".peak_activation", "missing required field")
	case raw.PeakTokenIndexInWindow == nil:
		return nil, schemaErrf(path+".peak_token_index_in_window", "missing required field")
	case raw.Text == nil:
		return nil, schemaErrf(path+".text", "missing required field")
	case raw.Highlight == nil:
		return nil, schemaErrf(path+".highlight", "missing required field")
	}
	if len(raw.Tokens) == 0 {
		return nil, schemaErrf(path+".tokens", "must be a non-empty list")
	}

	tokens := make([]Token, len(raw.Tokens))
	for i := range raw.Tokens {
		tok, err := buildToken(fmt.Sprintf("%s.tokens[%d]", path, i), i, &raw.Tokens[i])
		if err != nil {
			return nil, err
		}
		tokens[i] = *tok
	}

	peak := *raw.PeakTokenIndexInWindow
	if peak < 0 || peak >= len(tokens) {
		return nil, schemaErrf(path+".peak_token_index_in_window",
			"index %d out of range for %d tokens", peak, len(tokens))
	}

	hl, err := buildHighlight(path+".highlight", raw.Highlight, len(tokens))
	if err != nil {
		return nil, err
	}

	return &Example{
		FeatureID:              *raw.FeatureID,
		Score:                  *raw.Score,
		PeakActivation:         *raw.PeakActivation,
		PeakTokenIndexInWindow: peak,
		ProblemID:              raw.ProblemID,
		TurnIndex:              raw.TurnIndex,
		SolutionStatus:         raw.SolutionStatus,
		AttemptAnswer:          raw.AttemptAnswer,
		ReferenceAnswer:        raw.ReferenceAnswer,
		Text:                   *raw.Text,
		Highlight:              *hl,
		Tokens:                 tokens,
	}, nil
}

func buildHighlight(path string, raw *rawHighlight, numTokens int) (*Highlight, error) {
	switch {
	case raw.CharStart == nil:
		return nil, schemaErrf(path+".char_start", "missing required field")
	case raw.CharEnd == nil:
		return nil, schemaErrf(path+".char_end", "missing required field")
	case raw.MaxActInHighlight == nil:
		return nil, schemaErrf(path+".max_act_in_highlight", "missing required field")
	case raw.MeanActInHighlight == nil:
		return nil, schemaErrf(path+".mean_act_in_highlight", "missing required field")
	}
	if *raw.CharStart > *raw.CharEnd {
		return nil, schemaErrf(path, "char_start %d > char_end %d", *raw.CharStart, *raw.CharEnd)
	}
	if *raw.MeanActInHighlight > *raw.MaxActInHighlight {
		return nil, schemaErrf(path,
			"mean_act_in_highlight %v exceeds max_act_in_highlight %v",
			*raw.MeanActInHighlight, *raw.MaxActInHighlight)
	}
	for _, idx := range raw.ActiveTokenIndices {
		if idx < 0 || idx >= numTokens {
			return nil, schemaErrf(path+".active_token_indices",
				"index %d out of range for %d tokens", idx, numTokens)
		}
	}
	return &Highlight{
		CharStart:          *raw.CharStart,
		CharEnd:            *raw.CharEnd,
		MaxActInHighlight:  *raw.MaxActInHighlight,
		MeanActInHighlight: *raw.MeanActInHighlight,
		ActiveTokenIndices: raw.ActiveTokenIndices,
	}, nil
}

func buildToken(path string, pos int, raw *rawToken) (*Token, error) {
	switch {
	case raw.I == nil:
		return nil, schemaErrf(path+".i", "missing required field")
	case raw.TokenID == nil:
		return nil, schemaErrf(path+".token_id", "missing required field")
	case raw.TokenText == nil:
		return nil, schemaErrf(path+".token_text", "missing required field")
	case raw.Act == nil:
		return nil, schemaErrf(path+".act", "missing required field")
	}
	// Sequence indices are contiguous from 0, so the declared index must
	// equal the position in the list.
	if *raw.I != pos {
		return nil, schemaErrf(path+".i", "expected sequence index %d, got %d", pos, *raw.I)
	}
	if raw.CharStart > raw.CharEnd {
		return nil, schemaErrf(path, "char_start %d > char_end %d", raw.CharStart, raw.CharEnd)
	}
	return &Token{
		I:         *raw.I,
		TokenID:   *raw.TokenID,
		CharStart: raw.CharStart,
		CharEnd:   raw.CharEnd,
		TokenText: *raw.TokenText,
		Act:       *raw.Act,
	}, nil
}
