package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/saeviz/saeview/internal/index"
	"github.com/saeviz/saeview/internal/model"
)

// RenderTokens renders an example's token sequence with activation
// highlighting: active tokens get a background from the theme's ramp, with
// intensity proportional to act/peak clamped to [0.15, 0.85]. Inactive
// tokens render as plain text.
func RenderTokens(t Theme, ex *model.Example, threshold float64) string {
	var b strings.Builder
	for i := range ex.Tokens {
		tok := &ex.Tokens[i]
		if !index.IsActive(tok.Act, threshold) {
			b.WriteString(tok.TokenText)
			continue
		}
		b.WriteString(tokenStyle(t, tok.Act, ex.PeakActivation).Render(tok.TokenText))
	}
	return b.String()
}

func tokenStyle(t Theme, act, peak float64) lipgloss.Style {
	if peak == 0 {
		peak = 1
	}
	alpha := act / peak
	if alpha < 0.15 {
		alpha = 0.15
	}
	if alpha > 0.85 {
		alpha = 0.85
	}
	// Bucket the alpha into the discrete ramp.
	idx := int((alpha - 0.15) / 0.70 * float64(len(t.TokenRamp)))
	if idx >= len(t.TokenRamp) {
		idx = len(t.TokenRamp) - 1
	}
	return lipgloss.NewStyle().Background(t.TokenRamp[idx]).Foreground(t.TokenInk)
}
