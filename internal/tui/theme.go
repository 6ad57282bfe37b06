package tui

import "github.com/charmbracelet/lipgloss"

// Theme holds the color scheme for the viewer.
type Theme struct {
	Accent    lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Hint      lipgloss.Color
	Border    lipgloss.Color
	TokenRamp []lipgloss.Color
	TokenInk  lipgloss.Color
}

// defaultTheme provides default colors. The token ramp runs from faint to
// saturated green, standing in for the activation-alpha gradient.
var defaultTheme = Theme{
	Accent:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Border:  lipgloss.Color("#3A3A3A"), // dark gray
	TokenRamp: []lipgloss.Color{
		lipgloss.Color("#0B2E1F"),
		lipgloss.Color("#115033"),
		lipgloss.Color("#177244"),
		lipgloss.Color("#1D9456"),
		lipgloss.Color("#20B368"),
	},
	TokenInk: lipgloss.Color("#E4E4E4"),
}

// DefaultTheme returns the standard viewer theme.
func DefaultTheme() Theme { return defaultTheme }

func (t Theme) accentStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Accent)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}
