// Package tui implements the terminal viewer: a feature sidebar with
// sorting and filtering, a meta panel, and a paged example list with
// token-level activation highlighting.
package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/saeviz/saeview/internal/index"
	"github.com/saeviz/saeview/internal/model"
)

// exampleBatch is how many examples are revealed per page, matching the
// infinite-scroll batch of the example list.
const exampleBatch = 20

// Viewer is the bubbletea model for browsing a loaded document.
type Viewer struct {
	session *index.Session
	theme   Theme

	sortKey   index.SortKey
	exSortKey index.ExampleSortKey
	filter    string
	filtering bool
	mainFocus bool

	features []*featureRow
	cursor   int

	examples     []*model.Example
	visibleCount int

	width  int
	height int
}

type featureRow struct {
	entry *model.FeatureEntry
}

// NewViewer creates a viewer over the session's current document. The
// session must hold a published index.
func NewViewer(session *index.Session) *Viewer {
	v := &Viewer{
		session:   session,
		theme:     defaultTheme,
		sortKey:   index.SortMentionRate,
		exSortKey: index.SortScore,
	}
	v.refreshFeatures()
	v.refreshExamples()
	return v
}

// Run opens the viewer and blocks until the user quits.
func Run(session *index.Session) error {
	p := tea.NewProgram(NewViewer(session))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("viewer UI error: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (v *Viewer) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (v *Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tea.KeyPressMsg:
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *Viewer) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if v.filtering {
		switch key {
		case "enter":
			v.filtering = false
		case "esc":
			v.filtering = false
			v.filter = ""
			v.refreshFeatures()
			v.refreshExamples()
		case "backspace":
			if v.filter != "" {
				v.filter = v.filter[:len(v.filter)-1]
				v.refreshFeatures()
				v.refreshExamples()
			}
		default:
			// Feature ids are decimal, so only digits are useful input.
			if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
				v.filter += key
				v.refreshFeatures()
				v.refreshExamples()
			}
		}
		return v, nil
	}

	switch key {
	case "ctrl+c", "q":
		return v, tea.Quit
	case "tab":
		v.mainFocus = !v.mainFocus
	case "up", "k":
		if v.mainFocus {
			v.pageUp()
		} else if v.cursor > 0 {
			v.cursor--
			v.refreshExamples()
		}
	case "down", "j":
		if v.mainFocus {
			v.pageDown()
		} else if v.cursor < len(v.features)-1 {
			v.cursor++
			v.refreshExamples()
		}
	case "s":
		v.sortKey = nextSortKey(v.sortKey)
		v.refreshFeatures()
		v.refreshExamples()
	case "m":
		if v.exSortKey == index.SortScore {
			v.exSortKey = index.SortMeanAct
		} else {
			v.exSortKey = index.SortScore
		}
		v.refreshExamples()
	case "/":
		v.filtering = true
	case "pgdown", "space":
		v.pageDown()
	case "pgup":
		v.pageUp()
	}
	return v, nil
}

func (v *Viewer) pageDown() {
	if v.visibleCount < len(v.examples) {
		v.visibleCount += exampleBatch
		if v.visibleCount > len(v.examples) {
			v.visibleCount = len(v.examples)
		}
	}
}

func (v *Viewer) pageUp() {
	if v.visibleCount > exampleBatch {
		v.visibleCount -= exampleBatch
	}
}

func nextSortKey(k index.SortKey) index.SortKey {
	switch k {
	case index.SortMentionRate:
		return index.SortMeanAll
	case index.SortMeanAll:
		return index.SortMeanWhenActive
	default:
		return index.SortMentionRate
	}
}

// refreshFeatures re-derives the sorted, filtered sidebar rows and clamps
// the cursor.
func (v *Viewer) refreshFeatures() {
	ix := v.session.Current()
	if ix == nil {
		v.features = nil
		return
	}
	entries := ix.FilterFeatures(v.sortKey, v.filter)
	rows := make([]*featureRow, len(entries))
	for i, e := range entries {
		rows[i] = &featureRow{entry: e}
	}
	v.features = rows
	if v.cursor >= len(rows) {
		v.cursor = len(rows) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

// refreshExamples re-derives the example list for the feature under the
// cursor and resets paging.
func (v *Viewer) refreshExamples() {
	v.examples = nil
	v.visibleCount = 0
	ix := v.session.Current()
	if ix == nil || len(v.features) == 0 {
		return
	}
	id := v.features[v.cursor].entry.FeatureID
	examples, ok := ix.SortExamples(id, v.exSortKey)
	if !ok {
		// Unknown feature renders as an empty state, never a crash.
		return
	}
	v.examples = examples
	v.visibleCount = min(exampleBatch, len(examples))
}

// View implements tea.Model.
func (v *Viewer) View() tea.View {
	ix := v.session.Current()
	if ix == nil {
		return tea.NewView(v.theme.hintStyle().Render("No document loaded.\n"))
	}

	sidebar := v.renderSidebar(ix)
	main := v.renderMain(ix)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)
	return tea.NewView(body)
}

func (v *Viewer) renderSidebar(ix *index.Index) string {
	var b strings.Builder
	b.WriteString(v.theme.headerStyle().Render("SAE Viewer"))
	b.WriteString("\n\n")
	b.WriteString(v.theme.accentStyle().Render(fmt.Sprintf("sort: %s", v.sortKey)))
	b.WriteString("\n")
	if v.filtering || v.filter != "" {
		b.WriteString(fmt.Sprintf("filter: %s_\n", v.filter))
	} else {
		b.WriteString(v.theme.hintStyle().Render("/ to filter\n"))
	}
	b.WriteString("\n")

	if len(v.features) == 0 {
		b.WriteString(v.theme.hintStyle().Render("No matches\n"))
	}

	visible := v.features
	maxRows := v.sidebarRows()
	start := 0
	if v.cursor >= maxRows {
		start = v.cursor - maxRows + 1
	}
	if start+maxRows < len(visible) {
		visible = visible[start : start+maxRows]
	} else {
		visible = visible[start:]
	}

	for i, row := range visible {
		e := row.entry
		line := fmt.Sprintf("%6d  mr %s  mwa %s", e.FeatureID,
			formatRate(e.MentionRate), fmt.Sprintf("%.4f", e.MeanWhenActive))
		if start+i == v.cursor {
			line = v.theme.selectedStyle().Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.theme.hintStyle().Render("s sort · m example sort · tab pane · q quit"))

	return lipgloss.NewStyle().
		Width(40).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(v.theme.Border).
		Render(b.String())
}

func (v *Viewer) renderMain(ix *index.Index) string {
	if len(v.features) == 0 {
		return v.theme.hintStyle().Render("\n  Select a feature from the sidebar.")
	}
	entry := v.features[v.cursor].entry
	meta := ix.Meta()

	var b strings.Builder
	header := fmt.Sprintf("Feature %d", entry.FeatureID)
	b.WriteString(v.theme.headerStyle().Render(header))
	b.WriteString(v.theme.hintStyle().Render(fmt.Sprintf("  %d examples · sort %s", entry.NumExamples, v.exSortKey)))
	b.WriteString("\n")
	b.WriteString(v.theme.hintStyle().Render(fmt.Sprintf(
		"%s · layer %d · %s/%s · threshold %v",
		meta.ModelPath, meta.Layer, meta.SAERelease, meta.SAEID, meta.ActivationThreshold)))
	b.WriteString("\n\n")

	for _, ex := range v.examples[:v.visibleCount] {
		b.WriteString(v.renderExample(ex, meta))
		b.WriteString("\n")
	}
	if v.visibleCount < len(v.examples) {
		b.WriteString(v.theme.hintStyle().Render(
			fmt.Sprintf("-- %d more, pgdn to load --\n", len(v.examples)-v.visibleCount)))
	}
	return lipgloss.NewStyle().PaddingLeft(1).Render(b.String())
}

func (v *Viewer) renderExample(ex *model.Example, meta model.Meta) string {
	var b strings.Builder
	info := fmt.Sprintf("score %.2f  peak %.2f  mean %.2f  max %.2f",
		ex.Score, ex.PeakActivation,
		ex.Highlight.MeanActInHighlight, ex.Highlight.MaxActInHighlight)
	if ex.ProblemID != nil {
		info += "  problem " + *ex.ProblemID
	}
	if ex.TurnIndex != nil {
		info += fmt.Sprintf("  turn %d", *ex.TurnIndex)
	}
	if ex.SolutionStatus != nil {
		info += "  status " + *ex.SolutionStatus
	}
	if ex.AttemptAnswer != nil {
		info += fmt.Sprintf("  answer %v", ex.AttemptAnswer)
	}
	if ex.ReferenceAnswer != nil {
		info += fmt.Sprintf("  ref %v", ex.ReferenceAnswer)
	}
	b.WriteString(v.theme.hintStyle().Render(info))
	b.WriteString("\n")
	b.WriteString(RenderTokens(v.theme, ex, meta.ActivationThreshold))
	b.WriteString("\n")
	return b.String()
}

func (v *Viewer) sidebarRows() int {
	rows := v.height - 10
	if rows < 5 {
		rows = 5
	}
	return rows
}

// formatRate formats a nullable mention rate as a percentage, or a
// placeholder when the value is genuinely absent.
func formatRate(r *float64) string {
	if r == nil {
		return "–"
	}
	return fmt.Sprintf("%.2f%%", *r*100)
}
