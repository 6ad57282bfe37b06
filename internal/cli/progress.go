package cli

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/saeviz/saeview/internal/ingest"
	"github.com/saeviz/saeview/internal/model"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// loadEventMsg carries one progress event from the loading goroutine.
type loadEventMsg ingest.Progress

// loadResultMsg carries the terminal outcome of the load.
type loadResultMsg struct {
	doc *model.Document
	err error
}

// loadProgressModel is the bubbletea model for an in-flight load.
type loadProgressModel struct {
	source   string
	events   <-chan loadEventMsg
	results  <-chan loadResultMsg
	progress progress.Model
	theme    Theme

	status   string
	percent  int
	doc      *model.Document
	err      error
	done     bool
	quitting bool
}

func newLoadProgressModel(source string, events <-chan loadEventMsg, results <-chan loadResultMsg) loadProgressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return loadProgressModel{
		source:   source,
		events:   events,
		results:  results,
		progress: prog,
		theme:    defaultTheme,
		status:   "Starting...",
	}
}

// waitForEvent hands the next progress event or terminal result to Update.
// The result channel wins once the load finishes.
func (m loadProgressModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case res := <-m.results:
			return res
		case ev := <-m.events:
			return ev
		}
	}
}

// Init returns the initial command (start receiving events).
func (m loadProgressModel) Init() tea.Cmd {
	return tea.Batch(
		m.waitForEvent(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m loadProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case loadEventMsg:
		m.status = msg.Status
		m.percent = msg.Percent
		return m, m.waitForEvent()

	case loadResultMsg:
		m.doc = msg.doc
		m.err = msg.err
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m loadProgressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m loadProgressModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	status := m.theme.statusStyle().Render(m.status)
	bar := m.progress.ViewAs(float64(m.percent) / 100)
	hint := m.theme.hintStyle().Render(m.source)

	return fmt.Sprintf("%s\n%s %d%%\n%s\n", status, bar, m.percent, hint)
}

// finalView renders the completion message.
func (m loadProgressModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(
			fmt.Sprintf("\n✗ %s: %v\n", failureKind(m.err), m.err))
	}
	if m.doc != nil {
		return m.theme.completedStyle().Render(
			fmt.Sprintf("✓ Loaded %d features\n", len(m.doc.Features)))
	}
	return ""
}

// runLoadProgress loads source while rendering an interactive progress bar,
// returning the parsed document. Quitting the UI mid-load abandons the
// operation.
func runLoadProgress(ctx context.Context, loader *ingest.Loader, source string) (*model.Document, error) {
	events := make(chan loadEventMsg, 64)
	results := make(chan loadResultMsg, 1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		doc, err := loader.Load(ctx, source, func(p ingest.Progress) {
			// Drop frames rather than block the load when the UI has
			// stopped draining; the buffered result send always lands.
			select {
			case events <- loadEventMsg(p):
			default:
			}
		})
		results <- loadResultMsg{doc: doc, err: err}
	}()

	p := tea.NewProgram(newLoadProgressModel(source, events, results))
	finalModel, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(loadProgressModel)
	if !ok {
		return nil, fmt.Errorf("unexpected final model type")
	}
	if m.quitting {
		return nil, fmt.Errorf("load canceled")
	}
	return m.doc, m.err
}

// runLoadPlain loads source without a terminal UI, logging phase
// transitions instead. Used when stdout is not a TTY.
func runLoadPlain(ctx context.Context, loader *ingest.Loader, source string) (*model.Document, error) {
	var lastPhase ingest.Phase
	return loader.Load(ctx, source, func(p ingest.Progress) {
		if p.Phase != lastPhase {
			lastPhase = p.Phase
			logger.Info("load progress", "op", p.OpID, "phase", p.Phase,
				"percent", p.Percent, "bytes", p.BytesProcessed)
		}
	})
}
