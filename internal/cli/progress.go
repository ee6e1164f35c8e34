package cli

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/curiolabs/curio-go/internal/scorer"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
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

// articleDoneMsg carries one finished scoring run.
type articleDoneMsg struct {
	done   int
	total  int
	report scorer.Report
}

// batchDoneMsg carries the final sweep result.
type batchDoneMsg struct {
	result scorer.BatchResult
	err    error
}

// batchModel is the bubbletea model for a backlog sweep.
type batchModel struct {
	progress progress.Model
	theme    Theme

	done     int
	total    int
	lastURL  string
	finished bool
	quitting bool
	err      error
}

func (m batchModel) lastLine() string {
	if m.lastURL == "" {
		return ""
	}
	return m.theme.hintStyle().Render(m.lastURL)
}

func newBatchModel() batchModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return batchModel{
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command.
func (m batchModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case articleDoneMsg:
		m.done = msg.done
		m.total = msg.total
		m.lastURL = msg.report.Article.URL
		return m, nil

	case batchDoneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m batchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m batchModel) renderContent() string {
	if m.finished {
		if m.err != nil {
			return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Scoring failed: %s\n", m.err))
		}
		return m.theme.completedStyle().Render("✓ Done\n")
	}

	if m.total == 0 {
		return "Loading backlog...\n"
	}

	pct := float64(m.done) / float64(m.total)
	status := m.theme.statusStyle().Render("[scoring]")
	counts := fmt.Sprintf("%d/%d articles", m.done, m.total)
	hint := m.theme.hintStyle().Render("Press Ctrl+C to stop")

	return fmt.Sprintf("%s %s %s\n%s\n%s\n", status, m.progress.ViewAs(pct), counts, m.lastLine(), hint)
}

// RunBatchProgress sweeps the backlog while rendering an interactive progress
// bar. Ctrl+C cancels the remaining articles; everything already persisted
// stays persisted.
func RunBatchProgress(ctx context.Context, batch *scorer.BatchScorer, limit int) (scorer.BatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newBatchModel())

	resultCh := make(chan batchDoneMsg, 1)
	go func() {
		result, err := batch.Run(ctx, limit, func(done, total int, report scorer.Report) {
			p.Send(articleDoneMsg{done: done, total: total, report: report})
		})
		resultCh <- batchDoneMsg{result: result, err: err}
		p.Send(batchDoneMsg{result: result, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		cancel()
		<-resultCh
		return scorer.BatchResult{}, fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(batchModel); ok && m.quitting {
		// Stop feeding new articles, then wait for in-flight runs
		cancel()
	}

	final := <-resultCh
	return final.result, final.err
}
