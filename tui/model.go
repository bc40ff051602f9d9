// Package tui provides the Bubble Tea terminal UI for webscan, displaying
// live scan progress and a styled summary of results. It never touches the
// scheduler directly: it drives a scan through engine's same public surface
// any other transport would use, and observes it by polling GetScanLogs/
// GetScanResults — an out-of-band observer, not a participant.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/grantelam/webscan/engine"
	"github.com/grantelam/webscan/scan"
)

// Model is the Bubble Tea model for the scan TUI.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc
	eng    *engine.Engine
	cfg    scan.Config

	spinner spinner.Model

	results  []scan.Result
	lastLog  scan.Log
	paused   bool
	quitting bool
	done     bool
	outcome  *engine.ScanOutcome
	err      error
	width    int
}

// NewModel creates a TUI model that will drive cfg through eng. If cfg has
// no ScanID, one is generated here so the poll loop has something to query
// from its very first tick.
func NewModel(ctx context.Context, cancel context.CancelFunc, eng *engine.Engine, cfg scan.Config) Model {
	if cfg.ScanID == "" {
		cfg.ScanID = uuid.NewString()
	}
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:     ctx,
		cancel:  cancel,
		eng:     eng,
		cfg:     cfg,
		spinner: spin,
	}
}

// Init starts the spinner, the scan itself, and the poll loop concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startScan(), tickCmd())
}

// startScan returns a tea.Cmd that runs the scan to completion and reports
// its outcome. Running this concurrently with the poll loop is what lets
// the TUI show progress while ScanWebsite itself is still blocking.
func (m Model) startScan() tea.Cmd {
	return func() tea.Msg {
		outcome, err := m.eng.ScanWebsite(m.ctx, m.cfg)
		return ScanDoneMsg{Outcome: outcome, Err: err}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.eng.StopScan(m.cfg.ScanID)
			m.cancel()
			m.quitting = true
			return m, tea.Quit
		case "p":
			m.eng.PauseScan(m.cfg.ScanID)
			m.paused = true
			return m, nil
		case "r":
			m.eng.ResumeScan(m.cfg.ScanID)
			m.paused = false
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m.results = m.eng.GetScanResults(m.cfg.ScanID)
		if logs := m.eng.GetScanLogs(m.cfg.ScanID); len(logs) > 0 {
			m.lastLog = logs[len(logs)-1]
		}
		if m.done {
			return m, nil
		}
		return m, tickCmd()

	case ScanDoneMsg:
		m.done = true
		m.outcome = &msg.Outcome
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current TUI state.
func (m Model) View() string {
	if m.done && m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.done && m.outcome != nil {
		return RenderSummary(m.outcome)
	}

	status := "scanning"
	if m.paused {
		status = "paused"
	}
	return fmt.Sprintf("%s %s... %d results so far\n%s\n",
		m.spinner.View(), status, len(m.results),
		dimStyle.Render("  "+m.lastLog.Message))
}

// HasErrors reports whether the completed scan recorded any error results.
func (m Model) HasErrors() bool {
	return m.outcome != nil && len(m.outcome.ErrorSummary.Recent) > 0
}

// GetOutcome returns the scan's final outcome for output formatting, or nil
// if the scan hasn't finished yet.
func (m Model) GetOutcome() *engine.ScanOutcome {
	return m.outcome
}
