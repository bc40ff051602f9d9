package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/grantelam/webscan/engine"
)

// pollInterval is how often the model re-polls the engine for logs and
// results while a scan is running.
const pollInterval = 250 * time.Millisecond

// tickMsg drives the poll loop; its payload carries nothing, Update just
// re-reads the engine's current state each time one arrives.
type tickMsg struct{}

// ScanDoneMsg signals that engine.ScanWebsite has returned.
type ScanDoneMsg struct {
	Outcome engine.ScanOutcome
	Err     error
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
