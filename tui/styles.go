package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/grantelam/webscan/classify"
	"github.com/grantelam/webscan/engine"
	"github.com/grantelam/webscan/scan"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	successStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	categoryStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle         = lipgloss.NewStyle().Faint(true)
	urlStyle         = lipgloss.NewStyle()
	statusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// kindOrder defines the display order for error kinds (most to least actionable).
var kindOrder = []classify.Kind{
	classify.KindServer,
	classify.KindClient,
	classify.KindTimeout,
	classify.KindNetwork,
	classify.KindUnknown,
}

func formatKind(k classify.Kind) string {
	switch k {
	case classify.KindServer:
		return "Server errors"
	case classify.KindClient:
		return "Client errors"
	case classify.KindTimeout:
		return "Timeouts"
	case classify.KindNetwork:
		return "Network failures"
	default:
		return "Unknown"
	}
}

// RenderSummary produces a Lip Gloss styled summary of a completed scan.
func RenderSummary(out *engine.ScanOutcome) string {
	if out == nil {
		return errorStyle.Render("No results available.")
	}

	var builder strings.Builder

	errored := make([]scan.Result, 0)
	for _, r := range out.Results {
		if r.Status == scan.StatusError {
			errored = append(errored, r)
		}
	}

	if len(errored) == 0 {
		builder.WriteString(successStyle.Render("No broken links found!"))
		builder.WriteString("\n")
		builder.WriteString(dimStyle.Render(fmt.Sprintf("Checked %d URLs", len(out.Results))))
		builder.WriteString("\n")
		return builder.String()
	}

	// Group broken results by error kind
	grouped := make(map[classify.Kind][]scan.Result)
	for _, r := range errored {
		kind := r.ErrorKind
		if kind == "" {
			kind = classify.KindUnknown
		}
		grouped[kind] = append(grouped[kind], r)
	}

	// Display each kind in order
	for _, kind := range kindOrder {
		results, exists := grouped[kind]
		if !exists || len(results) == 0 {
			continue
		}

		builder.WriteString(categoryStyle.Render(fmt.Sprintf("## %s (%d)", formatKind(kind), len(results))))
		builder.WriteString("\n")

		rows := make([][]string, 0, len(results))
		for _, r := range results {
			status := fmt.Sprintf("%d", r.StatusCode)
			if r.Error != "" {
				status = r.Error
			}
			rows = append(rows, []string{r.URL, status, fmt.Sprintf("depth %d", r.Depth)})
		}

		kindTable := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("URL", "Status", "Found At").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 1 {
					return statusErrorStyle
				}
				return urlStyle
			}).
			Rows(rows...)

		builder.WriteString(kindTable.Render())
		builder.WriteString("\n\n")
	}

	// Summary stats
	builder.WriteString(titleStyle.Render(fmt.Sprintf(
		"Found %d broken links out of %d URLs checked",
		len(errored), len(out.Results),
	)))
	builder.WriteString("\n")

	return builder.String()
}
