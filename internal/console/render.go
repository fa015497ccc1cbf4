package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/JaimeStill/patentbot/internal/cases"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6BCB77"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4D96FF"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6BCB77"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD93D"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	errorBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4D96FF"))

	candidateBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#555555")).
			Padding(0, 1)
)

// FormatEvent renders a progress event as one line. Chunk events are
// returned as raw text so streamed output reads continuously.
func FormatEvent(ev cases.Event) string {
	switch ev.Type {
	case cases.EventChunk:
		return ev.Text
	case cases.EventStageStarted:
		return fmt.Sprintf("%s %s\n", stageStyle.Render("▸"), ev.Stage)
	case cases.EventStageCompleted:
		return fmt.Sprintf("%s %s\n", okStyle.Render("✓"), ev.Stage)
	case cases.EventReferencesFound:
		return fmt.Sprintf("  %s %s\n", mutedStyle.Render("references:"), strings.Join(ev.References, ", "))
	case cases.EventNoReferences:
		return fmt.Sprintf("  %s\n", warnStyle.Render("no references cited, skipping fetch"))
	case cases.EventFailed:
		return fmt.Sprintf("%s %s: %s\n", errorStyle.Render("✗"), ev.Stage, ev.Message)
	case cases.EventCompleted:
		return fmt.Sprintf("%s run finished at %s\n", titleStyle.Render("■"), ev.Stage)
	default:
		return fmt.Sprintf("  %s %s\n", ev.Type, ev.Message)
	}
}

// FormatCase renders one case as a listing line.
func FormatCase(c cases.Case) string {
	status := string(c.Status)
	switch c.Status {
	case cases.StatusFailed:
		status = errorStyle.Render(status)
	case cases.StatusReady, cases.StatusComplete:
		status = okStyle.Render(status)
	case cases.StatusRunning:
		status = stageStyle.Render(status)
	}

	line := fmt.Sprintf("%s  %-10s %-22s %s  %s",
		c.ID, status, c.Stage, mutedStyle.Render(string(c.Mode)), c.Title)
	if c.LastError != nil && c.Status == cases.StatusFailed {
		line += "\n    " + errorStyle.Render(*c.LastError)
	}
	return line
}

// FormatError renders err in a bordered block.
func FormatError(err error) string {
	return errorBox.Render("⚠ " + err.Error())
}
