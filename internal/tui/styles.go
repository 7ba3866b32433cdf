package tui

import "github.com/charmbracelet/lipgloss"

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	TitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	blue   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	// Statuses cover download rows and server startup phases.
	statusStyles = map[string]lipgloss.Style{
		"downloaded": green,
		"cached":     green,
		"ready":      green,

		"resolving":      blue,
		"downloading":    blue,
		"acquiring":      blue,
		"configuring":    blue,
		"spawning":       blue,
		"awaiting-ready": blue,

		"timed-out": yellow,
		"error":     red,
		"failed":    red,

		"pending": lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the style for a status or phase name.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// Terminal reports whether status ends a row's work.
func Terminal(status string) bool {
	switch status {
	case "downloaded", "cached", "ready", "timed-out", "error", "failed":
		return true
	}
	return false
}
