package tui

import "github.com/charmbracelet/lipgloss"

// Status values shown in the STATUS column.
const (
	StatusPending  = "pending"
	StatusChecking = "checking"
	StatusCurrent  = "current"
	StatusUpgrade  = "upgrade"
	StatusRefresh  = "refresh"
	StatusMissing  = "missing"
	StatusError    = "error"
	StatusWarning  = "warning"
)

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	statusStyles = map[string]lipgloss.Style{
		StatusCurrent:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		StatusUpgrade:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		StatusRefresh:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		StatusChecking: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		StatusMissing:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		StatusError:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		StatusWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		StatusPending:  lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
