package cli

import "github.com/charmbracelet/lipgloss"

var (
	Red      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	Green    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F"))
	Yellow   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F"))
	BlueSky  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF"))
	Gray     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	Bold     = lipgloss.NewStyle().Bold(true)
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5FAFFF")).
			Padding(0, 1)
)
