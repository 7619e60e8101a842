package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6366f1"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6366f1"))

	activeTabStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("#6366f1")).Foreground(lipgloss.Color("#ffffff"))
	inactiveTabStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("244"))

	paneStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
)

// kindColors mirrors the node palette of the browser graph view.
var kindColors = map[string]lipgloss.Color{
	"Country":  lipgloss.Color("#0ea5e9"),
	"State":    lipgloss.Color("#f59e0b"),
	"Waiver":   lipgloss.Color("#6366f1"),
	"Document": lipgloss.Color("#6366f1"),
	"Theme":    lipgloss.Color("#10b981"),
}
