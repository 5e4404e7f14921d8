package tui

import "github.com/charmbracelet/lipgloss"

var (
	// titleStyle is the style for the application title in the header
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginLeft(2)

	// statusStyle is the style for informational status messages
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginLeft(2)

	// errorStyle is the style for evaluation errors in the status line
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			MarginLeft(2)

	// displayStyle frames the calculator display
	displayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Align(lipgloss.Right).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241")).
			Width(5).
			Align(lipgloss.Center)

	operatorKeyStyle = keyStyle.
				Foreground(lipgloss.Color("214"))

	// pressedKeyStyle highlights the key that was typed last
	pressedKeyStyle = keyStyle.
			BorderForeground(lipgloss.Color("170")).
			Foreground(lipgloss.Color("170")).
			Bold(true)

	historyPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("241")).
				Padding(0, 1)

	historyTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")).
				Bold(true)

	historyItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	historyErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))

	historyEmptyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
)
