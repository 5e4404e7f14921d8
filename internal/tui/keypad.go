package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/codefionn/schnellrechner/internal/session"
)

// keypadRows is the layout of the on-screen keypad
var keypadRows = [][]string{
	{"7", "8", "9", "/"},
	{"4", "5", "6", "*"},
	{"1", "2", "3", "-"},
	{"0", ".", session.KeyEquals, "+"},
	{"(", ")", session.KeyClear, "⌫"},
}

// keypadWidth is the rendered width of one keypad row
var keypadWidth = lipgloss.Width(renderKeypad(""))

// renderKeypad draws the keypad grid, highlighting pressed
func renderKeypad(pressed string) string {
	rows := make([]string, 0, len(keypadRows))
	for _, row := range keypadRows {
		cells := make([]string, 0, len(row))
		for _, label := range row {
			style := keyStyle
			switch {
			case label == pressed:
				style = pressedKeyStyle
			case strings.Contains("+-*/=", label):
				style = operatorKeyStyle
			}
			cells = append(cells, style.Render(label))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
