package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the calculator key bindings. Keypad characters are not
// bindings; they are appended to the pending input as typed.
type keyMap struct {
	Calculate     key.Binding
	Clear         key.Binding
	Reset         key.Binding
	Backspace     key.Binding
	Copy          key.Binding
	ToggleHistory key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Calculate: key.NewBinding(
			key.WithKeys("enter", "="),
			key.WithHelp("enter/=", "calculate"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c", "C", "esc"),
			key.WithHelp("c/esc", "clear"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reset"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("⌫", "delete"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "copy"),
		),
		ToggleHistory: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "history"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Calculate, k.Clear, k.Copy, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Calculate, k.Clear, k.Reset, k.Backspace},
		{k.Copy, k.ToggleHistory, k.Help, k.Quit},
	}
}

// keypadChars are the characters appended to the pending input
const keypadChars = "0123456789.+-*/()"
