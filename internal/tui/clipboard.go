package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"golang.design/x/clipboard"
)

// clipboardCopyMsg is sent when the display was copied to the clipboard
type clipboardCopyMsg struct {
	Content string
	Err     error
}

// copyToClipboard copies content to the system clipboard
func copyToClipboard(content string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.Init(); err != nil {
			return clipboardCopyMsg{Err: fmt.Errorf("failed to initialize clipboard: %w", err)}
		}
		clipboard.Write(clipboard.FmtText, []byte(content))
		return clipboardCopyMsg{Content: content}
	}
}
