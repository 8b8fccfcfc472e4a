package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"golang.design/x/clipboard"
)

// ClipboardCopyMsg reports the outcome of a copy.
type ClipboardCopyMsg struct {
	Content string
	Success bool
	Error   string
}

// clipboardWriter is swapped out in tests.
var clipboardWriter = func(content string) error {
	if err := clipboard.Init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(content))
	return nil
}

// copyToClipboard copies content to system clipboard
func copyToClipboard(content string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboardWriter(content); err != nil {
			return ClipboardCopyMsg{
				Success: false,
				Error:   fmt.Sprintf("Failed to initialize clipboard: %v", err),
			}
		}
		return ClipboardCopyMsg{Content: content, Success: true}
	}
}
