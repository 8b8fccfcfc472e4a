package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/codefionn/tapcalc/internal/history"
)

// historyItem wraps a stored calculation for the list.
type historyItem struct {
	entry history.Entry
}

// FilterValue implements list.Item
func (i historyItem) FilterValue() string { return i.entry.Expression }

func (i historyItem) Title() string { return i.entry.Expression }

func (i historyItem) Description() string {
	return fmt.Sprintf("= %s • %s", i.entry.Result, formatRelativeTime(i.entry.Timestamp))
}

// formatRelativeTime formats a time.Time as a relative time string
func formatRelativeTime(t time.Time) string {
	duration := time.Since(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		if minutes := int(duration.Minutes()); minutes != 1 {
			return fmt.Sprintf("%d minutes ago", minutes)
		}
		return "1 minute ago"
	case duration < 24*time.Hour:
		if hours := int(duration.Hours()); hours != 1 {
			return fmt.Sprintf("%d hours ago", hours)
		}
		return "1 hour ago"
	default:
		return t.Format("2006-01-02 15:04")
	}
}

var (
	historyItemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	historySelectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	historyDescStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	historyTitleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).MarginBottom(1)
)

// historyDelegate renders an expression on one line and its result below.
type historyDelegate struct {
	width int
}

func (d historyDelegate) Height() int  { return 2 }
func (d historyDelegate) Spacing() int { return 1 }
func (d historyDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d historyDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(historyItem)
	if !ok {
		return
	}

	// 4 for left padding + 2 for margins
	availableWidth := d.width - 6
	if availableWidth < 20 {
		availableWidth = 20
	}

	expression := truncate.StringWithTail(item.Title(), uint(availableWidth), "…")
	var title string
	if index == m.Index() {
		title = historySelectedItemStyle.Render("▸ " + expression)
	} else {
		title = historyItemStyle.Render("  " + expression)
	}

	desc := wordwrap.String(item.Description(), availableWidth)
	if first, _, found := strings.Cut(desc, "\n"); found {
		desc = first + "…"
	}

	fmt.Fprintf(w, "%s\n%s", title, historyItemStyle.Render(historyDescStyle.Render(desc)))
}

// historyPanel is the list of past calculations shown beside the keypad.
type historyPanel struct {
	list     list.Model
	delegate historyDelegate
	err      error
}

func newHistoryPanel(width, height int) historyPanel {
	delegate := historyDelegate{width: width}
	l := list.New(nil, delegate, width, height)
	l.Title = "History"
	l.Styles.Title = historyTitleStyle
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	// "/" divides, so the list never filters.
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return historyPanel{list: l, delegate: delegate}
}

func (p *historyPanel) setEntries(entries []history.Entry) {
	items := make([]list.Item, len(entries))
	for i, entry := range entries {
		items[i] = historyItem{entry: entry}
	}
	p.list.SetItems(items)
	p.err = nil
}

func (p *historyPanel) setSize(width, height int) {
	p.list.SetSize(width, height)
	p.delegate.width = width
	p.list.SetDelegate(p.delegate)
}

// selected returns the highlighted entry, if any.
func (p *historyPanel) selected() (history.Entry, bool) {
	item, ok := p.list.SelectedItem().(historyItem)
	if !ok {
		return history.Entry{}, false
	}
	return item.entry, true
}

func (p *historyPanel) view() string {
	if p.err != nil {
		return errorStyle.Render(fmt.Sprintf("History unavailable: %v", p.err))
	}
	if len(p.list.Items()) == 0 {
		return historyTitleStyle.Render("History") + "\n" + historyDescStyle.Render("No calculations yet")
	}
	return p.list.View()
}
