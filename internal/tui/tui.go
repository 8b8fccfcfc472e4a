// Package tui is the interactive terminal front end: a keypad driven by
// the keyboard with the formula, display and a history panel.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codefionn/tapcalc/internal/calc"
	"github.com/codefionn/tapcalc/internal/config"
	"github.com/codefionn/tapcalc/internal/history"
	"github.com/codefionn/tapcalc/internal/keypad"
	"github.com/codefionn/tapcalc/internal/logger"
)

const (
	historyPanelTriggerWidth = 70
	historyPanelWidth        = 36
	displayWidth             = 28
	errVisibleFor            = 3 * time.Second
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginLeft(2)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginLeft(2)

	formulaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Align(lipgloss.Right)

	displayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Align(lipgloss.Right)

	displayBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			MarginLeft(2)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Width(7).
			Align(lipgloss.Center)

	dimKeyStyle = keyStyle.
			Foreground(lipgloss.Color("238"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			MarginLeft(2)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			MarginLeft(2)
)

// HistorySource is the part of the history client the UI reads from.
type HistorySource interface {
	LoadAll(ctx context.Context) ([]history.Entry, error)
	Clear(ctx context.Context) error
}

type historyLoadedMsg struct {
	entries []history.Entry
	err     error
}

type historyClearedMsg struct {
	err error
}

type configReloadedMsg struct {
	config *config.Config
}

// Model is the bubbletea model of the calculator.
type Model struct {
	engine      *calc.Engine
	history     HistorySource
	config      *config.Config
	configCh    <-chan *config.Config
	keys        keyMap
	help        help.Model
	panel       historyPanel
	showHistory bool
	browsing    bool
	width       int
	height      int
	err         error
	errUntil    time.Time
	notice      string
	log         *logger.Logger
	now         func() time.Time
}

// New creates the model. history may be nil, in which case the panel stays
// empty.
func New(engine *calc.Engine, source HistorySource, cfg *config.Config) *Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Model{
		engine:      engine,
		history:     source,
		config:      cfg,
		keys:        defaultKeyMap(),
		help:        help.New(),
		panel:       newHistoryPanel(historyPanelWidth, 20),
		showHistory: true,
		log:         logger.Global().WithPrefix("tui"),
		now:         time.Now,
	}
}

// WatchConfig makes the model apply configs received on ch.
func (m *Model) WatchConfig(ch <-chan *config.Config) {
	m.configCh = ch
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadHistory(), m.waitForConfig())
}

func (m *Model) loadHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	source := m.history
	return func() tea.Msg {
		entries, err := source.LoadAll(context.Background())
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func (m *Model) clearHistory() tea.Cmd {
	if m.history == nil {
		return nil
	}
	source := m.history
	return func() tea.Msg {
		return historyClearedMsg{err: source.Clear(context.Background())}
	}
}

func (m *Model) waitForConfig() tea.Cmd {
	if m.configCh == nil {
		return nil
	}
	ch := m.configCh
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configReloadedMsg{config: cfg}
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.panel.setSize(historyPanelWidth, max(msg.Height-4, 5))
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.log.Warn("load history: %v", msg.err)
			m.panel.err = msg.err
			return m, nil
		}
		m.panel.setEntries(msg.entries)
		return m, nil

	case historyClearedMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.notice = "History cleared"
		return m, m.loadHistory()

	case configReloadedMsg:
		m.applyConfig(msg.config)
		return m, m.waitForConfig()

	case ClipboardCopyMsg:
		if !msg.Success {
			m.setError(errors.New(msg.Error))
			return m, nil
		}
		m.notice = fmt.Sprintf("Copied %s", msg.Content)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Copy):
		return m, copyToClipboard(m.copyTarget())
	case key.Matches(msg, m.keys.History):
		m.showHistory = !m.showHistory
		return m, nil
	case key.Matches(msg, m.keys.ClearHistory):
		return m, m.clearHistory()
	case key.Matches(msg, m.keys.SwitchMode):
		next := calc.ModeBasic
		if m.engine.Mode() == calc.ModeBasic {
			next = calc.ModeScientific
		}
		return m, m.dispatch(keypad.Event{Kind: keypad.SwitchMode, Value: next.String()})
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	// Arrow keys browse the history panel.
	if m.showHistory {
		switch msg.String() {
		case "up", "down", "pgup", "pgdown", "home", "end":
			var cmd tea.Cmd
			m.browsing = true
			m.panel.list, cmd = m.panel.list.Update(msg)
			return m, cmd
		}
	}

	ev, ok := eventForKey(msg)
	if !ok {
		return m, nil
	}
	m.browsing = false
	return m, m.dispatch(ev)
}

// dispatch applies ev and schedules a history reload after "=".
func (m *Model) dispatch(ev keypad.Event) tea.Cmd {
	if err := keypad.Dispatch(m.engine, ev); err != nil {
		m.log.Debug("%s: %v", ev, err)
		m.setError(err)
	} else {
		m.err = nil
	}
	if ev.Kind == keypad.Equal {
		return m.loadHistory()
	}
	return nil
}

// copyTarget is the highlighted history result after browsing the panel,
// otherwise the display.
func (m *Model) copyTarget() string {
	if m.showHistory && m.browsing {
		if entry, ok := m.panel.selected(); ok {
			return entry.Result
		}
	}
	return m.engine.Display()
}

func (m *Model) setError(err error) {
	m.err = err
	m.errUntil = m.now().Add(errVisibleFor)
}

// applyConfig takes over the settings that can change while running.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if err := cfg.Validate(); err != nil {
		m.log.Warn("ignoring reloaded config: %v", err)
		return
	}
	m.config = cfg
	logger.Global().SetLevel(logger.ParseLevel(cfg.LogLevel))
	if angle := cfg.Angle(); angle != m.engine.AngleMode() {
		m.engine.SetAngleMode(angle)
	}
	if mode := cfg.CalculatorMode(); mode != m.engine.Mode() {
		m.engine.SwitchMode(mode)
	}
	m.notice = "Configuration reloaded"
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(m.renderDisplay())
	sb.WriteString("\n")
	sb.WriteString(m.renderKeypad())

	main := sb.String()
	if m.showHistory && m.width >= historyPanelTriggerWidth {
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, "  ", m.panel.view())
	}

	return main + "\n" + m.renderFooter() + "\n" + statusStyle.Render(m.help.View(m.keys))
}

func (m *Model) renderHeader() string {
	title := titleStyle.Render("tapcalc")
	status := statusStyle.Render(fmt.Sprintf("%s • %s", m.engine.Mode(), strings.ToUpper(m.engine.AngleMode().String())))
	if mem := m.engine.Memory(); mem != 0 {
		status += statusStyle.Render("M")
	}
	return title + status + "\n"
}

// renderDisplay shows the formula line above the display value. Long
// lines are cut from the left so the latest input stays visible.
func (m *Model) renderDisplay() string {
	formula := ""
	if m.config.ShowFormula {
		formula = m.engine.Formula()
		if formula == "" {
			formula = m.engine.HistoryLine()
		}
	}
	formula = tail(formula, displayWidth)
	display := tail(m.engine.Display(), displayWidth)

	return displayBoxStyle.Render(
		formulaStyle.Width(displayWidth).Render(formula) + "\n" +
			displayStyle.Width(displayWidth).Render(display),
	)
}

// tail keeps the last width cells of s, marking the cut with an ellipsis.
func tail(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width("…"+string(runes)) > width {
		runes = runes[1:]
	}
	return "…" + string(runes)
}

var (
	basicRows = [][]string{
		{"C", "±", "%", "÷"},
		{"7", "8", "9", "×"},
		{"4", "5", "6", "-"},
		{"1", "2", "3", "+"},
		{"0", ".", "="},
	}
	scientificRows = [][]string{
		{"sin", "cos", "tan", "( )", "DRG"},
		{"ln", "log", "√", "x²", "x!"},
		{"mc", "m+", "m-", "mr", "π"},
	}
)

func (m *Model) renderKeypad() string {
	var rows []string
	scientific := m.engine.Mode() == calc.ModeScientific
	for _, row := range scientificRows {
		cells := make([]string, len(row))
		for i, label := range row {
			if scientific {
				cells[i] = keyStyle.Render(label)
			} else {
				cells[i] = dimKeyStyle.Render(label)
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	for _, row := range basicRows {
		cells := make([]string, len(row))
		for i, label := range row {
			cells[i] = keyStyle.Render(label)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.NewStyle().MarginLeft(2).Render(strings.Join(rows, "\n"))
}

// renderFooter shows the last error while it is fresh, otherwise any notice.
func (m *Model) renderFooter() string {
	if m.err != nil && m.now().Before(m.errUntil) {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if m.notice != "" {
		return noticeStyle.Render(m.notice)
	}
	return ""
}
