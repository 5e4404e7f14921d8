// Package tui implements the interactive terminal keypad.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/codefionn/schnellrechner/internal/calc"
	"github.com/codefionn/schnellrechner/internal/history"
	"github.com/codefionn/schnellrechner/internal/logger"
	"github.com/codefionn/schnellrechner/internal/session"
	"github.com/muesli/reflow/truncate"
)

const (
	defaultWidth      = 60
	historyPanelWidth = 32
	historyRows       = 12
)

// Options configures a Model
type Options struct {
	Session     *session.Session
	Store       *history.Store // optional, backs the history panel
	ShowHistory bool
	Logger      *logger.Logger
}

// historyLoadedMsg carries entries read from the history store
type historyLoadedMsg struct {
	entries []history.Entry
	err     error
}

// Model is the bubbletea model of the calculator
type Model struct {
	ctx     context.Context
	session *session.Session
	store   *history.Store
	log     *logger.Logger

	keys     keyMap
	help     help.Model
	helpView viewport.Model
	showHelp bool

	showHistory bool
	history     []history.Entry

	lastKey     string
	status      string
	statusError bool

	width  int
	height int
}

// New creates the calculator model
func New(ctx context.Context, opts Options) *Model {
	sess := opts.Session
	if sess == nil {
		sess = session.New(session.WithLogger(opts.Logger))
	}
	log := opts.Logger
	if log == nil {
		log = logger.Global()
	}

	return &Model{
		ctx:         ctx,
		session:     sess,
		store:       opts.Store,
		log:         log.WithPrefix("tui"),
		keys:        defaultKeyMap(),
		help:        help.New(),
		helpView:    viewport.New(defaultWidth, 20),
		showHistory: opts.ShowHistory,
		width:       defaultWidth,
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.loadHistory()
}

// loadHistory reads the newest entries from the store
func (m *Model) loadHistory() tea.Cmd {
	if m.store == nil {
		return nil
	}
	store := m.store
	ctx := m.ctx
	return func() tea.Msg {
		entries, err := store.List(ctx, historyRows)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.helpView.Width = msg.Width
		m.helpView.Height = max(msg.Height-4, 5)
		if m.showHelp {
			m.helpView.SetContent(renderHelp(msg.Width - 4))
		}
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.log.Warn("failed to load history: %v", msg.err)
			m.setError(fmt.Sprintf("history unavailable: %v", msg.err))
			return m, nil
		}
		m.history = msg.entries
		return m, nil

	case clipboardCopyMsg:
		if msg.Err != nil {
			m.setError(msg.Err.Error())
		} else {
			m.setStatus("copied " + msg.Content)
		}
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			return m.updateHelp(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help), msg.Type == tea.KeyEsc, msg.String() == "q":
		m.showHelp = false
		return m, nil
	}
	var cmd tea.Cmd
	m.helpView, cmd = m.helpView.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Calculate):
		m.lastKey = session.KeyEquals
		return m, m.calculate()

	case key.Matches(msg, m.keys.Clear):
		m.lastKey = session.KeyClear
		m.session.Clear()
		m.setStatus("")
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		m.lastKey = session.KeyClear
		m.session.Reset()
		m.setStatus("previous result forgotten")
		return m, nil

	case key.Matches(msg, m.keys.Backspace):
		m.lastKey = "⌫"
		m.session.Backspace()
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		content := m.session.Display()
		if content == "" {
			m.setStatus("nothing to copy")
			return m, nil
		}
		return m, copyToClipboard(content)

	case key.Matches(msg, m.keys.ToggleHistory):
		m.showHistory = !m.showHistory
		if m.showHistory {
			return m, m.loadHistory()
		}
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.helpView.SetContent(renderHelp(m.width - 4))
		m.helpView.GotoTop()
		return m, nil
	}

	if msg.Type == tea.KeyRunes {
		for _, r := range msg.Runes {
			if !strings.ContainsRune(keypadChars, r) {
				m.setError(fmt.Sprintf("unsupported key %q", r))
				return m, nil
			}
		}
		text := string(msg.Runes)
		m.session.Append(text)
		m.lastKey = text[len(text)-1:]
		m.status = ""
	}
	return m, nil
}

// calculate evaluates the pending input and reports the outcome
func (m *Model) calculate() tea.Cmd {
	outcome := m.session.Calculate(m.ctx)
	if !outcome.Evaluated {
		return nil
	}

	if outcome.Err != nil {
		m.setError(errorMessage(outcome.Expression, outcome.Err))
	} else {
		m.setStatus(fmt.Sprintf("%s = %s", outcome.Expression, outcome.Display))
	}

	if m.store == nil {
		m.history = append([]history.Entry{localEntry(outcome)}, m.history...)
		if len(m.history) > historyRows {
			m.history = m.history[:historyRows]
		}
		return nil
	}
	return m.loadHistory()
}

// localEntry builds a history entry for the panel when no store is configured
func localEntry(outcome session.Outcome) history.Entry {
	entry := history.Entry{Expression: outcome.Expression}
	if outcome.Err != nil {
		entry.ErrorKind = calc.KindOf(outcome.Err).String()
		entry.Error = outcome.Err.Error()
	} else {
		result := outcome.Result
		entry.Result = &result
	}
	return entry
}

func errorMessage(expr string, err error) string {
	if kind := calc.KindOf(err); kind != calc.KindNone {
		return fmt.Sprintf("%s: %s (%s)", kind, err, expr)
	}
	return err.Error()
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusError = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusError = true
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("schnellrechner"))
	sb.WriteString("\n\n")

	if m.showHelp {
		sb.WriteString(m.helpView.View())
		sb.WriteString("\n")
		sb.WriteString(statusStyle.Render("↑/↓: scroll • ?/esc: close help"))
		return sb.String()
	}

	displayWidth := keypadWidth
	sb.WriteString(displayStyle.Width(displayWidth).Render(fitDisplay(m.session.Display(), displayWidth-2)))
	sb.WriteString("\n")

	body := renderKeypad(m.lastKey)
	if m.showHistory && m.width >= keypadWidth+historyPanelWidth+2 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, " ", m.renderHistory())
	}
	sb.WriteString(body)
	sb.WriteString("\n")

	if m.status != "" {
		if m.statusError {
			sb.WriteString(errorStyle.Render(m.status))
		} else {
			sb.WriteString(statusStyle.Render(m.status))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))

	return sb.String()
}

// fitDisplay keeps the end of s visible when it is wider than width
func fitDisplay(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	keep := width - 1
	if keep < 0 {
		keep = 0
	}
	if keep > len(runes) {
		keep = len(runes)
	}
	return "…" + string(runes[len(runes)-keep:])
}

func (m *Model) renderHistory() string {
	inner := historyPanelWidth - 4
	lines := []string{historyTitleStyle.Render("History")}

	if len(m.history) == 0 {
		lines = append(lines, historyEmptyStyle.Render("no calculations yet"))
	}
	for _, entry := range m.history {
		var line string
		if entry.Succeeded() {
			line = fmt.Sprintf("%s = %s", entry.Expression, calc.FormatResult(*entry.Result, calc.ShortestPrecision))
			line = historyItemStyle.Render(truncate.StringWithTail(line, uint(inner), "…"))
		} else {
			line = fmt.Sprintf("%s: %s", entry.Expression, entry.ErrorKind)
			line = historyErrorStyle.Render(truncate.StringWithTail(line, uint(inner), "…"))
		}
		lines = append(lines, line)
	}

	return historyPanelStyle.Width(historyPanelWidth - 2).Render(strings.Join(lines, "\n"))
}

// Run starts the keypad program and blocks until the user quits
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run keypad: %w", err)
	}
	return nil
}
