package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/spagrid/internal/dateutil"
	"github.com/javiermolinar/spagrid/internal/tui/commands"
)

type keyMap struct {
	PrevDay    key.Binding
	NextDay    key.Binding
	Today      key.Binding
	GoTo       key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Window     key.Binding
	Reload     key.Binding
	Copy       key.Binding
	Cancel     key.Binding
	Help       key.Binding
	Quit       key.Binding
	ForceQuit  key.Binding
	PromptOK   key.Binding
	PromptExit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		PrevDay:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("←/h", "prev day")),
		NextDay:    key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("→/l", "next day")),
		Today:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		GoTo:       key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to date")),
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "scroll up")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "scroll down")),
		PageUp:     key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		Window:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "daytime/24h")),
		Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy agenda")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:  key.NewBinding(key.WithKeys("ctrl+c")),
		PromptOK:   key.NewBinding(key.WithKeys("enter")),
		PromptExit: key.NewBinding(key.WithKeys("esc")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevDay, k.NextDay, k.Window, k.Copy, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevDay, k.NextDay, k.Today, k.GoTo},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Window, k.Reload, k.Copy, k.Cancel},
		{k.Help, k.Quit},
	}
}

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	LogKeyPress(msg)

	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}
	if m.prompting {
		return m.handlePromptKeys(msg)
	}
	return m.handleNormalKeys(msg)
}

// handleNormalKeys handles keys while the grid has focus.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.gestures.Active() {
			m.gestures.Cancel()
			return m.withStatus("Cancelled", false)
		}

	case key.Matches(msg, m.keys.PrevDay):
		return m.goToDate(m.date.AddDate(0, 0, -1))
	case key.Matches(msg, m.keys.NextDay):
		return m.goToDate(m.date.AddDate(0, 0, 1))
	case key.Matches(msg, m.keys.Today):
		return m.goToDate(dateutil.TruncateToDay(m.nowFunc()))
	case key.Matches(msg, m.keys.Reload):
		return m.goToDate(m.date)

	case key.Matches(msg, m.keys.GoTo):
		m.prompting = true
		m.prompt.Reset()
		return m, m.prompt.Focus()

	case key.Matches(msg, m.keys.Up):
		m.setScroll(m.scroll - scrollStep)
	case key.Matches(msg, m.keys.Down):
		m.setScroll(m.scroll + scrollStep)
	case key.Matches(msg, m.keys.PageUp):
		m.setScroll(m.scroll - m.gridRows())
	case key.Matches(msg, m.keys.PageDown):
		m.setScroll(m.scroll + m.gridRows())

	case key.Matches(msg, m.keys.Window):
		m.toggleWindow()

	case key.Matches(msg, m.keys.Copy):
		text := Agenda(m.date, m.sched.Employees(), m.sched.Store())
		return m, commands.CopyText(text, "agenda")

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.setScroll(m.scroll)
	}
	return m, nil
}

// handlePromptKeys handles the go-to-date prompt.
func (m Model) handlePromptKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.PromptExit):
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case key.Matches(msg, m.keys.PromptOK):
		m.prompting = false
		m.prompt.Blur()
		date, err := dateutil.ParseDay(m.prompt.Value(), m.nowFunc())
		if err != nil {
			return m.withStatus("Invalid date: "+err.Error(), true)
		}
		return m.goToDate(date)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// goToDate drops any gesture and loads date.
func (m Model) goToDate(date time.Time) (tea.Model, tea.Cmd) {
	m.gestures.Cancel()
	m.date = dateutil.TruncateToDay(date)
	m.loading = true
	return m, commands.LoadDay(m.sched, m.date)
}

// toggleWindow switches between the daytime and full-day axis. Pixel
// positions of an active gesture are meaningless after the switch.
func (m *Model) toggleWindow() {
	m.gestures.Cancel()
	first := m.axis.PixelOffsetToTime(float64(m.scroll))
	m.axis.SetMode(m.axis.Mode().Toggle())
	m.setScroll(int(m.axis.TimeToPixelOffset(first)))
	LogWindowMode(m.axis.Mode().String(), m.axis.Generation())
}
