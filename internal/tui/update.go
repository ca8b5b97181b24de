package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/dateutil"
	"github.com/javiermolinar/spagrid/internal/interaction"
	"github.com/javiermolinar/spagrid/internal/tui/commands"
)

const (
	statusTTL = 3 * time.Second
	errorTTL  = 6 * time.Second
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.setScroll(m.scroll)
		return m, nil

	case commands.DayLoadedMsg:
		if !dateutil.TruncateToDay(msg.Day.Date).Equal(m.date) {
			// The user moved on before this day arrived.
			return m, nil
		}
		m.gestures.Cancel()
		m.sched.ApplyDay(msg.Day)
		m.loading = false
		m.scrollToWorkStart()
		if n := len(m.sched.ChainWarnings()); n > 0 {
			return m.withStatus(fmt.Sprintf("%d add-on(s) out of sequence", n), false)
		}
		return m, nil

	case commands.MutationSentMsg:
		next := m.sched.Settle(msg.Outcome)
		LogSettled(msg.Outcome, next)
		cmd := commands.SendMutation(m.sched, next)
		if notes := m.notes.drain(); len(notes) > 0 {
			updated, statusCmd := m.withStatus(strings.Join(notes, "; "), true)
			return updated, tea.Batch(cmd, statusCmd)
		}
		return m, cmd

	case commands.ErrMsg:
		LogError("command", msg.Err)
		m.loading = false
		return m.withStatus(fmt.Sprintf("Error: %v", msg.Err), true)

	case commands.StatusMsgCmd:
		return m.withStatus(msg.Msg, false)

	case commands.ClearStatusMsg:
		if !m.nowFunc().Before(m.statusTime) {
			m.statusMsg = ""
			m.statusError = false
		}
		return m, nil
	}

	if m.prompting {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleMouseMsg maps terminal mouse events onto pointer gestures. Cells are
// pixels: X is the column, Y the row.
func (m Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	p := interaction.Point{X: float64(msg.X), Y: float64(msg.Y)}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.setScroll(m.scroll - scrollStep)
		return m, nil
	case msg.Button == tea.MouseButtonWheelDown:
		m.setScroll(m.scroll + scrollStep)
		return m, nil

	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if m.loading || msg.Y < headerLines || msg.Y >= headerLines+m.gridRows() {
			return m, nil
		}
		hit, ok := m.hitTest(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		if err := m.gestures.PointerDown(hit, p); err != nil {
			return m.withStatus(err.Error(), true)
		}
		LogPointer("down", p, m.gestures.State().Name())
		return m, nil

	case msg.Action == tea.MouseActionMotion:
		if m.gestures.Active() {
			m.gestures.PointerMove(p)
		}
		return m, nil

	case msg.Action == tea.MouseActionRelease:
		if !m.gestures.Active() {
			return m, nil
		}
		LogPointer("up", p, m.gestures.State().Name())
		out := m.gestures.PointerUp(p)
		LogGesture(out)
		return m.handleGestureOutcome(out)
	}
	return m, nil
}

func (m Model) handleGestureOutcome(out interaction.Outcome) (tea.Model, tea.Cmd) {
	switch out.Result {
	case interaction.Committed:
		// A nil mutation was queued behind one already in flight.
		return m, commands.SendMutation(m.sched, out.Mutation)
	case interaction.Rejected:
		return m.withStatus(m.rejectionMessage(out), true)
	}
	return m, nil
}

func (m Model) rejectionMessage(out interaction.Outcome) string {
	name := string(out.AppointmentID)
	if a, ok := m.sched.Store().Get(out.AppointmentID); ok && a.ClientLabel != "" {
		name = a.ClientLabel
	}
	switch {
	case errors.Is(out.Err, interaction.ErrNoTarget):
		return fmt.Sprintf("Dropped %s outside the grid", name)
	case errors.Is(out.Err, appointment.ErrOutsideWorkingHours):
		return fmt.Sprintf("Cannot %s %s outside working hours", verb(out.Gesture), name)
	case errors.Is(out.Err, appointment.ErrEmployeeInactive):
		return fmt.Sprintf("Cannot %s %s to someone who is not working", verb(out.Gesture), name)
	default:
		return fmt.Sprintf("Cannot %s %s: %v", verb(out.Gesture), name, out.Err)
	}
}

func verb(gesture string) string {
	if gesture == "resizing" {
		return "resize"
	}
	return "move"
}

// withStatus shows a temporary message on the status line.
func (m Model) withStatus(msg string, isError bool) (tea.Model, tea.Cmd) {
	ttl := statusTTL
	if isError {
		ttl = errorTTL
	}
	m.statusMsg = msg
	m.statusError = isError
	m.statusTime = m.nowFunc().Add(ttl)
	return m, tea.Tick(ttl, func(time.Time) tea.Msg {
		return commands.ClearStatusMsg{}
	})
}

// scrollToWorkStart scrolls so the earliest shift start is near the top.
func (m *Model) scrollToWorkStart() {
	employees := m.sched.Employees()
	if len(employees) == 0 {
		m.setScroll(0)
		return
	}
	first := employees[0].WorkWindow.Start
	for _, e := range employees[1:] {
		first = min(first, e.WorkWindow.Start)
	}
	m.setScroll(int(m.axis.TimeToPixelOffset(first)) - scrollPadding)
}
