package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/dateutil"
	"github.com/javiermolinar/spagrid/internal/interaction"
	"github.com/javiermolinar/spagrid/internal/workhours"
)

var hours workhours.Validator

// View renders the grid.
func (m Model) View() string {
	if m.width <= gutterWidth+minColWidth || m.gridRows() <= 0 {
		return "Terminal too small"
	}

	sections := []string{m.renderTitle(), m.renderColumnHeader()}
	switch {
	case m.loading:
		sections = append(sections, m.placeMessage("Loading..."))
	case len(m.sched.Employees()) == 0:
		sections = append(sections, m.placeMessage("Nobody is working on "+m.date.Format("Mon 2 Jan 2006")))
	default:
		sections = append(sections, m.renderGrid())
	}
	sections = append(sections, m.renderStatus(), m.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTitle() string {
	title := m.styles.Title.Render(" spagrid ")
	w := m.axis.Window()
	info := fmt.Sprintf(" %s  ·  branch %s  ·  %s %s-%s",
		m.date.Format("Mon 2 Jan 2006"), m.config.Branch.ID, m.axis.Mode(), w.Start, w.End)
	if m.isToday() {
		info += "  ·  today"
	}
	line := title + m.styles.TitleMuted.Render(info)
	return m.styles.Grid.Width(m.width).MaxWidth(m.width).Render(line)
}

func (m Model) renderColumnHeader() string {
	c := newCanvas(m.width, 1, m.styles.Grid)
	header := c.style("header", m.styles.ColumnHeader)
	for _, col := range m.columns() {
		c.fill(col.x0, 0, col.x1, 1, header)
		name := col.employee.Name
		if name == "" {
			name = string(col.employee.ID)
		}
		label := fmt.Sprintf("%s %s-%s", name, col.employee.WorkWindow.Start, col.employee.WorkWindow.End)
		if ansi.StringWidth(label) > col.x1-col.x0-1 {
			label = name
		}
		if col.employee.DisplayColor != "" {
			key := "header:" + col.employee.DisplayColor
			idx := c.style(key, m.styles.ColumnHeader.Foreground(lipgloss.Color(col.employee.DisplayColor)))
			c.fill(col.x0+1, 0, col.x1, 1, idx)
		}
		c.text(col.x0+1, 0, col.x1-col.x0-1, label)
	}
	return c.render()
}

func (m Model) placeMessage(msg string) string {
	return lipgloss.Place(m.width, m.gridRows(), lipgloss.Center, lipgloss.Center,
		m.styles.TitleMuted.Render(msg),
		lipgloss.WithWhitespaceBackground(m.styles.Palette().Bg))
}

// renderGrid paints the visible rows of the time axis. Canvas row r is
// screen row headerLines+r.
func (m Model) renderGrid() string {
	rows := m.gridRows()
	c := newCanvas(m.width, rows, m.styles.Grid)
	off := c.style("off", m.styles.OffHours)
	sep := c.style("sep", m.styles.Separator)
	hourLine := c.style("hour", m.styles.HourLine)
	gutter := c.style("gutter", m.styles.Gutter)
	gutterHour := c.style("gutterHour", m.styles.GutterHour)

	cols := m.columns()
	for r := 0; r < rows; r++ {
		y := float64(r + m.scroll)
		if y >= m.axis.Height() {
			break
		}
		t := m.axis.PixelOffsetToTime(y)
		firstRow := m.isFirstRowOf(t, r+m.scroll)

		if firstRow && t.Minutes()%60 == 0 {
			c.fill(0, r, gutterWidth, r+1, gutterHour)
			c.text(0, r, gutterWidth-1, t.String())
		} else {
			c.fill(0, r, gutterWidth, r+1, gutter)
		}

		for _, col := range cols {
			c.set(col.x0, r, '│', sep)
			x0, x1 := col.inner()
			if !hours.IsSlotWithinHours(col.employee, t) {
				c.fill(x0, r, x1, r+1, off)
				continue
			}
			if firstRow && t.Minutes()%60 == 0 {
				for x := x0; x < x1; x++ {
					c.set(x, r, '┈', hourLine)
				}
			}
		}
	}

	for _, col := range cols {
		for _, b := range m.blocks(col) {
			m.paintBlock(c, b, col)
		}
	}
	m.paintPreview(c, cols)
	return c.render()
}

// isFirstRowOf reports whether row is the first row of the slot starting at t.
func (m Model) isFirstRowOf(t appointment.TimeOfDay, row int) bool {
	return row == int(math.Ceil(m.axis.TimeToPixelOffset(t)))
}

func (m Model) paintBlock(c *canvas, b block, col column) {
	key, style := m.styles.Block(b.appt.Status, b.placement.Column, col.employee.DisplayColor)
	_, previewing := m.gestures.Preview(b.appt.ID)
	if previewing {
		key, style = "origin", m.styles.Origin
	}
	idx := c.style(key, style)
	top, bot := b.top-headerLines, b.bot-headerLines
	c.fill(b.x0, top, b.x1, bot, idx)
	m.writeBlockText(c, b.appt, b.x0, b.x1, top, bot)
}

// paintPreview draws the ghost of the appointment being dragged or resized,
// full column width, over everything else.
func (m Model) paintPreview(c *canvas, cols []column) {
	id, ok := m.gestureAppointment()
	if !ok {
		return
	}
	preview, ok := m.gestures.Preview(id)
	if !ok {
		return
	}
	for _, col := range cols {
		if col.employee.ID != preview.EmployeeID {
			continue
		}
		key, style := "ghost", m.styles.Ghost
		if !m.gestures.PreviewFits() {
			key, style = "ghostInvalid", m.styles.GhostInvalid
		}
		idx := c.style(key, style)
		top, bot := m.blockRows(preview.Start, preview.End)
		top, bot = top-headerLines, bot-headerLines
		x0, x1 := col.inner()
		c.fill(x0, top, x1, bot, idx)
		m.writeBlockText(c, preview, x0, x1, top, bot)
	}
}

func (m Model) writeBlockText(c *canvas, a appointment.Appointment, x0, x1, top, bot int) {
	width := x1 - x0
	lines := blockLines(a, m.sched.Pending(a.ID))
	for i, line := range lines {
		if top+i >= bot {
			break
		}
		c.text(x0, top+i, width, line)
	}
}

// blockLines is the text of a block, most important first.
func blockLines(a appointment.Appointment, pending bool) []string {
	first := a.Start.String() + " " + a.ClientLabel
	if pending {
		first = "• " + first
	}
	if a.IsChild() {
		first = "↳ " + first
	}
	status := fmt.Sprintf("%s-%s %s", a.Start, a.End, a.Status)
	if a.Paid {
		status += " paid"
	}
	return []string{first, a.ServiceLabel, status}
}

func (m Model) gestureAppointment() (appointment.ID, bool) {
	switch s := m.gestures.State().(type) {
	case interaction.Dragging:
		return s.Appointment.ID, true
	case interaction.Resizing:
		return s.Appointment.ID, true
	}
	return "", false
}

func (m Model) renderStatus() string {
	style := m.styles.StatusInfo
	msg := m.statusMsg
	switch {
	case m.prompting:
		return m.styles.Grid.Width(m.width).Render(" " + m.prompt.View())
	case msg != "" && m.statusError:
		style = m.styles.StatusError
	case msg == "":
		var parts []string
		if n := m.sched.Store().Len(); n > 0 {
			parts = append(parts, fmt.Sprintf("%d appointments", n))
		}
		if n := len(m.sched.ChainWarnings()); n > 0 {
			parts = append(parts, fmt.Sprintf("%d add-ons out of sequence", n))
			style = m.styles.StatusWarn
		}
		msg = strings.Join(parts, "  ·  ")
	}
	return style.Width(m.width).MaxWidth(m.width).Render(" " + msg)
}

func (m Model) renderHelp() string {
	return m.styles.Help.Width(m.width).MaxWidth(m.width).Render(" " + m.help.View(m.keys))
}

func (m Model) isToday() bool {
	return dateutil.TruncateToDay(m.nowFunc()).Equal(m.date)
}
