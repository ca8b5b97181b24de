package tui

import (
	"cmp"
	"math"
	"slices"

	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/interaction"
	"github.com/javiermolinar/spagrid/internal/layout"
)

// Screen layout. One terminal row is one pixel of the time axis.
const (
	gutterWidth   = 6 // "HH:MM "
	headerLines   = 2 // title, employee names
	footerLines   = 2 // status, short help
	minColWidth   = 8
	handleRows    = 1
	scrollStep    = 3
	scrollPadding = 2
)

// column is one employee's horizontal extent on screen. x0 holds the
// separator; lanes share [x0+1, x1).
type column struct {
	employee appointment.Employee
	x0, x1   int
}

func (c column) inner() (int, int) {
	return c.x0 + 1, c.x1
}

// laneSpan returns the cells [x0, x1) of lane col out of total inside a
// column interior of the given width. Every lane gets at least one cell.
func laneSpan(start, width, col, total int) (int, int) {
	if total <= 0 {
		total = 1
	}
	w := float64(width) / float64(total)
	x0 := start + int(math.Floor(float64(col)*w))
	x1 := start + int(math.Floor(float64(col+1)*w))
	if x1 <= x0 {
		x1 = x0 + 1
	}
	return x0, x1
}

// gridRows is the number of terminal rows available for the time axis.
func (m Model) gridRows() int {
	return max(m.height-headerLines-m.footerHeight(), 0)
}

func (m Model) footerHeight() int {
	if m.help.ShowAll {
		return 1 + lipgloss.Height(m.help.View(m.keys))
	}
	return footerLines
}

// axisRows is the full height of the time axis in rows.
func (m Model) axisRows() int {
	return int(math.Ceil(m.axis.Height()))
}

func (m Model) maxScroll() int {
	return max(m.axisRows()-m.gridRows(), 0)
}

func (m *Model) setScroll(rows int) {
	m.scroll = min(max(rows, 0), m.maxScroll())
	m.syncGeometry()
}

func (m Model) colWidth(n int) int {
	if n == 0 {
		return 0
	}
	return max((m.width-gutterWidth)/n, minColWidth)
}

// columns places the active employees left to right.
func (m Model) columns() []column {
	employees := m.sched.Employees()
	w := m.colWidth(len(employees))
	cols := make([]column, 0, len(employees))
	for i, e := range employees {
		x0 := gutterWidth + i*w
		cols = append(cols, column{employee: e, x0: x0, x1: x0 + w})
	}
	return cols
}

// syncGeometry tells the gesture controller where the columns are.
func (m *Model) syncGeometry() {
	employees := m.sched.Employees()
	ids := make([]appointment.EmployeeID, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}
	m.gestures.SetGeometry(interaction.Geometry{
		OriginX:     gutterWidth,
		OriginY:     float64(headerLines - m.scroll),
		ColumnWidth: float64(m.colWidth(len(employees))),
		Employees:   ids,
	})
}

// blockRows returns the screen rows [top, bottom) of the interval.
func (m Model) blockRows(start, end appointment.TimeOfDay) (int, int) {
	origin := float64(headerLines - m.scroll)
	top := int(math.Floor(origin + m.axis.TimeToPixelOffset(start)))
	bottom := int(math.Ceil(origin + m.axis.TimeToPixelOffset(end)))
	if bottom <= top {
		bottom = top + 1
	}
	return top, bottom
}

// block is an appointment placed on screen.
type block struct {
	appt      appointment.Appointment
	placement layout.Placement
	x0, x1    int
	top, bot  int
}

// blocks returns every visible appointment of col with its screen rectangle,
// in drawing order.
func (m Model) blocks(col column) []block {
	placements := m.sched.Layout(col.employee.ID)
	start, end := col.inner()
	width := end - start
	var out []block
	for _, a := range m.sched.Store().Visible(col.employee.ID) {
		p, ok := placements[a.ID]
		if !ok {
			continue
		}
		x0, x1 := laneSpan(start, width, p.Column, p.TotalColumns)
		top, bot := m.blockRows(a.Start, a.End)
		out = append(out, block{appt: a, placement: p, x0: x0, x1: x1, top: top, bot: bot})
	}
	slices.SortStableFunc(out, func(a, b block) int {
		return cmp.Compare(a.placement.StackOrder, b.placement.StackOrder)
	})
	return out
}

// hitTest finds the topmost block under a screen position.
func (m Model) hitTest(x, y int) (interaction.Hit, bool) {
	var (
		found bool
		best  block
	)
	for _, col := range m.columns() {
		if x < col.x0 || x >= col.x1 {
			continue
		}
		for _, b := range m.blocks(col) {
			if x < b.x0 || x >= b.x1 || y < b.top || y >= b.bot {
				continue
			}
			if !found || b.placement.StackOrder >= best.placement.StackOrder {
				best, found = b, true
			}
		}
	}
	if !found {
		return interaction.Hit{}, false
	}
	kind := interaction.Classify(float64(best.top), float64(best.bot), float64(y), handleRows)
	return interaction.Hit{AppointmentID: best.appt.ID, Kind: kind}, true
}
