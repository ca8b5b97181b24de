package interaction

import (
	"errors"
	"fmt"
	"math"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/schedule"
	"github.com/javiermolinar/spagrid/internal/store"
	"github.com/javiermolinar/spagrid/internal/timeaxis"
	"github.com/javiermolinar/spagrid/internal/workhours"
)

var (
	// ErrGestureInProgress is returned by PointerDown outside Idle.
	ErrGestureInProgress = errors.New("another gesture is in progress")
	// ErrNoTarget means the drag ended off the grid.
	ErrNoTarget = errors.New("no drop target")
)

// Committer receives finished gestures. schedule.Controller implements it.
type Committer interface {
	MoveAppointment(id appointment.ID, emp appointment.EmployeeID, start appointment.TimeOfDay) (*schedule.Mutation, error)
	ResizeAppointment(id appointment.ID, durationMinutes int) (*schedule.Mutation, error)
	ResizeAppointmentStart(id appointment.ID, start appointment.TimeOfDay) (*schedule.Mutation, error)
}

// Schedule is what the controller reads from and commits to.
type Schedule interface {
	Committer
	Store() store.Reader
	Employee(id appointment.EmployeeID) (appointment.Employee, bool)
}

// Geometry places employee columns horizontally. OriginX/OriginY is the
// top-left corner of the first column at the window start.
type Geometry struct {
	OriginX     float64
	OriginY     float64
	ColumnWidth float64
	Employees   []appointment.EmployeeID
}

// EmployeeAt returns the employee whose column contains x.
func (g Geometry) EmployeeAt(x float64) (appointment.EmployeeID, bool) {
	if g.ColumnWidth <= 0 || x < g.OriginX {
		return "", false
	}
	i := int(math.Floor((x - g.OriginX) / g.ColumnWidth))
	if i >= len(g.Employees) {
		return "", false
	}
	return g.Employees[i], true
}

// Result classifies how a gesture ended.
type Result int

const (
	NoOp Result = iota
	Committed
	Rejected
)

func (r Result) String() string {
	switch r {
	case Committed:
		return "committed"
	case Rejected:
		return "rejected"
	default:
		return "noop"
	}
}

// Outcome describes the end of a gesture. Mutation is nil when nothing was
// committed or when the commit was queued behind an earlier one.
type Outcome struct {
	Result        Result
	Gesture       string
	AppointmentID appointment.ID
	Mutation      *schedule.Mutation
	Err           error
}

// Controller owns the single active gesture.
type Controller struct {
	axis      *timeaxis.Axis
	schedule  Schedule
	validator workhours.Validator
	geometry  Geometry
	state     State
}

// New creates a controller in the Idle state.
func New(axis *timeaxis.Axis, s Schedule) *Controller {
	return &Controller{axis: axis, schedule: s, state: Idle{}}
}

// SetGeometry updates the column layout used for hit testing.
func (c *Controller) SetGeometry(g Geometry) {
	c.geometry = g
}

// Geometry returns the current column layout.
func (c *Controller) Geometry() Geometry {
	return c.geometry
}

// State returns the current gesture state.
func (c *Controller) State() State {
	return c.state
}

// Active reports whether a gesture is in progress.
func (c *Controller) Active() bool {
	_, idle := c.state.(Idle)
	return !idle
}

// PointerDown starts a drag on the body or a resize on an edge.
func (c *Controller) PointerDown(hit Hit, p Point) error {
	if c.Active() {
		return ErrGestureInProgress
	}
	a, ok := c.schedule.Store().Get(hit.AppointmentID)
	if !ok {
		return fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, hit.AppointmentID)
	}

	switch hit.Kind {
	case HitTopEdge, HitBottomEdge:
		edge := EdgeBottom
		if hit.Kind == HitTopEdge {
			edge = EdgeTop
		}
		c.state = Resizing{
			Appointment:      a,
			Edge:             edge,
			OriginalStart:    a.Start,
			OriginalDuration: a.Duration(),
			Origin:           p,
			Preview:          Span{Start: a.Start, Duration: a.Duration()},
		}
	default:
		c.state = Dragging{
			Appointment:   a,
			Grab:          p,
			PointerOffset: (p.Y - c.geometry.OriginY) - c.axis.TimeToPixelOffset(a.Start),
		}
	}
	return nil
}

// PointerMove updates the drag target or the resize preview.
func (c *Controller) PointerMove(p Point) {
	switch s := c.state.(type) {
	case Dragging:
		s.Target = c.targetAt(s, p)
		c.state = s
	case Resizing:
		s.Preview = c.resizePreview(s, p)
		c.state = s
	}
}

func (c *Controller) targetAt(s Dragging, p Point) *Target {
	emp, ok := c.geometry.EmployeeAt(p.X)
	if !ok {
		return nil
	}
	top := p.Y - c.geometry.OriginY - s.PointerOffset
	if top < 0 || top >= c.axis.Height() {
		return nil
	}
	slot := int(math.Floor(top / c.axis.PixelsPerSlot()))
	start := c.axis.SlotIndexToTime(slot)
	if slot == c.axis.TimeToSlotIndex(s.Appointment.Start) {
		// Inside its own slot an appointment keeps its exact start, so a
		// click never snaps an off-grid time.
		start = s.Appointment.Start
	}
	return &Target{EmployeeID: emp, Start: start}
}

func (c *Controller) resizePreview(s Resizing, p Point) Span {
	delta := c.axis.SnapPixelDelta(p.Y - s.Origin.Y)
	if s.Edge == EdgeBottom {
		d := max(s.OriginalDuration+delta, appointment.MinDurationMinutes)
		d = min(d, appointment.MinutesPerDay-s.OriginalStart.Minutes())
		return Span{Start: s.OriginalStart, Duration: d}
	}

	end := s.OriginalStart.Add(s.OriginalDuration)
	start := s.OriginalStart.Add(delta)
	if latest := end.Add(-appointment.MinDurationMinutes); start > latest {
		start = latest
	}
	if start < 0 {
		start = 0
	}
	return Span{Start: start, Duration: end.Sub(start)}
}

// PointerUp ends the gesture and commits it if it is valid.
func (c *Controller) PointerUp(p Point) Outcome {
	c.PointerMove(p)
	state := c.state
	c.state = Idle{}

	switch s := state.(type) {
	case Dragging:
		return c.finishDrag(s)
	case Resizing:
		return c.finishResize(s)
	default:
		return Outcome{Result: NoOp, Gesture: state.Name()}
	}
}

// Cancel abandons the current gesture. Any preview disappears with it.
func (c *Controller) Cancel() {
	c.state = Idle{}
}

func (c *Controller) finishDrag(s Dragging) Outcome {
	out := Outcome{Gesture: s.Name(), AppointmentID: s.Appointment.ID}
	if s.Target == nil {
		out.Result, out.Err = Rejected, ErrNoTarget
		return out
	}
	if s.Target.EmployeeID == s.Appointment.EmployeeID && s.Target.Start == s.Appointment.Start {
		out.Result = NoOp
		return out
	}
	e, ok := c.schedule.Employee(s.Target.EmployeeID)
	if !ok {
		out.Result, out.Err = Rejected, fmt.Errorf("%w: %s", appointment.ErrEmployeeNotFound, s.Target.EmployeeID)
		return out
	}
	if !c.validator.Fits(e, s.Target.Start, s.Appointment.Duration()) {
		out.Result, out.Err = Rejected, appointment.ErrOutsideWorkingHours
		return out
	}

	m, err := c.schedule.MoveAppointment(s.Appointment.ID, s.Target.EmployeeID, s.Target.Start)
	return commitOutcome(out, m, err)
}

func (c *Controller) finishResize(s Resizing) Outcome {
	out := Outcome{Gesture: s.Name(), AppointmentID: s.Appointment.ID}
	if s.Preview.Start == s.OriginalStart && s.Preview.Duration == s.OriginalDuration {
		out.Result = NoOp
		return out
	}
	e, ok := c.schedule.Employee(s.Appointment.EmployeeID)
	if !ok {
		out.Result, out.Err = Rejected, fmt.Errorf("%w: %s", appointment.ErrEmployeeNotFound, s.Appointment.EmployeeID)
		return out
	}
	if !c.validator.Fits(e, s.Preview.Start, s.Preview.Duration) {
		out.Result, out.Err = Rejected, appointment.ErrOutsideWorkingHours
		return out
	}

	var (
		m   *schedule.Mutation
		err error
	)
	if s.Edge == EdgeTop {
		m, err = c.schedule.ResizeAppointmentStart(s.Appointment.ID, s.Preview.Start)
	} else {
		m, err = c.schedule.ResizeAppointment(s.Appointment.ID, s.Preview.Duration)
	}
	return commitOutcome(out, m, err)
}

func commitOutcome(out Outcome, m *schedule.Mutation, err error) Outcome {
	if err != nil {
		out.Result, out.Err = Rejected, err
		return out
	}
	out.Result, out.Mutation = Committed, m
	return out
}

// Preview returns how appointment id should be drawn right now: its target
// position while dragged, its pending span while resized. ok is false when
// no gesture affects id.
func (c *Controller) Preview(id appointment.ID) (appointment.Appointment, bool) {
	switch s := c.state.(type) {
	case Dragging:
		if s.Appointment.ID != id || s.Target == nil {
			return appointment.Appointment{}, false
		}
		p := s.Appointment.Clone()
		p.EmployeeID = s.Target.EmployeeID
		p.Start = s.Target.Start
		p.End = s.Target.Start.Add(s.Appointment.Duration())
		return p, true
	case Resizing:
		if s.Appointment.ID != id {
			return appointment.Appointment{}, false
		}
		p := s.Appointment.Clone()
		p.Start = s.Preview.Start
		p.End = s.Preview.End()
		return p, true
	}
	return appointment.Appointment{}, false
}

// PreviewFits reports whether the current preview would be accepted on
// release, for colouring the ghost block.
func (c *Controller) PreviewFits() bool {
	switch s := c.state.(type) {
	case Dragging:
		if s.Target == nil {
			return false
		}
		e, ok := c.schedule.Employee(s.Target.EmployeeID)
		return ok && c.validator.Fits(e, s.Target.Start, s.Appointment.Duration())
	case Resizing:
		e, ok := c.schedule.Employee(s.Appointment.EmployeeID)
		return ok && c.validator.Fits(e, s.Preview.Start, s.Preview.Duration)
	}
	return true
}
