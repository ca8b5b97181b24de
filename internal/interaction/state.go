// Package interaction turns pointer events into drag and resize gestures
// over the grid. It never writes appointments; finished gestures are handed
// to a Committer.
package interaction

import (
	"github.com/javiermolinar/spagrid/internal/appointment"
)

// Point is a pointer position in grid coordinates.
type Point struct {
	X, Y float64
}

// Edge is the side of an appointment being resized.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeBottom
)

func (e Edge) String() string {
	if e == EdgeTop {
		return "top"
	}
	return "bottom"
}

// HitKind is the part of an appointment block under the pointer.
type HitKind int

const (
	HitBody HitKind = iota
	HitTopEdge
	HitBottomEdge
)

// Hit is what a pointer-down landed on.
type Hit struct {
	AppointmentID appointment.ID
	Kind          HitKind
}

// Classify returns the part of a block spanning [top, bottom) that y falls
// on. The top and bottom handle bands are handle units tall; blocks too
// short for both handles only expose the bottom one.
func Classify(top, bottom, y, handle float64) HitKind {
	switch {
	case bottom-top < 3*handle:
		if y >= bottom-handle {
			return HitBottomEdge
		}
		return HitBody
	case y < top+handle:
		return HitTopEdge
	case y >= bottom-handle:
		return HitBottomEdge
	default:
		return HitBody
	}
}

// Target is the drop position under the pointer during a drag.
type Target struct {
	EmployeeID appointment.EmployeeID
	Start      appointment.TimeOfDay
}

// Span is a start and a duration in minutes.
type Span struct {
	Start    appointment.TimeOfDay
	Duration int
}

// End returns Start plus Duration.
func (s Span) End() appointment.TimeOfDay {
	return s.Start.Add(s.Duration)
}

// State is one of Idle, Dragging or Resizing.
type State interface {
	Name() string
	state()
}

// Idle means no gesture is active.
type Idle struct{}

// Dragging follows an appointment body being moved.
type Dragging struct {
	Appointment   appointment.Appointment
	Grab          Point
	PointerOffset float64 // grab Y minus the appointment's top
	Target        *Target // nil while the pointer is off the grid
}

// Resizing follows an appointment edge being pulled.
type Resizing struct {
	Appointment      appointment.Appointment
	Edge             Edge
	OriginalStart    appointment.TimeOfDay
	OriginalDuration int
	Origin           Point
	Preview          Span
}

func (Idle) Name() string     { return "idle" }
func (Dragging) Name() string { return "dragging" }
func (Resizing) Name() string { return "resizing" }

func (Idle) state()     {}
func (Dragging) state() {}
func (Resizing) state() {}
