// Package appointment defines the core domain types for the scheduling grid.
package appointment

import "slices"

// ID identifies an appointment. Backends use opaque string ids.
type ID string

// EmployeeID identifies an employee on the roster.
type EmployeeID string

// Employee is one column of the grid. Supplied per day by the roster and
// immutable for the duration of a grid session.
type Employee struct {
	ID           EmployeeID
	Name         string
	WorkWindow   Window
	ActiveToday  bool
	DisplayColor string // "#rrggbb", empty means theme default
}

// Appointment is a booked service occupying [Start, End) for one employee.
type Appointment struct {
	ID           ID
	EmployeeID   EmployeeID
	ClientLabel  string
	ServiceLabel string
	Start        TimeOfDay
	End          TimeOfDay
	Status       Status
	Paid         bool
	ParentID     *ID  // set on add-on services chained after a primary one
	ChildIDs     []ID // ordered add-ons following this appointment
}

// Duration returns the appointment length in minutes. It is always derived
// from Start and End; there is no separately stored duration.
func (a Appointment) Duration() int {
	return a.End.Sub(a.Start)
}

// Validate checks the interval invariants.
func (a Appointment) Validate() error {
	if a.End <= a.Start {
		return ErrEndBeforeStart
	}
	if a.Duration() < MinDurationMinutes {
		return ErrBelowMinimumDuration
	}
	return nil
}

// OverlapsWith returns true if both appointments intersect in time.
// Employee is not considered.
func (a Appointment) OverlapsWith(b Appointment) bool {
	return Overlaps(a.Start, a.End, b.Start, b.End)
}

// IsCancelled returns true if the appointment has been cancelled.
func (a Appointment) IsCancelled() bool {
	return a.Status == StatusCancelled
}

// IsChild returns true if the appointment is an add-on in a chain.
func (a Appointment) IsChild() bool {
	return a.ParentID != nil
}

// Clone returns a deep copy so callers never share the ChildIDs backing array.
func (a Appointment) Clone() Appointment {
	c := a
	if a.ParentID != nil {
		p := *a.ParentID
		c.ParentID = &p
	}
	c.ChildIDs = slices.Clone(a.ChildIDs)
	return c
}

// Patch is a partial update sent to the persistence layer.
// Nil fields are left untouched.
type Patch struct {
	EmployeeID      *EmployeeID
	Start           *TimeOfDay
	End             *TimeOfDay
	DurationMinutes *int // kept for backends that store it; always End-Start
}

// MovePatch builds the patch for relocating a to employee/start keeping its duration.
func MovePatch(a Appointment, employee EmployeeID, start TimeOfDay) Patch {
	end := start.Add(a.Duration())
	d := a.Duration()
	return Patch{EmployeeID: &employee, Start: &start, End: &end, DurationMinutes: &d}
}

// SpanPatch builds the patch for a new [start, start+duration) on the same employee.
func SpanPatch(start TimeOfDay, duration int) Patch {
	end := start.Add(duration)
	return Patch{Start: &start, End: &end, DurationMinutes: &duration}
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.EmployeeID == nil && p.Start == nil && p.End == nil
}

// Apply returns a copy of a with the patch applied. DurationMinutes is ignored
// because duration is derived.
func (p Patch) Apply(a Appointment) Appointment {
	out := a.Clone()
	if p.EmployeeID != nil {
		out.EmployeeID = *p.EmployeeID
	}
	if p.Start != nil {
		out.Start = *p.Start
	}
	if p.End != nil {
		out.End = *p.End
	}
	return out
}

// ChangesFrom reports whether applying p to a would alter it.
func (p Patch) ChangesFrom(a Appointment) bool {
	b := p.Apply(a)
	return b.EmployeeID != a.EmployeeID || b.Start != a.Start || b.End != a.End
}
