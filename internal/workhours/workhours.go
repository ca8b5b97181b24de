// Package workhours decides whether an interval fits an employee's working window.
package workhours

import "github.com/javiermolinar/spagrid/internal/appointment"

// Validator checks intervals against working windows. It holds no state;
// the zero value is ready to use.
type Validator struct{}

// Fits reports whether [start, start+durationMinutes) lies inside the
// employee's working window. A non-positive duration never fits.
func (Validator) Fits(e appointment.Employee, start appointment.TimeOfDay, durationMinutes int) bool {
	if durationMinutes <= 0 {
		return false
	}
	end := start.Add(durationMinutes)
	return start >= e.WorkWindow.Start && end <= e.WorkWindow.End
}

// FitsAppointment is Fits for an appointment's current interval.
func (v Validator) FitsAppointment(e appointment.Employee, a appointment.Appointment) bool {
	return v.Fits(e, a.Start, a.Duration())
}

// IsSlotWithinHours reports whether the slot starting at slotTime is a
// working cell for the employee. Cells that are not are rendered inert and
// accept neither drops nor clicks.
func (Validator) IsSlotWithinHours(e appointment.Employee, slotTime appointment.TimeOfDay) bool {
	if !e.ActiveToday {
		return false
	}
	return slotTime >= e.WorkWindow.Start && slotTime < e.WorkWindow.End
}
