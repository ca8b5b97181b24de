package appointment

import "errors"

// Validation errors.
var (
	ErrInvalidTimeFormat    = errors.New("time must be in HH:MM format")
	ErrEndBeforeStart       = errors.New("end time must be after start time")
	ErrBelowMinimumDuration = errors.New("duration must be at least one slot (15 minutes)")
	ErrUnknownStatus        = errors.New("unknown appointment status")
	ErrOutsideWorkingHours  = errors.New("interval is outside the employee's working hours")
	ErrEmptyPatch           = errors.New("patch changes nothing")
)

// Domain errors.
var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrEmployeeInactive    = errors.New("employee is not working today")
)
