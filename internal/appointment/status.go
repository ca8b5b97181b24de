package appointment

import "strings"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every known status in display order.
var Statuses = []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled}

// Valid returns true if the status is one of the known values.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// ParseStatus converts a stored or transmitted status string into a Status.
//
// This is the single place that decides what an unrecognised status means:
// input is trimmed and lower-cased, a few legacy spellings are accepted, and
// anything else (including the empty string) maps to StatusScheduled together
// with ErrUnknownStatus so callers can log it. The returned status is always
// usable.
func ParseStatus(s string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	switch norm {
	case "scheduled", "booked", "confirmed":
		return StatusScheduled, nil
	case "in_progress", "inprogress", "active", "checked_in":
		return StatusInProgress, nil
	case "completed", "done", "paid":
		return StatusCompleted, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	default:
		return StatusScheduled, ErrUnknownStatus
	}
}
