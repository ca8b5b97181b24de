package appointment

import (
	"context"
	"time"
)

// Repository is the persistence adapter the grid loads from and commits to.
type Repository interface {
	// FetchDay returns every appointment of the branch on date.
	FetchDay(ctx context.Context, date time.Time, branchID string) ([]Appointment, error)

	// UpdateAppointment applies a partial update and returns the stored result.
	// Returns ErrAppointmentNotFound if the id is unknown to the backend.
	UpdateAppointment(ctx context.Context, id ID, patch Patch) (Appointment, error)

	// Close releases any resources held by the repository.
	Close() error
}

// Roster tells who is working on a date and when.
type Roster interface {
	ForDay(ctx context.Context, date time.Time, branchID string) ([]Employee, error)
}

// Notifier reports user-visible failures. Fire-and-forget.
type Notifier interface {
	Error(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Error implements Notifier.
func (f NotifierFunc) Error(message string) { f(message) }
