package schedule

import (
	"time"

	"github.com/javiermolinar/spagrid/internal/appointment"
)

// Kind identifies what a mutation changes.
type Kind int

const (
	KindMove Kind = iota
	KindResize
	KindResizeStart
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindResize:
		return "resize"
	case KindResizeStart:
		return "resize_start"
	default:
		return "unknown"
	}
}

// Mutation is one optimistic change to a single appointment. It carries the
// pre-image taken before the change was applied and knows how to put it back.
type Mutation struct {
	Seq           uint64
	Generation    int
	Date          time.Time
	AppointmentID appointment.ID
	Kind          Kind
	Patch         appointment.Patch
	Before        appointment.Appointment
	After         appointment.Appointment
	AppliedAt     time.Time

	revert func()
}

// Outcome is the result of sending a mutation to the repository.
type Outcome struct {
	Mutation *Mutation
	Saved    appointment.Appointment
	Err      error
	Elapsed  time.Duration
}

// OK reports whether the repository accepted the mutation.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Metrics receives mutation and layout observations. All methods must be
// cheap; they are called on the event loop.
type Metrics interface {
	MutationApplied(kind string)
	MutationQueued(kind string)
	MutationSettled(kind string, ok bool, elapsed time.Duration)
	LayoutComputed(appointments int, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) MutationApplied(string)                      {}
func (noopMetrics) MutationQueued(string)                       {}
func (noopMetrics) MutationSettled(string, bool, time.Duration) {}
func (noopMetrics) LayoutComputed(int, time.Duration)           {}
