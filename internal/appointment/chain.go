package appointment

import (
	"cmp"
	"fmt"
	"slices"
)

// ChainWarning reports a child appointment that does not start where its
// predecessor ends. It is a display-time warning, never fatal.
type ChainWarning struct {
	ChildID       ID
	PredecessorID ID
	ExpectedStart TimeOfDay
	ActualStart   TimeOfDay
}

func (w ChainWarning) String() string {
	return fmt.Sprintf("appointment %s starts at %s but %s ends at %s",
		w.ChildID, w.ActualStart, w.PredecessorID, w.ExpectedStart)
}

// CheckChains walks every parent's ChildIDs and verifies the chain is
// time-contiguous. Missing children are skipped.
func CheckChains(appts []Appointment) []ChainWarning {
	byID := make(map[ID]Appointment, len(appts))
	for _, a := range appts {
		byID[a.ID] = a
	}

	var warnings []ChainWarning
	for _, parent := range appts {
		if len(parent.ChildIDs) == 0 {
			continue
		}
		prev := parent
		for _, childID := range parent.ChildIDs {
			child, ok := byID[childID]
			if !ok {
				continue
			}
			if child.Start != prev.End {
				warnings = append(warnings, ChainWarning{
					ChildID:       child.ID,
					PredecessorID: prev.ID,
					ExpectedStart: prev.End,
					ActualStart:   child.Start,
				})
			}
			prev = child
		}
	}
	return warnings
}

// LinkChildren rebuilds ChildIDs from ParentID links, ordering each
// parent's add-ons by start time. Existing ChildIDs are replaced.
func LinkChildren(appts []Appointment) {
	index := make(map[ID]int, len(appts))
	for i := range appts {
		index[appts[i].ID] = i
		appts[i].ChildIDs = nil
	}

	// Add-ons may sit on another employee's column, so walk the whole day
	// in start order.
	order := make([]int, len(appts))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(x, y int) int {
		if c := cmp.Compare(appts[x].Start, appts[y].Start); c != 0 {
			return c
		}
		return cmp.Compare(appts[x].ID, appts[y].ID)
	})

	for _, i := range order {
		parent := appts[i].ParentID
		if parent == nil {
			continue
		}
		if p, ok := index[*parent]; ok {
			appts[p].ChildIDs = append(appts[p].ChildIDs, appts[i].ID)
		}
	}
}

// StoredDuration pairs an appointment with a duration value persisted
// independently by a legacy backend.
type StoredDuration struct {
	Appointment     Appointment
	DurationMinutes int
}

// DurationDrift is a record whose stored duration disagrees with End-Start.
type DurationDrift struct {
	ID      ID
	Stored  int
	Derived int
}

func (d DurationDrift) String() string {
	return fmt.Sprintf("appointment %s: stored duration %dm, start/end give %dm", d.ID, d.Stored, d.Derived)
}

// CheckDurationDrift lists records whose stored duration disagrees with the
// derived one. Nothing is corrected: the derived value is authoritative for
// the grid and drift is reported for migration review.
func CheckDurationDrift(records []StoredDuration) []DurationDrift {
	var out []DurationDrift
	for _, r := range records {
		if r.DurationMinutes <= 0 {
			continue
		}
		if derived := r.Appointment.Duration(); derived != r.DurationMinutes {
			out = append(out, DurationDrift{ID: r.Appointment.ID, Stored: r.DurationMinutes, Derived: derived})
		}
	}
	return out
}
