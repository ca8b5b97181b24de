// Package layout packs one employee's overlapping appointments into
// side-by-side columns.
package layout

import (
	"cmp"
	"slices"

	"github.com/javiermolinar/spagrid/internal/appointment"
)

// DefaultBaseZ is the stacking order of the rightmost column in an overlap set.
const DefaultBaseZ = 10

// Placement is where an appointment is drawn inside its employee's track.
type Placement struct {
	Column       int     // 0-based lane
	TotalColumns int     // lanes shared with the overlap set
	WidthPercent float64 // 100 / TotalColumns
	LeftPercent  float64 // Column * WidthPercent
	StackOrder   int     // z-index, lower columns draw above later ones
}

// Engine computes placements. The zero value uses DefaultBaseZ.
type Engine struct {
	BaseZ int
}

func (e Engine) baseZ() int {
	if e.BaseZ == 0 {
		return DefaultBaseZ
	}
	return e.BaseZ
}

// Layout assigns a placement to every appointment in appts, which must all
// belong to the same employee and day.
//
// Appointments are ordered by start time, longer first on ties. Each one
// takes its rank within its overlap set when that set is re-sorted by
// duration (longest first). If that lane is already held by an overlapping
// appointment placed earlier, the lowest free lane is used instead, so
// overlapping appointments never share a column. The result depends only on
// the set, not on input order.
func (e Engine) Layout(appts []appointment.Appointment) map[appointment.ID]Placement {
	result := make(map[appointment.ID]Placement, len(appts))
	if len(appts) == 0 {
		return result
	}

	ordered := slices.Clone(appts)
	slices.SortStableFunc(ordered, compareStartThenLonger)

	columns := make([]int, len(ordered))
	overlaps := make([][]int, len(ordered))

	for i := range ordered {
		set := overlapSet(ordered, i)
		overlaps[i] = set

		ranked := slices.Clone(set)
		slices.SortStableFunc(ranked, func(x, y int) int {
			return cmp.Compare(ordered[y].Duration(), ordered[x].Duration())
		})
		preferred := slices.Index(ranked, i)

		taken := make(map[int]bool, len(set))
		for _, j := range set {
			if j < i {
				taken[columns[j]] = true
			}
		}

		col := preferred
		if taken[col] {
			col = 0
			for taken[col] {
				col++
			}
		}
		columns[i] = col
	}

	base := e.baseZ()
	for i, a := range ordered {
		total := len(overlaps[i])
		for _, j := range overlaps[i] {
			total = max(total, columns[j]+1)
		}
		width := 100.0 / float64(total)
		result[a.ID] = Placement{
			Column:       columns[i],
			TotalColumns: total,
			WidthPercent: width,
			LeftPercent:  float64(columns[i]) * width,
			StackOrder:   base + (total - columns[i] - 1),
		}
	}
	return result
}

// LayoutAll partitions appts by employee and lays out each partition.
func (e Engine) LayoutAll(appts []appointment.Appointment) map[appointment.ID]Placement {
	groups := make(map[appointment.EmployeeID][]appointment.Appointment)
	for _, a := range appts {
		groups[a.EmployeeID] = append(groups[a.EmployeeID], a)
	}

	result := make(map[appointment.ID]Placement, len(appts))
	for _, group := range groups {
		for id, p := range e.Layout(group) {
			result[id] = p
		}
	}
	return result
}

// overlapSet returns the indexes of every appointment intersecting
// ordered[i], including i itself, in sorted order.
func overlapSet(ordered []appointment.Appointment, i int) []int {
	a := ordered[i]
	var set []int
	for j, b := range ordered {
		if j == i || (b.Start < a.End && b.End > a.Start) {
			set = append(set, j)
		}
	}
	return set
}

func compareStartThenLonger(a, b appointment.Appointment) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Duration(), a.Duration()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
