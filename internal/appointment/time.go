package appointment

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// SlotMinutes is the grid granularity. Appointments start, end and resize on it.
	SlotMinutes = 15
	// MinutesPerDay is 24 hours * 60 minutes.
	MinutesPerDay = 1440
	// MinDurationMinutes is the shortest appointment the grid accepts (one slot).
	MinDurationMinutes = SlotMinutes
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// 1440 is a valid value and means end of day ("24:00").
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS". Seconds are truncated.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	for _, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	if h < 0 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return TimeOfDay(h*60 + m), nil
}

// MustParseTimeOfDay is like ParseTimeOfDay but panics on bad input.
// Intended for tests and constants.
func MustParseTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// At builds a TimeOfDay from hours and minutes.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return int(t)
}

// Add returns t shifted by the given number of minutes. It does not wrap.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// Sub returns t-u in minutes.
func (t TimeOfDay) Sub(u TimeOfDay) int {
	return int(t - u)
}

// Valid reports whether t is within [00:00, 24:00].
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= MinutesPerDay
}

// OnGrid reports whether t falls on a slot boundary.
func (t TimeOfDay) OnGrid() bool {
	return int(t)%SlotMinutes == 0
}

// String formats t as "HH:MM".
func (t TimeOfDay) String() string {
	m := int(t)
	if m < 0 {
		m = 0
	}
	if m > MinutesPerDay {
		m = MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Window is a half-open time-of-day interval [Start, End).
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Minutes returns the window length.
func (w Window) Minutes() int {
	return w.End.Sub(w.Start)
}

// Contains reports whether [start, end) lies inside the window.
func (w Window) Contains(start, end TimeOfDay) bool {
	return start >= w.Start && end <= w.End && start < end
}

// String formats the window as "HH:MM-HH:MM".
func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// Overlaps returns true if two half-open ranges intersect.
// [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1.
func Overlaps(s1, e1, s2, e2 TimeOfDay) bool {
	return s1 < e2 && s2 < e1
}
