// Package dateutil provides date parsing and day arithmetic for the grid.
package dateutil

import (
	"errors"
	"strings"
	"time"
)

// Layout is the date format used on the command line, in config and on the wire.
const Layout = "2006-01-02"

// ErrInvalidDateFormat is returned for input ParseDay does not recognise.
var ErrInvalidDateFormat = errors.New("date must be in YYYY-MM-DD format")

var weekdayMap = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// TruncateToDay returns t with time set to midnight.
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Format renders a date as YYYY-MM-DD.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// ParseDay parses a day the front desk may type:
//   - "" or "today": relativeTo
//   - "tomorrow", "yesterday"
//   - weekday names: next occurrence, today included
//   - "2025-01-15" (YYYY-MM-DD), past dates allowed
//
// All inputs are case-insensitive. The result is truncated to midnight in
// relativeTo's location.
func ParseDay(s string, relativeTo time.Time) (time.Time, error) {
	today := TruncateToDay(relativeTo)
	input := strings.ToLower(strings.TrimSpace(s))

	switch input {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	if target, ok := weekdayMap[input]; ok {
		days := (int(target) - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, days), nil
	}

	result, err := time.ParseInLocation(Layout, input, relativeTo.Location())
	if err != nil {
		return time.Time{}, ErrInvalidDateFormat
	}
	return result, nil
}
