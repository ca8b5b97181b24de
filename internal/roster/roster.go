// Package roster reads employee working patterns from a YAML file. Regular
// shifts are RFC 5545 recurrence rules; one-off changes are listed as
// exceptions.
package roster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/dateutil"
)

var (
	ErrDuplicateEmployee = errors.New("employee listed twice")
	ErrInvalidShift      = errors.New("invalid shift")
	ErrBranchMismatch    = errors.New("roster belongs to another branch")
)

// defaultAnchor is the recurrence start used when a shift has no "from".
// It is a Monday so that INTERVAL=2 weeks count from a fixed week.
var defaultAnchor = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// File is the on-disk layout.
type File struct {
	Branch    string         `yaml:"branch"`
	Employees []EmployeeSpec `yaml:"employees"`
}

// EmployeeSpec is one employee entry.
type EmployeeSpec struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	Color      string      `yaml:"color,omitempty"`
	Shifts     []ShiftSpec `yaml:"shifts"`
	Exceptions []Exception `yaml:"exceptions,omitempty"`
}

// ShiftSpec is a recurring working window, e.g.
// rrule "FREQ=WEEKLY;BYDAY=MO,TU,WE" from 09:00 to 17:00.
type ShiftSpec struct {
	RRule string `yaml:"rrule"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	From  string `yaml:"from,omitempty"`
	Until string `yaml:"until,omitempty"`
}

// Exception replaces the shift on one date. Off means not working.
type Exception struct {
	Date  string `yaml:"date"`
	Off   bool   `yaml:"off,omitempty"`
	Start string `yaml:"start,omitempty"`
	End   string `yaml:"end,omitempty"`
}

type shift struct {
	rule   *rrule.RRule
	window appointment.Window
	until  time.Time
}

type exception struct {
	off    bool
	window appointment.Window
}

type employee struct {
	info       appointment.Employee
	shifts     []shift
	exceptions map[string]exception
}

// Roster answers ForDay from a parsed file. It is immutable and safe for
// concurrent use.
type Roster struct {
	branch    string
	employees []employee
}

// Load reads and parses a roster file.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse parses roster YAML.
func Parse(data []byte) (*Roster, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}

	r := &Roster{branch: f.Branch}
	seen := make(map[string]bool, len(f.Employees))
	for _, entry := range f.Employees {
		if entry.ID == "" {
			return nil, fmt.Errorf("%w: employee without id", ErrInvalidShift)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmployee, entry.ID)
		}
		seen[entry.ID] = true

		e, err := parseEmployee(entry)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", entry.ID, err)
		}
		r.employees = append(r.employees, e)
	}
	return r, nil
}

func parseEmployee(entry EmployeeSpec) (employee, error) {
	name := entry.Name
	if name == "" {
		name = entry.ID
	}
	e := employee{
		info: appointment.Employee{
			ID:           appointment.EmployeeID(entry.ID),
			Name:         name,
			DisplayColor: entry.Color,
		},
		exceptions: make(map[string]exception, len(entry.Exceptions)),
	}

	for i, s := range entry.Shifts {
		sh, err := parseShift(s)
		if err != nil {
			return e, fmt.Errorf("shift %d: %w", i+1, err)
		}
		e.shifts = append(e.shifts, sh)
	}

	for _, x := range entry.Exceptions {
		d, err := time.Parse(dateutil.Layout, x.Date)
		if err != nil {
			return e, fmt.Errorf("%w: exception date %q", ErrInvalidShift, x.Date)
		}
		ex := exception{off: x.Off}
		if !x.Off {
			if ex.window, err = parseWindow(x.Start, x.End); err != nil {
				return e, fmt.Errorf("exception %s: %w", x.Date, err)
			}
		}
		e.exceptions[dateutil.Format(d)] = ex
	}
	return e, nil
}

func parseShift(s ShiftSpec) (shift, error) {
	w, err := parseWindow(s.Start, s.End)
	if err != nil {
		return shift{}, err
	}

	rule, err := rrule.StrToRRule(s.RRule)
	if err != nil {
		return shift{}, fmt.Errorf("%w: rrule %q: %v", ErrInvalidShift, s.RRule, err)
	}

	anchor := defaultAnchor
	if s.From != "" {
		if anchor, err = time.Parse(dateutil.Layout, s.From); err != nil {
			return shift{}, fmt.Errorf("%w: from %q", ErrInvalidShift, s.From)
		}
	}
	rule.DTStart(anchor)

	sh := shift{rule: rule, window: w}
	if s.Until != "" {
		if sh.until, err = time.Parse(dateutil.Layout, s.Until); err != nil {
			return shift{}, fmt.Errorf("%w: until %q", ErrInvalidShift, s.Until)
		}
	}
	return sh, nil
}

func parseWindow(start, end string) (appointment.Window, error) {
	s, err := appointment.ParseTimeOfDay(start)
	if err != nil {
		return appointment.Window{}, fmt.Errorf("%w: start %q", ErrInvalidShift, start)
	}
	e, err := appointment.ParseTimeOfDay(end)
	if err != nil {
		return appointment.Window{}, fmt.Errorf("%w: end %q", ErrInvalidShift, end)
	}
	if e <= s {
		return appointment.Window{}, fmt.Errorf("%w: %s-%s", ErrInvalidShift, start, end)
	}
	return appointment.Window{Start: s, End: e}, nil
}

// Branch returns the branch the file was written for, possibly empty.
func (r *Roster) Branch() string {
	return r.branch
}

// Employees returns every employee in file order, without shift data.
func (r *Roster) Employees() []appointment.Employee {
	out := make([]appointment.Employee, len(r.employees))
	for i, e := range r.employees {
		out[i] = e.info
	}
	return out
}

// ForDay returns every employee with their working window on date. An
// exception on that date wins over the recurring shifts; several matching
// shifts are merged into one window from the earliest start to the latest
// end.
func (r *Roster) ForDay(_ context.Context, date time.Time, branchID string) ([]appointment.Employee, error) {
	if r.branch != "" && branchID != "" && r.branch != branchID {
		return nil, fmt.Errorf("%w: file is for %q, asked for %q", ErrBranchMismatch, r.branch, branchID)
	}

	// Recurrences are evaluated on the calendar date alone.
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	key := dateutil.Format(day)

	out := make([]appointment.Employee, 0, len(r.employees))
	for _, e := range r.employees {
		info := e.info
		if ex, ok := e.exceptions[key]; ok {
			info.ActiveToday = !ex.off
			info.WorkWindow = ex.window
			out = append(out, info)
			continue
		}
		for _, sh := range e.shifts {
			if !sh.occursOn(day) {
				continue
			}
			if !info.ActiveToday {
				info.WorkWindow = sh.window
				info.ActiveToday = true
				continue
			}
			info.WorkWindow.Start = min(info.WorkWindow.Start, sh.window.Start)
			info.WorkWindow.End = max(info.WorkWindow.End, sh.window.End)
		}
		out = append(out, info)
	}
	return out, nil
}

func (s shift) occursOn(day time.Time) bool {
	if !s.until.IsZero() && day.After(s.until) {
		return false
	}
	next := s.rule.After(day, true)
	return !next.IsZero() && next.Before(day.Add(24*time.Hour))
}
