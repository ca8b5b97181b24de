package roster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/javiermolinar/spagrid/internal/appointment"
)

const sample = `
branch: main
employees:
  - id: anna
    name: Anna
    color: "#aa3366"
    shifts:
      - rrule: "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR"
        start: "09:00"
        end: "18:00"
    exceptions:
      - date: 2025-01-10
        off: true
      - date: 2025-01-08
        start: "12:00"
        end: "16:00"
  - id: ben
    shifts:
      - rrule: "FREQ=WEEKLY;BYDAY=SA"
        start: "10:00"
        end: "14:00"
      - rrule: "FREQ=WEEKLY;BYDAY=SA"
        start: "15:00"
        end: "19:00"
      - rrule: "FREQ=WEEKLY;INTERVAL=2;BYDAY=TH"
        start: "08:00"
        end: "12:00"
        from: "2025-01-02"
        until: "2025-03-01"
`

// 2025-01-09 is a Thursday.
func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func find(t *testing.T, employees []appointment.Employee, id appointment.EmployeeID) appointment.Employee {
	t.Helper()
	for _, e := range employees {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("employee %s not found", id)
	return appointment.Employee{}
}

func TestForDay(t *testing.T) {
	r, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tests := []struct {
		name       string
		day        string
		id         appointment.EmployeeID
		wantActive bool
		wantStart  string
		wantEnd    string
	}{
		{"weekday shift", "2025-01-09", "anna", true, "09:00", "18:00"},
		{"weekend off", "2025-01-11", "anna", false, "", ""},
		{"exception off", "2025-01-10", "anna", false, "", ""},
		{"exception hours", "2025-01-08", "anna", true, "12:00", "16:00"},
		{"split shift merged", "2025-01-11", "ben", true, "10:00", "19:00"},
		{"biweekly on", "2025-01-02", "ben", true, "08:00", "12:00"},
		{"biweekly off week", "2025-01-09", "ben", false, "", ""},
		{"biweekly again", "2025-01-16", "ben", true, "08:00", "12:00"},
		{"after until", "2025-03-13", "ben", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			employees, err := r.ForDay(context.Background(), date(tt.day), "main")
			if err != nil {
				t.Fatal(err)
			}
			e := find(t, employees, tt.id)
			if e.ActiveToday != tt.wantActive {
				t.Fatalf("ActiveToday = %v, want %v", e.ActiveToday, tt.wantActive)
			}
			if !tt.wantActive {
				return
			}
			want := appointment.Window{
				Start: appointment.MustParseTimeOfDay(tt.wantStart),
				End:   appointment.MustParseTimeOfDay(tt.wantEnd),
			}
			if e.WorkWindow != want {
				t.Errorf("WorkWindow = %s, want %s", e.WorkWindow, want)
			}
		})
	}
}

func TestForDay_LocalDates(t *testing.T) {
	r, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	loc := time.FixedZone("UTC+13", 13*3600)

	employees, err := r.ForDay(context.Background(), time.Date(2025, 1, 9, 0, 0, 0, 0, loc), "")
	if err != nil {
		t.Fatal(err)
	}
	if !find(t, employees, "anna").ActiveToday {
		t.Error("Thursday in any zone should be a working day")
	}
}

func TestEmployees(t *testing.T) {
	r, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	employees := r.Employees()
	if len(employees) != 2 || employees[0].Name != "Anna" || employees[1].Name != "ben" {
		t.Errorf("unexpected employees %+v", employees)
	}
	if employees[0].DisplayColor != "#aa3366" {
		t.Errorf("unexpected color %q", employees[0].DisplayColor)
	}
	if r.Branch() != "main" {
		t.Errorf("unexpected branch %q", r.Branch())
	}
}

func TestForDay_BranchMismatch(t *testing.T) {
	r, err := Parse([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ForDay(context.Background(), date("2025-01-09"), "other"); !errors.Is(err, ErrBranchMismatch) {
		t.Errorf("expected ErrBranchMismatch, got %v", err)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{"duplicate", "employees:\n  - id: a\n  - id: a\n", ErrDuplicateEmployee},
		{"bad rrule", "employees:\n  - id: a\n    shifts:\n      - rrule: \"FREQ=SOMETIMES\"\n        start: \"09:00\"\n        end: \"17:00\"\n", ErrInvalidShift},
		{"end before start", "employees:\n  - id: a\n    shifts:\n      - rrule: \"FREQ=DAILY\"\n        start: \"17:00\"\n        end: \"09:00\"\n", ErrInvalidShift},
		{"bad exception date", "employees:\n  - id: a\n    exceptions:\n      - date: tomorrow\n        off: true\n", ErrInvalidShift},
		{"missing id", "employees:\n  - name: nobody\n", ErrInvalidShift},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(r.Employees()) != 2 {
		t.Errorf("expected 2 employees, got %d", len(r.Employees()))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
