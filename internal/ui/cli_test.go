package ui

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/config"
)

const testRoster = `
branch: main
employees:
  - id: anna
    name: Anna
    shifts:
      - rrule: "FREQ=DAILY"
        start: "09:00"
        end: "18:00"
  - id: ben
    name: Ben
    shifts:
      - rrule: "FREQ=WEEKLY;BYDAY=SA"
        start: "12:00"
        end: "20:00"
`

// 2026-03-14 is a Saturday: anna 09-18, ben 12-20.
var testDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func writeRoster(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "staff.yaml")
	if err := os.WriteFile(path, []byte(testRoster), 0o644); err != nil {
		t.Fatalf("writing roster: %v", err)
	}
	return path
}

// newTestApp returns an app on a fresh sqlite database using the test
// roster file.
func newTestApp(t *testing.T) *App {
	t.Helper()
	DisableColor()
	cfg := config.Default()
	cfg.Storage.DBPath = filepath.Join(t.TempDir(), "data", "spagrid.db")
	cfg.Roster.File = writeRoster(t)
	a := NewApp(cfg)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func run(t *testing.T, a *App, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	a.root.SetOut(&buf)
	a.root.SetErr(&buf)
	a.root.SetArgs(args)
	err := a.Execute()
	return buf.String(), err
}

func seed(t *testing.T, a *App, appts ...appointment.Appointment) {
	t.Helper()
	if err := a.ensureRepo(); err != nil {
		t.Fatalf("ensureRepo: %v", err)
	}
	for i := range appts {
		if err := a.sqlite.CreateAppointment(context.Background(), testDay, "main", &appts[i]); err != nil {
			t.Fatalf("CreateAppointment: %v", err)
		}
	}
}

func booking(id, emp, client, start, end string) appointment.Appointment {
	return appointment.Appointment{
		ID:           appointment.ID(id),
		EmployeeID:   appointment.EmployeeID(emp),
		ClientLabel:  client,
		ServiceLabel: "Massage",
		Start:        appointment.MustParseTimeOfDay(start),
		End:          appointment.MustParseTimeOfDay(end),
		Status:       appointment.StatusScheduled,
	}
}

func stored(t *testing.T, a *App, id string) appointment.Appointment {
	t.Helper()
	got, err := a.sqlite.GetAppointment(context.Background(), appointment.ID(id))
	if err != nil {
		t.Fatalf("GetAppointment(%s): %v", id, err)
	}
	return got
}

func TestVersion(t *testing.T) {
	a := newTestApp(t)
	out, err := run(t, a, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "spagrid dev") {
		t.Errorf("output = %q", out)
	}
}

func TestAddAndDay(t *testing.T) {
	a := newTestApp(t)

	out, err := run(t, a, "add", "Maria", "--date=2026-03-14", "--employee=anna",
		"--start=10:00", "--end=11:00", "--service=Massage", "--paid")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Created appointment") || !strings.Contains(out, "anna 2026-03-14 10:00-11:00") {
		t.Errorf("add output = %q", out)
	}

	out, err = run(t, a, "day", "--date=2026-03-14")
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	for _, want := range []string{"Saturday, March 14, 2026", "Anna", "Ben", "10:00-11:00", "Maria · Massage $", "1h", "free"} {
		if !strings.Contains(out, want) {
			t.Errorf("day output missing %q:\n%s", want, out)
		}
	}
}

func TestAdd_Rejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"outside hours", []string{"--employee=anna", "--start=17:30", "--end=18:30"}, appointment.ErrOutsideWorkingHours},
		{"unknown employee", []string{"--employee=zoe", "--start=10:00", "--end=11:00"}, appointment.ErrEmployeeNotFound},
		{"end before start", []string{"--employee=anna", "--start=11:00", "--end=10:00"}, appointment.ErrEndBeforeStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestApp(t)
			args := append([]string{"add", "Maria", "--date=2026-03-14"}, tt.args...)
			if _, err := run(t, a, args...); !errors.Is(err, tt.want) {
				t.Errorf("add error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAdd_InactiveEmployee(t *testing.T) {
	a := newTestApp(t)
	// 2026-03-13 is a Friday, ben only works Saturdays.
	_, err := run(t, a, "add", "Maria", "--date=2026-03-13", "--employee=ben", "--start=12:00", "--end=13:00")
	if !errors.Is(err, appointment.ErrEmployeeInactive) {
		t.Errorf("add error = %v, want ErrEmployeeInactive", err)
	}
}

func TestMove(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, booking("a1", "anna", "Maria", "10:00", "11:00"))

	out, err := run(t, a, "move", "a1", "11:30", "--date=2026-03-14")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if want := "Maria: anna 10:00-11:00 → anna 11:30-12:30"; !strings.Contains(out, want) {
		t.Errorf("output = %q, want %q", out, want)
	}
	if got := stored(t, a, "a1"); got.Start.String() != "11:30" || got.End.String() != "12:30" {
		t.Errorf("stored = %s-%s", got.Start, got.End)
	}

	if _, err := run(t, a, "move", "a1", "13:00", "--employee=ben", "--date=2026-03-14"); err != nil {
		t.Fatalf("move to ben: %v", err)
	}
	if got := stored(t, a, "a1"); got.EmployeeID != "ben" || got.Duration() != 60 {
		t.Errorf("stored = %+v", got)
	}
}

func TestMove_Rejected(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, booking("a1", "anna", "Maria", "10:00", "11:00"))

	_, err := run(t, a, "move", "a1", "17:30", "--date=2026-03-14")
	if !errors.Is(err, appointment.ErrOutsideWorkingHours) {
		t.Fatalf("move error = %v, want ErrOutsideWorkingHours", err)
	}
	if got := stored(t, a, "a1"); got.Start.String() != "10:00" {
		t.Errorf("stored start = %s, want 10:00", got.Start)
	}

	_, err = run(t, a, "move", "missing", "10:00", "--date=2026-03-14")
	if !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Errorf("move error = %v, want ErrAppointmentNotFound", err)
	}
}

func TestMove_NothingToChange(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, booking("a1", "anna", "Maria", "10:00", "11:00"))

	out, err := run(t, a, "move", "a1", "10:00", "--date=2026-03-14")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if !strings.Contains(out, "Nothing to change") {
		t.Errorf("output = %q", out)
	}
}

func TestResize(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, booking("a1", "anna", "Maria", "10:00", "11:00"))

	if _, err := run(t, a, "resize", "a1", "90", "--date=2026-03-14"); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if got := stored(t, a, "a1"); got.Start.String() != "10:00" || got.End.String() != "11:30" {
		t.Errorf("after resize = %s-%s, want 10:00-11:30", got.Start, got.End)
	}

	if _, err := run(t, a, "resize", "a1", "--start=09:30", "--date=2026-03-14"); err != nil {
		t.Fatalf("resize --start: %v", err)
	}
	if got := stored(t, a, "a1"); got.Start.String() != "09:30" || got.End.String() != "11:30" {
		t.Errorf("after resize --start = %s-%s, want 09:30-11:30", got.Start, got.End)
	}
}

func TestResize_Args(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, booking("a1", "anna", "Maria", "10:00", "11:00"))

	for _, args := range [][]string{
		{"resize", "a1"},
		{"resize", "a1", "abc"},
		{"resize", "a1", "90", "--start=09:00"},
	} {
		if _, err := run(t, a, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestCancel(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, booking("a1", "anna", "Maria", "10:00", "11:00"))

	out, err := run(t, a, "cancel", "a1")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !strings.Contains(out, "Cancelled appointment a1") {
		t.Errorf("output = %q", out)
	}
	if got := stored(t, a, "a1"); got.Status != appointment.StatusCancelled {
		t.Errorf("status = %s", got.Status)
	}

	if _, err := run(t, a, "cancel", "nope"); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Errorf("cancel error = %v, want ErrAppointmentNotFound", err)
	}
}

func TestCheck(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, booking("a1", "anna", "Maria", "10:00", "11:00"))

	out, err := run(t, a, "check", "--date=2026-03-14")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "No problems found") {
		t.Errorf("output = %q", out)
	}

	// ben starts at 12:00.
	seed(t, a, booking("b1", "ben", "Joan", "11:00", "12:00"))
	out, err = run(t, a, "check", "--date=2026-03-14")
	if !errors.Is(err, errCheckFailed) {
		t.Fatalf("check error = %v, want errCheckFailed", err)
	}
	if !strings.Contains(out, "appointment b1: 11:00-12:00 outside ben's hours 12:00-20:00") {
		t.Errorf("output = %q", out)
	}
}

func TestExport(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, booking("a1", "anna", "Maria", "10:00", "11:00"))

	out, err := run(t, a, "export", "--date=2026-03-14")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, want := range []string{"BEGIN:VCALENDAR", "BEGIN:VEVENT", "Maria"} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q", want)
		}
	}

	path := filepath.Join(t.TempDir(), "day.ics")
	if _, err := run(t, a, "export", "--date=2026-03-14", "--out="+path); err != nil {
		t.Fatalf("export --out: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	if !strings.Contains(string(data), "BEGIN:VEVENT") {
		t.Errorf("file export has no events")
	}
}

func TestRosterImport(t *testing.T) {
	a := newTestApp(t)
	path := a.config.Roster.File
	a.config.Roster.File = ""

	out, err := run(t, a, "roster", "import", path, "--from=2026-03-09", "--days=7")
	if err != nil {
		t.Fatalf("roster import: %v", err)
	}
	if !strings.Contains(out, "Imported 2 employees and 14 shifts (2026-03-09 to 2026-03-15) into branch main") {
		t.Errorf("output = %q", out)
	}

	staff, err := a.sqlite.ForDay(context.Background(), testDay, "main")
	if err != nil {
		t.Fatalf("ForDay: %v", err)
	}
	if len(staff) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(staff))
	}
	for _, e := range staff {
		if !e.ActiveToday {
			t.Errorf("%s should work on Saturday", e.ID)
		}
	}

	friday, err := a.sqlite.ForDay(context.Background(), testDay.AddDate(0, 0, -1), "main")
	if err != nil {
		t.Fatalf("ForDay: %v", err)
	}
	for _, e := range friday {
		if e.ID == "ben" && e.ActiveToday {
			t.Error("ben should be off on Friday")
		}
	}

	// The imported roster now drives the day view.
	out, err = run(t, a, "roster", "show", "--date=2026-03-13")
	if err != nil {
		t.Fatalf("roster show: %v", err)
	}
	if !strings.Contains(out, "anna") || !strings.Contains(out, "09:00-18:00") || !strings.Contains(out, "off") {
		t.Errorf("roster show output = %q", out)
	}
}

func TestRosterImport_MissingFile(t *testing.T) {
	a := newTestApp(t)
	if _, err := run(t, a, "roster", "import", filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLocalCommandsNeedSQLite(t *testing.T) {
	DisableColor()
	cfg := config.Default()
	cfg.Storage.Backend = config.BackendREST
	cfg.REST.BaseURL = "http://127.0.0.1:1"
	a := NewApp(cfg)
	t.Cleanup(func() { _ = a.Close() })

	if _, err := run(t, a, "cancel", "a1"); !errors.Is(err, errNeedsSQLite) {
		t.Errorf("cancel error = %v, want errNeedsSQLite", err)
	}
}

func TestNewLogger(t *testing.T) {
	if _, _, err := newLogger("loud", "", os.Stderr, false); err == nil {
		t.Error("expected error for unknown level")
	}

	path := filepath.Join(t.TempDir(), "spagrid.log")
	logger, closer, err := newLogger("info", path, os.Stderr, true)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("hello", "k", "v")
	_ = closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) || !strings.Contains(string(data), `"service":"spagrid"`) {
		t.Errorf("log = %s", data)
	}

	var buf bytes.Buffer
	logger, closer, err = newLogger("debug", "", &buf, true)
	if err != nil || closer != nil {
		t.Fatalf("newLogger = %v, %v", closer, err)
	}
	logger.Error("dropped")
	if buf.Len() != 0 {
		t.Errorf("interactive logger wrote %q", buf.String())
	}
}
