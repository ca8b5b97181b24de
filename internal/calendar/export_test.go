package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/javiermolinar/spagrid/internal/appointment"
)

func TestExport(t *testing.T) {
	parent := appointment.ID("p1")
	appts := []appointment.Appointment{
		{ID: "p1", EmployeeID: "anna", ClientLabel: "Maria", ServiceLabel: "Hot stone",
			Start: appointment.At(10, 0), End: appointment.At(11, 0), Status: appointment.StatusScheduled},
		{ID: "c1", EmployeeID: "anna", ServiceLabel: "Scalp massage", ParentID: &parent,
			Start: appointment.At(11, 0), End: appointment.At(11, 30), Status: appointment.StatusScheduled},
		{ID: "x1", EmployeeID: "ben", ClientLabel: "Joe",
			Start: appointment.At(12, 0), End: appointment.At(13, 0), Status: appointment.StatusCancelled},
	}
	employees := []appointment.Employee{{ID: "anna", Name: "Anna"}}

	var buf bytes.Buffer
	err := Export(&buf, time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), employees, appts, Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	cal, err := ical.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("exported calendar does not parse: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events (cancelled skipped), got %d", len(events))
	}

	first := events[0]
	if got := first.GetProperty(ical.ComponentPropertySummary).Value; got != "Hot stone - Maria" {
		t.Errorf("unexpected summary %q", got)
	}
	if got := first.GetProperty(ical.ComponentPropertyLocation).Value; got != "Anna" {
		t.Errorf("unexpected location %q", got)
	}
	start, err := first.GetStartAt()
	if err != nil {
		t.Fatal(err)
	}
	if !start.Equal(time.Date(2025, 1, 9, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected start %v", start)
	}

	related := events[1].GetProperty(ical.ComponentPropertyRelatedTo)
	if related == nil || related.Value != "p1" {
		t.Errorf("expected add-on to relate to p1, got %+v", related)
	}
}

func TestExport_IncludeCancelled(t *testing.T) {
	appts := []appointment.Appointment{
		{ID: "x1", EmployeeID: "ben", Start: appointment.At(12, 0), End: appointment.At(13, 0), Status: appointment.StatusCancelled},
	}

	var buf bytes.Buffer
	if err := Export(&buf, time.Now(), nil, appts, Options{IncludeCancelled: true}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "STATUS:CANCELLED") {
		t.Errorf("expected cancelled status in output:\n%s", out)
	}
	if !strings.Contains(out, "LOCATION:ben") {
		t.Errorf("unknown employees should fall back to their id:\n%s", out)
	}
}
