// Package calendar exports a grid day as an iCalendar file.
package calendar

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/dateutil"
)

// ProductID identifies the generator in exported files.
const ProductID = "-//spagrid//scheduling grid//EN"

// Options controls an export.
type Options struct {
	// Location turns times of day into instants. Defaults to time.Local.
	Location *time.Location
	// IncludeCancelled exports cancelled appointments with STATUS:CANCELLED
	// instead of leaving them out.
	IncludeCancelled bool
	// Now stamps DTSTAMP. Defaults to time.Now.
	Now func() time.Time
}

// Export writes one VEVENT per appointment on date. Employees label the
// LOCATION of each event; add-ons carry RELATED-TO their parent.
func Export(w io.Writer, date time.Time, employees []appointment.Employee, appts []appointment.Appointment, opts Options) error {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	names := make(map[appointment.EmployeeID]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.Name
	}

	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	stamp := now().UTC()

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName("Appointments " + dateutil.Format(date))

	for _, a := range appts {
		if a.IsCancelled() && !opts.IncludeCancelled {
			continue
		}

		ev := cal.AddEvent(string(a.ID))
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(midnight.Add(time.Duration(a.Start.Minutes()) * time.Minute))
		ev.SetEndAt(midnight.Add(time.Duration(a.End.Minutes()) * time.Minute))
		ev.SetSummary(summary(a))

		who := names[a.EmployeeID]
		if who == "" {
			who = string(a.EmployeeID)
		}
		ev.SetLocation(who)
		ev.SetDescription(fmt.Sprintf("Employee: %s\nStatus: %s\nPaid: %t", who, a.Status, a.Paid))

		if a.IsCancelled() {
			ev.SetStatus(ical.ObjectStatusCancelled)
		} else {
			ev.SetStatus(ical.ObjectStatusConfirmed)
		}
		if a.ParentID != nil {
			ev.AddProperty(ical.ComponentPropertyRelatedTo, string(*a.ParentID))
		}
	}

	return cal.SerializeTo(w)
}

func summary(a appointment.Appointment) string {
	switch {
	case a.ServiceLabel != "" && a.ClientLabel != "":
		return a.ServiceLabel + " - " + a.ClientLabel
	case a.ServiceLabel != "":
		return a.ServiceLabel
	case a.ClientLabel != "":
		return a.ClientLabel
	default:
		return "Appointment"
	}
}
