package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/store"
)

// Agenda formats the day as plain text, one block per employee, for pasting
// into chat or email. Cancelled appointments are left out.
func Agenda(date time.Time, employees []appointment.Employee, s store.Reader) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Agenda %s\n", date.Format("Monday 2 January 2006"))

	for _, e := range employees {
		name := e.Name
		if name == "" {
			name = string(e.ID)
		}
		fmt.Fprintf(&b, "\n%s (%s-%s)\n", name, e.WorkWindow.Start, e.WorkWindow.End)

		appts := s.Visible(e.ID)
		if len(appts) == 0 {
			b.WriteString("  free\n")
			continue
		}
		for _, a := range appts {
			fmt.Fprintf(&b, "  %s-%s  %s", a.Start, a.End, a.ClientLabel)
			if a.ServiceLabel != "" {
				fmt.Fprintf(&b, " · %s", a.ServiceLabel)
			}
			if a.Status != appointment.StatusScheduled {
				fmt.Fprintf(&b, " [%s]", a.Status)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}
