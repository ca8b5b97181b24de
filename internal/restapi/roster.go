package restapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/dateutil"
)

type workTimetableResponse struct {
	Embedded struct {
		WorkTimeTables []struct {
			StaffID   string `json:"staffId"`
			StaffName string `json:"staffName"`
			Color     string `json:"color"`
			TimeSlots []struct {
				Date      string `json:"date"`      // YYYY-MM-DD
				StartTime string `json:"startTime"` // HH:MM:SS
				EndTime   string `json:"endTime"`   // HH:MM:SS
				Type      string `json:"type"`
			} `json:"timeSlots"`
		} `json:"workTimeTables"`
	} `json:"_embedded"`
	Page page `json:"page"`
}

// ForDay returns the staff of branchID with their working slot on date.
// Staff with no WORKING slot that day are returned inactive. When several
// working slots exist the earliest start and latest end are used.
func (c *Client) ForDay(ctx context.Context, date time.Time, branchID string) ([]appointment.Employee, error) {
	path := fmt.Sprintf("/branch/%s/staff/worktimetable", url.PathEscape(branchID))
	want := dateutil.Format(date)

	var out []appointment.Employee
	for p := 0; ; p++ {
		if p >= maxPages {
			return nil, fmt.Errorf("fetching work timetable: %w", ErrTooManyPages)
		}

		var resp workTimetableResponse
		if err := c.do(ctx, "fetch work timetable", http.MethodGet, c.endpoint(path, dayQuery(date, p)), nil, &resp); err != nil {
			return nil, err
		}

		for _, wt := range resp.Embedded.WorkTimeTables {
			e := appointment.Employee{
				ID:           appointment.EmployeeID(wt.StaffID),
				Name:         wt.StaffName,
				DisplayColor: wt.Color,
			}
			for _, slot := range wt.TimeSlots {
				if slot.Date != want || !strings.EqualFold(slot.Type, "working") {
					continue
				}
				start, err := appointment.ParseTimeOfDay(slot.StartTime)
				if err != nil {
					c.Logger.Warn("skipping malformed time slot", "staff", wt.StaffID, "error", err)
					continue
				}
				end, err := appointment.ParseTimeOfDay(slot.EndTime)
				if err != nil {
					c.Logger.Warn("skipping malformed time slot", "staff", wt.StaffID, "error", err)
					continue
				}
				if !e.ActiveToday {
					e.WorkWindow = appointment.Window{Start: start, End: end}
					e.ActiveToday = true
					continue
				}
				e.WorkWindow.Start = min(e.WorkWindow.Start, start)
				e.WorkWindow.End = max(e.WorkWindow.End, end)
			}
			if e.Name == "" {
				e.Name = wt.StaffID
			}
			out = append(out, e)
		}

		if p+1 >= resp.Page.TotalPages {
			break
		}
	}
	return out, nil
}
