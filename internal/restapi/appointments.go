package restapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/javiermolinar/spagrid/internal/appointment"
)

type appointmentJSON struct {
	AppointmentID string `json:"appointmentId"`
	StaffID       string `json:"staffId"`
	ClientName    string `json:"clientName"`
	ServiceName   string `json:"serviceName"`
	StartTime     string `json:"startTime"` // HH:MM:SS
	EndTime       string `json:"endTime"`   // HH:MM:SS
	State         string `json:"state"`
	Paid          bool   `json:"paid"`
	ParentID      string `json:"parentId,omitempty"`
	Deleted       bool   `json:"deleted"`
}

type page struct {
	Size       int `json:"size"`
	TotalPages int `json:"totalPages"`
	Number     int `json:"number"`
}

type appointmentsResponse struct {
	Embedded struct {
		Appointments []appointmentJSON `json:"appointments"`
	} `json:"_embedded"`
	Page page `json:"page"`
}

// patchJSON is the PATCH body. Absent fields are left untouched by the API.
type patchJSON struct {
	StaffID         *string `json:"staffId,omitempty"`
	StartTime       *string `json:"startTime,omitempty"`
	EndTime         *string `json:"endTime,omitempty"`
	DurationMinutes *int    `json:"durationMinutes,omitempty"`
}

func (a appointmentJSON) toDomain() (appointment.Appointment, error) {
	start, err := appointment.ParseTimeOfDay(a.StartTime)
	if err != nil {
		return appointment.Appointment{}, fmt.Errorf("appointment %s start: %w", a.AppointmentID, err)
	}
	end, err := appointment.ParseTimeOfDay(a.EndTime)
	if err != nil {
		return appointment.Appointment{}, fmt.Errorf("appointment %s end: %w", a.AppointmentID, err)
	}
	// Unknown states fall back to scheduled.
	status, _ := appointment.ParseStatus(a.State)

	out := appointment.Appointment{
		ID:           appointment.ID(a.AppointmentID),
		EmployeeID:   appointment.EmployeeID(a.StaffID),
		ClientLabel:  a.ClientName,
		ServiceLabel: a.ServiceName,
		Start:        start,
		End:          end,
		Status:       status,
		Paid:         a.Paid,
	}
	if a.ParentID != "" {
		p := appointment.ID(a.ParentID)
		out.ParentID = &p
	}
	return out, nil
}

func toPatchJSON(p appointment.Patch) patchJSON {
	var body patchJSON
	if p.EmployeeID != nil {
		s := string(*p.EmployeeID)
		body.StaffID = &s
	}
	if p.Start != nil {
		s := clock(*p.Start)
		body.StartTime = &s
	}
	if p.End != nil {
		s := clock(*p.End)
		body.EndTime = &s
	}
	if p.Start != nil && p.End != nil {
		d := p.End.Sub(*p.Start)
		body.DurationMinutes = &d
	} else {
		body.DurationMinutes = p.DurationMinutes
	}
	return body
}

// FetchDay pages through the branch's appointments on date. Deleted and
// malformed rows are skipped.
func (c *Client) FetchDay(ctx context.Context, date time.Time, branchID string) ([]appointment.Appointment, error) {
	path := fmt.Sprintf("/branch/%s/appointment", url.PathEscape(branchID))

	var out []appointment.Appointment
	for p := 0; ; p++ {
		if p >= maxPages {
			return nil, fmt.Errorf("fetching appointments: %w", ErrTooManyPages)
		}

		var resp appointmentsResponse
		if err := c.do(ctx, "fetch appointments", http.MethodGet, c.endpoint(path, dayQuery(date, p)), nil, &resp); err != nil {
			return nil, err
		}

		for _, a := range resp.Embedded.Appointments {
			if a.Deleted {
				continue
			}
			appt, err := a.toDomain()
			if err != nil {
				c.Logger.Warn("skipping malformed appointment", "id", a.AppointmentID, "error", err)
				continue
			}
			out = append(out, appt)
		}

		if p+1 >= resp.Page.TotalPages {
			break
		}
	}

	appointment.LinkChildren(out)
	return out, nil
}

// UpdateAppointment sends a partial update and returns the API's copy.
func (c *Client) UpdateAppointment(ctx context.Context, id appointment.ID, patch appointment.Patch) (appointment.Appointment, error) {
	if patch.IsEmpty() {
		return appointment.Appointment{}, appointment.ErrEmptyPatch
	}

	var resp appointmentJSON
	path := "/appointment/" + url.PathEscape(string(id))
	err := c.do(ctx, "update appointment", http.MethodPatch, c.endpoint(path, nil), toPatchJSON(patch), &resp)

	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return appointment.Appointment{}, fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}
	if err != nil {
		return appointment.Appointment{}, err
	}

	return resp.toDomain()
}
