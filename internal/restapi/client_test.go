package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/javiermolinar/spagrid/internal/appointment"
)

var day = time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "user", "secret", time.Second)
}

func TestFetchDay_Pages(t *testing.T) {
	var requests int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/branch/main/appointment" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("date") != "2025-01-09" {
			t.Errorf("unexpected date %s", r.URL.Query().Get("date"))
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "user" || pass != "secret" {
			t.Error("missing basic auth")
		}
		if r.Header.Get(requestIDHeader) == "" {
			t.Error("missing request id")
		}

		var resp appointmentsResponse
		resp.Page.TotalPages = 2
		switch r.URL.Query().Get("page") {
		case "0":
			resp.Embedded.Appointments = []appointmentJSON{
				{AppointmentID: "p", StaffID: "anna", StartTime: "10:00:00", EndTime: "11:00:00", State: "BOOKED"},
				{AppointmentID: "gone", StaffID: "anna", StartTime: "10:00:00", EndTime: "11:00:00", Deleted: true},
			}
		case "1":
			resp.Embedded.Appointments = []appointmentJSON{
				{AppointmentID: "c", StaffID: "anna", StartTime: "11:00:00", EndTime: "11:30:00", State: "CANCELED", ParentID: "p"},
				{AppointmentID: "bad", StaffID: "anna", StartTime: "eleven", EndTime: "11:30:00"},
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	appts, err := c.FetchDay(context.Background(), day, "main")
	if err != nil {
		t.Fatalf("FetchDay failed: %v", err)
	}
	if requests != 2 {
		t.Errorf("expected 2 page requests, got %d", requests)
	}
	if len(appts) != 2 {
		t.Fatalf("expected 2 appointments, got %d: %+v", len(appts), appts)
	}
	if appts[0].Status != appointment.StatusScheduled || appts[1].Status != appointment.StatusCancelled {
		t.Errorf("unexpected statuses %q %q", appts[0].Status, appts[1].Status)
	}
	if len(appts[0].ChildIDs) != 1 || appts[0].ChildIDs[0] != "c" {
		t.Errorf("expected child c to be linked, got %v", appts[0].ChildIDs)
	}
}

func TestUpdateAppointment_SendsPatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/appointment/a1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding body: %v", err)
			return
		}
		if body["staffId"] != "ben" || body["startTime"] != "14:30:00" || body["endTime"] != "15:30:00" {
			t.Errorf("unexpected body %v", body)
		}
		if body["durationMinutes"] != float64(60) {
			t.Errorf("expected durationMinutes 60, got %v", body["durationMinutes"])
		}
		_ = json.NewEncoder(w).Encode(appointmentJSON{
			AppointmentID: "a1", StaffID: "ben", StartTime: "14:30:00", EndTime: "15:30:00", State: "booked",
		})
	})

	a := appointment.Appointment{ID: "a1", EmployeeID: "anna", Start: appointment.At(10, 0), End: appointment.At(11, 0)}
	saved, err := c.UpdateAppointment(context.Background(), "a1", appointment.MovePatch(a, "ben", appointment.At(14, 30)))
	if err != nil {
		t.Fatalf("UpdateAppointment failed: %v", err)
	}
	if saved.EmployeeID != "ben" || saved.Start != appointment.At(14, 30) {
		t.Errorf("unexpected saved appointment %+v", saved)
	}
}

func TestUpdateAppointment_OnlyChangedFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["staffId"]; ok {
			t.Errorf("resize must not send staffId: %v", body)
		}
		_ = json.NewEncoder(w).Encode(appointmentJSON{AppointmentID: "a1", StaffID: "anna", StartTime: "10:00:00", EndTime: "11:15:00"})
	})

	if _, err := c.UpdateAppointment(context.Background(), "a1", appointment.SpanPatch(appointment.At(10, 0), 75)); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateAppointment_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"not found", http.StatusNotFound, appointment.ErrAppointmentNotFound},
		{"server error", http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			start := appointment.At(10, 0)
			_, err := c.UpdateAppointment(context.Background(), "a1", appointment.Patch{Start: &start})
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			var se *StatusError
			if tt.wantErr == nil && (!errors.As(err, &se) || se.Code != tt.status) {
				t.Errorf("expected StatusError %d, got %v", tt.status, err)
			}
		})
	}
}

func TestUpdateAppointment_EmptyPatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty patch must not reach the server")
	})
	if _, err := c.UpdateAppointment(context.Background(), "a1", appointment.Patch{}); !errors.Is(err, appointment.ErrEmptyPatch) {
		t.Errorf("expected ErrEmptyPatch, got %v", err)
	}
}

func TestForDay(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/branch/main/staff/worktimetable" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"_embedded": {"workTimeTables": [
				{"staffId": "anna", "staffName": "Anna", "color": "#aa3366", "timeSlots": [
					{"date": "2025-01-09", "startTime": "09:00:00", "endTime": "13:00:00", "type": "WORKING"},
					{"date": "2025-01-09", "startTime": "14:00:00", "endTime": "18:00:00", "type": "WORKING"},
					{"date": "2025-01-10", "startTime": "06:00:00", "endTime": "22:00:00", "type": "WORKING"}
				]},
				{"staffId": "ben", "timeSlots": [
					{"date": "2025-01-09", "startTime": "09:00:00", "endTime": "17:00:00", "type": "HOLIDAY"}
				]}
			]},
			"page": {"totalPages": 1}
		}`))
	})

	employees, err := c.ForDay(context.Background(), day, "main")
	if err != nil {
		t.Fatalf("ForDay failed: %v", err)
	}
	if len(employees) != 2 {
		t.Fatalf("expected 2 employees, got %d", len(employees))
	}

	anna := employees[0]
	if !anna.ActiveToday || anna.WorkWindow.Start != appointment.At(9, 0) || anna.WorkWindow.End != appointment.At(18, 0) {
		t.Errorf("unexpected anna %+v", anna)
	}
	ben := employees[1]
	if ben.ActiveToday || ben.Name != "ben" {
		t.Errorf("ben is on holiday and should be inactive: %+v", ben)
	}
}

func TestClose(t *testing.T) {
	c := NewClient("http://example.invalid", "", "", 0)
	if c.HTTP.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", c.HTTP.Timeout)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
