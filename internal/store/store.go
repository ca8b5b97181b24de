// Package store holds the appointments of the day being displayed.
package store

import (
	"cmp"
	"slices"
	"time"

	"github.com/javiermolinar/spagrid/internal/appointment"
)

// Reader is the read-only view handed to everything except the schedule
// controller.
type Reader interface {
	Date() time.Time
	Get(id appointment.ID) (appointment.Appointment, bool)
	ByEmployee(emp appointment.EmployeeID) []appointment.Appointment
	Visible(emp appointment.EmployeeID) []appointment.Appointment
	All() []appointment.Appointment
	Len() int
}

// Store is an in-memory map of appointments keyed by id, with a derived
// employee index. It is not safe for concurrent use; one goroutine owns it.
type Store struct {
	date       time.Time
	byID       map[appointment.ID]appointment.Appointment
	byEmployee map[appointment.EmployeeID][]appointment.ID
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byID:       make(map[appointment.ID]appointment.Appointment),
		byEmployee: make(map[appointment.EmployeeID][]appointment.ID),
	}
}

// Replace discards the current contents and loads appts for date.
func (s *Store) Replace(date time.Time, appts []appointment.Appointment) {
	s.date = date
	s.byID = make(map[appointment.ID]appointment.Appointment, len(appts))
	s.byEmployee = make(map[appointment.EmployeeID][]appointment.ID)
	for _, a := range appts {
		s.Put(a)
	}
}

// Date returns the day currently loaded.
func (s *Store) Date() time.Time {
	return s.date
}

// Get returns a copy of the appointment with the given id.
func (s *Store) Get(id appointment.ID) (appointment.Appointment, bool) {
	a, ok := s.byID[id]
	if !ok {
		return appointment.Appointment{}, false
	}
	return a.Clone(), true
}

// Put inserts or replaces an appointment, moving it between employee
// indexes when its employee changed.
func (s *Store) Put(a appointment.Appointment) {
	if prev, ok := s.byID[a.ID]; ok && prev.EmployeeID != a.EmployeeID {
		s.unindex(prev.EmployeeID, a.ID)
	}
	if _, ok := s.byID[a.ID]; !ok || !slices.Contains(s.byEmployee[a.EmployeeID], a.ID) {
		s.byEmployee[a.EmployeeID] = append(s.byEmployee[a.EmployeeID], a.ID)
	}
	s.byID[a.ID] = a.Clone()
}

// Delete removes an appointment. Missing ids are ignored.
func (s *Store) Delete(id appointment.ID) {
	a, ok := s.byID[id]
	if !ok {
		return
	}
	s.unindex(a.EmployeeID, id)
	delete(s.byID, id)
}

func (s *Store) unindex(emp appointment.EmployeeID, id appointment.ID) {
	ids := slices.DeleteFunc(s.byEmployee[emp], func(x appointment.ID) bool { return x == id })
	if len(ids) == 0 {
		delete(s.byEmployee, emp)
		return
	}
	s.byEmployee[emp] = ids
}

// ByEmployee returns the employee's appointments sorted by start then id,
// cancelled ones included.
func (s *Store) ByEmployee(emp appointment.EmployeeID) []appointment.Appointment {
	ids := s.byEmployee[emp]
	out := make([]appointment.Appointment, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id].Clone())
	}
	sortByStart(out)
	return out
}

// Visible returns what the grid draws for an employee: ByEmployee without
// cancelled appointments.
func (s *Store) Visible(emp appointment.EmployeeID) []appointment.Appointment {
	return slices.DeleteFunc(s.ByEmployee(emp), appointment.Appointment.IsCancelled)
}

// All returns every appointment sorted by employee, start and id.
func (s *Store) All() []appointment.Appointment {
	out := make([]appointment.Appointment, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a.Clone())
	}
	slices.SortFunc(out, func(a, b appointment.Appointment) int {
		if c := cmp.Compare(a.EmployeeID, b.EmployeeID); c != 0 {
			return c
		}
		return compareStart(a, b)
	})
	return out
}

// Len returns the number of appointments held.
func (s *Store) Len() int {
	return len(s.byID)
}

func sortByStart(appts []appointment.Appointment) {
	slices.SortFunc(appts, compareStart)
}

func compareStart(a, b appointment.Appointment) int {
	if c := cmp.Compare(a.Start, b.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
