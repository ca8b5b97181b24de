package schedule

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/javiermolinar/spagrid/internal/appointment"
)

var testDay = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

var errNetwork = errors.New("connection reset")

// fakeRepo applies patches to its own copy, or fails when failNext is set.
type fakeRepo struct {
	mu       sync.Mutex
	appts    map[appointment.ID]appointment.Appointment
	failNext int
	updates  []appointment.ID
}

func newFakeRepo(appts ...appointment.Appointment) *fakeRepo {
	r := &fakeRepo{appts: make(map[appointment.ID]appointment.Appointment)}
	for _, a := range appts {
		r.appts[a.ID] = a
	}
	return r
}

func (r *fakeRepo) FetchDay(_ context.Context, _ time.Time, _ string) ([]appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]appointment.Appointment, 0, len(r.appts))
	for _, a := range r.appts {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeRepo) UpdateAppointment(_ context.Context, id appointment.ID, patch appointment.Patch) (appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, id)
	if r.failNext > 0 {
		r.failNext--
		return appointment.Appointment{}, errNetwork
	}
	a, ok := r.appts[id]
	if !ok {
		return appointment.Appointment{}, appointment.ErrAppointmentNotFound
	}
	a = patch.Apply(a)
	r.appts[id] = a
	return a, nil
}

func (r *fakeRepo) Close() error { return nil }

type fakeRoster []appointment.Employee

func (f fakeRoster) ForDay(context.Context, time.Time, string) ([]appointment.Employee, error) {
	return f, nil
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Error(message string) {
	n.messages = append(n.messages, message)
}

func employee(id, start, end string) appointment.Employee {
	return appointment.Employee{
		ID:          appointment.EmployeeID(id),
		Name:        id,
		WorkWindow:  appointment.Window{Start: appointment.MustParseTimeOfDay(start), End: appointment.MustParseTimeOfDay(end)},
		ActiveToday: true,
	}
}

func appt(id, emp, start, end string) appointment.Appointment {
	return appointment.Appointment{
		ID:          appointment.ID(id),
		EmployeeID:  appointment.EmployeeID(emp),
		ClientLabel: "client " + id,
		Start:       appointment.MustParseTimeOfDay(start),
		End:         appointment.MustParseTimeOfDay(end),
		Status:      appointment.StatusScheduled,
	}
}

func setup(t *testing.T, appts ...appointment.Appointment) (*Controller, *fakeRepo, *recordingNotifier) {
	t.Helper()
	repo := newFakeRepo(appts...)
	roster := fakeRoster{
		employee("anna", "09:00", "18:00"),
		employee("ben", "12:00", "20:00"),
	}
	notifier := &recordingNotifier{}
	c := New(repo, roster, Options{BranchID: "main", Notifier: notifier})
	if _, err := c.LoadDay(context.Background(), testDay); err != nil {
		t.Fatalf("LoadDay failed: %v", err)
	}
	return c, repo, notifier
}

func mustGet(t *testing.T, c *Controller, id appointment.ID) appointment.Appointment {
	t.Helper()
	a, ok := c.Store().Get(id)
	if !ok {
		t.Fatalf("appointment %s not in store", id)
	}
	return a
}

func TestLoadDay(t *testing.T) {
	broken := appt("broken", "anna", "12:00", "11:00")
	c, _, _ := setup(t, appt("a", "anna", "10:00", "11:00"), broken)

	if c.Store().Len() != 1 {
		t.Errorf("expected invalid appointment to be skipped, got %d", c.Store().Len())
	}
	if got := len(c.Employees()); got != 2 {
		t.Errorf("expected 2 employees, got %d", got)
	}
	if !c.Store().Date().Equal(testDay) {
		t.Errorf("unexpected store date %v", c.Store().Date())
	}
}

func TestEmployees_SkipsInactive(t *testing.T) {
	off := employee("carla", "09:00", "17:00")
	off.ActiveToday = false
	c := New(newFakeRepo(), fakeRoster{employee("anna", "09:00", "18:00"), off}, Options{})
	if _, err := c.LoadDay(context.Background(), testDay); err != nil {
		t.Fatal(err)
	}

	if got := c.Employees(); len(got) != 1 || got[0].ID != "anna" {
		t.Errorf("expected only anna, got %v", got)
	}
	if _, ok := c.Employee("carla"); !ok {
		t.Error("Employee should still find inactive roster entries")
	}
	if _, err := c.MoveAppointment("x", "carla", appointment.At(10, 0)); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestMoveAppointment_Success(t *testing.T) {
	c, repo, notifier := setup(t, appt("a", "anna", "10:00", "11:00"))

	m, err := c.MoveAppointment("a", "ben", appointment.At(14, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatal("expected a mutation to send")
	}

	// Optimistic: store already changed before persistence.
	got := mustGet(t, c, "a")
	if got.EmployeeID != "ben" || got.Start != appointment.At(14, 0) || got.End != appointment.At(15, 0) {
		t.Errorf("unexpected optimistic state %+v", got)
	}
	if !c.Pending("a") {
		t.Error("mutation should be pending until settled")
	}

	if err := c.Flush(context.Background(), m); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if c.Pending("a") {
		t.Error("nothing should be pending after flush")
	}
	if len(repo.updates) != 1 {
		t.Errorf("expected 1 update call, got %d", len(repo.updates))
	}
	if len(notifier.messages) != 0 {
		t.Errorf("expected no notifications, got %v", notifier.messages)
	}
}

func TestMoveAppointment_Validation(t *testing.T) {
	tests := []struct {
		name    string
		emp     appointment.EmployeeID
		start   string
		wantErr error
	}{
		{"past end of day", "anna", "17:30", appointment.ErrOutsideWorkingHours},
		{"before start", "anna", "08:45", appointment.ErrOutsideWorkingHours},
		{"before other employee starts", "ben", "11:30", appointment.ErrOutsideWorkingHours},
		{"unknown employee", "zoe", "10:00", appointment.ErrEmployeeNotFound},
		{"same position", "anna", "10:00", appointment.ErrEmptyPatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, repo, notifier := setup(t, appt("a", "anna", "10:00", "11:00"))

			m, err := c.MoveAppointment("a", tt.emp, appointment.MustParseTimeOfDay(tt.start))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if m != nil {
				t.Error("rejected move must not produce a mutation")
			}
			got := mustGet(t, c, "a")
			if got.EmployeeID != "anna" || got.Start != appointment.At(10, 0) {
				t.Errorf("store changed on rejection: %+v", got)
			}
			if len(repo.updates) != 0 || len(notifier.messages) != 0 {
				t.Error("validation rejection must not persist or notify")
			}
		})
	}
}

func TestMoveAppointment_RollbackOnFailure(t *testing.T) {
	c, repo, notifier := setup(t, appt("a", "anna", "10:00", "11:00"))
	repo.failNext = 1

	m, err := c.MoveAppointment("a", "anna", appointment.At(15, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mustGet(t, c, "a").Start != appointment.At(15, 0) {
		t.Fatal("expected optimistic move before persistence")
	}

	err = c.Flush(context.Background(), m)
	if !errors.Is(err, errNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}

	got := mustGet(t, c, "a")
	if got.Start != appointment.At(10, 0) || got.End != appointment.At(11, 0) {
		t.Errorf("expected revert to 10:00-11:00, got %s-%s", got.Start, got.End)
	}
	if len(notifier.messages) != 1 {
		t.Errorf("expected exactly one notification, got %d: %v", len(notifier.messages), notifier.messages)
	}
	if c.Pending("a") {
		t.Error("failed mutation should not stay pending")
	}
}

func TestResizeAppointment(t *testing.T) {
	c, _, _ := setup(t, appt("a", "anna", "14:00", "14:45"))

	m, err := c.ResizeAppointment("a", 75)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	got := mustGet(t, c, "a")
	if got.Start != appointment.At(14, 0) || got.Duration() != 75 {
		t.Errorf("expected 14:00 for 75 minutes, got %s for %d", got.Start, got.Duration())
	}
}

func TestResizeAppointment_ClampsToOneSlot(t *testing.T) {
	c, _, _ := setup(t, appt("a", "anna", "14:00", "15:00"))

	if _, err := c.ResizeAppointment("a", 5); err != nil {
		t.Fatal(err)
	}
	if got := mustGet(t, c, "a").Duration(); got != 15 {
		t.Errorf("expected duration clamped to 15, got %d", got)
	}
}

func TestResizeAppointment_OutsideHours(t *testing.T) {
	c, _, _ := setup(t, appt("a", "anna", "17:00", "17:30"))

	_, err := c.ResizeAppointment("a", 90)
	if !errors.Is(err, appointment.ErrOutsideWorkingHours) {
		t.Fatalf("expected outside working hours, got %v", err)
	}
	if got := mustGet(t, c, "a").Duration(); got != 30 {
		t.Errorf("store changed on rejection: %d", got)
	}
}

func TestResizeAppointmentStart_KeepsEnd(t *testing.T) {
	c, _, _ := setup(t, appt("a", "anna", "14:00", "15:00"))

	if _, err := c.ResizeAppointmentStart("a", appointment.At(13, 30)); err != nil {
		t.Fatal(err)
	}
	got := mustGet(t, c, "a")
	if got.Start != appointment.At(13, 30) || got.End != appointment.At(15, 0) {
		t.Errorf("expected 13:30-15:00, got %s-%s", got.Start, got.End)
	}
}

func TestResizeAppointmentStart_Clamp(t *testing.T) {
	c, _, _ := setup(t, appt("a", "anna", "14:00", "15:00"))

	if _, err := c.ResizeAppointmentStart("a", appointment.At(16, 0)); err != nil {
		t.Fatal(err)
	}
	got := mustGet(t, c, "a")
	if got.Start != appointment.At(14, 45) || got.End != appointment.At(15, 0) {
		t.Errorf("expected 14:45-15:00, got %s-%s", got.Start, got.End)
	}
}

func TestQueuedMutations_SerializedPerAppointment(t *testing.T) {
	c, repo, _ := setup(t, appt("a", "anna", "10:00", "11:00"), appt("b", "anna", "12:00", "13:00"))

	first, err := c.MoveAppointment("a", "anna", appointment.At(11, 0))
	if err != nil || first == nil {
		t.Fatalf("first move: %v %v", first, err)
	}
	second, err := c.MoveAppointment("a", "anna", appointment.At(12, 0))
	if err != nil {
		t.Fatal(err)
	}
	if second != nil {
		t.Fatal("second mutation for the same appointment should be queued")
	}
	// A different appointment is independent.
	other, err := c.MoveAppointment("b", "anna", appointment.At(15, 0))
	if err != nil || other == nil {
		t.Fatalf("independent appointment should not be queued: %v %v", other, err)
	}

	if got := mustGet(t, c, "a").Start; got != appointment.At(12, 0) {
		t.Errorf("store should show latest optimistic value, got %s", got)
	}

	next := c.Settle(c.Send(context.Background(), first))
	if next == nil {
		t.Fatal("settling the first mutation should release the queued one")
	}
	if next.Before.Start != appointment.At(11, 0) || next.After.Start != appointment.At(12, 0) {
		t.Errorf("unexpected queued mutation %+v", next)
	}
	if c.Settle(c.Send(context.Background(), next)) != nil {
		t.Error("queue should be empty")
	}
	if got := repo.appts["a"].Start; got != appointment.At(12, 0) {
		t.Errorf("repository should hold the last value, got %s", got)
	}
}

func TestQueuedMutations_FailureDropsFollowers(t *testing.T) {
	c, repo, notifier := setup(t, appt("a", "anna", "10:00", "11:00"))
	repo.failNext = 1

	first, _ := c.MoveAppointment("a", "anna", appointment.At(11, 0))
	if queued, _ := c.MoveAppointment("a", "anna", appointment.At(13, 0)); queued != nil {
		t.Fatal("expected second move to be queued")
	}

	if next := c.Settle(c.Send(context.Background(), first)); next != nil {
		t.Error("followers of a failed mutation must be dropped")
	}
	if got := mustGet(t, c, "a").Start; got != appointment.At(10, 0) {
		t.Errorf("expected revert to the original 10:00, got %s", got)
	}
	if len(notifier.messages) != 1 {
		t.Errorf("expected one notification, got %d", len(notifier.messages))
	}
	if len(repo.updates) != 1 {
		t.Errorf("dropped follower must not be sent, got %d updates", len(repo.updates))
	}
}

func TestReload_KeepsPendingMutationInFlight(t *testing.T) {
	c, repo, notifier := setup(t, appt("a", "anna", "10:00", "11:00"))
	repo.failNext = 1

	first, _ := c.MoveAppointment("a", "anna", appointment.At(15, 0))
	if first == nil {
		t.Fatal("expected the first move to be sent")
	}
	if _, err := c.LoadDay(context.Background(), testDay); err != nil {
		t.Fatal(err)
	}

	// The repository has not seen the move yet; the grid still shows it.
	if got := mustGet(t, c, "a").Start; got != appointment.At(15, 0) {
		t.Errorf("pending move lost on reload, got %s", got)
	}
	if !c.Pending("a") {
		t.Error("a should still be pending after reload")
	}
	second, err := c.MoveAppointment("a", "anna", appointment.At(16, 0))
	if err != nil {
		t.Fatal(err)
	}
	if second != nil {
		t.Fatal("a change made after the reload must queue behind the unsettled one")
	}

	if next := c.Settle(c.Send(context.Background(), first)); next != nil {
		t.Error("followers of a failed mutation must be dropped")
	}
	if len(notifier.messages) != 1 {
		t.Errorf("expected one notification, got %v", notifier.messages)
	}
	if got := mustGet(t, c, "a").Start; got != appointment.At(10, 0) {
		t.Errorf("expected revert to the reloaded 10:00, got %s", got)
	}
	if len(repo.updates) != 1 {
		t.Errorf("expected a single update, got %d", len(repo.updates))
	}
}

func TestReload_QueuedMutationsStillSent(t *testing.T) {
	c, repo, _ := setup(t, appt("a", "anna", "10:00", "11:00"))

	first, _ := c.MoveAppointment("a", "anna", appointment.At(11, 0))
	if queued, _ := c.MoveAppointment("a", "anna", appointment.At(12, 0)); queued != nil {
		t.Fatal("expected second move to be queued")
	}
	if _, err := c.LoadDay(context.Background(), testDay); err != nil {
		t.Fatal(err)
	}
	if got := mustGet(t, c, "a").Start; got != appointment.At(12, 0) {
		t.Errorf("store should show the latest queued change, got %s", got)
	}

	if err := c.Flush(context.Background(), first); err != nil {
		t.Fatal(err)
	}
	if got := repo.appts["a"].Start; got != appointment.At(12, 0) {
		t.Errorf("repository should hold the last value, got %s", got)
	}
	if got := mustGet(t, c, "a").Start; got != appointment.At(12, 0) {
		t.Errorf("store should hold the saved value, got %s", got)
	}
	if c.Pending("a") {
		t.Error("nothing should be pending after the flush")
	}
}

func TestSettle_OtherDayFailureStillNotifies(t *testing.T) {
	c, repo, notifier := setup(t, appt("a", "anna", "10:00", "11:00"))
	repo.failNext = 1

	m, _ := c.MoveAppointment("a", "anna", appointment.At(15, 0))
	o := c.Send(context.Background(), m)

	// The fake repository returns the same rows for any date.
	if _, err := c.LoadDay(context.Background(), testDay.AddDate(0, 0, 1)); err != nil {
		t.Fatal(err)
	}
	if got := mustGet(t, c, "a").Start; got != appointment.At(10, 0) {
		t.Fatalf("another day must not show the pending move, got %s", got)
	}
	if next := c.Settle(o); next != nil {
		t.Error("failed outcome should not release anything")
	}
	if len(notifier.messages) != 1 {
		t.Errorf("expected one notification, got %v", notifier.messages)
	}
	if got := mustGet(t, c, "a").Start; got != appointment.At(10, 0) {
		t.Errorf("store of another day must not change, got %s", got)
	}
	if c.Pending("a") {
		t.Error("settled mutation should no longer be pending")
	}
}

func TestMoveAppointment_RoundTripRestoresLayout(t *testing.T) {
	c, _, _ := setup(t,
		appt("a", "anna", "10:00", "11:00"),
		appt("b", "anna", "10:30", "11:30"),
		appt("c", "anna", "11:00", "12:00"),
	)
	before := c.Layout("anna")

	m, err := c.MoveAppointment("b", "ben", appointment.At(14, 0))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Layout("anna")["b"]; ok {
		t.Fatal("b should have left anna's track")
	}

	m, err = c.MoveAppointment("b", "anna", appointment.At(10, 30))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Flush(context.Background(), m); err != nil {
		t.Fatal(err)
	}

	if after := c.Layout("anna"); !reflect.DeepEqual(before, after) {
		t.Errorf("layout not restored:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestChainWarnings_FollowOptimisticState(t *testing.T) {
	parent := appt("p", "anna", "10:00", "11:00")
	parent.ChildIDs = []appointment.ID{"c"}
	child := appt("c", "anna", "11:00", "11:30")
	pid := parent.ID
	child.ParentID = &pid

	c, _, _ := setup(t, parent, child)
	if w := c.ChainWarnings(); len(w) != 0 {
		t.Fatalf("expected no warnings, got %v", w)
	}

	if _, err := c.MoveAppointment("c", "anna", appointment.At(12, 0)); err != nil {
		t.Fatal(err)
	}
	w := c.ChainWarnings()
	if len(w) != 1 || w[0].ChildID != "c" {
		t.Errorf("expected one warning for c, got %v", w)
	}
}
