// Package schedule owns the appointments of the visible day and applies
// changes to them optimistically before persisting them.
package schedule

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/dateutil"
	"github.com/javiermolinar/spagrid/internal/layout"
	"github.com/javiermolinar/spagrid/internal/store"
	"github.com/javiermolinar/spagrid/internal/workhours"
)

// Options configures a Controller. Zero values are usable.
type Options struct {
	BranchID string
	Notifier appointment.Notifier
	Logger   *slog.Logger
	Metrics  Metrics
	BaseZ    int
}

// Controller is the single writer of the appointment store.
//
// Every method except Send must be called from the same goroutine (the UI
// event loop). Send only talks to the repository and may run anywhere; its
// Outcome is handed back to Settle on the event loop.
type Controller struct {
	repo      appointment.Repository
	roster    appointment.Roster
	notifier  appointment.Notifier
	logger    *slog.Logger
	metrics   Metrics
	validator workhours.Validator
	engine    layout.Engine
	branchID  string

	store      *store.Store
	employees  []appointment.Employee
	generation int
	seq        uint64
	inflight   map[appointment.ID]*Mutation
	queued     map[appointment.ID][]*Mutation
}

// New creates a controller with an empty store.
func New(repo appointment.Repository, roster appointment.Roster, opts Options) *Controller {
	c := &Controller{
		repo:     repo,
		roster:   roster,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		engine:   layout.Engine{BaseZ: opts.BaseZ},
		branchID: opts.BranchID,
		store:    store.New(),
		inflight: make(map[appointment.ID]*Mutation),
		queued:   make(map[appointment.ID][]*Mutation),
	}
	if c.notifier == nil {
		c.notifier = appointment.NotifierFunc(func(string) {})
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.metrics == nil {
		c.metrics = noopMetrics{}
	}
	return c
}

// Day is a fetched but not yet applied day.
type Day struct {
	Date         time.Time
	Employees    []appointment.Employee
	Appointments []appointment.Appointment
}

// LoadDay fetches the roster and appointments for date and replaces the
// store contents. Mutations still being saved survive the reload.
func (c *Controller) LoadDay(ctx context.Context, date time.Time) ([]appointment.Appointment, error) {
	day, err := c.FetchDay(ctx, date)
	if err != nil {
		return nil, err
	}
	return c.ApplyDay(day), nil
}

// FetchDay reads the roster and appointments for date without touching the
// store. Like Send it may run on any goroutine.
func (c *Controller) FetchDay(ctx context.Context, date time.Time) (Day, error) {
	employees, err := c.roster.ForDay(ctx, date, c.branchID)
	if err != nil {
		return Day{}, fmt.Errorf("loading roster: %w", err)
	}
	appts, err := c.repo.FetchDay(ctx, date, c.branchID)
	if err != nil {
		return Day{}, fmt.Errorf("loading appointments: %w", err)
	}
	return Day{Date: date, Employees: employees, Appointments: appts}, nil
}

// ApplyDay replaces the store with a fetched day. Invalid appointments are
// logged and skipped.
//
// Unsettled mutations stay in flight or queued, so a later change to the
// same appointment still waits for them. When their day is loaded again
// their changes are laid over the fetched copies; while another day is shown
// they settle without touching the store.
func (c *Controller) ApplyDay(day Day) []appointment.Appointment {
	valid := make([]appointment.Appointment, 0, len(day.Appointments))
	for _, a := range day.Appointments {
		if err := a.Validate(); err != nil {
			c.logger.Warn("skipping invalid appointment",
				"id", a.ID, "start", a.Start.String(), "end", a.End.String(), "error", err)
			continue
		}
		valid = append(valid, a)
	}

	c.generation++
	c.store.Replace(day.Date, valid)
	c.employees = slices.Clone(day.Employees)
	c.rebasePending(day.Date)

	for _, w := range appointment.CheckChains(valid) {
		c.logger.Warn("chain out of sequence", "child", w.ChildID, "predecessor", w.PredecessorID,
			"expected", w.ExpectedStart.String(), "actual", w.ActualStart.String())
	}
	c.logger.Info("day loaded", "date", day.Date.Format(time.DateOnly), "branch", c.branchID,
		"employees", len(day.Employees), "appointments", len(valid))

	return c.store.All()
}

// Store returns a read-only view of the current day.
func (c *Controller) Store() store.Reader {
	return c.store
}

// Generation changes on every LoadDay.
func (c *Controller) Generation() int {
	return c.generation
}

// Employees returns the employees working today, in roster order.
func (c *Controller) Employees() []appointment.Employee {
	out := make([]appointment.Employee, 0, len(c.employees))
	for _, e := range c.employees {
		if e.ActiveToday {
			out = append(out, e)
		}
	}
	return out
}

// Employee looks up a roster entry, including inactive ones.
func (c *Controller) Employee(id appointment.EmployeeID) (appointment.Employee, bool) {
	for _, e := range c.employees {
		if e.ID == id {
			return e, true
		}
	}
	return appointment.Employee{}, false
}

// Layout computes column placements for one employee's visible appointments.
func (c *Controller) Layout(emp appointment.EmployeeID) map[appointment.ID]layout.Placement {
	start := time.Now()
	visible := c.store.Visible(emp)
	placements := c.engine.Layout(visible)
	c.metrics.LayoutComputed(len(visible), time.Since(start))
	return placements
}

// ChainWarnings reports add-on appointments that no longer follow their
// predecessor, based on the current (possibly optimistic) state.
func (c *Controller) ChainWarnings() []appointment.ChainWarning {
	return appointment.CheckChains(c.store.All())
}

// Pending reports whether a mutation for id is in flight or queued.
func (c *Controller) Pending(id appointment.ID) bool {
	_, ok := c.inflight[id]
	return ok || len(c.queued[id]) > 0
}

// MoveAppointment relocates an appointment to employee/start keeping its
// duration. It returns the mutation to send, or nil if the mutation was
// queued behind one already in flight for the same appointment.
func (c *Controller) MoveAppointment(id appointment.ID, emp appointment.EmployeeID, start appointment.TimeOfDay) (*Mutation, error) {
	a, ok := c.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}
	e, err := c.activeEmployee(emp)
	if err != nil {
		return nil, err
	}
	if !c.validator.Fits(e, start, a.Duration()) {
		return nil, fmt.Errorf("%w: %s-%s for %s (%s)", appointment.ErrOutsideWorkingHours,
			start, start.Add(a.Duration()), e.Name, e.WorkWindow)
	}
	patch := appointment.MovePatch(a, emp, start)
	if !patch.ChangesFrom(a) {
		return nil, appointment.ErrEmptyPatch
	}
	return c.apply(KindMove, a, patch), nil
}

// ResizeAppointment changes the duration keeping the start fixed. Durations
// below one slot are clamped to one slot.
func (c *Controller) ResizeAppointment(id appointment.ID, durationMinutes int) (*Mutation, error) {
	a, ok := c.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}
	durationMinutes = max(durationMinutes, appointment.MinDurationMinutes)
	return c.resize(KindResize, a, a.Start, durationMinutes)
}

// ResizeAppointmentStart moves the start keeping the end fixed. The start
// is clamped so that at least one slot remains.
func (c *Controller) ResizeAppointmentStart(id appointment.ID, start appointment.TimeOfDay) (*Mutation, error) {
	a, ok := c.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}
	if latest := a.End.Add(-appointment.MinDurationMinutes); start > latest {
		start = latest
	}
	return c.resize(KindResizeStart, a, start, a.End.Sub(start))
}

func (c *Controller) resize(kind Kind, a appointment.Appointment, start appointment.TimeOfDay, duration int) (*Mutation, error) {
	e, err := c.activeEmployee(a.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !c.validator.Fits(e, start, duration) {
		return nil, fmt.Errorf("%w: %s-%s for %s (%s)", appointment.ErrOutsideWorkingHours,
			start, start.Add(duration), e.Name, e.WorkWindow)
	}
	patch := appointment.SpanPatch(start, duration)
	if !patch.ChangesFrom(a) {
		return nil, appointment.ErrEmptyPatch
	}
	return c.apply(kind, a, patch), nil
}

func (c *Controller) activeEmployee(id appointment.EmployeeID) (appointment.Employee, error) {
	e, ok := c.Employee(id)
	if !ok {
		return e, fmt.Errorf("%w: %s", appointment.ErrEmployeeNotFound, id)
	}
	if !e.ActiveToday {
		return e, fmt.Errorf("%w: %s", appointment.ErrEmployeeInactive, e.Name)
	}
	return e, nil
}

// apply writes the change to the store and either marks it in flight or
// queues it behind the mutation already in flight for the same appointment.
func (c *Controller) apply(kind Kind, before appointment.Appointment, patch appointment.Patch) *Mutation {
	c.seq++
	after := patch.Apply(before)
	m := &Mutation{
		Seq:           c.seq,
		Generation:    c.generation,
		Date:          c.store.Date(),
		AppointmentID: before.ID,
		Kind:          kind,
		Patch:         patch,
		Before:        before,
		After:         after,
		AppliedAt:     time.Now(),
	}
	m.revert = func() { c.store.Put(before) }

	c.store.Put(after)
	c.metrics.MutationApplied(kind.String())

	if _, busy := c.inflight[before.ID]; busy {
		c.queued[before.ID] = append(c.queued[before.ID], m)
		c.metrics.MutationQueued(kind.String())
		c.logger.Debug("mutation queued", "seq", m.Seq, "id", m.AppointmentID, "kind", kind.String(),
			"queue", len(c.queued[before.ID]))
		return nil
	}
	c.inflight[before.ID] = m
	c.logger.Debug("mutation applied", "seq", m.Seq, "id", m.AppointmentID, "kind", kind.String())
	return m
}

// rebasePending re-applies the unsettled mutations made on date to the
// freshly loaded store and adopts them into the current generation. The
// in-flight mutation's pre-image becomes the fetched copy.
func (c *Controller) rebasePending(date time.Time) {
	for id, m := range c.inflight {
		if !dateutil.SameDay(m.Date, date) {
			continue
		}
		fetched, ok := c.store.Get(id)
		if !ok {
			continue
		}
		m.Generation = c.generation
		m.revert = func() { c.store.Put(fetched) }

		current := m.Patch.Apply(fetched)
		for _, q := range c.queued[id] {
			q.Generation = c.generation
			current = q.Patch.Apply(current)
		}
		c.store.Put(current)
		c.logger.Debug("pending mutation kept across reload", "seq", m.Seq, "id", id,
			"queue", len(c.queued[id]))
	}
}

// Send persists m through the repository. It does not touch the store and
// is safe to call from any goroutine.
func (c *Controller) Send(ctx context.Context, m *Mutation) Outcome {
	start := time.Now()
	saved, err := c.repo.UpdateAppointment(ctx, m.AppointmentID, m.Patch)
	return Outcome{Mutation: m, Saved: saved, Err: err, Elapsed: time.Since(start)}
}

// Settle records the result of Send. On failure the store is reverted to the
// mutation's pre-image, queued followers for the same appointment are
// dropped and one error is sent to the notifier. On success the store takes
// the repository's copy unless more changes are queued. It returns the next
// queued mutation to send, if any.
//
// A mutation made on a day that is no longer shown still releases its queue
// and still reports failure, but leaves the store alone.
func (c *Controller) Settle(o Outcome) *Mutation {
	m := o.Mutation
	if m == nil {
		return nil
	}
	if c.inflight[m.AppointmentID] != m {
		c.logger.Warn("ignoring outcome for mutation not in flight", "seq", m.Seq, "id", m.AppointmentID)
		return nil
	}
	delete(c.inflight, m.AppointmentID)
	c.metrics.MutationSettled(m.Kind.String(), o.OK(), o.Elapsed)
	shown := m.Generation == c.generation

	if o.Err != nil {
		if shown {
			m.revert()
		}
		dropped := len(c.queued[m.AppointmentID])
		delete(c.queued, m.AppointmentID)
		c.logger.Warn("mutation failed, reverted",
			"seq", m.Seq, "id", m.AppointmentID, "kind", m.Kind.String(),
			"dropped", dropped, "error", o.Err)
		c.notifier.Error(failureMessage(m, o.Err))
		return nil
	}

	queue := c.queued[m.AppointmentID]
	if len(queue) == 0 {
		if shown {
			c.reconcile(m, o.Saved)
		}
		c.logger.Debug("mutation saved", "seq", m.Seq, "id", m.AppointmentID, "elapsed", o.Elapsed)
		return nil
	}

	next := queue[0]
	if len(queue) == 1 {
		delete(c.queued, m.AppointmentID)
	} else {
		c.queued[m.AppointmentID] = queue[1:]
	}
	c.inflight[m.AppointmentID] = next
	return next
}

func (c *Controller) reconcile(m *Mutation, saved appointment.Appointment) {
	if saved.ID != m.AppointmentID {
		return
	}
	if err := saved.Validate(); err != nil {
		c.logger.Warn("repository returned invalid appointment, keeping local copy", "id", saved.ID, "error", err)
		return
	}
	if saved.EmployeeID != m.After.EmployeeID || saved.Start != m.After.Start || saved.End != m.After.End {
		c.logger.Info("repository adjusted appointment", "id", saved.ID,
			"start", saved.Start.String(), "end", saved.End.String(), "employee", saved.EmployeeID)
	}
	c.store.Put(saved)
}

// Flush sends m and every mutation queued behind it, synchronously.
func (c *Controller) Flush(ctx context.Context, m *Mutation) error {
	for m != nil {
		o := c.Send(ctx, m)
		next := c.Settle(o)
		if o.Err != nil {
			return fmt.Errorf("saving appointment %s: %w", m.AppointmentID, o.Err)
		}
		m = next
	}
	return nil
}

func failureMessage(m *Mutation, err error) string {
	who := m.Before.ClientLabel
	if who == "" {
		who = string(m.AppointmentID)
	}
	return fmt.Sprintf("Could not save %s of %s: %v", m.Kind, who, err)
}
