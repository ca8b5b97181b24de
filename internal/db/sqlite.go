// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/dateutil"
)

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var appointmentColumns = []string{
	"id", "employee_id", "client_label", "service_label",
	"start_time", "end_time", "status", "paid", "parent_id",
}

// SQLite implements appointment.Repository and appointment.Roster using SQLite.
type SQLite struct {
	db *sql.DB
}

// New creates a new SQLite repository and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close releases database resources.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateAppointment inserts a on date for branchID. An empty ID is replaced
// by a fresh UUID.
func (s *SQLite) CreateAppointment(ctx context.Context, date time.Time, branchID string, a *appointment.Appointment) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = appointment.ID(uuid.NewString())
	}
	if a.Status == "" {
		a.Status = appointment.StatusScheduled
	}

	var parent any
	if a.ParentID != nil {
		parent = string(*a.ParentID)
	}

	query, args, err := builder.Insert("appointments").
		Columns(
			"id", "branch_id", "employee_id", "appt_date", "start_time", "end_time",
			"duration_minutes", "client_label", "service_label", "status", "paid", "parent_id",
		).
		Values(
			string(a.ID), branchID, string(a.EmployeeID), dateutil.Format(date),
			a.Start.String(), a.End.String(), a.Duration(),
			a.ClientLabel, a.ServiceLabel, string(a.Status), a.Paid, parent,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

// GetAppointment retrieves an appointment by ID, including its add-on ids.
func (s *SQLite) GetAppointment(ctx context.Context, id appointment.ID) (appointment.Appointment, error) {
	query, args, err := builder.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"id": string(id)}).
		ToSql()
	if err != nil {
		return appointment.Appointment{}, fmt.Errorf("building select: %w", err)
	}

	a, err := scanAppointment(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return appointment.Appointment{}, fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}
	if err != nil {
		return appointment.Appointment{}, fmt.Errorf("querying appointment: %w", err)
	}

	children, err := s.childIDs(ctx, id)
	if err != nil {
		return appointment.Appointment{}, err
	}
	a.ChildIDs = children
	return a, nil
}

// FetchDay returns every appointment of branchID on date, ordered by
// employee and start. Add-on ids are filled from parent_id links.
func (s *SQLite) FetchDay(ctx context.Context, date time.Time, branchID string) ([]appointment.Appointment, error) {
	query, args, err := builder.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"branch_id": branchID, "appt_date": dateutil.Format(date)}).
		OrderBy("employee_id", "start_time", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying appointments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var appts []appointment.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning appointment: %w", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating appointments: %w", err)
	}

	appointment.LinkChildren(appts)
	return appts, nil
}

func (s *SQLite) childIDs(ctx context.Context, parent appointment.ID) ([]appointment.ID, error) {
	query, args, err := builder.Select("id").
		From("appointments").
		Where(squirrel.Eq{"parent_id": string(parent)}).
		OrderBy("start_time", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying add-ons: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []appointment.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning add-on: %w", err)
		}
		ids = append(ids, appointment.ID(id))
	}
	return ids, rows.Err()
}

// UpdateAppointment applies the non-nil fields of patch and returns the
// stored row. duration_minutes is always rewritten from the new interval.
func (s *SQLite) UpdateAppointment(ctx context.Context, id appointment.ID, patch appointment.Patch) (appointment.Appointment, error) {
	if patch.IsEmpty() {
		return appointment.Appointment{}, appointment.ErrEmptyPatch
	}

	current, err := s.GetAppointment(ctx, id)
	if err != nil {
		return appointment.Appointment{}, err
	}
	next := patch.Apply(current)
	if err := next.Validate(); err != nil {
		return appointment.Appointment{}, err
	}

	update := builder.Update("appointments").
		Set("duration_minutes", next.Duration()).
		Set("updated_at", time.Now().UTC().Format(time.RFC3339)).
		Where(squirrel.Eq{"id": string(id)})
	if patch.EmployeeID != nil {
		update = update.Set("employee_id", string(*patch.EmployeeID))
	}
	if patch.Start != nil {
		update = update.Set("start_time", patch.Start.String())
	}
	if patch.End != nil {
		update = update.Set("end_time", patch.End.String())
	}

	query, args, err := update.ToSql()
	if err != nil {
		return appointment.Appointment{}, fmt.Errorf("building update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return appointment.Appointment{}, fmt.Errorf("updating appointment: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return appointment.Appointment{}, fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}

	return s.GetAppointment(ctx, id)
}

// CancelAppointment marks an appointment as cancelled.
func (s *SQLite) CancelAppointment(ctx context.Context, id appointment.ID) error {
	query, args, err := builder.Update("appointments").
		Set("status", string(appointment.StatusCancelled)).
		Set("updated_at", time.Now().UTC().Format(time.RFC3339)).
		Where(squirrel.Eq{"id": string(id)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update: %w", err)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("cancelling appointment: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: %s", appointment.ErrAppointmentNotFound, id)
	}
	return nil
}

// StoredDurations returns every appointment of branchID with its stored
// duration_minutes, for drift checks. Rows without a stored value are
// skipped.
func (s *SQLite) StoredDurations(ctx context.Context, branchID string) ([]appointment.StoredDuration, error) {
	cols := append([]string{"duration_minutes"}, appointmentColumns...)
	query, args, err := builder.Select(cols...).
		From("appointments").
		Where(squirrel.Eq{"branch_id": branchID}).
		Where(squirrel.NotEq{"duration_minutes": nil}).
		OrderBy("appt_date", "start_time", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying durations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []appointment.StoredDuration
	for rows.Next() {
		var (
			stored int
			r      appointmentRow
		)
		dest := append([]any{&stored}, r.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning appointment: %w", err)
		}
		a, err := r.appointment()
		if err != nil {
			return nil, err
		}
		out = append(out, appointment.StoredDuration{Appointment: a, DurationMinutes: stored})
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// appointmentRow holds the raw columns listed in appointmentColumns.
type appointmentRow struct {
	id, employeeID, client, service string
	start, end, status              string
	paid                            bool
	parentID                        sql.NullString
}

func (r *appointmentRow) dest() []any {
	return []any{&r.id, &r.employeeID, &r.client, &r.service, &r.start, &r.end, &r.status, &r.paid, &r.parentID}
}

func (r *appointmentRow) appointment() (appointment.Appointment, error) {
	start, err := appointment.ParseTimeOfDay(r.start)
	if err != nil {
		return appointment.Appointment{}, fmt.Errorf("appointment %s start: %w", r.id, err)
	}
	end, err := appointment.ParseTimeOfDay(r.end)
	if err != nil {
		return appointment.Appointment{}, fmt.Errorf("appointment %s end: %w", r.id, err)
	}
	// Unknown statuses fall back to scheduled.
	status, _ := appointment.ParseStatus(r.status)

	a := appointment.Appointment{
		ID:           appointment.ID(r.id),
		EmployeeID:   appointment.EmployeeID(r.employeeID),
		ClientLabel:  r.client,
		ServiceLabel: r.service,
		Start:        start,
		End:          end,
		Status:       status,
		Paid:         r.paid,
	}
	if r.parentID.Valid && r.parentID.String != "" {
		p := appointment.ID(r.parentID.String)
		a.ParentID = &p
	}
	return a, nil
}

func scanAppointment(row rowScanner) (appointment.Appointment, error) {
	var r appointmentRow
	if err := row.Scan(r.dest()...); err != nil {
		return appointment.Appointment{}, err
	}
	return r.appointment()
}
