package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/dateutil"
)

// Shift is one employee's working window on one date.
type Shift struct {
	EmployeeID appointment.EmployeeID
	Date       time.Time
	Window     appointment.Window
	Active     bool
}

// SaveEmployee inserts or updates an employee of branchID.
func (s *SQLite) SaveEmployee(ctx context.Context, branchID string, e appointment.Employee, sortOrder int) error {
	query, args, err := builder.Insert("employees").
		Columns("id", "branch_id", "name", "color", "sort_order").
		Values(string(e.ID), branchID, e.Name, e.DisplayColor, sortOrder).
		Suffix("ON CONFLICT(id) DO UPDATE SET branch_id = excluded.branch_id, name = excluded.name, color = excluded.color, sort_order = excluded.sort_order").
		ToSql()
	if err != nil {
		return fmt.Errorf("building upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving employee %s: %w", e.ID, err)
	}
	return nil
}

// SaveShifts replaces the given shifts in one transaction.
func (s *SQLite) SaveShifts(ctx context.Context, shifts []Shift) error {
	if len(shifts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, sh := range shifts {
		query, args, err := builder.Insert("shifts").
			Columns("employee_id", "work_date", "start_time", "end_time", "active").
			Values(string(sh.EmployeeID), dateutil.Format(sh.Date), sh.Window.Start.String(), sh.Window.End.String(), sh.Active).
			Suffix("ON CONFLICT(employee_id, work_date) DO UPDATE SET start_time = excluded.start_time, end_time = excluded.end_time, active = excluded.active").
			ToSql()
		if err != nil {
			return fmt.Errorf("building upsert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("saving shift for %s on %s: %w", sh.EmployeeID, dateutil.Format(sh.Date), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ForDay returns every employee of branchID with their shift on date.
// Employees without a shift that day are returned inactive.
func (s *SQLite) ForDay(ctx context.Context, date time.Time, branchID string) ([]appointment.Employee, error) {
	query, args, err := builder.
		Select("e.id", "e.name", "e.color", "sh.start_time", "sh.end_time", "sh.active").
		From("employees e").
		LeftJoin("shifts sh ON sh.employee_id = e.id AND sh.work_date = ?", dateutil.Format(date)).
		Where(squirrel.Eq{"e.branch_id": branchID}).
		OrderBy("e.sort_order", "e.name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying roster: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var employees []appointment.Employee
	for rows.Next() {
		var (
			e          appointment.Employee
			id         string
			start, end sql.NullString
			active     sql.NullBool
		)
		if err := rows.Scan(&id, &e.Name, &e.DisplayColor, &start, &end, &active); err != nil {
			return nil, fmt.Errorf("scanning employee: %w", err)
		}
		e.ID = appointment.EmployeeID(id)

		if start.Valid && end.Valid {
			if e.WorkWindow.Start, err = appointment.ParseTimeOfDay(start.String); err != nil {
				return nil, fmt.Errorf("employee %s shift start: %w", id, err)
			}
			if e.WorkWindow.End, err = appointment.ParseTimeOfDay(end.String); err != nil {
				return nil, fmt.Errorf("employee %s shift end: %w", id, err)
			}
			e.ActiveToday = active.Valid && active.Bool
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roster: %w", err)
	}

	return employees, nil
}
