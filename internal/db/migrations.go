package db

import "fmt"

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS employees (
			id         TEXT PRIMARY KEY,
			branch_id  TEXT NOT NULL,
			name       TEXT NOT NULL,
			color      TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS shifts (
			employee_id TEXT NOT NULL REFERENCES employees(id),
			work_date   DATE NOT NULL,
			start_time  TEXT NOT NULL,
			end_time    TEXT NOT NULL,
			active      INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (employee_id, work_date)
		);

		CREATE TABLE IF NOT EXISTS appointments (
			id               TEXT PRIMARY KEY,
			branch_id        TEXT NOT NULL,
			employee_id      TEXT NOT NULL,
			appt_date        DATE NOT NULL,
			start_time       TEXT NOT NULL,
			end_time         TEXT NOT NULL,
			duration_minutes INTEGER,
			client_label     TEXT NOT NULL DEFAULT '',
			service_label    TEXT NOT NULL DEFAULT '',
			status           TEXT NOT NULL DEFAULT 'scheduled',
			paid             INTEGER NOT NULL DEFAULT 0,
			parent_id        TEXT REFERENCES appointments(id),
			created_at       DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at       DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_appointments_day ON appointments(branch_id, appt_date);
		CREATE INDEX IF NOT EXISTS idx_appointments_parent ON appointments(parent_id);
		CREATE INDEX IF NOT EXISTS idx_shifts_date ON shifts(work_date);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return nil
}
