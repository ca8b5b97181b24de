package ui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/spagrid/internal/db"
	"github.com/javiermolinar/spagrid/internal/roster"
)

func (a *App) rosterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Manage who works when",
	}
	cmd.AddCommand(a.rosterImportCmd())
	cmd.AddCommand(a.rosterShowCmd())
	return cmd
}

func (a *App) rosterImportCmd() *cobra.Command {
	var (
		from string
		days int
	)

	cmd := &cobra.Command{
		Use:   "import <roster.yaml>",
		Short: "Import employees and shifts from a roster file",
		Long: `Import the employees of a YAML roster into the local database and
expand their recurring shifts into dated shifts.

The file lists employees with RRULE shifts and dated exceptions:

  branch: main
  employees:
    - id: anna
      name: Anna
      color: "#a6e3a1"
      shifts:
        - rrule: FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR
          start: "09:00"
          end: "18:00"
      exceptions:
        - date: 2026-03-19
          off: true`,
		Example: `  spagrid roster import staff.yaml
  spagrid roster import staff.yaml --from=2026-03-01 --days=60`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.requireSQLite()
			if err != nil {
				return err
			}
			if days <= 0 {
				return fmt.Errorf("--days must be positive")
			}
			start, err := parseDay(from)
			if err != nil {
				return err
			}

			path, err := resolvePath(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				if os.IsNotExist(err) {
					return fmt.Errorf("roster file does not exist: %s", path)
				}
				return fmt.Errorf("checking roster file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("roster path is a directory: %s", path)
			}

			r, err := roster.Load(path)
			if err != nil {
				return err
			}
			branch := r.Branch()
			if branch == "" {
				branch = a.config.Branch.ID
			}

			employees, shifts, err := importRoster(cmd.Context(), repo, r, branch, start, days)
			if err != nil {
				return err
			}
			a.logger.Info("roster imported", "path", path, "branch", branch,
				"employees", employees, "shifts", shifts)

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d employees and %d shifts (%s to %s) into branch %s\n",
				employees, shifts,
				start.Format(time.DateOnly), start.AddDate(0, 0, days-1).Format(time.DateOnly),
				branch)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day to expand shifts for (default: today)")
	cmd.Flags().IntVar(&days, "days", 28, "Number of days to expand")
	return cmd
}

// importRoster saves every employee of r and one shift per employee per day
// for days days starting at from.
func importRoster(ctx context.Context, dest *db.SQLite, r *roster.Roster, branch string, from time.Time, days int) (employees, shifts int, err error) {
	for i, e := range r.Employees() {
		if err := dest.SaveEmployee(ctx, branch, e, i); err != nil {
			return employees, 0, err
		}
		employees++
	}

	var batch []db.Shift
	for d := 0; d < days; d++ {
		day := from.AddDate(0, 0, d)
		staff, err := r.ForDay(ctx, day, branch)
		if err != nil {
			return employees, 0, fmt.Errorf("expanding %s: %w", day.Format(time.DateOnly), err)
		}
		for _, e := range staff {
			batch = append(batch, db.Shift{
				EmployeeID: e.ID,
				Date:       day,
				Window:     e.WorkWindow,
				Active:     e.ActiveToday,
			})
		}
	}
	if err := dest.SaveShifts(ctx, batch); err != nil {
		return employees, 0, err
	}
	return employees, len(batch), nil
}

func (a *App) rosterShowCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show who works on a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			staff, err := a.roster.ForDay(cmd.Context(), day, a.config.Branch.ID)
			if err != nil {
				return fmt.Errorf("loading roster: %w", err)
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "=== %s ===\n", formatHeader(day.Format("Monday, January 2, 2006")))
			if len(staff) == 0 {
				_, _ = fmt.Fprintln(w, "No employees in the roster.")
				return nil
			}
			for _, e := range staff {
				if !e.ActiveToday {
					_, _ = fmt.Fprintf(w, "  %-12s %s\n", e.ID, formatMuted("off"))
					continue
				}
				_, _ = fmt.Fprintf(w, "  %-12s %s  %s\n", e.ID, e.WorkWindow, formatMuted(FormatDuration(e.WorkWindow.Minutes())))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to show (default: today)")
	return cmd
}
