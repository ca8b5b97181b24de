package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/schedule"
	"github.com/javiermolinar/spagrid/internal/workhours"
)

var errCheckFailed = errors.New("check found problems")

func (a *App) checkCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report data problems for a day",
		Long: `Check a day for problems the grid tolerates but someone should fix:

  - appointments outside their employee's working hours
  - appointments of employees who are not working
  - add-ons that do not start where the previous appointment ends
  - stored durations that disagree with start and end (local database)

Nothing is corrected. The command exits non-zero if anything was found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ensureRepo(); err != nil {
				return err
			}
			day, err := parseDay(date)
			if err != nil {
				return err
			}

			sched := a.newSchedule(nil)
			if _, err := sched.LoadDay(cmd.Context(), day); err != nil {
				return fmt.Errorf("loading day: %w", err)
			}

			w := cmd.OutOrStdout()
			problems := checkDay(w, sched)

			if a.sqlite != nil {
				records, err := a.sqlite.StoredDurations(cmd.Context(), a.config.Branch.ID)
				if err != nil {
					return err
				}
				drift := appointment.CheckDurationDrift(records)
				for _, d := range drift {
					_, _ = fmt.Fprintf(w, "%s %s\n", formatWarning("drift"), d)
				}
				problems += len(drift)
			}

			if problems > 0 {
				return fmt.Errorf("%w: %d", errCheckFailed, problems)
			}
			_, _ = fmt.Fprintln(w, formatStats("No problems found."))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to check (default: today)")
	return cmd
}

// checkDay prints the problems of the loaded day and returns how many.
func checkDay(w io.Writer, sched *schedule.Controller) int {
	var (
		hours    workhours.Validator
		problems int
	)
	for _, appt := range sched.Store().All() {
		if appt.IsCancelled() {
			continue
		}
		e, ok := sched.Employee(appt.EmployeeID)
		switch {
		case !ok:
			_, _ = fmt.Fprintf(w, "%s appointment %s: unknown employee %s\n", formatWarning("roster"), appt.ID, appt.EmployeeID)
		case !e.ActiveToday:
			_, _ = fmt.Fprintf(w, "%s appointment %s: %s is not working\n", formatWarning("roster"), appt.ID, e.ID)
		case !hours.FitsAppointment(e, appt):
			_, _ = fmt.Fprintf(w, "%s appointment %s: %s-%s outside %s's hours %s\n",
				formatWarning("hours"), appt.ID, appt.Start, appt.End, e.ID, e.WorkWindow)
		default:
			continue
		}
		problems++
	}
	for _, cw := range sched.ChainWarnings() {
		_, _ = fmt.Fprintf(w, "%s %s\n", formatWarning("chain"), cw)
		problems++
	}
	return problems
}
