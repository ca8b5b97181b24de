package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/schedule"
)

func (a *App) dayCmd() *cobra.Command {
	var (
		date     string
		employee string
		verbose  bool
	)

	cmd := &cobra.Command{
		Use:   "day",
		Short: "Print a day's appointments per employee",
		Long: `Print the appointments of one day grouped by employee, with the
same overlap columns the grid uses and any add-on chains out of sequence.`,
		Example: `  spagrid day
  spagrid day --date=tomorrow
  spagrid day --date=2026-03-14 --employee=anna`,
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

			opts := PrintOpts{Verbose: verbose, ShowDuration: true, ShowColumns: true}
			return printDay(cmd.OutOrStdout(), day, sched, appointment.EmployeeID(employee), opts)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to show (YYYY-MM-DD, today, tomorrow, weekday; default: today)")
	cmd.Flags().StringVar(&employee, "employee", "", "Only show this employee")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show full labels")
	return cmd
}

// newSchedule builds a controller over the open backend.
func (a *App) newSchedule(n appointment.Notifier) *schedule.Controller {
	return schedule.New(a.repo, a.roster, schedule.Options{
		BranchID: a.config.Branch.ID,
		Notifier: n,
		Logger:   a.logger,
		BaseZ:    a.config.Grid.BaseZ,
	})
}

// printDay writes the loaded day of sched. An empty only prints everyone.
func printDay(w io.Writer, day time.Time, sched *schedule.Controller, only appointment.EmployeeID, opts PrintOpts) error {
	employees := sched.Employees()
	if only != "" {
		e, ok := sched.Employee(only)
		if !ok {
			return fmt.Errorf("%w: %s", appointment.ErrEmployeeNotFound, only)
		}
		employees = []appointment.Employee{e}
	}

	_, _ = fmt.Fprintf(w, "=== %s ===\n", formatHeader(day.Format("Monday, January 2, 2006")))
	if len(employees) == 0 {
		_, _ = fmt.Fprintln(w, "\nNobody is working.")
		return nil
	}

	maxDescWidth := opts.CalcMaxDescWidth(36)
	shown := 0
	for _, e := range employees {
		name := e.Name
		if name == "" {
			name = string(e.ID)
		}
		_, _ = fmt.Fprintf(w, "\n  %s %s\n", formatHeader(name), formatMuted(e.WorkWindow.String()))
		if !e.ActiveToday {
			_, _ = fmt.Fprintf(w, "    %s\n", formatMuted("not working"))
		}

		appts := sched.Store().ByEmployee(e.ID)
		if len(appts) == 0 {
			_, _ = fmt.Fprintf(w, "    %s\n", formatMuted("free"))
			continue
		}

		placements := sched.Layout(e.ID)
		stats := Stats{WorkMinutes: e.WorkWindow.Minutes()}
		for _, appt := range appts {
			p := placements[appt.ID]
			PrintAppointmentRow(w, appt, p, opts, maxDescWidth)
			AccumulateStats(&stats, appt, p)
			shown++
		}
		_, _ = fmt.Fprintln(w)
		PrintStats(w, stats)
	}

	if only == "" {
		if hidden := sched.Store().Len() - shown; hidden > 0 {
			_, _ = fmt.Fprintf(w, "\n%s\n", formatWarning(fmt.Sprintf("%d appointment(s) belong to employees not working today", hidden)))
		}
	}
	if warnings := sched.ChainWarnings(); len(warnings) > 0 {
		_, _ = fmt.Fprintf(w, "\n%s\n", formatWarning("Add-ons out of sequence:"))
		for _, cw := range warnings {
			_, _ = fmt.Fprintf(w, "  %s\n", cw)
		}
	}
	return nil
}
