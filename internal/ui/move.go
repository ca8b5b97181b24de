package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/schedule"
)

func (a *App) moveCmd() *cobra.Command {
	var (
		date     string
		employee string
	)

	cmd := &cobra.Command{
		Use:   "move <appointment-id> <HH:MM>",
		Short: "Move an appointment to a new start time or employee",
		Long: `Move an appointment keeping its duration, exactly like dragging it
in the grid. The new slot must fall inside the employee's working hours.`,
		Example: `  spagrid move 8f14e45f 11:30
  spagrid move 8f14e45f 14:00 --employee=ben --date=2026-03-14`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := appointment.ParseTimeOfDay(args[1])
			if err != nil {
				return err
			}
			id := appointment.ID(args[0])
			return a.change(cmd.Context(), cmd.OutOrStdout(), date, id,
				func(sched *schedule.Controller, before appointment.Appointment) (*schedule.Mutation, error) {
					emp := before.EmployeeID
					if employee != "" {
						emp = appointment.EmployeeID(employee)
					}
					return sched.MoveAppointment(id, emp, start)
				})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day of the appointment (default: today)")
	cmd.Flags().StringVar(&employee, "employee", "", "Move to this employee (default: keep)")
	return cmd
}

func (a *App) resizeCmd() *cobra.Command {
	var (
		date  string
		start string
	)

	cmd := &cobra.Command{
		Use:   "resize <appointment-id> [minutes]",
		Short: "Change an appointment's duration or start",
		Long: `Resize an appointment. With a duration in minutes the start stays
and the end moves, like dragging the bottom edge. With --start the end stays
and the start moves, like dragging the top edge. Appointments never get
shorter than one 15-minute slot.`,
		Example: `  spagrid resize 8f14e45f 90
  spagrid resize 8f14e45f --start=09:30`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := appointment.ID(args[0])

			var op func(*schedule.Controller, appointment.Appointment) (*schedule.Mutation, error)
			switch {
			case len(args) == 2 && start != "":
				return errors.New("give either a duration or --start, not both")
			case len(args) == 2:
				minutes, err := strconv.Atoi(args[1])
				if err != nil || minutes <= 0 {
					return fmt.Errorf("invalid duration %q: want minutes", args[1])
				}
				op = func(sched *schedule.Controller, _ appointment.Appointment) (*schedule.Mutation, error) {
					return sched.ResizeAppointment(id, minutes)
				}
			case start != "":
				t, err := appointment.ParseTimeOfDay(start)
				if err != nil {
					return err
				}
				op = func(sched *schedule.Controller, _ appointment.Appointment) (*schedule.Mutation, error) {
					return sched.ResizeAppointmentStart(id, t)
				}
			default:
				return errors.New("give a duration in minutes or --start")
			}
			return a.change(cmd.Context(), cmd.OutOrStdout(), date, id, op)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day of the appointment (default: today)")
	cmd.Flags().StringVar(&start, "start", "", "New start time, keeping the end (HH:MM)")
	return cmd
}

// change loads the day holding id, applies one mutation through the schedule
// controller and waits for the repository. A refused change is rolled back
// and returned as an error.
func (a *App) change(ctx context.Context, w io.Writer, date string, id appointment.ID,
	op func(*schedule.Controller, appointment.Appointment) (*schedule.Mutation, error),
) error {
	if err := a.ensureRepo(); err != nil {
		return err
	}
	day, err := parseDay(date)
	if err != nil {
		return err
	}

	sched := a.newSchedule(nil)
	if _, err := sched.LoadDay(ctx, day); err != nil {
		return fmt.Errorf("loading day: %w", err)
	}
	before, ok := sched.Store().Get(id)
	if !ok {
		return fmt.Errorf("%w: %s on %s", appointment.ErrAppointmentNotFound, id, day.Format(time.DateOnly))
	}

	m, err := op(sched, before)
	if errors.Is(err, appointment.ErrEmptyPatch) {
		_, _ = fmt.Fprintln(w, "Nothing to change.")
		return nil
	}
	if err != nil {
		return err
	}
	if err := sched.Flush(ctx, m); err != nil {
		return err
	}

	after, _ := sched.Store().Get(id)
	_, _ = fmt.Fprintf(w, "%s: %s %s-%s → %s %s-%s\n",
		before.ClientLabel,
		before.EmployeeID, before.Start, before.End,
		after.EmployeeID, after.Start, after.End)
	return nil
}
