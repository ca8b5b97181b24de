package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/workhours"
)

func (a *App) addCmd() *cobra.Command {
	var (
		date     string
		employee string
		start    string
		end      string
		service  string
		parent   string
		paid     bool
	)

	cmd := &cobra.Command{
		Use:   "add <client>",
		Short: "Book an appointment in the local database",
		Long: `Add an appointment to the local database. The slot must fall inside
the employee's working hours for that day. Use --parent to book an add-on
that follows another appointment.`,
		Example: `  spagrid add "Maria Puig" --employee=anna --start=10:00 --end=11:00 --service="Massage 60"
  spagrid add "Maria Puig" --employee=anna --start=11:00 --end=11:30 --service=Facial --parent=8f14e45f`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.requireSQLite()
			if err != nil {
				return err
			}
			day, err := parseDay(date)
			if err != nil {
				return err
			}

			s, err := appointment.ParseTimeOfDay(start)
			if err != nil {
				return fmt.Errorf("invalid start: %w", err)
			}
			e, err := appointment.ParseTimeOfDay(end)
			if err != nil {
				return fmt.Errorf("invalid end: %w", err)
			}
			appt := appointment.Appointment{
				EmployeeID:   appointment.EmployeeID(employee),
				ClientLabel:  args[0],
				ServiceLabel: service,
				Start:        s,
				End:          e,
				Status:       appointment.StatusScheduled,
				Paid:         paid,
			}
			if parent != "" {
				pid := appointment.ID(parent)
				appt.ParentID = &pid
			}
			if err := appt.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			staff, err := a.roster.ForDay(ctx, day, a.config.Branch.ID)
			if err != nil {
				return fmt.Errorf("loading roster: %w", err)
			}
			emp, err := findEmployee(staff, appt.EmployeeID)
			if err != nil {
				return err
			}
			if !emp.ActiveToday {
				return fmt.Errorf("%w: %s", appointment.ErrEmployeeInactive, emp.Name)
			}
			if !(workhours.Validator{}).FitsAppointment(emp, appt) {
				return fmt.Errorf("%w: %s-%s for %s (%s)", appointment.ErrOutsideWorkingHours,
					appt.Start, appt.End, emp.Name, emp.WorkWindow)
			}

			if err := repo.CreateAppointment(ctx, day, a.config.Branch.ID, &appt); err != nil {
				return fmt.Errorf("creating appointment: %w", err)
			}
			a.logger.Info("appointment created", "id", appt.ID, "employee", appt.EmployeeID,
				"start", appt.Start.String(), "end", appt.End.String())

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created appointment %s: %s [%s] %s %s %s-%s\n",
				appt.ID,
				appt.ClientLabel,
				appt.ServiceLabel,
				appt.EmployeeID,
				day.Format("2006-01-02"),
				appt.Start,
				appt.End,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day of the appointment (default: today)")
	cmd.Flags().StringVar(&employee, "employee", "", "Employee id (required)")
	cmd.Flags().StringVar(&start, "start", "", "Start time (HH:MM, required)")
	cmd.Flags().StringVar(&end, "end", "", "End time (HH:MM, required)")
	cmd.Flags().StringVar(&service, "service", "", "Service label")
	cmd.Flags().StringVar(&parent, "parent", "", "Appointment this add-on follows")
	cmd.Flags().BoolVar(&paid, "paid", false, "Mark as paid")

	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func findEmployee(staff []appointment.Employee, id appointment.EmployeeID) (appointment.Employee, error) {
	for _, e := range staff {
		if e.ID == id {
			return e, nil
		}
	}
	return appointment.Employee{}, fmt.Errorf("%w: %s", appointment.ErrEmployeeNotFound, id)
}
