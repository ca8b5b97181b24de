package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/spagrid/internal/appointment"
)

func (a *App) cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <appointment-id>",
		Short: "Cancel an appointment in the local database",
		Long: `Cancel an appointment by its ID. Cancelled appointments stay in the
database but disappear from the grid.

Example:
  spagrid cancel 8f14e45f`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.requireSQLite()
			if err != nil {
				return err
			}

			id := appointment.ID(args[0])
			if err := repo.CancelAppointment(cmd.Context(), id); err != nil {
				return fmt.Errorf("cancelling appointment: %w", err)
			}
			a.logger.Info("appointment cancelled", "id", id)

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cancelled appointment %s\n", id)
			return nil
		},
	}
}
