package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/spagrid/internal/calendar"
)

func (a *App) exportCmd() *cobra.Command {
	var (
		date             string
		out              string
		includeCancelled bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a day as an iCalendar file",
		Long: `Write the appointments of one day as iCalendar events, one per
appointment, with the employee as location. Add-ons are related to the
appointment they follow.`,
		Example: `  spagrid export > today.ics
  spagrid export --date=2026-03-14 --out=saturday.ics --include-cancelled`,
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
			fetched, err := sched.FetchDay(cmd.Context(), day)
			if err != nil {
				return fmt.Errorf("loading day: %w", err)
			}
			appts := sched.ApplyDay(fetched)

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				path, err := resolvePath(out)
				if err != nil {
					return err
				}
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("creating %s: %w", path, err)
				}
				defer func() { _ = f.Close() }()
				w = f
			}

			opts := calendar.Options{Location: time.Local, IncludeCancelled: includeCancelled}
			if err := calendar.Export(w, day, fetched.Employees, appts, opts); err != nil {
				return fmt.Errorf("exporting: %w", err)
			}
			if out != "" && out != "-" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d appointments to %s\n", len(appts), out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to export (default: today)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&includeCancelled, "include-cancelled", false, "Export cancelled appointments as cancelled events")
	return cmd
}
