package ui

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/spagrid/internal/metrics"
	"github.com/javiermolinar/spagrid/internal/timeaxis"
	"github.com/javiermolinar/spagrid/internal/tui"
)

// addGridFlags makes cmd open the interactive grid.
func (a *App) addGridFlags(cmd *cobra.Command) {
	var date, window string

	cmd.Flags().StringVar(&date, "date", "", "Day to open (YYYY-MM-DD, today, tomorrow, weekday; default: today)")
	cmd.Flags().StringVar(&window, "window", "", "Visible hours: daytime or full (default from config)")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		return a.runGrid(cmd.Context(), date, window)
	}
}

func (a *App) runGrid(ctx context.Context, date, window string) error {
	if err := a.ensureRepo(); err != nil {
		return err
	}
	day, err := parseDay(date)
	if err != nil {
		return err
	}

	cfg := *a.config
	if window != "" {
		if _, err := timeaxis.ParseMode(window); err != nil {
			return err
		}
		cfg.Grid.Window = window
	}

	opts := []tui.ModelOption{tui.WithLogger(a.logger), tui.WithDate(day)}
	if cfg.Metrics.Enabled {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		m := metrics.New()
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Listen, cfg.Metrics.Path, a.logger); err != nil {
				a.logger.Error("metrics endpoint stopped", "error", err)
			}
		}()
		opts = append(opts, tui.WithMetrics(m))
	}

	return tui.RunWithDebug(a.repo, a.roster, &cfg, a.debug, opts...)
}
