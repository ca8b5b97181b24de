package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/config"
	"github.com/javiermolinar/spagrid/internal/db"
	"github.com/javiermolinar/spagrid/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	config *config.Config
	root   *cobra.Command
	logger *slog.Logger

	// Opened lazily by ensureRepo.
	repo    appointment.Repository
	roster  appointment.Roster
	sqlite  *db.SQLite
	closers []io.Closer

	debug    bool   // TUI event log
	logLevel string // slog level
	logFile  string // slog destination, stderr when empty
	noColor  bool
}

// NewApp creates a new CLI application for cfg. Backends are opened on
// first use.
func NewApp(cfg *config.Config) *App {
	a := &App{config: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	a.root = &cobra.Command{
		Use:   "spagrid",
		Short: "Drag-and-drop appointment grid for spa front desks",
		Long: `Spagrid shows a day of appointments per employee on a time grid.

Drag a block to move it to another time or employee, drag its top or bottom
edge to resize it. Changes are saved in the background and rolled back if
the booking system refuses them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.noColor {
				DisableColor()
			}
			logger, closer, err := newLogger(a.logLevel, a.logFile, cmd.ErrOrStderr(), cmd.Name() == "spagrid")
			if err != nil {
				return err
			}
			a.logger = logger
			if closer != nil {
				a.closers = append(a.closers, closer)
			}
			return nil
		},
	}

	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable the grid event log ("+tui.DebugLogPath+")")
	a.root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	a.root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Write logs to this file instead of stderr")
	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable color output")

	a.addGridFlags(a.root)

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.dayCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.resizeCmd())
	a.root.AddCommand(a.addCmd())
	a.root.AddCommand(a.cancelCmd())
	a.root.AddCommand(a.rosterCmd())
	a.root.AddCommand(a.exportCmd())
	a.root.AddCommand(a.checkCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "spagrid %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// ExecuteContext runs the CLI application with ctx available to commands.
func (a *App) ExecuteContext(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

// Close releases every backend and log file opened by commands.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
