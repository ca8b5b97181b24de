package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/spagrid/internal/config"
	"github.com/javiermolinar/spagrid/internal/tui/theme"
)

func (a *App) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  spagrid config`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInteractive(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runConfigInteractive(in io.Reader, out io.Writer) error {
	configPath := config.DefaultConfigPath()
	_, _ = fmt.Fprintf(out, "Config file: %s\n\n", configPath)

	// Load existing config or create defaults
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Check if file exists
	_, fileErr := os.Stat(configPath)
	isNew := os.IsNotExist(fileErr)

	if isNew {
		_, _ = fmt.Fprintln(out, "No config file found. Creating with default values...")
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		_, _ = fmt.Fprintf(out, "Created %s\n\n", configPath)
	}

	printConfig(out, cfg)

	reader := bufio.NewReader(in)
	if !promptYesNo(reader, out, "\nWould you like to edit the configuration?") {
		return nil
	}

	editConfig(reader, out, cfg)

	// Validate before saving
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration saved!")
	return nil
}

func editConfig(reader *bufio.Reader, out io.Writer, cfg *config.Config) {
	cfg.Branch.ID = promptValue(reader, out, "Branch", cfg.Branch.ID)
	cfg.Grid.Window = promptValue(reader, out, "Window (daytime or full)", cfg.Grid.Window)
	cfg.Grid.PixelsPerSlot = promptFloat(reader, out, "Rows per 15-minute slot", cfg.Grid.PixelsPerSlot)
	cfg.Storage.Backend = promptValue(reader, out, "Backend (sqlite or rest)", cfg.Storage.Backend)
	if cfg.UsesREST() {
		cfg.REST.BaseURL = promptValue(reader, out, "REST base URL", cfg.REST.BaseURL)
		cfg.REST.User = promptValue(reader, out, "REST user", cfg.REST.User)
		cfg.REST.Token = promptValue(reader, out, "REST token", cfg.REST.Token)
	} else {
		cfg.Storage.DBPath = promptValue(reader, out, "Database path", cfg.Storage.DBPath)
	}
	cfg.Roster.File = promptValue(reader, out, "Roster file (empty to use the backend)", cfg.Roster.File)
	cfg.UI.Theme = promptTheme(reader, out, cfg.UI.Theme)
}

func printConfig(out io.Writer, cfg *config.Config) {
	p := func(format string, args ...any) { _, _ = fmt.Fprintf(out, format, args...) }

	p("Current configuration:\n")
	p("──────────────────────\n")
	p("[grid]\n")
	p("  window           = %s\n", cfg.Grid.Window)
	p("  pixels_per_slot  = %g\n", cfg.Grid.PixelsPerSlot)
	p("  base_z           = %d\n", cfg.Grid.BaseZ)
	p("\n[storage]\n")
	p("  backend          = %s\n", cfg.Storage.Backend)
	p("  db_path          = %s\n", cfg.Storage.DBPath)
	if cfg.UsesREST() {
		p("\n[rest]\n")
		p("  base_url         = %s\n", cfg.REST.BaseURL)
		p("  user             = %s\n", cfg.REST.User)
		p("  token            = %s\n", mask(cfg.REST.Token))
		p("  timeout_seconds  = %d\n", cfg.REST.TimeoutSeconds)
	}
	if cfg.Roster.File != "" {
		p("\n[roster]\n")
		p("  file             = %s\n", cfg.Roster.File)
	}
	p("\n[branch]\n")
	p("  id               = %s\n", cfg.Branch.ID)
	p("\n[ui]\n")
	p("  theme            = %s\n", cfg.UI.Theme)
	if cfg.Metrics.Enabled {
		p("\n[metrics]\n")
		p("  listen           = %s\n", cfg.Metrics.Listen)
		p("  path             = %s\n", cfg.Metrics.Path)
	}
}

// mask hides all but the last four characters of a secret.
func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}

func promptYesNo(reader *bufio.Reader, out io.Writer, question string) bool {
	_, _ = fmt.Fprintf(out, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(reader *bufio.Reader, out io.Writer, label, current string) string {
	if current == "" {
		_, _ = fmt.Fprintf(out, "  %s: ", label)
	} else {
		_, _ = fmt.Fprintf(out, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptFloat(reader *bufio.Reader, out io.Writer, label string, current float64) float64 {
	for {
		value := promptValue(reader, out, label, strconv.FormatFloat(current, 'g', -1, 64))
		f, err := strconv.ParseFloat(value, 64)
		if err == nil && f > 0 {
			return f
		}
		_, _ = fmt.Fprintf(out, "  Invalid number %q\n", value)
	}
}

func promptTheme(reader *bufio.Reader, out io.Writer, current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(promptValue(reader, out, label, current))
		if theme.IsAvailable(value) {
			return value
		}
		_, _ = fmt.Fprintf(out, "  Invalid theme %q. Available: %s\n", value, options)
	}
}
