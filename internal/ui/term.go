package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/javiermolinar/spagrid/internal/appointment"
)

// Color definitions for consistent styling across the UI.
var (
	// Scheduled: bold cyan, the bulk of the day
	colorScheduled = color.New(color.FgCyan, color.Bold)

	// In progress: green
	colorInProgress = color.New(color.FgGreen, color.Bold)

	// Completed and cancelled fade out
	colorCompleted = color.New(color.FgWhite)
	colorCancelled = color.New(color.FgWhite, color.Faint, color.CrossedOut)

	// Warnings: yellow to make them pop
	colorWarning = color.New(color.FgYellow)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Stats: green for positive metrics
	colorStats = color.New(color.FgGreen)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

// formatStatus colors s the way appointments with status st are shown.
func formatStatus(st appointment.Status, s string) string {
	switch st {
	case appointment.StatusInProgress:
		return colorInProgress.Sprint(s)
	case appointment.StatusCompleted:
		return colorCompleted.Sprint(s)
	case appointment.StatusCancelled:
		return colorCancelled.Sprint(s)
	default:
		return colorScheduled.Sprint(s)
	}
}

// formatWarning formats text for warnings.
func formatWarning(s string) string {
	return colorWarning.Sprint(s)
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatStats formats text for statistics.
func formatStats(s string) string {
	return colorStats.Sprint(s)
}

// formatMuted formats text as secondary/muted.
func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
