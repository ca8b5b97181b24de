package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/layout"
)

// Stats holds aggregated statistics for one employee's day.
type Stats struct {
	WorkMinutes     int
	BookedMinutes   int
	Appointments    int
	CancelledBlocks int
	PaidBlocks      int
	MaxColumns      int
}

// Utilization returns the percentage of the working window that is booked.
func (s Stats) Utilization() int {
	if s.WorkMinutes == 0 {
		return 0
	}
	return (s.BookedMinutes * 100) / s.WorkMinutes
}

// Overbooked reports whether appointments had to share columns.
func (s Stats) Overbooked() bool {
	return s.MaxColumns > 1
}

// PrintOpts configures appointment printing behavior.
type PrintOpts struct {
	Verbose      bool // Show full labels
	ShowDuration bool // Show duration column
	ShowColumns  bool // Show overlap column, e.g. "2/3"
	MaxDescWidth int  // Maximum label width (0 = auto)
}

// CalcMaxDescWidth calculates the maximum label width based on options.
func (o PrintOpts) CalcMaxDescWidth(defaultWidth int) int {
	if o.MaxDescWidth > 0 {
		return o.MaxDescWidth
	}
	if !o.Verbose {
		return defaultWidth
	}
	tw := termWidth()
	// Base: "    ○  HH:MM-HH:MM  " = ~20 chars
	// Duration and column suffixes: ~12 chars
	overhead := 20
	if o.ShowDuration {
		overhead += 6
	}
	if o.ShowColumns {
		overhead += 6
	}
	available := tw - overhead
	if available > defaultWidth {
		return available
	}
	return defaultWidth
}

// PrintAppointmentRow prints a single appointment row with consistent
// formatting.
func PrintAppointmentRow(w io.Writer, a appointment.Appointment, p layout.Placement, opts PrintOpts, maxDescWidth int) {
	symbol := statusSymbol(a.Status)

	label := a.ClientLabel
	if a.ServiceLabel != "" {
		label += " · " + a.ServiceLabel
	}
	if a.IsChild() {
		label = "↳ " + label
	}
	if a.Paid {
		label += " $"
	}
	label = ansi.Truncate(label, maxDescWidth, "...")
	pad := strings.Repeat(" ", max(maxDescWidth-ansi.StringWidth(label), 0))

	row := fmt.Sprintf("    %s  %s-%s  %s", symbol, a.Start, a.End, formatStatus(a.Status, label))
	if opts.ShowDuration || opts.ShowColumns {
		row += pad
	}
	if opts.ShowDuration {
		row += "  " + formatMuted(fmt.Sprintf("%-6s", FormatDuration(a.Duration())))
	}
	if opts.ShowColumns && p.TotalColumns > 1 {
		row += "  " + formatWarning(fmt.Sprintf("%d/%d", p.Column+1, p.TotalColumns))
	}
	_, _ = fmt.Fprintln(w, strings.TrimRight(row, " "))
}

// AccumulateStats updates stats based on an appointment and its placement.
func AccumulateStats(stats *Stats, a appointment.Appointment, p layout.Placement) {
	stats.Appointments++
	if a.IsCancelled() {
		stats.CancelledBlocks++
		return
	}
	stats.BookedMinutes += a.Duration()
	if a.Paid {
		stats.PaidBlocks++
	}
	stats.MaxColumns = max(stats.MaxColumns, p.TotalColumns)
}

// PrintStats prints the stats summary line.
func PrintStats(w io.Writer, stats Stats) {
	booked := formatStats(fmt.Sprintf("Booked: %s of %s", FormatDuration(stats.BookedMinutes), FormatDuration(stats.WorkMinutes)))
	_, _ = fmt.Fprintf(w, "    %s | %s\n", booked, UtilizationBar(stats.BookedMinutes, stats.WorkMinutes, 20))

	var extra []string
	if stats.PaidBlocks > 0 {
		extra = append(extra, fmt.Sprintf("Paid: %d", stats.PaidBlocks))
	}
	if stats.CancelledBlocks > 0 {
		extra = append(extra, fmt.Sprintf("Cancelled: %d", stats.CancelledBlocks))
	}
	if len(extra) > 0 {
		_, _ = fmt.Fprintf(w, "    %s\n", formatMuted(strings.Join(extra, "  |  ")))
	}
	if stats.Overbooked() {
		_, _ = fmt.Fprintf(w, "    %s\n", formatWarning(fmt.Sprintf("Overlapping bookings, up to %d side by side", stats.MaxColumns)))
	}
}

// UtilizationBar creates an ASCII progress bar showing how much of the
// working window is booked. Overbooked days fill the bar.
func UtilizationBar(bookedMinutes, workMinutes, width int) string {
	if workMinutes == 0 {
		return "[" + strings.Repeat("░", width) + "] (0% booked)"
	}

	pct := (bookedMinutes * 100) / workMinutes
	filled := min((bookedMinutes*width)/workMinutes, width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s", formatStatus(appointment.StatusScheduled, bar), formatStats(fmt.Sprintf("(%d%% booked)", pct)))
}

// FormatDuration formats minutes as a human-readable duration.
func FormatDuration(minutes int) string {
	if minutes == 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}

// statusSymbol returns the status indicator for an appointment.
func statusSymbol(s appointment.Status) string {
	switch s {
	case appointment.StatusScheduled:
		return "○"
	case appointment.StatusInProgress:
		return "◐"
	case appointment.StatusCompleted:
		return "●"
	case appointment.StatusCancelled:
		return "✗"
	default:
		return "?"
	}
}
