// Package theme provides color themes for the TUI.
package theme

import (
	"embed"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/spagrid/internal/appointment"
)

//go:embed embedded/*.toml
var embeddedThemes embed.FS

const fallback = "mocha"

// Theme holds all colors for a TUI theme.
type Theme struct {
	Name        string `toml:"name"`
	Bg          string `toml:"bg"`           // Grid background
	BgHighlight string `toml:"bg_highlight"` // Header, gutter
	BgSelection string `toml:"bg_selection"` // Ghost block while dragging
	Fg          string `toml:"fg"`
	FgMuted     string `toml:"fg_muted"` // Hour labels, cancelled text
	Accent      string `toml:"accent"`   // Title, borders
	Scheduled   string `toml:"scheduled"`
	InProgress  string `toml:"in_progress"`
	Completed   string `toml:"completed"`
	Cancelled   string `toml:"cancelled"`
	Warning     string `toml:"warning"`   // Pending saves
	Error       string `toml:"error"`     // Rejected previews, status errors
	OffHours    string `toml:"off_hours"` // Slots outside an employee's window
}

// Color returns a lipgloss.Color for the given hex string.
func Color(hex string) lipgloss.Color {
	return lipgloss.Color(hex)
}

// Load loads a theme by name from embedded files.
// Falls back to mocha if the theme is not found.
func Load(name string) (*Theme, error) {
	if name == "" {
		name = fallback
	}
	name = strings.ToLower(name)

	data, err := embeddedThemes.ReadFile("embedded/" + name + ".toml")
	if err != nil {
		if name != fallback {
			return Load(fallback)
		}
		return nil, fmt.Errorf("loading theme %q: %w", name, err)
	}

	var t Theme
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing theme %q: %w", name, err)
	}
	t.applyDefaults()

	return &t, nil
}

// StatusColor returns the block color for an appointment status.
func (t *Theme) StatusColor(s appointment.Status) string {
	switch s {
	case appointment.StatusInProgress:
		return t.InProgress
	case appointment.StatusCompleted:
		return t.Completed
	case appointment.StatusCancelled:
		return t.Cancelled
	default:
		return t.Scheduled
	}
}

func (t *Theme) applyDefaults() {
	t.InProgress = coalesce(t.InProgress, t.Scheduled)
	t.Completed = coalesce(t.Completed, t.Scheduled)
	t.Cancelled = coalesce(t.Cancelled, t.FgMuted)
	t.Error = coalesce(t.Error, t.Warning, t.Accent)
	t.OffHours = coalesce(t.OffHours, t.Bg)
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Available returns a list of available theme names.
func Available() []string {
	return []string{"mocha", "macchiato", "frappe", "latte"}
}

// IsAvailable reports whether a theme name is available.
func IsAvailable(name string) bool {
	return slices.Contains(Available(), strings.ToLower(name))
}
