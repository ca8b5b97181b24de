package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/tui/theme"
)

// Styles holds all lipgloss styles for the TUI, derived from a theme.
type Styles struct {
	palette *theme.Palette

	Title        lipgloss.Style
	TitleMuted   lipgloss.Style
	ColumnHeader lipgloss.Style
	Gutter       lipgloss.Style
	GutterHour   lipgloss.Style
	Grid         lipgloss.Style
	OffHours     lipgloss.Style
	HourLine     lipgloss.Style
	Separator    lipgloss.Style
	Origin       lipgloss.Style // original position of a dragged block
	Ghost        lipgloss.Style // preview that would be accepted
	GhostInvalid lipgloss.Style // preview that would be rejected
	StatusInfo   lipgloss.Style
	StatusWarn   lipgloss.Style
	StatusError  lipgloss.Style
	Help         lipgloss.Style
	Prompt       lipgloss.Style
}

// NewStyles creates all styles from a theme.
func NewStyles(t *theme.Theme) *Styles {
	p := theme.NewPalette(t)
	base := lipgloss.NewStyle().Background(p.Bg).Foreground(p.Fg)

	return &Styles{
		palette:      p,
		Title:        base.Foreground(p.Accent).Bold(true),
		TitleMuted:   base.Foreground(p.FgMuted),
		ColumnHeader: lipgloss.NewStyle().Background(p.BgHighlight).Foreground(p.Fg).Bold(true),
		Gutter:       base.Foreground(p.FgMuted),
		GutterHour:   base.Foreground(p.Fg),
		Grid:         base,
		OffHours:     lipgloss.NewStyle().Background(p.OffHours).Foreground(p.FgMuted),
		HourLine:     base.Foreground(p.BgSelection),
		Separator:    base.Foreground(p.BgHighlight),
		Origin:       lipgloss.NewStyle().Background(p.BgHighlight).Foreground(p.FgMuted).Faint(true),
		Ghost:        lipgloss.NewStyle().Background(p.BgSelection).Foreground(p.Fg).Bold(true),
		GhostInvalid: lipgloss.NewStyle().Background(p.Error).Foreground(p.TextOnError).Bold(true),
		StatusInfo:   base.Foreground(p.Accent),
		StatusWarn:   base.Foreground(p.Warning),
		StatusError:  base.Foreground(p.Error).Bold(true),
		Help:         base.Foreground(p.FgMuted),
		Prompt:       base.Foreground(p.Accent),
	}
}

// Block returns the style of an appointment block in a lane.
func (s *Styles) Block(status appointment.Status, lane int, employeeColor string) (string, lipgloss.Style) {
	bg := s.palette.BlockColor(status, lane, employeeColor)
	fg := s.palette.BlockFg[status]
	style := lipgloss.NewStyle().Background(bg).Foreground(fg)
	if status == appointment.StatusCancelled {
		style = style.Strikethrough(true)
	}
	return "block:" + string(bg) + ":" + string(fg), style
}

// Palette exposes the derived colors.
func (s *Styles) Palette() *theme.Palette {
	return s.palette
}
