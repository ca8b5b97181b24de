// Package tui provides the terminal user interface for spagrid.
package tui

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/spagrid/internal/appointment"
	"github.com/javiermolinar/spagrid/internal/config"
	"github.com/javiermolinar/spagrid/internal/dateutil"
	"github.com/javiermolinar/spagrid/internal/interaction"
	"github.com/javiermolinar/spagrid/internal/schedule"
	"github.com/javiermolinar/spagrid/internal/timeaxis"
	"github.com/javiermolinar/spagrid/internal/tui/commands"
	"github.com/javiermolinar/spagrid/internal/tui/theme"
)

// Model is the main TUI model.
type Model struct {
	// Dependencies
	sched    *schedule.Controller
	gestures *interaction.Controller
	axis     *timeaxis.Axis
	config   *config.Config
	notes    *noteSink

	// Theme and styles
	theme  *theme.Theme
	styles *Styles

	// Components
	keys      keyMap
	help      help.Model
	prompt    textinput.Model
	prompting bool

	// State
	date    time.Time
	loading bool
	scroll  int // rows of the time axis above the viewport
	nowFunc func() time.Time

	// Terminal dimensions
	width  int
	height int

	// Messages
	statusMsg   string
	statusError bool
	statusTime  time.Time
}

// noteSink collects notifier messages raised while settling a mutation so
// Update can surface them on the status line.
type noteSink struct {
	messages []string
}

func (n *noteSink) Error(message string) {
	n.messages = append(n.messages, message)
}

func (n *noteSink) drain() []string {
	out := n.messages
	n.messages = nil
	return out
}

type modelOptions struct {
	logger  *slog.Logger
	metrics schedule.Metrics
	date    time.Time
	now     func() time.Time
}

// ModelOption configures optional model behavior.
type ModelOption func(*modelOptions)

// WithLogger sets the structured logger used by the schedule controller.
func WithLogger(l *slog.Logger) ModelOption {
	return func(o *modelOptions) { o.logger = l }
}

// WithMetrics records mutation and layout metrics.
func WithMetrics(m schedule.Metrics) ModelOption {
	return func(o *modelOptions) { o.metrics = m }
}

// WithDate opens the grid on date instead of today.
func WithDate(date time.Time) ModelOption {
	return func(o *modelOptions) { o.date = date }
}

// WithClock overrides the clock used for "today".
func WithClock(now func() time.Time) ModelOption {
	return func(o *modelOptions) { o.now = now }
}

// New creates a new TUI model.
func New(repo appointment.Repository, roster appointment.Roster, cfg *config.Config, opts ...ModelOption) Model {
	o := modelOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.date.IsZero() {
		o.date = o.now()
	}

	t, err := theme.Load(cfg.UI.Theme)
	if err != nil {
		t, _ = theme.Load("mocha")
	}
	styles := NewStyles(t)

	mode, err := timeaxis.ParseMode(cfg.Grid.Window)
	if err != nil {
		mode = timeaxis.ModeDaytime
	}
	axis := timeaxis.New(mode, cfg.Grid.PixelsPerSlot)

	notes := &noteSink{}
	sched := schedule.New(repo, roster, schedule.Options{
		BranchID: cfg.Branch.ID,
		Notifier: notes,
		Logger:   o.logger,
		Metrics:  o.metrics,
		BaseZ:    cfg.Grid.BaseZ,
	})

	prompt := textinput.New()
	prompt.Placeholder = "YYYY-MM-DD, tomorrow, friday"
	prompt.CharLimit = 16
	prompt.Width = 28
	prompt.Prompt = "Go to: "
	prompt.PromptStyle = styles.Prompt
	prompt.TextStyle = styles.Grid
	prompt.PlaceholderStyle = styles.Help

	h := help.New()
	h.Styles.ShortKey = styles.StatusInfo
	h.Styles.ShortDesc = styles.Help
	h.Styles.ShortSeparator = styles.Help
	h.Styles.FullKey = styles.StatusInfo
	h.Styles.FullDesc = styles.Help
	h.Styles.FullSeparator = styles.Help

	return Model{
		sched:    sched,
		gestures: interaction.New(axis, sched),
		axis:     axis,
		config:   cfg,
		notes:    notes,
		theme:    t,
		styles:   styles,
		keys:     defaultKeyMap(),
		help:     h,
		prompt:   prompt,
		date:     dateutil.TruncateToDay(o.date),
		loading:  true,
		nowFunc:  o.now,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return commands.LoadDay(m.sched, m.date)
}

// Date returns the day shown in the grid.
func (m Model) Date() time.Time {
	return m.date
}

// Schedule exposes the schedule controller backing the grid.
func (m Model) Schedule() *schedule.Controller {
	return m.sched
}

// Run starts the TUI.
func Run(repo appointment.Repository, roster appointment.Roster, cfg *config.Config, opts ...ModelOption) error {
	return RunWithDebug(repo, roster, cfg, false, opts...)
}

// RunWithDebug starts the TUI with optional debug logging.
func RunWithDebug(repo appointment.Repository, roster appointment.Roster, cfg *config.Config, debug bool, opts ...ModelOption) error {
	if err := InitDebugLogger(debug); err != nil {
		return err
	}
	defer CloseDebugLogger()

	model := New(repo, roster, cfg, opts...)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

