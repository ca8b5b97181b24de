// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/spagrid/internal/schedule"
)

// RequestTimeout bounds every repository call made from the TUI.
const RequestTimeout = 30 * time.Second

// DayFetcher reads a day without touching the grid state.
type DayFetcher interface {
	FetchDay(ctx context.Context, date time.Time) (schedule.Day, error)
}

// Sender persists a mutation.
type Sender interface {
	Send(ctx context.Context, m *schedule.Mutation) schedule.Outcome
}

// DayLoadedMsg is sent when the roster and appointments for a day are read.
type DayLoadedMsg struct {
	Day schedule.Day
}

// MutationSentMsg carries a repository outcome back to the event loop.
type MutationSentMsg struct {
	Outcome schedule.Outcome
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// LoadDay fetches date in the background.
func LoadDay(f DayFetcher, date time.Time) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()

		day, err := f.FetchDay(ctx, date)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return DayLoadedMsg{Day: day}
	}
}

// SendMutation persists m in the background. A nil mutation yields no command.
func SendMutation(s Sender, m *schedule.Mutation) tea.Cmd {
	if m == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		return MutationSentMsg{Outcome: s.Send(ctx, m)}
	}
}

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

// CopyText copies text to the system clipboard.
func CopyText(text, what string) tea.Cmd {
	return func() tea.Msg {
		if err := writeClipboard(text); err != nil {
			return ErrMsg{Err: fmt.Errorf("copying %s: %w", what, err)}
		}
		return StatusMsgCmd{Msg: fmt.Sprintf("Copied %s to clipboard", what)}
	}
}
