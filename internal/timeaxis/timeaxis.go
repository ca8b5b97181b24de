// Package timeaxis converts between wall-clock time, slot index and pixel
// offset on the vertical axis of the grid.
package timeaxis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/javiermolinar/spagrid/internal/appointment"
)

const (
	// SlotMinutes is the fixed axis granularity.
	SlotMinutes = appointment.SlotMinutes
	// DefaultPixelsPerSlot is the slot height used when none is configured.
	DefaultPixelsPerSlot = 20
)

// ErrInvalidMode is returned by ParseMode for unknown window names.
var ErrInvalidMode = errors.New("window mode must be 'daytime' or 'full'")

// Mode selects the visible day window.
type Mode int

const (
	// ModeDaytime shows 07:00-24:00.
	ModeDaytime Mode = iota
	// ModeFullDay shows 00:00-24:00.
	ModeFullDay
)

// Window returns the visible interval for the mode.
func (m Mode) Window() appointment.Window {
	if m == ModeFullDay {
		return appointment.Window{Start: 0, End: appointment.MinutesPerDay}
	}
	return appointment.Window{Start: appointment.At(7, 0), End: appointment.MinutesPerDay}
}

func (m Mode) String() string {
	if m == ModeFullDay {
		return "full"
	}
	return "daytime"
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeFullDay {
		return ModeDaytime
	}
	return ModeFullDay
}

// ParseMode parses "daytime" or "full" (also "24h").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "daytime", "day":
		return ModeDaytime, nil
	case "full", "24h", "fullday":
		return ModeFullDay, nil
	default:
		return ModeDaytime, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Axis maps times to slots and pixels for one window mode.
// Switching mode regenerates the slot list and bumps Generation so that any
// pixel offsets cached by a renderer can be detected as stale.
type Axis struct {
	mode          Mode
	window        appointment.Window
	pixelsPerSlot float64
	slots         []appointment.TimeOfDay
	generation    int
}

// New creates an axis. A non-positive pixelsPerSlot falls back to the default.
func New(mode Mode, pixelsPerSlot float64) *Axis {
	if pixelsPerSlot <= 0 {
		pixelsPerSlot = DefaultPixelsPerSlot
	}
	a := &Axis{pixelsPerSlot: pixelsPerSlot}
	a.apply(mode)
	return a
}

func (a *Axis) apply(mode Mode) {
	a.mode = mode
	a.window = mode.Window()
	a.slots = GenerateSlots(a.window)
	a.generation++
}

// SetMode switches the window mode. It is a no-op if the mode is unchanged.
func (a *Axis) SetMode(mode Mode) {
	if mode == a.mode && a.slots != nil {
		return
	}
	a.apply(mode)
}

// Mode returns the current window mode.
func (a *Axis) Mode() Mode {
	return a.mode
}

// Window returns the visible interval.
func (a *Axis) Window() appointment.Window {
	return a.window
}

// Generation changes every time the slot list is regenerated.
func (a *Axis) Generation() int {
	return a.generation
}

// PixelsPerSlot returns the configured slot height.
func (a *Axis) PixelsPerSlot() float64 {
	return a.pixelsPerSlot
}

// Slots returns the slot start times of the window.
func (a *Axis) Slots() []appointment.TimeOfDay {
	out := make([]appointment.TimeOfDay, len(a.slots))
	copy(out, a.slots)
	return out
}

// SlotCount returns the number of slots in the window.
func (a *Axis) SlotCount() int {
	return len(a.slots)
}

// Height returns the pixel height of the whole window.
func (a *Axis) Height() float64 {
	return float64(len(a.slots)) * a.pixelsPerSlot
}

// TimeToSlotIndex returns the index of the slot containing t, relative to the
// window start. Times before the window give negative indexes.
func (a *Axis) TimeToSlotIndex(t appointment.TimeOfDay) int {
	return floorDiv(t.Sub(a.window.Start), SlotMinutes)
}

// SlotIndexToTime returns the start time of slot i.
func (a *Axis) SlotIndexToTime(i int) appointment.TimeOfDay {
	return a.window.Start.Add(i * SlotMinutes)
}

// TimeToPixelOffset returns the vertical offset of t from the window top.
func (a *Axis) TimeToPixelOffset(t appointment.TimeOfDay) float64 {
	return float64(t.Sub(a.window.Start)) / SlotMinutes * a.pixelsPerSlot
}

// PixelOffsetToTime returns the start of the slot under offset y, clamped to
// the first and last slot of the window.
func (a *Axis) PixelOffsetToTime(y float64) appointment.TimeOfDay {
	i := int(math.Floor(y / a.pixelsPerSlot))
	if i < 0 {
		i = 0
	}
	if last := len(a.slots) - 1; i > last {
		i = last
	}
	return a.SlotIndexToTime(i)
}

// PixelDeltaToMinutes converts a vertical distance to minutes (unsnapped).
func (a *Axis) PixelDeltaToMinutes(dy float64) float64 {
	return dy / a.pixelsPerSlot * SlotMinutes
}

// SnapPixelDelta converts a vertical distance to minutes rounded to the
// nearest whole slot.
func (a *Axis) SnapPixelDelta(dy float64) int {
	return SnapMinutes(a.PixelDeltaToMinutes(dy))
}

// SnapMinutes rounds minutes to the nearest multiple of SlotMinutes.
func SnapMinutes(minutes float64) int {
	return int(math.Round(minutes/SlotMinutes)) * SlotMinutes
}

// GenerateSlots returns every slot start in [w.Start, w.End).
func GenerateSlots(w appointment.Window) []appointment.TimeOfDay {
	if w.End <= w.Start {
		return nil
	}
	slots := make([]appointment.TimeOfDay, 0, w.Minutes()/SlotMinutes)
	for t := w.Start; t < w.End; t = t.Add(SlotMinutes) {
		slots = append(slots, t)
	}
	return slots
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
