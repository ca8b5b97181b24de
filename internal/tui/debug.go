package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/spagrid/internal/interaction"
	"github.com/javiermolinar/spagrid/internal/schedule"
)

// DebugLogger logs TUI state, keystrokes, pointer events and saves to a file.
type DebugLogger struct {
	mu      sync.Mutex
	file    *os.File
	enabled bool
	seq     int
}

// Global debug logger instance
var debugLog *DebugLogger

// DebugLogPath is the fixed path for debug logs
const DebugLogPath = "spagrid-debug.log"

// InitDebugLogger initializes the debug logger if debug mode is enabled.
func InitDebugLogger(enabled bool) error {
	if !enabled {
		debugLog = &DebugLogger{enabled: false}
		return nil
	}

	// Create log file in current directory with fixed name (easy to find)
	logPath := DebugLogPath
	f, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("creating debug log: %w", err)
	}

	debugLog = &DebugLogger{
		file:    f,
		enabled: true,
	}

	debugLog.log("DEBUG_START", map[string]any{
		"log_file": logPath,
		"time":     time.Now().Format(time.RFC3339),
	})

	return nil
}

// CloseDebugLogger closes the debug log file.
func CloseDebugLogger() {
	if debugLog != nil && debugLog.file != nil {
		debugLog.log("DEBUG_END", map[string]any{
			"time": time.Now().Format(time.RFC3339),
		})
		_ = debugLog.file.Close()
	}
}

// log writes a structured log entry.
func (d *DebugLogger) log(event string, data map[string]any) {
	if d == nil || !d.enabled || d.file == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	entry := map[string]any{
		"seq":   d.seq,
		"ts":    time.Now().Format("15:04:05.000"),
		"event": event,
	}
	for k, v := range data {
		entry[k] = v
	}

	b, _ := json.Marshal(entry)
	_, _ = fmt.Fprintf(d.file, "%s\n", b)
}

// LogKeyPress logs a key press event.
func LogKeyPress(msg tea.KeyMsg) {
	if debugLog == nil || !debugLog.enabled {
		return
	}
	debugLog.log("KEY_PRESS", map[string]any{
		"key":  msg.String(),
		"type": fmt.Sprintf("%T", msg.Type),
	})
}

// LogPointer logs a mouse event translated to grid coordinates.
func LogPointer(action string, p interaction.Point, state string) {
	if debugLog == nil || !debugLog.enabled {
		return
	}
	debugLog.log("POINTER", map[string]any{
		"action": action,
		"x":      p.X,
		"y":      p.Y,
		"state":  state,
	})
}

// LogGesture logs how a drag or resize ended.
func LogGesture(out interaction.Outcome) {
	if debugLog == nil || !debugLog.enabled {
		return
	}
	data := map[string]any{
		"gesture": out.Gesture,
		"result":  out.Result.String(),
		"id":      string(out.AppointmentID),
	}
	if out.Err != nil {
		data["error"] = out.Err.Error()
	}
	if out.Mutation != nil {
		data["seq"] = out.Mutation.Seq
		data["kind"] = out.Mutation.Kind.String()
	}
	debugLog.log("GESTURE", data)
}

// LogSettled logs a repository outcome as it is applied to the grid.
func LogSettled(o schedule.Outcome, next *schedule.Mutation) {
	if debugLog == nil || !debugLog.enabled || o.Mutation == nil {
		return
	}
	data := map[string]any{
		"seq":        o.Mutation.Seq,
		"id":         string(o.Mutation.AppointmentID),
		"kind":       o.Mutation.Kind.String(),
		"generation": o.Mutation.Generation,
		"ok":         o.OK(),
		"elapsed_ms": o.Elapsed.Milliseconds(),
		"client":     truncateStr(o.Mutation.Before.ClientLabel, 20),
	}
	if o.Err != nil {
		data["error"] = o.Err.Error()
	}
	if next != nil {
		data["next_seq"] = next.Seq
	}
	debugLog.log("SETTLED", data)
}

// LogWindowMode logs a switch between the daytime and full-day windows.
func LogWindowMode(mode string, generation int) {
	if debugLog == nil || !debugLog.enabled {
		return
	}
	debugLog.log("WINDOW_MODE", map[string]any{
		"mode":       mode,
		"generation": generation,
	})
}

// LogError logs an error.
func LogError(context string, err error) {
	if debugLog == nil || !debugLog.enabled {
		return
	}
	debugLog.log("ERROR", map[string]any{
		"context": context,
		"error":   err.Error(),
	})
}

// truncateStr truncates a string to max runes.
func truncateStr(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
