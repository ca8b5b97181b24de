package ui

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/javiermolinar/spagrid/internal/config"
	"github.com/javiermolinar/spagrid/internal/dateutil"
	"github.com/javiermolinar/spagrid/internal/db"
	"github.com/javiermolinar/spagrid/internal/restapi"
	"github.com/javiermolinar/spagrid/internal/roster"
)

var errNeedsSQLite = errors.New("this command needs the sqlite backend")

// ensureRepo opens the configured backend. A roster file, when set, takes
// over the roster from the backend.
func (a *App) ensureRepo() error {
	if a.repo != nil {
		return nil
	}

	switch a.config.Storage.Backend {
	case config.BackendREST:
		c := restapi.NewClient(a.config.REST.BaseURL, a.config.REST.User, a.config.REST.Token,
			time.Duration(a.config.REST.TimeoutSeconds)*time.Second)
		a.repo, a.roster = c, c
		a.closers = append(a.closers, c)
		a.logger.Debug("using rest backend", "base_url", a.config.REST.BaseURL)
	default:
		path := a.config.Storage.DBPath
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
		s, err := db.New(path)
		if err != nil {
			return err
		}
		a.repo, a.roster, a.sqlite = s, s, s
		a.closers = append(a.closers, s)
		a.logger.Debug("using sqlite backend", "path", path)
	}

	if a.config.Roster.File != "" {
		r, err := roster.Load(a.config.Roster.File)
		if err != nil {
			return err
		}
		a.roster = r
		a.logger.Debug("using roster file", "path", a.config.Roster.File)
	}
	return nil
}

// requireSQLite opens the backend and returns it if it is the local database.
func (a *App) requireSQLite() (*db.SQLite, error) {
	if err := a.ensureRepo(); err != nil {
		return nil, err
	}
	if a.sqlite == nil {
		return nil, fmt.Errorf("%w (backend is %q)", errNeedsSQLite, a.config.Storage.Backend)
	}
	return a.sqlite, nil
}

// newLogger builds the JSON logger. The interactive grid owns the terminal,
// so without a log file its logs are dropped.
func newLogger(level, file string, stderr io.Writer, interactive bool) (*slog.Logger, io.Closer, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q", level)
	}

	var (
		w      = stderr
		closer io.Closer
	)
	switch {
	case file != "":
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w, closer = f, f
	case interactive:
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return slog.New(h).With("service", "spagrid"), closer, nil
}

// parseDay resolves a --date flag against today.
func parseDay(s string) (time.Time, error) {
	d, err := dateutil.ParseDay(s, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

func resolvePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	return absPath, nil
}
