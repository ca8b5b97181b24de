// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendREST   = "rest"
)

// Config holds the application configuration.
type Config struct {
	Grid    GridConfig    `toml:"grid"`
	Storage StorageConfig `toml:"storage"`
	REST    RESTConfig    `toml:"rest"`
	Roster  RosterConfig  `toml:"roster"`
	Branch  BranchConfig  `toml:"branch"`
	UI      UIConfig      `toml:"ui"`
	Metrics MetricsConfig `toml:"metrics"`
}

// GridConfig holds the time axis and layout settings.
type GridConfig struct {
	Window        string  `toml:"window"`          // "daytime" or "full"
	PixelsPerSlot float64 `toml:"pixels_per_slot"` // height of one 15-minute slot
	BaseZ         int     `toml:"base_z"`          // stacking order of the rightmost overlap column
}

// StorageConfig selects where appointments are persisted.
type StorageConfig struct {
	Backend string `toml:"backend"` // "sqlite" or "rest"
	DBPath  string `toml:"db_path"`
}

// RESTConfig holds the remote CRM API settings.
type RESTConfig struct {
	BaseURL        string `toml:"base_url"`
	User           string `toml:"user"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// RosterConfig points at an optional YAML roster. When set it takes
// precedence over the storage backend roster.
type RosterConfig struct {
	File string `toml:"file"`
}

// BranchConfig identifies the salon branch shown in the grid.
type BranchConfig struct {
	ID string `toml:"id"`
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte"
}

// MetricsConfig controls the Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
	Path    string `toml:"path"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			Window:        "daytime",
			PixelsPerSlot: 2,
			BaseZ:         10,
		},
		Storage: StorageConfig{
			Backend: BackendSQLite,
			DBPath:  defaultDBPath(),
		},
		REST: RESTConfig{
			TimeoutSeconds: 25,
		},
		Branch: BranchConfig{
			ID: "main",
		},
		UI: UIConfig{
			Theme: "frappe",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  "127.0.0.1:9464",
			Path:    "/metrics",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "spagrid.db"
	}
	return filepath.Join(home, ".local", "share", "spagrid", "spagrid.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "spagrid", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Roster.File = expandPath(cfg.Roster.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SPAGRID_WINDOW"); v != "" {
		cfg.Grid.Window = v
	}
	if v := os.Getenv("SPAGRID_PIXELS_PER_SLOT"); v != "" {
		pps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SPAGRID_PIXELS_PER_SLOT: %w", err)
		}
		cfg.Grid.PixelsPerSlot = pps
	}

	if v := os.Getenv("SPAGRID_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("SPAGRID_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}

	if v := os.Getenv("SPAGRID_REST_BASE_URL"); v != "" {
		cfg.REST.BaseURL = v
	}
	if v := os.Getenv("SPAGRID_REST_USER"); v != "" {
		cfg.REST.User = v
	}
	if v := os.Getenv("SPAGRID_REST_TOKEN"); v != "" {
		cfg.REST.Token = v
	}

	if v := os.Getenv("SPAGRID_ROSTER_FILE"); v != "" {
		cfg.Roster.File = v
	}
	if v := os.Getenv("SPAGRID_BRANCH"); v != "" {
		cfg.Branch.ID = v
	}
	if v := os.Getenv("SPAGRID_UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}

	if v := os.Getenv("SPAGRID_METRICS_LISTEN"); v != "" {
		cfg.Metrics.Listen = v
		cfg.Metrics.Enabled = true
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Grid.Window) {
	case "daytime", "full", "24h":
	default:
		return fmt.Errorf("window must be 'daytime' or 'full', got %q", c.Grid.Window)
	}
	if c.Grid.PixelsPerSlot <= 0 {
		return errors.New("pixels_per_slot must be positive")
	}

	switch c.Storage.Backend {
	case BackendSQLite:
		if c.Storage.DBPath == "" {
			return errors.New("db_path must be set")
		}
	case BackendREST:
		if c.REST.BaseURL == "" {
			return errors.New("rest.base_url must be set for the rest backend")
		}
		u, err := url.Parse(c.REST.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("rest.base_url is not an absolute URL: %q", c.REST.BaseURL)
		}
		if c.REST.TimeoutSeconds <= 0 {
			return errors.New("rest.timeout_seconds must be positive")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s", c.Storage.Backend)
	}

	if c.Branch.ID == "" {
		return errors.New("branch.id must be set")
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return errors.New("metrics.listen must be set when metrics are enabled")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", c.Metrics.Path)
	}
	return nil
}

// UsesREST reports whether appointments are persisted through the CRM API.
func (c *Config) UsesREST() bool {
	return c.Storage.Backend == BackendREST
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	// The file can hold the REST token.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
