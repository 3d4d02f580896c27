package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds flowboard configuration.
type Config struct {
	App      AppConfig      `toml:"app"`
	Store    StoreConfig    `toml:"store"`
	Canvas   CanvasConfig   `toml:"canvas"`
	Autosave AutosaveConfig `toml:"autosave"`
	Watch    WatchConfig    `toml:"watch"`
	Desktop  DesktopConfig  `toml:"desktop"`
	Export   ExportConfig   `toml:"export"`
}

// AppConfig names this editor instance.
type AppConfig struct {
	Identity      string `toml:"identity"`       // namespaces the revision key
	ProjectPrefix string `toml:"project_prefix"` // exported projectName is <prefix>_v<rev>
	DataDir       string `toml:"data_dir"`       // local SQLite database lives here
}

// StoreConfig selects where the revision counter and settings are kept.
type StoreConfig struct {
	Driver   string `toml:"driver"` // "sqlite", "postgres", "mysql", "mongodb", "memory"
	DSN      string `toml:"dsn"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Database string `toml:"database"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	SSLMode  string `toml:"ssl_mode"`
	Table    string `toml:"table"`
}

// CanvasConfig sets the initial canvas size in pixels.
type CanvasConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// AutosaveConfig controls periodic snapshots.
type AutosaveConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // cron spec, e.g. "@every 5m"
	Keep     int    `toml:"keep"`
}

// WatchConfig controls the inbox directory watcher.
type WatchConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// DesktopConfig points the desktop host at its frontend bundle.
type DesktopConfig struct {
	Assets string `toml:"assets"`
}

// ExportConfig controls where exported documents are written.
type ExportConfig struct {
	Dir string `toml:"dir"`
}

// Default returns the default configuration.
func Default() *Config {
	data := DataDir()
	return &Config{
		App: AppConfig{
			Identity:      "flowboard",
			ProjectPrefix: "Flowboard_Flow",
			DataDir:       data,
		},
		Store:    StoreConfig{Driver: "sqlite"},
		Canvas:   CanvasConfig{Width: 1280, Height: 800},
		Autosave: AutosaveConfig{Enabled: true, Schedule: "@every 5m", Keep: 20},
		Watch:    WatchConfig{Enabled: false, Dir: filepath.Join(data, "inbox")},
		Desktop:  DesktopConfig{Assets: "frontend/dist"},
		Export:   ExportConfig{Dir: "."},
	}
}

// ConfigDir returns the flowboard config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "flowboard")
}

// DataDir returns the default directory for the local database.
func DataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "flowboard")
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, falling back to defaults if it doesn't exist
// or can't be parsed.
func Load() *Config {
	cfg, err := LoadFrom(Path())
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFrom reads a config file at an explicit path. Keys missing from the
// file keep their default values.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	return SaveTo(Path(), cfg)
}

// SaveTo writes the config to an explicit path.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}

// DatabasePath is the local SQLite file under the data dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.App.DataDir, "flowboard.db")
}
