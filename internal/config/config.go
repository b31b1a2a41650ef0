// Package config handles muictl/muid configuration and reading the host's
// configuration.yaml.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// EnvConfigRoot overrides config_root.
const EnvConfigRoot = "MUI_CONFIG_ROOT"

// Default configuration values.
const (
	DefaultConfigRoot   = "."
	DefaultLogLevel     = "warn"
	DefaultPollInterval = 2 * time.Second
	DefaultDebounce     = 500 * time.Millisecond
)

// Config is the muictl/muid configuration.
// Loaded from ~/.config/minimalistui/muictl.toml
type Config struct {
	ConfigRoot     string       `toml:"config_root"`     // host configuration directory
	IntegrationDir string       `toml:"integration_dir"` // relative to config_root unless absolute
	BundleDir      string       `toml:"bundle_dir"`      // empty = embedded bundle
	Log            LogConfig    `toml:"log"`
	Daemon         DaemonConfig `toml:"daemon"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DaemonConfig contains muid settings.
type DaemonConfig struct {
	PollInterval       Duration `toml:"poll_interval"` // configuration.yaml and entry polling
	WatchCustomActions bool     `toml:"watch_custom_actions"`
	Debounce           Duration `toml:"debounce"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		ConfigRoot: DefaultConfigRoot,
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Daemon: DaemonConfig{
			PollInterval:       Duration(DefaultPollInterval),
			WatchCustomActions: true,
			Debounce:           Duration(DefaultDebounce),
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "minimalistui", "muictl.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if root := os.Getenv(EnvConfigRoot); root != "" {
		cfg.ConfigRoot = root
	}
	cfg.ConfigRoot = expandPath(cfg.ConfigRoot)
	cfg.BundleDir = expandPath(cfg.BundleDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ConfigRoot == "" {
		return errors.New("config_root must not be empty")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Daemon.PollInterval.Duration() <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.Daemon.PollInterval)
	}
	if c.Daemon.Debounce.Duration() < 0 {
		return fmt.Errorf("debounce must not be negative, got %s", c.Daemon.Debounce)
	}
	return nil
}

// ParseLevel converts a log level name into a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", name)
	}
	return level, nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
