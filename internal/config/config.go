// Package config loads navsurf settings from a JSON file in the user's config
// directory, overridden by NAVSURF_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/kelseyhightower/envconfig"
)

const (
	appName  = "navsurf"
	fileName = "config.json"

	// EnvPrefix is prepended to every environment variable name.
	EnvPrefix = "NAVSURF"
)

// Config holds navsurf user configuration. Fields carry no envconfig
// defaults so unset variables leave file values alone.
type Config struct {
	Theme          string `json:"theme" envconfig:"THEME"`
	Homepage       string `json:"homepage" envconfig:"HOMEPAGE"`
	MaxEntries     int    `json:"max_entries" envconfig:"MAX_ENTRIES"`
	PageCacheSize  int    `json:"page_cache_size" envconfig:"PAGE_CACHE_SIZE"`
	RestoreSession bool   `json:"restore_session" envconfig:"RESTORE_SESSION"`
	WarnInsecure   bool   `json:"warn_insecure" envconfig:"WARN_INSECURE"`
	DataDir        string `json:"data_dir,omitempty" envconfig:"DATA_DIR"`
	LogLevel       string `json:"log_level" envconfig:"LOG_LEVEL"`
	LogDev         bool   `json:"log_dev" envconfig:"LOG_DEV"`

	path string
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Theme:          "default",
		Homepage:       "about:help",
		MaxEntries:     50,
		PageCacheSize:  50,
		RestoreSession: true,
		WarnInsecure:   true,
		LogLevel:       "info",
	}
}

// Load reads the config file at path (the standard location when empty),
// then applies environment overrides. A missing file is written out with
// the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, fileName)
	}

	cfg := Default()
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Best effort; a read-only home still gets a working config.
		_ = cfg.Save()
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or returns the defaults on error.
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.MaxEntries <= 0 {
		return fmt.Errorf("max_entries must be positive, got %d", c.MaxEntries)
	}
	if c.PageCacheSize <= 0 {
		return fmt.Errorf("page_cache_size must be positive, got %d", c.PageCacheSize)
	}
	return nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration to disk.
func (c *Config) Save() error {
	if c.path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		c.path = filepath.Join(dir, fileName)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(c.path, data, 0o644)
}

// ResolveDataDir returns DataDir when set, else the platform data directory.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	return DataDir()
}

// DataDir returns the platform data directory for persistent storage.
func DataDir() (string, error) {
	return platformDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func configDir() (string, error) {
	return platformDir("XDG_CONFIG_HOME", ".config")
}

// platformDir picks the per-OS application directory. On Linux and the BSDs
// xdgVar wins, falling back to fallback under the home directory.
func platformDir(xdgVar, fallback string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home dir: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return filepath.Join(home, "."+appName), nil
	default:
		if xdg := os.Getenv(xdgVar); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		return filepath.Join(home, fallback, appName), nil
	}
}
