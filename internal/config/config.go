// Package config resolves runtime configuration in three layers: built-in
// defaults, then an optional TOML file, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"humanjournal/internal/timeauth"
	"humanjournal/internal/timeoracle"
)

const AppName = "humanjournal"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	DataDir               string        `toml:"data_dir"`
	SecretsDir            string        `toml:"secrets_dir"`
	Authorities           []string      `toml:"authorities"`
	Drand                 bool          `toml:"drand"`
	QueryTimeout          time.Duration `toml:"query_timeout"`
	CacheValidity         time.Duration `toml:"cache_validity"`
	ManipulationThreshold time.Duration `toml:"manipulation_threshold"`
	StrictOffline         bool          `toml:"strict_offline"`
	LogLevel              string        `toml:"log_level"`
}

// LoadDefaults fills every field with its built-in value. SecretsDir stays
// empty, which selects the platform's secret store location.
func (c *Config) LoadDefaults() error {
	dataDir, err := DefaultDataDir()
	if err != nil {
		return err
	}

	c.DataDir = dataDir
	c.SecretsDir = ""
	c.Authorities = append([]string(nil), timeauth.DefaultHosts...)
	c.Drand = true
	c.QueryTimeout = timeoracle.DefaultQueryTimeout
	c.CacheValidity = timeoracle.DefaultCacheValidity
	c.ManipulationThreshold = timeoracle.DefaultManipulationThreshold
	c.StrictOffline = false
	c.LogLevel = "warn"
	return nil
}

// Load applies defaults and then the TOML file at path. An empty path
// means DefaultConfigPath, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := cfg.LoadDefaults(); err != nil {
		return nil, err
	}

	explicit := path != ""
	if !explicit {
		p, err := DefaultConfigPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return fmt.Errorf("%w: data_dir is empty", ErrInvalidConfig)
	case len(c.Authorities) == 0 && !c.Drand:
		return fmt.Errorf("%w: no time authorities configured", ErrInvalidConfig)
	case c.QueryTimeout <= 0:
		return fmt.Errorf("%w: query_timeout must be positive", ErrInvalidConfig)
	case c.CacheValidity <= 0:
		return fmt.Errorf("%w: cache_validity must be positive", ErrInvalidConfig)
	case c.ManipulationThreshold <= 0:
		return fmt.Errorf("%w: manipulation_threshold must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

// DatabasePath is where journal entries live.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "journal.db")
}

// DefaultDataDir returns the OS-appropriate directory for journal data.
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot get home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", AppName), nil

	case "windows":
		appData := os.Getenv("AppData")
		if appData == "" {
			return "", errors.New("AppData environment variable not set")
		}
		return filepath.Join(appData, AppName), nil

	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, AppName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot get home directory: %w", err)
		}
		return filepath.Join(home, ".local", "share", AppName), nil
	}
}

// DefaultConfigPath returns <user config dir>/humanjournal/config.toml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}
