package config

import (
	"github.com/spf13/pflag"
)

const (
	FlagConfig        = "config"
	FlagDataDir       = "data-dir"
	FlagSecretsDir    = "secrets-dir"
	FlagAuthority     = "authority"
	FlagDrand         = "drand"
	FlagQueryTimeout  = "query-timeout"
	FlagStrictOffline = "strict-offline"
	FlagLogLevel      = "log-level"
)

// RegisterFlags adds the configuration flags to fs. Flag defaults are only
// shown in help; ApplyFlags copies a flag into the config only when it was
// set, so file values are not clobbered by flag defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	_ = d.LoadDefaults()

	fs.String(FlagConfig, "", "path to config file (default: user config dir)")
	fs.String(FlagDataDir, d.DataDir, "directory for journal data")
	fs.String(FlagSecretsDir, "", "directory for the file secret store (non-macOS)")
	fs.StringSlice(FlagAuthority, d.Authorities, "time authority hosts, in priority order")
	fs.Bool(FlagDrand, d.Drand, "use the drand beacon as a time authority and witness")
	fs.Duration(FlagQueryTimeout, d.QueryTimeout, "timeout for each time authority query")
	fs.Bool(FlagStrictOffline, d.StrictOffline, "refuse to unlock when the time cannot be verified")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
}

// ApplyFlags overlays the flags that were explicitly set.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error

	if fs.Changed(FlagDataDir) {
		if c.DataDir, err = fs.GetString(FlagDataDir); err != nil {
			return err
		}
	}
	if fs.Changed(FlagSecretsDir) {
		if c.SecretsDir, err = fs.GetString(FlagSecretsDir); err != nil {
			return err
		}
	}
	if fs.Changed(FlagAuthority) {
		if c.Authorities, err = fs.GetStringSlice(FlagAuthority); err != nil {
			return err
		}
	}
	if fs.Changed(FlagDrand) {
		if c.Drand, err = fs.GetBool(FlagDrand); err != nil {
			return err
		}
	}
	if fs.Changed(FlagQueryTimeout) {
		if c.QueryTimeout, err = fs.GetDuration(FlagQueryTimeout); err != nil {
			return err
		}
	}
	if fs.Changed(FlagStrictOffline) {
		if c.StrictOffline, err = fs.GetBool(FlagStrictOffline); err != nil {
			return err
		}
	}
	if fs.Changed(FlagLogLevel) {
		if c.LogLevel, err = fs.GetString(FlagLogLevel); err != nil {
			return err
		}
	}
	return nil
}

// FromFlags runs all three layers for a parsed flag set.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, err
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyFlags(fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
