package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"humanjournal/internal/testutil"
)

func TestLoadDefaults(t *testing.T) {
	testutil.SetupTestEnv(t)

	var c Config
	require.NoError(t, c.LoadDefaults())

	assert.NotEmpty(t, c.DataDir)
	assert.Empty(t, c.SecretsDir)
	assert.Equal(t, []string{"time.apple.com", "time.google.com", "pool.ntp.org"}, c.Authorities)
	assert.True(t, c.Drand)
	assert.Equal(t, 5*time.Second, c.QueryTimeout)
	assert.Equal(t, 300*time.Second, c.CacheValidity)
	assert.Equal(t, 60*time.Second, c.ManipulationThreshold)
	assert.False(t, c.StrictOffline)
	assert.Equal(t, "warn", c.LogLevel)
	assert.NoError(t, c.Validate())
}

func TestDefaultDataDir_XDG(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("XDG layout only applies on Unix-like systems")
	}
	home := testutil.SetupTestEnv(t)

	dir, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "share", AppName), dir)

	xdg := filepath.Join(home, "xdg")
	t.Setenv("XDG_DATA_HOME", xdg)
	dir, err = DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, AppName), dir)
}

func TestLoad_MissingDefaultFileIsFine(t *testing.T) {
	testutil.SetupTestEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	testutil.SetupTestEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	testutil.SetupTestEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
data_dir = "/tmp/journal-data"
authorities = ["time.example.org"]
drand = false
query_timeout = "2s"
strict_offline = true
log_level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/journal-data", cfg.DataDir)
	assert.Equal(t, []string{"time.example.org"}, cfg.Authorities)
	assert.False(t, cfg.Drand)
	assert.Equal(t, 2*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 300*time.Second, cfg.CacheValidity, "unset keys keep defaults")
	assert.True(t, cfg.StrictOffline)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_DefaultPathIsRead(t *testing.T) {
	testutil.SetupTestEnv(t)
	path, err := DefaultConfigPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0700))
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "error"`), 0600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_Malformed(t *testing.T) {
	testutil.SetupTestEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = `), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	testutil.SetupTestEnv(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"no authorities", func(c *Config) { c.Authorities = nil; c.Drand = false }},
		{"zero timeout", func(c *Config) { c.QueryTimeout = 0 }},
		{"negative cache", func(c *Config) { c.CacheValidity = -time.Second }},
		{"zero threshold", func(c *Config) { c.ManipulationThreshold = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			require.NoError(t, c.LoadDefaults())
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidate_DrandOnly(t *testing.T) {
	testutil.SetupTestEnv(t)
	var c Config
	require.NoError(t, c.LoadDefaults())
	c.Authorities = nil

	assert.NoError(t, c.Validate())
}

func TestFromFlags(t *testing.T) {
	testutil.SetupTestEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_level = \"info\"\nstrict_offline = true\n"), 0600))

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, c *Config)
	}{
		{
			name: "file values survive flag defaults",
			args: []string{"--config", path},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "info", c.LogLevel)
				assert.True(t, c.StrictOffline)
			},
		},
		{
			name: "flags override file",
			args: []string{"--config", path, "--log-level", "debug", "--strict-offline=false"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "debug", c.LogLevel)
				assert.False(t, c.StrictOffline)
			},
		},
		{
			name: "authorities and dirs",
			args: []string{"--authority", "a.example,b.example", "--drand=false", "--data-dir", "/x", "--secrets-dir", "/y", "--query-timeout", "750ms"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, []string{"a.example", "b.example"}, c.Authorities)
				assert.False(t, c.Drand)
				assert.Equal(t, "/x", c.DataDir)
				assert.Equal(t, "/y", c.SecretsDir)
				assert.Equal(t, 750*time.Millisecond, c.QueryTimeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			RegisterFlags(fs)
			require.NoError(t, fs.Parse(tt.args))

			cfg, err := FromFlags(fs)
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestFromFlags_Invalid(t *testing.T) {
	testutil.SetupTestEnv(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--query-timeout", "0s"}))

	_, err := FromFlags(fs)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDatabasePath(t *testing.T) {
	c := Config{DataDir: "/data"}
	assert.Equal(t, filepath.Join("/data", "journal.db"), c.DatabasePath())
}
