package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, int64(20<<20), cfg.Server.BodyLimit())
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Std())

	assert.Equal(t, "vfs", cfg.VFS.Root)
	assert.Equal(t, 1000, cfg.VFS.MaxEntries)
	assert.Equal(t, 5, cfg.VFS.MaxDepth)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	assert.NoError(t, cfg.Validate())
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	envVars := map[string]string{
		"PORT":               "9000",
		"HOST":               "127.0.0.1",
		"MAX_CONNECTIONS":    "64",
		"BODY_LIMIT_MB":      "5",
		"SHUTDOWN_TIMEOUT":   "3s",
		"VFS_ROOT":           "/srv/vfs",
		"VFS_MAX_ENTRIES":    "50",
		"VFS_MAX_DEPTH":      "8",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"RATE_LIMIT_RPS":     "500",
		"RATE_LIMIT_BURST":   "1000",
		"RATE_LIMIT_ENABLED": "false",
		"CORS_ORIGINS":       "http://localhost:5173,https://xos.example",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr())
	assert.Equal(t, 64, cfg.Server.MaxConnections)
	assert.Equal(t, 5, cfg.Server.BodyLimitMB)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout.Std())
	assert.Equal(t, "/srv/vfs", cfg.VFS.Root)
	assert.Equal(t, 50, cfg.VFS.MaxEntries)
	assert.Equal(t, 8, cfg.VFS.MaxDepth)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{"http://localhost:5173", "https://xos.example"}, cfg.CORS.Origins)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xos.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "4000"
  shutdown_timeout: 15s
vfs:
  root: /data/vfs
rate_limit:
  enabled: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "keys missing from the file keep their defaults")
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout.Std())
	assert.Equal(t, "/data/vfs", cfg.VFS.Root)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadTOMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xos.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "4100"

[vfs]
root = "/data/toml"
max_depth = 3

[logging]
level = "warn"
`), 0o644))

	t.Setenv(ConfigEnv, path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "4100", cfg.Server.Port)
	assert.Equal(t, "/data/toml", cfg.VFS.Root)
	assert.Equal(t, 3, cfg.VFS.MaxDepth)
	assert.Equal(t, "error", cfg.Logging.Level, "environment wins over the file")
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	ini := filepath.Join(dir, "xos.ini")
	require.NoError(t, os.WriteFile(ini, []byte("port=1"), 0o644))
	_, err = Load(ini)
	assert.ErrorContains(t, err, "unsupported")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty root", func(c *Config) { c.VFS.Root = "" }},
		{"bad port", func(c *Config) { c.Server.Port = "http" }},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }},
		{"zero body limit", func(c *Config) { c.Server.BodyLimitMB = 0 }},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }},
		{"zero entries", func(c *Config) { c.VFS.MaxEntries = 0 }},
		{"zero rate", func(c *Config) { c.RateLimit.RequestsPerSecond = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("30")))
	assert.Equal(t, 30*time.Second, d.Std())

	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Std())

	assert.Error(t, d.UnmarshalText([]byte("soon")))

	text, err := Duration(2 * time.Second).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2s", string(text))
}
