package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ConfigEnv names the environment variable holding the config file path
const ConfigEnv = "XOS_CONFIG"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	VFS       VFSConfig       `yaml:"vfs" toml:"vfs"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors" toml:"cors"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string   `envconfig:"PORT" yaml:"port" toml:"port"`
	Host            string   `envconfig:"HOST" yaml:"host" toml:"host"`
	MaxConnections  int      `envconfig:"MAX_CONNECTIONS" yaml:"max_connections" toml:"max_connections"`
	BodyLimitMB     int      `envconfig:"BODY_LIMIT_MB" yaml:"body_limit_mb" toml:"body_limit_mb"`
	ShutdownTimeout Duration `envconfig:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// BodyLimit returns the request body cap in bytes
func (s ServerConfig) BodyLimit() int64 {
	return int64(s.BodyLimitMB) << 20
}

// VFSConfig holds filesystem configuration.
type VFSConfig struct {
	Root       string `envconfig:"VFS_ROOT" yaml:"root" toml:"root"`
	MaxEntries int    `envconfig:"VFS_MAX_ENTRIES" yaml:"max_entries" toml:"max_entries"`
	MaxDepth   int    `envconfig:"VFS_MAX_DEPTH" yaml:"max_depth" toml:"max_depth"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled" toml:"enabled"`
	// GlobalRPS caps the whole server across clients. Zero disables it.
	GlobalRPS int `envconfig:"RATE_LIMIT_GLOBAL_RPS" yaml:"global_rps" toml:"global_rps"`
}

// CORSConfig holds CORS configuration. An empty origin list allows all
// origins.
type CORSConfig struct {
	Origins []string `envconfig:"CORS_ORIGINS" yaml:"origins" toml:"origins"`
}

// Duration is a time.Duration that decodes from strings such as "10s" in
// environment variables and config files.
type Duration time.Duration

// Std returns d as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalText implements encoding.TextUnmarshaler. A bare integer is read
// as seconds.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	if secs, err := strconv.Atoi(s); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Load builds the configuration from the defaults, the optional config file
// at path (or $XOS_CONFIG when path is empty) and the environment, in that
// order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads configuration or returns the defaults on error.
func LoadOrDefault() *Config {
	cfg, err := Load("")
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "3001",
			Host:            "0.0.0.0",
			BodyLimitMB:     20,
			ShutdownTimeout: Duration(10 * time.Second),
		},
		VFS: VFSConfig{
			Root:       "vfs",
			MaxEntries: 1000,
			MaxDepth:   5,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var problems []error

	if c.VFS.Root == "" {
		problems = append(problems, errors.New("vfs root must not be empty"))
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 0 || port > 65535 {
		problems = append(problems, fmt.Errorf("invalid port %q", c.Server.Port))
	}
	if c.Server.BodyLimitMB <= 0 {
		problems = append(problems, errors.New("body limit must be positive"))
	}
	if c.Server.MaxConnections < 0 {
		problems = append(problems, errors.New("max connections must not be negative"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		problems = append(problems, errors.New("shutdown timeout must be positive"))
	}
	if c.VFS.MaxEntries <= 0 || c.VFS.MaxDepth <= 0 {
		problems = append(problems, errors.New("vfs limits must be positive"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		problems = append(problems, errors.New("rate limit values must be positive"))
	}
	if c.RateLimit.GlobalRPS < 0 {
		problems = append(problems, errors.New("global rate limit must not be negative"))
	}

	if err := errors.Join(problems...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
