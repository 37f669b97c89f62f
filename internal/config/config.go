// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/oproxy/config.toml",
	"configs/config.toml",
}

// CLI holds the global command-line flags parsed by Kong. Command-specific
// flags live on the command structs in cmd/oproxy.
type CLI struct {
	Config    string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Relay     string `kong:"short='r',help='Relay endpoint URL (overrides config).',env='OPROXY_RELAY'"`
	LogLevel  string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
	LogFormat string `kong:"help='Log format: json|text (overrides config).',env='LOG_FORMAT'"`
}

// Config is the top-level application configuration.
type Config struct {
	Relay   RelayConfig   `toml:"relay"`
	Log     LogConfig     `toml:"log"`
	Limits  LimitsConfig  `toml:"limits"`
	Metrics MetricsConfig `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// RelayConfig holds relay endpoint and transport settings.
type RelayConfig struct {
	URL             string `toml:"url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"` // 0 means no call deadline; deadlines are composed by the caller
	IdleConnections int    `toml:"idle_connections"`
}

// LimitsConfig controls outbound relay call rate limiting.
type LimitsConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/oproxy/config.toml then configs/config.toml; if neither exists the
// defaults are used, since a client tool must be able to run config-less
// with just --relay.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Relay != "" {
		c.Relay.URL = cli.Relay
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
	if cli.LogFormat != "" {
		c.Log.Format = cli.LogFormat
	}
}

func (c *Config) validate() error {
	// Relay URL: optional here (the tunnel client rejects an empty endpoint
	// at construction), but when present it must be a well-formed HTTP URL.
	if c.Relay.URL != "" {
		u, err := url.Parse(c.Relay.URL)
		if err != nil {
			return fmt.Errorf("relay.url is not a valid URL: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("relay.url must use http or https; got %q", c.Relay.URL)
		}
	}

	// Numeric bounds.
	if c.Relay.TimeoutSeconds < 0 {
		return fmt.Errorf("relay.timeout_seconds must be non-negative; got %d", c.Relay.TimeoutSeconds)
	}
	if c.Relay.IdleConnections < 0 {
		return fmt.Errorf("relay.idle_connections must be non-negative; got %d", c.Relay.IdleConnections)
	}
	if c.Limits.Enabled && c.Limits.RequestsPerSecond <= 0 {
		return fmt.Errorf("limits.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Limits.RequestsPerSecond)
	}

	// Log fields.
	level := strings.ToLower(c.Log.Level)
	switch level {
	case "debug", "info", "warn", "error", "":
		// valid
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", c.Log.Level)
	}
	format := strings.ToLower(c.Log.Format)
	switch format {
	case "json", "text", "":
		// valid
	default:
		return fmt.Errorf("log.format must be one of: json, text; got %q", c.Log.Format)
	}

	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields, zero means "unset" because TOML cannot distinguish
// between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	// TimeoutSeconds deliberately has no default: zero keeps the relay call
	// free of a built-in deadline, so only the caller's own composition
	// (a timeout race, a ctx deadline) can cut a call short.
	if c.Relay.IdleConnections == 0 {
		c.Relay.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// WarnPermissions logs a warning if the config file is readable by group or
// others. Relay URLs may embed credentials.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
