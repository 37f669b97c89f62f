package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// cliWithPath returns a CLI struct pointing at the given config file.
func cliWithPath(path string) *CLI {
	return &CLI{Config: path}
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
[relay]
url = "https://relay.example.com/v1/tunnel"
timeout_seconds = 60
idle_connections = 50

[log]
level = "debug"
format = "text"

[limits]
enabled = true
requests_per_second = 5.0
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Relay.URL != "https://relay.example.com/v1/tunnel" {
		t.Errorf("Relay.URL = %q, want config value", cfg.Relay.URL)
	}
	if cfg.Relay.TimeoutSeconds != 60 {
		t.Errorf("Relay.TimeoutSeconds = %d, want 60", cfg.Relay.TimeoutSeconds)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
	if !cfg.Limits.Enabled || cfg.Limits.RequestsPerSecond != 5.0 {
		t.Errorf("Limits = %+v, want enabled at 5 rps", cfg.Limits)
	}
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load(&CLI{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// No implicit call deadline: unset stays zero so relay calls run until
	// the caller's own composition ends them.
	if cfg.Relay.TimeoutSeconds != 0 {
		t.Errorf("Relay.TimeoutSeconds = %d, want 0 (no built-in deadline)", cfg.Relay.TimeoutSeconds)
	}
	if cfg.Relay.IdleConnections != 100 {
		t.Errorf("Relay.IdleConnections = %d, want default 100", cfg.Relay.IdleConnections)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want default info", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default json", cfg.Log.Format)
	}
}

func TestLoad_ExplicitMissingPathFails(t *testing.T) {
	_, err := Load(cliWithPath(filepath.Join(t.TempDir(), "absent.toml")))
	if err == nil {
		t.Fatal("Load() expected error for explicit missing config path, got nil")
	}
}

func TestLoad_CLIOverrides(t *testing.T) {
	path := writeConfig(t, `
[relay]
url = "https://relay.example.com/"

[log]
level = "info"
`)

	cfg, err := Load(&CLI{
		Config:   path,
		Relay:    "https://other-relay.example.com/",
		LogLevel: "debug",
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Relay.URL != "https://other-relay.example.com/" {
		t.Errorf("Relay.URL = %q, want CLI override", cfg.Relay.URL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want CLI override debug", cfg.Log.Level)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "bad relay scheme",
			data:    "[relay]\nurl = \"ftp://relay.example.com/\"\n",
			wantErr: "relay.url",
		},
		{
			name:    "negative timeout",
			data:    "[relay]\ntimeout_seconds = -1\n",
			wantErr: "timeout_seconds",
		},
		{
			name:    "rate limit enabled without rps",
			data:    "[limits]\nenabled = true\n",
			wantErr: "requests_per_second",
		},
		{
			name:    "bad log level",
			data:    "[log]\nlevel = \"verbose\"\n",
			wantErr: "log.level",
		},
		{
			name:    "bad log format",
			data:    "[log]\nformat = \"xml\"\n",
			wantErr: "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(cliWithPath(writeConfig(t, tt.data)))
			if err == nil {
				t.Fatal("Load() expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestFindConfigInPaths(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "present.toml")
	if err := os.WriteFile(existing, []byte(""), 0o600); err != nil {
		t.Fatal(err)
	}

	got := findConfigInPaths([]string{
		filepath.Join(dir, "missing.toml"),
		existing,
	})
	if got != existing {
		t.Errorf("findConfigInPaths = %q, want %q", got, existing)
	}

	if got := findConfigInPaths([]string{filepath.Join(dir, "missing.toml")}); got != "" {
		t.Errorf("findConfigInPaths = %q, want empty for no matches", got)
	}
}
