package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalConfig = `
database:
  host: localhost
  dbname: content
redis:
  url: localhost:6379
`

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, ":8080")
	}
	if cfg.Worker.PublishInterval != 60*time.Second {
		t.Errorf("Worker.PublishInterval = %v, want %v", cfg.Worker.PublishInterval, 60*time.Second)
	}
	if cfg.Worker.CycleBackoff != 10*time.Second {
		t.Errorf("Worker.CycleBackoff = %v, want %v", cfg.Worker.CycleBackoff, 10*time.Second)
	}
	if cfg.Worker.DueWindow != 5*time.Minute {
		t.Errorf("Worker.DueWindow = %v, want %v", cfg.Worker.DueWindow, 5*time.Minute)
	}
	if cfg.Worker.SyncBatchLimit != 20 {
		t.Errorf("Worker.SyncBatchLimit = %d, want 20", cfg.Worker.SyncBatchLimit)
	}
	if cfg.LinkedIn.APIBaseURL != "https://api.linkedin.com/v2" {
		t.Errorf("LinkedIn.APIBaseURL = %q", cfg.LinkedIn.APIBaseURL)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("Database.SSLMode = %q, want disable", cfg.Database.SSLMode)
	}
}

func TestLoadMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"missing database host", "redis:\n  url: localhost:6379\n"},
		{"missing redis url", "database:\n  host: localhost\n  dbname: content\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfigFile(t, tt.contents)); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}

func TestDebugFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected bool
	}{
		{"true from env", "true", true},
		{"1 from env", "1", true},
		{"yes from env", "yes", true},
		{"false from env", "false", false},
		{"0 from env", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_DEBUG", tt.envValue)

			cfg, err := Load(writeConfigFile(t, minimalConfig))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Debug != tt.expected {
				t.Errorf("Debug = %v, want %v", cfg.Debug, tt.expected)
			}
		})
	}
}

func TestEnvOverridesDatabase(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db.internal")
	t.Setenv("DATABASE_PORT", "5433")

	cfg, err := Load(writeConfigFile(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Database.Port != "5433" {
		t.Errorf("Database.Port = %q, want 5433", cfg.Database.Port)
	}
}
