package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Driver != DefaultStorageDriver {
		t.Errorf("driver = %q, want default %q", cfg.Storage.Driver, DefaultStorageDriver)
	}
	if cfg.Storage.Path != DefaultStoragePath {
		t.Errorf("path = %q, want default %q", cfg.Storage.Path, DefaultStoragePath)
	}
	if cfg.Backup.IntervalHours != DefaultBackupIntervalHours {
		t.Errorf("interval = %d, want %d", cfg.Backup.IntervalHours, DefaultBackupIntervalHours)
	}
	if !cfg.BackupEnabled() || !cfg.ServerEnabled() || !cfg.MetricsEnabled() || !cfg.RetentionTiered() {
		t.Error("resolver defaults should all be true")
	}
}

func TestLoadFileValues(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: sqlite3
  path: /var/lib/capsule/mem.db
  busy_timeout: 2s
backup:
  enabled: false
  interval_hours: 6
  retention:
    hourly: 12
    daily: 3
server:
  listen_address: "0.0.0.0:8080"
telemetry:
  logging:
    level: debug
    format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Driver != "sqlite3" {
		t.Errorf("driver = %q", cfg.Storage.Driver)
	}
	if cfg.Storage.BusyTimeout != 2*time.Second {
		t.Errorf("busy_timeout = %v", cfg.Storage.BusyTimeout)
	}
	if cfg.BackupEnabled() {
		t.Error("backup.enabled=false was not honored")
	}
	if cfg.Backup.IntervalHours != 6 {
		t.Errorf("interval_hours = %d", cfg.Backup.IntervalHours)
	}
	if cfg.Backup.Retention.Hourly != 12 || cfg.Backup.Retention.Daily != 3 {
		t.Errorf("retention = %+v", cfg.Backup.Retention)
	}
	// Unset retention tiers still take their defaults.
	if cfg.Backup.Retention.Weekly != DefaultRetentionWeekly {
		t.Errorf("weekly = %d, want default", cfg.Backup.Retention.Weekly)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:8080" {
		t.Errorf("listen_address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Telemetry.Logging.Level != "debug" || cfg.Telemetry.Logging.Format != "json" {
		t.Errorf("logging = %+v", cfg.Telemetry.Logging)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "storage: [not a map")
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
storage:
  path: from-file.db
`)
	t.Setenv("CAPSULE_STORAGE_PATH", "from-env.db")
	t.Setenv("CAPSULE_BACKUP_ENABLED", "false")
	t.Setenv("CAPSULE_BACKUP_INTERVAL_HOURS", "3")
	t.Setenv("CAPSULE_LOG_LEVEL", "error")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Storage.Path != "from-env.db" {
		t.Errorf("path = %q, env override lost", cfg.Storage.Path)
	}
	if cfg.BackupEnabled() {
		t.Error("CAPSULE_BACKUP_ENABLED=false was not honored")
	}
	if cfg.Backup.IntervalHours != 3 {
		t.Errorf("interval = %d, want 3", cfg.Backup.IntervalHours)
	}
	if cfg.Telemetry.Logging.Level != "error" {
		t.Errorf("level = %q", cfg.Telemetry.Logging.Level)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"empty path", func(c *Config) { c.Storage.Path = "" }},
		{"negative busy timeout", func(c *Config) { c.Storage.BusyTimeout = -time.Second }},
		{"zero backup interval", func(c *Config) { c.Backup.IntervalHours = 0 }},
		{"negative retention", func(c *Config) { c.Backup.Retention.Daily = -1 }},
		{"empty listen address", func(c *Config) { c.Server.ListenAddress = "" }},
		{"unknown log level", func(c *Config) { c.Telemetry.Logging.Level = "trace" }},
		{"unknown log format", func(c *Config) { c.Telemetry.Logging.Format = "logfmt" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateDefaultsPass(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}
