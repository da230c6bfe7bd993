package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults and
// CAPSULE_* environment overrides, and validates the result. A missing
// file is not an error: the defaults (plus env overrides) are used.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to defaults.
	default:
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides. Variables
// use the format CAPSULE_SECTION_FIELD and always take precedence over
// file values.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("CAPSULE_STORAGE_DRIVER"); val != "" {
		cfg.Storage.Driver = val
	}
	if val := os.Getenv("CAPSULE_STORAGE_PATH"); val != "" {
		cfg.Storage.Path = val
	}
	if val := os.Getenv("CAPSULE_STORAGE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Storage.BusyTimeout = d
		}
	}
	if val := os.Getenv("CAPSULE_BACKUP_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Backup.Enabled = &b
		}
	}
	if val := os.Getenv("CAPSULE_BACKUP_INTERVAL_HOURS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Backup.IntervalHours = i
		}
	}
	if val := os.Getenv("CAPSULE_BACKUP_DIR"); val != "" {
		cfg.Backup.Dir = val
	}
	if val := os.Getenv("CAPSULE_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("CAPSULE_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CAPSULE_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
}
