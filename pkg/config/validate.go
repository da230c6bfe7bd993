package config

import "fmt"

// Validate checks a configuration for values the process cannot run
// with. It assumes defaults have already been applied.
func Validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q (want sqlite or sqlite3)", cfg.Storage.Driver)
	}

	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path: must not be empty")
	}
	if cfg.Storage.BusyTimeout < 0 {
		return fmt.Errorf("storage.busy_timeout: must not be negative")
	}
	if cfg.Storage.MaxOpenConns < 0 {
		return fmt.Errorf("storage.max_open_conns: must not be negative")
	}

	if cfg.Backup.IntervalHours <= 0 {
		return fmt.Errorf("backup.interval_hours: must be positive, got %d", cfg.Backup.IntervalHours)
	}
	r := cfg.Backup.Retention
	if r.Hourly < 0 || r.Daily < 0 || r.Weekly < 0 || r.Monthly < 0 || r.KeepTotal < 0 {
		return fmt.Errorf("backup.retention: counts must not be negative")
	}

	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address: must not be empty")
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level: unknown level %q", cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format: unknown format %q", cfg.Telemetry.Logging.Format)
	}

	return nil
}
