package config

import "time"

// Default values for configuration fields.
const (
	// Storage defaults
	DefaultStorageDriver       = "sqlite"
	DefaultStoragePath         = "data/capsule.db"
	DefaultStorageBusyTimeout  = 5 * time.Second
	DefaultStorageMaxOpenConns = 1

	// Backup defaults
	DefaultBackupEnabled       = true
	DefaultBackupIntervalHours = 24
	DefaultRetentionTiered     = true
	DefaultRetentionHourly     = 24
	DefaultRetentionDaily      = 7
	DefaultRetentionWeekly     = 4
	DefaultRetentionMonthly    = 12

	// Server defaults
	DefaultServerEnabled         = true
	DefaultListenAddress         = "127.0.0.1:5000"
	DefaultServerReadTimeout     = 30 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second

	// Telemetry defaults
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
)

// ApplyDefaults fills in zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = DefaultStoragePath
	}
	if cfg.Storage.BusyTimeout == 0 {
		cfg.Storage.BusyTimeout = DefaultStorageBusyTimeout
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = DefaultStorageMaxOpenConns
	}

	if cfg.Backup.IntervalHours == 0 {
		cfg.Backup.IntervalHours = DefaultBackupIntervalHours
	}
	if cfg.Backup.Retention.Hourly == 0 {
		cfg.Backup.Retention.Hourly = DefaultRetentionHourly
	}
	if cfg.Backup.Retention.Daily == 0 {
		cfg.Backup.Retention.Daily = DefaultRetentionDaily
	}
	if cfg.Backup.Retention.Weekly == 0 {
		cfg.Backup.Retention.Weekly = DefaultRetentionWeekly
	}
	if cfg.Backup.Retention.Monthly == 0 {
		cfg.Backup.Retention.Monthly = DefaultRetentionMonthly
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
