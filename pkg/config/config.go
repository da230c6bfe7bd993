package config

import "time"

// Config is the root configuration for the capsule process.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Backup    BackupConfig    `yaml:"backup"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StorageConfig configures the SQLite record store.
type StorageConfig struct {
	// Driver selects the SQLite driver: "sqlite" (pure Go) or
	// "sqlite3" (cgo).
	Driver string `yaml:"driver"`

	// Path is the storage file location.
	Path string `yaml:"path"`

	// BusyTimeout is how long a locked database is retried.
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxOpenConns bounds concurrent connections to the file.
	MaxOpenConns int `yaml:"max_open_conns"`
}

// BackupConfig configures automatic snapshots and retention.
type BackupConfig struct {
	// Enabled starts the backup scheduler with the run command.
	Enabled *bool `yaml:"enabled"`

	// IntervalHours is the automatic backup period.
	IntervalHours int `yaml:"interval_hours"`

	// Dir overrides the snapshot directory (default: sibling
	// "<stem>_backups" next to the storage file).
	Dir string `yaml:"dir"`

	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig carries per-tier snapshot counts. When Tiered is
// false, KeepTotal snapshots are kept regardless of age.
type RetentionConfig struct {
	Tiered    *bool `yaml:"tiered"`
	Hourly    int   `yaml:"hourly"`
	Daily     int   `yaml:"daily"`
	Weekly    int   `yaml:"weekly"`
	Monthly   int   `yaml:"monthly"`
	KeepTotal int   `yaml:"keep_total"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Enabled         *bool         `yaml:"enabled"`
	ListenAddress   string        `yaml:"listen_address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig groups logging and metrics settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is one of json, text.
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// BackupEnabled resolves the enabled flag with its default.
func (c *Config) BackupEnabled() bool {
	if c.Backup.Enabled == nil {
		return DefaultBackupEnabled
	}
	return *c.Backup.Enabled
}

// ServerEnabled resolves the enabled flag with its default.
func (c *Config) ServerEnabled() bool {
	if c.Server.Enabled == nil {
		return DefaultServerEnabled
	}
	return *c.Server.Enabled
}

// MetricsEnabled resolves the enabled flag with its default.
func (c *Config) MetricsEnabled() bool {
	if c.Telemetry.Metrics.Enabled == nil {
		return DefaultMetricsEnabled
	}
	return *c.Telemetry.Metrics.Enabled
}

// RetentionTiered resolves the tiered flag with its default.
func (c *Config) RetentionTiered() bool {
	if c.Backup.Retention.Tiered == nil {
		return DefaultRetentionTiered
	}
	return *c.Backup.Retention.Tiered
}
