package main

import (
	"fmt"
	"net/http"

	"capsule-hq/capsule/pkg/config"
	"capsule-hq/capsule/pkg/memory/backup"
	"capsule-hq/capsule/pkg/memory/storage"
	"capsule-hq/capsule/pkg/telemetry/logging"
	"capsule-hq/capsule/pkg/telemetry/metrics"
)

// loadConfig loads the config file and initializes logging for one-shot
// subcommands. They log at warn level unless --verbose is given so
// command output stays readable.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCfg := cfg.Telemetry.Logging
	if verbose {
		logCfg.Level = "debug"
	} else {
		logCfg.Level = "warn"
	}
	logging.Setup(logCfg)

	return cfg, nil
}

// openStore opens the record store without instrumentation, for
// one-shot CLI subcommands.
func openStore(cfg *config.Config) (*storage.Store, error) {
	return storage.NewStore(&storage.Config{
		Driver:       cfg.Storage.Driver,
		Path:         cfg.Storage.Path,
		BusyTimeout:  cfg.Storage.BusyTimeout,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
	}, nil)
}

// newBackupManager builds a backup manager over the configured storage
// file. source may be nil when no live store is open; the snapshot then
// copies whatever is on disk.
func newBackupManager(cfg *config.Config, source backup.Checkpointer, obs backup.Observer) (*backup.Manager, error) {
	return backup.NewManager(&backup.Config{
		DBPath:    cfg.Storage.Path,
		Dir:       cfg.Backup.Dir,
		Retention: retentionPolicy(cfg),
	}, source, obs)
}

// collectorHandler returns the /metrics handler, or an untyped nil when
// metrics are disabled so the route is not registered.
func collectorHandler(c *metrics.Collector) http.Handler {
	if c == nil {
		return nil
	}
	return c.Handler()
}

func retentionPolicy(cfg *config.Config) backup.RetentionPolicy {
	return backup.RetentionPolicy{
		Tiered:    cfg.RetentionTiered(),
		Hourly:    cfg.Backup.Retention.Hourly,
		Daily:     cfg.Backup.Retention.Daily,
		Weekly:    cfg.Backup.Retention.Weekly,
		Monthly:   cfg.Backup.Retention.Monthly,
		KeepTotal: cfg.Backup.Retention.KeepTotal,
	}
}
