package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"capsule-hq/capsule/pkg/config"
	"capsule-hq/capsule/pkg/memory/backup"
	"capsule-hq/capsule/pkg/memory/storage"
	"capsule-hq/capsule/pkg/server"
	"capsule-hq/capsule/pkg/telemetry/logging"
	"capsule-hq/capsule/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the capsule daemon",
	Long: `Start the capsule daemon with the specified configuration.

The daemon opens the storage file, starts the backup scheduler, watches
the config file for retention-policy changes, and serves the admin HTTP
API until interrupted.

Examples:
  # Start with default config
  capsule run

  # Start with custom config
  capsule run --config /etc/capsule/config.yaml

  # Override listen address
  capsule run --listen 0.0.0.0:5000

  # Validate config without starting
  capsule run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	logging.Setup(cfg.Telemetry.Logging)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Capsule v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	// Metrics are optional; a nil observer disables instrumentation.
	var collector *metrics.Collector
	var storeObs storage.Observer
	var backupObs backup.Observer
	if cfg.MetricsEnabled() {
		collector = metrics.NewCollector(nil)
		storeObs = collector
		backupObs = collector
	}

	store, err := storage.NewStore(&storage.Config{
		Driver:       cfg.Storage.Driver,
		Path:         cfg.Storage.Path,
		BusyTimeout:  cfg.Storage.BusyTimeout,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
	}, storeObs)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()
	fmt.Printf("✓ Store opened at %s\n", store.Path())

	manager, err := newBackupManager(cfg, store, backupObs)
	if err != nil {
		return fmt.Errorf("failed to create backup manager: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if collector != nil {
		go collector.SampleRecordCounts(ctx, time.Minute, func(ctx context.Context) (int64, int64, error) {
			st, err := store.Stats(ctx)
			if err != nil {
				return 0, 0, err
			}
			return st.Notes, st.Relationships, nil
		})
	}

	if cfg.BackupEnabled() {
		interval := time.Duration(cfg.Backup.IntervalHours) * time.Hour
		scheduler := backup.NewScheduler(manager, interval)
		if err := scheduler.Start(ctx); err != nil {
			slog.Warn("failed to start backup scheduler", "error", err)
		} else {
			defer scheduler.Stop()
			fmt.Printf("✓ Backup scheduler started (every %s)\n", interval)
		}
	}

	// Hot-reload the retention policy when the config file changes.
	watcher, err := config.NewWatcher(cfgFile, 0, func(next *config.Config) error {
		manager.SetPolicy(retentionPolicy(next))
		return nil
	})
	if err != nil {
		slog.Warn("config watcher unavailable", "error", err)
	} else if err := watcher.Start(); err != nil {
		slog.Warn("failed to start config watcher", "error", err)
	} else {
		defer watcher.Stop()
	}

	if !cfg.ServerEnabled() {
		fmt.Println("\nAdmin server disabled; press Ctrl+C to stop")
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		fmt.Printf("\nReceived signal %s, shutting down\n", sig)
		return nil
	}

	var metricsHandler = collectorHandler(collector)
	srv := server.NewServer(&cfg.Server, store, manager, metricsHandler)

	fmt.Printf("✓ Admin API listening on %s\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a signal, context cancellation, or listen error.
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	fmt.Println("✓ Server stopped")
	return nil
}
