package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers and records all Prometheus metrics for the
// capsule process: store operation counts and latencies, backup
// outcomes, and snapshot inventory gauges. It satisfies the Observer
// interfaces of both the storage and backup packages.
type Collector struct {
	registry *prometheus.Registry

	opsTotal   *prometheus.CounterVec
	opDuration *prometheus.HistogramVec

	backupsTotal   *prometheus.CounterVec
	backupDuration prometheus.Histogram
	lastBackupUnix prometheus.Gauge

	snapshotCount prometheus.Gauge
	snapshotBytes prometheus.Gauge

	noteCount         prometheus.Gauge
	relationshipCount prometheus.Gauge
}

// NewCollector creates a collector on its own registry. Passing nil
// uses a fresh registry; the collector never touches the global default
// registry so tests can build collectors freely.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capsule_store_operations_total",
			Help: "Record store operations by operation and outcome.",
		}, []string{"operation", "status"}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capsule_store_operation_duration_seconds",
			Help:    "Record store operation latency.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
		backupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capsule_backups_total",
			Help: "Backup attempts by outcome.",
		}, []string{"status"}),
		backupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "capsule_backup_duration_seconds",
			Help:    "Time spent creating one snapshot including the retention sweep.",
			Buckets: prometheus.DefBuckets,
		}),
		lastBackupUnix: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "capsule_backup_last_success_timestamp_seconds",
			Help: "Unix time of the last successful backup.",
		}),
		snapshotCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "capsule_backup_snapshots",
			Help: "Number of snapshot files currently retained.",
		}),
		snapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "capsule_backup_snapshot_bytes",
			Help: "Total size of retained snapshot files.",
		}),
		noteCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "capsule_notes",
			Help: "Number of stored notes.",
		}),
		relationshipCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "capsule_relationships",
			Help: "Number of stored relationships.",
		}),
	}

	registry.MustRegister(
		c.opsTotal, c.opDuration,
		c.backupsTotal, c.backupDuration, c.lastBackupUnix,
		c.snapshotCount, c.snapshotBytes,
		c.noteCount, c.relationshipCount,
	)
	return c
}

// ObserveOperation records one record-store operation.
func (c *Collector) ObserveOperation(operation string, err error, started time.Time) {
	c.opsTotal.WithLabelValues(operation, statusLabel(err)).Inc()
	c.opDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// ObserveBackup records one backup attempt.
func (c *Collector) ObserveBackup(err error, started time.Time) {
	c.backupsTotal.WithLabelValues(statusLabel(err)).Inc()
	c.backupDuration.Observe(time.Since(started).Seconds())
	if err == nil {
		c.lastBackupUnix.SetToCurrentTime()
	}
}

// SetSnapshotStats publishes the current snapshot inventory.
func (c *Collector) SetSnapshotStats(count int, totalBytes int64) {
	c.snapshotCount.Set(float64(count))
	c.snapshotBytes.Set(float64(totalBytes))
}

// SetRecordCounts publishes current table sizes.
func (c *Collector) SetRecordCounts(notes, relationships int64) {
	c.noteCount.Set(float64(notes))
	c.relationshipCount.Set(float64(relationships))
}

// StatsSource reports current table sizes for gauge sampling.
type StatsSource func(ctx context.Context) (notes, relationships int64, err error)

// SampleRecordCounts publishes record counts from source immediately and
// then once per interval until ctx is cancelled. It blocks; run it in
// its own goroutine. Sampling errors are logged and the loop keeps the
// previous gauge values.
func (c *Collector) SampleRecordCounts(ctx context.Context, interval time.Duration, source StatsSource) {
	logger := slog.Default().With("component", "telemetry.metrics")
	sample := func() {
		notes, relationships, err := source(ctx)
		if err != nil {
			logger.Warn("failed to sample record counts", "error", err)
			return
		}
		c.SetRecordCounts(notes, relationships)
	}

	sample()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample()
		}
	}
}

// Handler returns the HTTP handler serving this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
