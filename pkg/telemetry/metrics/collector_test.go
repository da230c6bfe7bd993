package metrics

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for k, v := range labels {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == k && lp.GetValue() == v {
						found = true
					}
				}
				if !found {
					continue metric
				}
			}
			return metricValue(m)
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func metricValue(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	}
	return 0
}

func TestObserveOperationCountsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveOperation("write_note", nil, time.Now())
	c.ObserveOperation("write_note", nil, time.Now())
	c.ObserveOperation("write_note", errors.New("boom"), time.Now())

	success := gatherValue(t, reg, "capsule_store_operations_total",
		map[string]string{"operation": "write_note", "status": "success"})
	if success != 2 {
		t.Errorf("success count = %v, want 2", success)
	}
	failure := gatherValue(t, reg, "capsule_store_operations_total",
		map[string]string{"operation": "write_note", "status": "error"})
	if failure != 1 {
		t.Errorf("error count = %v, want 1", failure)
	}
}

func TestObserveBackupTimestampOnlyOnSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveBackup(errors.New("boom"), time.Now())
	ts := gatherValue(t, reg, "capsule_backup_last_success_timestamp_seconds", nil)
	if ts != 0 {
		t.Errorf("timestamp set after failed backup: %v", ts)
	}

	c.ObserveBackup(nil, time.Now())
	ts = gatherValue(t, reg, "capsule_backup_last_success_timestamp_seconds", nil)
	if ts == 0 {
		t.Error("timestamp not set after successful backup")
	}
}

func TestSnapshotAndRecordGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.SetSnapshotStats(3, 4096)
	c.SetRecordCounts(10, 2)

	if got := gatherValue(t, reg, "capsule_backup_snapshots", nil); got != 3 {
		t.Errorf("snapshot count = %v, want 3", got)
	}
	if got := gatherValue(t, reg, "capsule_backup_snapshot_bytes", nil); got != 4096 {
		t.Errorf("snapshot bytes = %v, want 4096", got)
	}
	if got := gatherValue(t, reg, "capsule_notes", nil); got != 10 {
		t.Errorf("note count = %v, want 10", got)
	}
	if got := gatherValue(t, reg, "capsule_relationships", nil); got != 2 {
		t.Errorf("relationship count = %v, want 2", got)
	}
}

func TestSampleRecordCountsPublishesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.SampleRecordCounts(ctx, time.Hour, func(ctx context.Context) (int64, int64, error) {
			return 7, 3, nil
		})
	}()

	// The first sample is taken before the ticker starts.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if gatherValue(t, reg, "capsule_notes", nil) == 7 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got := gatherValue(t, reg, "capsule_notes", nil); got != 7 {
		t.Errorf("note count = %v, want 7", got)
	}
	if got := gatherValue(t, reg, "capsule_relationships", nil); got != 3 {
		t.Errorf("relationship count = %v, want 3", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sampling loop did not stop on context cancel")
	}
}

func TestSampleRecordCountsKeepsValuesOnError(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.SetRecordCounts(5, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.SampleRecordCounts(ctx, time.Hour, func(ctx context.Context) (int64, int64, error) {
		return 0, 0, errors.New("stats unavailable")
	})

	if got := gatherValue(t, reg, "capsule_notes", nil); got != 5 {
		t.Errorf("note count = %v after failed sample, want 5", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	c := NewCollector(nil)
	c.ObserveOperation("search_notes", nil, time.Now())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "capsule_store_operations_total") {
		t.Error("exposition missing operation counter")
	}
}
