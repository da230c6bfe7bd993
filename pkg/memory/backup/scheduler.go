package backup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs automatic backups on an interval. It wraps a cron
// runner so Stop is a real cancellation (it waits for an in-flight
// backup to finish) rather than a polled flag.
type Scheduler struct {
	manager  *Manager
	cron     *cron.Cron
	logger   *slog.Logger
	schedule string

	mu      sync.Mutex
	running bool
	entry   cron.EntryID
}

// NewScheduler creates a scheduler that backs up every interval.
func NewScheduler(manager *Manager, interval time.Duration) *Scheduler {
	return &Scheduler{
		manager:  manager,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "memory.backup.scheduler"),
		schedule: fmt.Sprintf("@every %s", interval),
	}
}

// Start begins the backup loop: one backup immediately, then one per
// interval. Calling Start while already running is a no-op. The loop
// stops when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.logger.Info("backup scheduler already started")
		return nil
	}

	id, err := s.cron.AddFunc(s.schedule, func() { s.runBackup(ctx) })
	if err != nil {
		return fmt.Errorf("failed to schedule backups (%s): %w", s.schedule, err)
	}
	s.entry = id

	s.cron.Start()
	s.running = true
	s.logger.Info("backup scheduler started", "schedule", s.schedule)

	go s.runBackup(ctx)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runBackup(ctx context.Context) {
	snap, err := s.manager.Backup(ctx)
	if err != nil {
		s.logger.Error("scheduled backup failed", "error", err)
		return
	}
	s.logger.Debug("scheduled backup completed", "file", snap.Filename)
}

// Stop halts the loop and waits for a running backup to complete. It is
// safe to call when the scheduler was never started, and safe to call
// more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entry)
	s.running = false
	s.logger.Info("backup scheduler stopped")
}

// IsRunning reports whether the backup loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the time of the next scheduled backup, or nil when
// the scheduler is not running.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
