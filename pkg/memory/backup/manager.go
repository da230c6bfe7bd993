package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"capsule-hq/capsule/pkg/memory"
)

// Snapshot filename shape: memory_<YYYYMMDDHHMMSS>.db
const (
	snapshotPrefix     = "memory_"
	snapshotSuffix     = ".db"
	snapshotTimeFormat = "20060102150405"
)

// Checkpointer flushes pending writes into the storage file before it is
// copied. The store's WAL checkpoint implements this; a nil Checkpointer
// skips the flush.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// Observer receives backup timing and snapshot inventory signals.
// A nil Observer disables instrumentation.
type Observer interface {
	ObserveBackup(err error, started time.Time)
	SetSnapshotStats(count int, totalBytes int64)
}

// Config contains configuration for the backup manager.
type Config struct {
	// DBPath is the live storage file to snapshot.
	DBPath string

	// Dir is the snapshot directory. Empty means a sibling directory
	// of DBPath named "<stem>_backups".
	Dir string

	// Retention bounds how many snapshots each age tier keeps.
	Retention RetentionPolicy
}

// Manager owns the backup directory: it is the only component that
// creates or deletes snapshot files. It reads the live storage file only
// as a raw file copy, never through the query layer.
type Manager struct {
	dbPath string
	dir    string
	source Checkpointer
	logger *slog.Logger
	obs    Observer

	mu     sync.RWMutex
	policy RetentionPolicy
}

// NewManager creates a backup manager and its snapshot directory.
func NewManager(config *Config, source Checkpointer, obs Observer) (*Manager, error) {
	if config == nil || config.DBPath == "" {
		return nil, memory.NewBackupError("init", "", fmt.Errorf("storage file path is required"))
	}

	dir := config.Dir
	if dir == "" {
		stem := strings.TrimSuffix(filepath.Base(config.DBPath), filepath.Ext(config.DBPath))
		dir = filepath.Join(filepath.Dir(config.DBPath), stem+"_backups")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, memory.NewBackupError("init", "", err)
	}

	return &Manager{
		dbPath: config.DBPath,
		dir:    dir,
		source: source,
		logger: slog.Default().With("component", "memory.backup"),
		obs:    obs,
		policy: config.Retention.withDefaults(),
	}, nil
}

// Dir returns the snapshot directory path.
func (m *Manager) Dir() string {
	return m.dir
}

// SetPolicy swaps the retention policy; the next sweep uses it. Used by
// config hot-reload.
func (m *Manager) SetPolicy(policy RetentionPolicy) {
	m.mu.Lock()
	m.policy = policy.withDefaults()
	m.mu.Unlock()
	m.logger.Info("backup retention policy updated")
}

// Backup snapshots the storage file into the backup directory and then
// runs the retention sweep. Copy failures are reported as errors, never
// panics; sweep failures are logged but do not fail the backup itself.
func (m *Manager) Backup(ctx context.Context) (snap memory.Snapshot, err error) {
	started := time.Now()
	defer func() { m.observeBackup(err, started) }()

	if m.source != nil {
		if cpErr := m.source.Checkpoint(ctx); cpErr != nil {
			m.logger.Warn("checkpoint before backup failed", "error", cpErr)
		}
	}

	if _, err = os.Stat(m.dbPath); err != nil {
		return snap, memory.NewBackupError("backup", "", err)
	}

	filename := snapshotPrefix + started.Format(snapshotTimeFormat) + snapshotSuffix
	dst := filepath.Join(m.dir, filename)

	if err = copyFile(m.dbPath, dst); err != nil {
		return snap, memory.NewBackupError("backup", filename, err)
	}

	if _, sweepErr := m.Cleanup(); sweepErr != nil {
		m.logger.Error("retention sweep failed", "error", sweepErr)
	}

	info, statErr := os.Stat(dst)
	if statErr != nil {
		return snap, memory.NewBackupError("backup", filename, statErr)
	}

	snap = memory.Snapshot{Filename: filename, Size: info.Size(), ModTime: info.ModTime()}
	m.logger.Info("backup created", "file", filename, "bytes", snap.Size)
	return snap, nil
}

// List enumerates snapshots newest-first.
func (m *Manager) List() ([]memory.Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, memory.NewBackupError("list", "", err)
	}

	snaps := []memory.Snapshot{}
	for _, e := range entries {
		if e.IsDir() || !isSnapshotName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		snaps = append(snaps, memory.Snapshot{
			Filename: e.Name(),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}

	sort.Slice(snaps, func(i, j int) bool {
		if !snaps[i].ModTime.Equal(snaps[j].ModTime) {
			return snaps[i].ModTime.After(snaps[j].ModTime)
		}
		return snaps[i].Filename > snaps[j].Filename
	})

	m.publishStats(snaps)
	return snaps, nil
}

// Restore copies the named snapshot over the live storage file. It fails
// when the snapshot does not exist; it cannot silently succeed with
// nothing to restore from. Stale WAL sidecar files are removed so the
// restored state is what the next connection sees.
func (m *Manager) Restore(filename string) error {
	if filename == "" || filename != filepath.Base(filename) || !isSnapshotName(filename) {
		return memory.NewBackupError("restore", filename, fmt.Errorf("invalid snapshot filename"))
	}

	src := filepath.Join(m.dir, filename)
	if _, err := os.Stat(src); err != nil {
		return memory.NewBackupError("restore", filename, err)
	}

	if err := copyFile(src, m.dbPath); err != nil {
		return memory.NewBackupError("restore", filename, err)
	}
	os.Remove(m.dbPath + "-wal")
	os.Remove(m.dbPath + "-shm")

	m.logger.Info("restored from backup", "file", filename)
	return nil
}

// Delete removes a single snapshot by filename; deleting an absent
// snapshot is a no-op.
func (m *Manager) Delete(filename string) error {
	if filename == "" || filename != filepath.Base(filename) || !isSnapshotName(filename) {
		return memory.NewBackupError("delete", filename, fmt.Errorf("invalid snapshot filename"))
	}
	if err := os.Remove(filepath.Join(m.dir, filename)); err != nil && !os.IsNotExist(err) {
		return memory.NewBackupError("delete", filename, err)
	}
	return nil
}

// Cleanup runs the retention sweep now and returns how many snapshots
// were removed.
func (m *Manager) Cleanup() (int, error) {
	m.mu.RLock()
	policy := m.policy
	m.mu.RUnlock()

	snaps, err := m.List()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, victim := range policy.excess(snaps, time.Now()) {
		if err := os.Remove(filepath.Join(m.dir, victim.Filename)); err != nil {
			m.logger.Error("failed to delete old backup", "file", victim.Filename, "error", err)
			continue
		}
		m.logger.Info("deleted old backup", "file", victim.Filename)
		deleted++
	}

	if deleted > 0 {
		if snaps, err := m.List(); err == nil {
			m.publishStats(snaps)
		}
	}
	return deleted, nil
}

func (m *Manager) publishStats(snaps []memory.Snapshot) {
	if m.obs == nil {
		return
	}
	var total int64
	for _, s := range snaps {
		total += s.Size
	}
	m.obs.SetSnapshotStats(len(snaps), total)
}

func (m *Manager) observeBackup(err error, started time.Time) {
	if m.obs != nil {
		m.obs.ObserveBackup(err, started)
	}
}

func isSnapshotName(name string) bool {
	return strings.HasPrefix(name, snapshotPrefix) && strings.HasSuffix(name, snapshotSuffix)
}

// copyFile copies src to dst. The destination keeps its own
// modification time, which is what retention tiering ages snapshots by.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}
