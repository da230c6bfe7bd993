package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"capsule-hq/capsule/pkg/memory"
	"capsule-hq/capsule/pkg/memory/storage"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "capsule.db")
	if err := os.WriteFile(dbPath, []byte("live database"), 0o644); err != nil {
		t.Fatalf("seed db file: %v", err)
	}

	m, err := NewManager(&Config{DBPath: dbPath}, nil, nil)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	return m, dbPath
}

func TestNewManagerDefaultsDir(t *testing.T) {
	m, dbPath := newTestManager(t)

	want := filepath.Join(filepath.Dir(dbPath), "capsule_backups")
	if m.Dir() != want {
		t.Errorf("Dir() = %q, want %q", m.Dir(), want)
	}
	if _, err := os.Stat(m.Dir()); err != nil {
		t.Errorf("backup directory was not created: %v", err)
	}
}

func TestNewManagerRequiresDBPath(t *testing.T) {
	if _, err := NewManager(&Config{}, nil, nil); err == nil {
		t.Error("expected error for empty DBPath")
	}
	if _, err := NewManager(nil, nil, nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestBackupCreatesSnapshot(t *testing.T) {
	m, _ := newTestManager(t)

	snap, err := m.Backup(context.Background())
	if err != nil {
		t.Fatalf("Backup() error: %v", err)
	}
	if !isSnapshotName(snap.Filename) {
		t.Errorf("unexpected snapshot name %q", snap.Filename)
	}
	data, err := os.ReadFile(filepath.Join(m.Dir(), snap.Filename))
	if err != nil {
		t.Fatalf("snapshot unreadable: %v", err)
	}
	if string(data) != "live database" {
		t.Errorf("snapshot content = %q", data)
	}
	if snap.Size != int64(len("live database")) {
		t.Errorf("snapshot size = %d", snap.Size)
	}
}

func TestBackupMissingSourceFails(t *testing.T) {
	m, dbPath := newTestManager(t)
	os.Remove(dbPath)

	if _, err := m.Backup(context.Background()); err == nil {
		t.Error("expected error when storage file is missing")
	}
}

func TestListNewestFirst(t *testing.T) {
	m, _ := newTestManager(t)
	now := time.Now()

	for i, age := range []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour} {
		name := fmt.Sprintf("memory_2026010100000%d.db", i)
		path := filepath.Join(m.Dir(), name)
		if err := os.WriteFile(path, []byte("snap"), 0o644); err != nil {
			t.Fatalf("write snapshot: %v", err)
		}
		mod := now.Add(-age)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
	// A stray non-snapshot file must be ignored.
	if err := os.WriteFile(filepath.Join(m.Dir(), "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write stray file: %v", err)
	}

	snaps, err := m.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(snaps) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(snaps))
	}
	for i := 1; i < len(snaps); i++ {
		if snaps[i].ModTime.After(snaps[i-1].ModTime) {
			t.Errorf("snapshots not newest-first: %v", snaps)
		}
	}
}

func TestRestoreOverwritesLiveFile(t *testing.T) {
	m, dbPath := newTestManager(t)

	snap, err := m.Backup(context.Background())
	if err != nil {
		t.Fatalf("Backup() error: %v", err)
	}

	if err := os.WriteFile(dbPath, []byte("corrupted"), 0o644); err != nil {
		t.Fatalf("overwrite live file: %v", err)
	}
	if err := m.Restore(snap.Filename); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}

	data, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatalf("read live file: %v", err)
	}
	if string(data) != "live database" {
		t.Errorf("restored content = %q, want original", data)
	}
}

func TestRestoreMissingSnapshotFails(t *testing.T) {
	m, _ := newTestManager(t)

	if err := m.Restore("memory_19990101000000.db"); err == nil {
		t.Error("restore of a missing snapshot must fail, not silently succeed")
	}
}

func TestRestoreRejectsBadFilenames(t *testing.T) {
	m, _ := newTestManager(t)

	for _, name := range []string{"", "../capsule.db", "notes.db", "memory_x/../../y.db"} {
		if err := m.Restore(name); err == nil {
			t.Errorf("Restore(%q) should fail", name)
		}
	}
}

func TestDeleteSnapshotIdempotent(t *testing.T) {
	m, _ := newTestManager(t)

	snap, err := m.Backup(context.Background())
	if err != nil {
		t.Fatalf("Backup() error: %v", err)
	}
	if err := m.Delete(snap.Filename); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := m.Delete(snap.Filename); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
	if err := m.Delete("../escape.db"); err == nil {
		t.Error("Delete with a path component should fail")
	}
}

func TestCleanupAgesByModTime(t *testing.T) {
	m, _ := newTestManager(t)
	m.SetPolicy(RetentionPolicy{Tiered: true, Hourly: 2, Daily: 7, Weekly: 4, Monthly: 12})
	now := time.Now()

	// Four hourly-tier snapshots against a limit of two.
	for i, age := range []time.Duration{time.Minute, time.Hour, 2 * time.Hour, 3 * time.Hour} {
		name := fmt.Sprintf("memory_2026080100000%d.db", i)
		path := filepath.Join(m.Dir(), name)
		if err := os.WriteFile(path, []byte("snap"), 0o644); err != nil {
			t.Fatalf("write snapshot: %v", err)
		}
		mod := now.Add(-age)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed, err := m.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup() error: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed %d snapshots, want 2", removed)
	}
	snaps, err := m.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("kept %d snapshots, want 2", len(snaps))
	}
	// The two newest survive.
	if snaps[0].Filename != "memory_20260801000000.db" || snaps[1].Filename != "memory_20260801000001.db" {
		t.Errorf("kept %v, want the two newest", snaps)
	}
}

type backupStats struct {
	count int
	bytes int64
	calls int
}

func (b *backupStats) ObserveBackup(err error, started time.Time) { b.calls++ }
func (b *backupStats) SetSnapshotStats(count int, totalBytes int64) {
	b.count = count
	b.bytes = totalBytes
}

func TestObserverReceivesSnapshotStats(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "capsule.db")
	if err := os.WriteFile(dbPath, []byte("12345"), 0o644); err != nil {
		t.Fatalf("seed db file: %v", err)
	}

	obs := &backupStats{}
	m, err := NewManager(&Config{DBPath: dbPath}, nil, obs)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}

	if _, err := m.Backup(context.Background()); err != nil {
		t.Fatalf("Backup() error: %v", err)
	}
	if obs.calls != 1 {
		t.Errorf("ObserveBackup calls = %d, want 1", obs.calls)
	}
	if obs.count != 1 || obs.bytes != 5 {
		t.Errorf("snapshot stats = %d/%d, want 1/5", obs.count, obs.bytes)
	}
}

// Restoring a snapshot through a live store must make subsequent reads
// reflect the snapshot's content; rows written after the snapshot are
// gone. The store's per-operation connections pick up the swapped file
// without any reopen.
func TestRestoreDropsLaterWrites(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "capsule.db")
	ctx := context.Background()

	store, err := storage.NewStore(&storage.Config{
		Driver: storage.DriverModernc,
		Path:   dbPath,
	}, nil)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	defer store.Close()

	if _, err := store.WriteNote(ctx, memory.Note{Content: "before snapshot"}); err != nil {
		t.Fatalf("WriteNote() error: %v", err)
	}

	m, err := NewManager(&Config{DBPath: dbPath}, store, nil)
	if err != nil {
		t.Fatalf("NewManager() error: %v", err)
	}
	snap, err := m.Backup(ctx)
	if err != nil {
		t.Fatalf("Backup() error: %v", err)
	}

	if _, err := store.WriteNote(ctx, memory.Note{Content: "after snapshot"}); err != nil {
		t.Fatalf("WriteNote() error: %v", err)
	}

	if err := m.Restore(snap.Filename); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}

	notes, err := store.SearchNotes(ctx, "", "")
	if err != nil {
		t.Fatalf("SearchNotes() error: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("got %d notes after restore, want 1: %+v", len(notes), notes)
	}
	if notes[0].Content != "before snapshot" {
		t.Errorf("surviving note = %q, want the pre-snapshot row", notes[0].Content)
	}
}
