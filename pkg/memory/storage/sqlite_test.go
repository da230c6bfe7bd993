package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"capsule-hq/capsule/pkg/memory"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(&Config{
		Driver:      DriverModernc,
		Path:        filepath.Join(t.TempDir(), "capsule.db"),
		BusyTimeout: time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustWriteNote(t *testing.T, s *Store, n memory.Note) int64 {
	t.Helper()
	id, err := s.WriteNote(context.Background(), n)
	if err != nil {
		t.Fatalf("WriteNote() error: %v", err)
	}
	return id
}

func TestNewStoreCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "data", "capsule.db")

	s, err := NewStore(&Config{Driver: DriverModernc, Path: path}, nil)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	defer s.Close()

	// The file and its parent directories appear with the first write.
	mustWriteNote(t, s, memory.Note{Content: "first"})
	if got := s.Path(); got != path {
		t.Errorf("Path() = %q, want %q", got, path)
	}
}

func TestNewStoreUnknownDriver(t *testing.T) {
	_, err := NewStore(&Config{Driver: "postgres", Path: filepath.Join(t.TempDir(), "x.db")}, nil)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestSchemaIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capsule.db")

	s1, err := NewStore(&Config{Driver: DriverModernc, Path: path}, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	id := mustWriteNote(t, s1, memory.Note{Content: "survives reopen"})
	s1.Close()

	// Reopening must reapply the schema without touching existing rows.
	s2, err := NewStore(&Config{Driver: DriverModernc, Path: path}, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	notes, err := s2.SearchNotes(context.Background(), "", "")
	if err != nil {
		t.Fatalf("SearchNotes() error: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != id {
		t.Fatalf("expected the original note after reopen, got %+v", notes)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustWriteNote(t, s, memory.Note{Content: "one"})
	mustWriteNote(t, s, memory.Note{Content: "two"})
	if _, err := s.UpsertRelationship(ctx, memory.RelationshipUpdate{UserID: "u1"}); err != nil {
		t.Fatalf("UpsertRelationship() error: %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if st.Notes != 2 {
		t.Errorf("Notes = %d, want 2", st.Notes)
	}
	if st.Relationships != 1 {
		t.Errorf("Relationships = %d, want 1", st.Relationships)
	}
	if st.FileSizeBytes <= 0 {
		t.Errorf("FileSizeBytes = %d, want > 0", st.FileSizeBytes)
	}
}

type recordingObserver struct {
	operations []string
}

func (o *recordingObserver) ObserveOperation(operation string, err error, started time.Time) {
	o.operations = append(o.operations, operation)
}

func TestObserverReceivesOperations(t *testing.T) {
	obs := &recordingObserver{}
	s, err := NewStore(&Config{
		Driver: DriverModernc,
		Path:   filepath.Join(t.TempDir(), "capsule.db"),
	}, obs)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	defer s.Close()

	mustWriteNote(t, s, memory.Note{Content: "observed"})

	found := false
	for _, op := range obs.operations {
		if op == "write_note" {
			found = true
		}
	}
	if !found {
		t.Errorf("observer did not record write_note, got %v", obs.operations)
	}
}
