package storage

import (
	"context"
	"errors"
	"testing"

	"capsule-hq/capsule/pkg/memory"
)

func TestWriteNoteRejectsEmptyContent(t *testing.T) {
	s := newTestStore(t)

	for _, content := range []string{"", "   ", "\t\n"} {
		_, err := s.WriteNote(context.Background(), memory.Note{Content: content})
		var verr *memory.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("WriteNote(%q) error = %v, want ValidationError", content, err)
		}
	}
}

func TestWriteNoteClampsImportance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   int
		want int
	}{
		{"unsupplied takes default", 0, 5},
		{"above range", 99, 10},
		{"below range", -3, 1},
		{"in range", 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := s.WriteNote(ctx, memory.Note{Content: "clamp check", Importance: tt.in})
			if err != nil {
				t.Fatalf("WriteNote() error: %v", err)
			}
			notes, err := s.ListNotes(ctx, 0, 0, "")
			if err != nil {
				t.Fatalf("ListNotes() error: %v", err)
			}
			for _, n := range notes {
				if n.ID == id && n.Importance != tt.want {
					t.Errorf("stored importance = %d, want %d", n.Importance, tt.want)
				}
			}
		})
	}
}

func TestWriteSearchDeleteRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.WriteNote(ctx, memory.Note{Content: "hello world", Importance: 99})
	if err != nil {
		t.Fatalf("WriteNote() error: %v", err)
	}

	notes, err := s.SearchNotes(ctx, "hello", "")
	if err != nil {
		t.Fatalf("SearchNotes() error: %v", err)
	}
	if len(notes) != 1 || notes[0].ID != id {
		t.Fatalf("search after write returned %+v, want the new note", notes)
	}
	if notes[0].Importance != 10 {
		t.Errorf("importance = %d, want clamped 10", notes[0].Importance)
	}

	if err := s.DeleteNote(ctx, id); err != nil {
		t.Fatalf("DeleteNote() error: %v", err)
	}

	notes, err = s.SearchNotes(ctx, "hello", "")
	if err != nil {
		t.Fatalf("SearchNotes() after delete error: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("search after delete returned %d notes, want 0", len(notes))
	}
	notes, err = s.SearchNotes(ctx, "", "")
	if err != nil {
		t.Fatalf("base listing after delete error: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("base listing after delete returned %d notes, want 0", len(notes))
	}
}

func TestDeleteNoteIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteNote(context.Background(), 12345); err != nil {
		t.Errorf("deleting a nonexistent id should be a no-op, got %v", err)
	}
}

func TestSearchNotesOwnerFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustWriteNote(t, s, memory.Note{Content: "likes chess", UserID: "alice"})
	mustWriteNote(t, s, memory.Note{Content: "likes chess too", UserID: "bob"})

	notes, err := s.SearchNotes(ctx, "chess", "alice")
	if err != nil {
		t.Fatalf("SearchNotes() error: %v", err)
	}
	if len(notes) != 1 || notes[0].UserID != "alice" {
		t.Errorf("owner filter returned %+v, want only alice's note", notes)
	}

	// Empty query with an owner narrows the recency listing the same way.
	notes, err = s.SearchNotes(ctx, "", "bob")
	if err != nil {
		t.Fatalf("SearchNotes() error: %v", err)
	}
	if len(notes) != 1 || notes[0].UserID != "bob" {
		t.Errorf("empty-query owner filter returned %+v, want only bob's note", notes)
	}
}

func TestSearchNotesEmptyQueryReturnsRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustWriteNote(t, s, memory.Note{Content: "minor detail", Importance: 2})
	important := mustWriteNote(t, s, memory.Note{Content: "major event", Importance: 9})

	notes, err := s.SearchNotes(ctx, "", "")
	if err != nil {
		t.Fatalf("SearchNotes() error: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("got %d notes, want 2", len(notes))
	}
	if notes[0].ID != important {
		t.Errorf("first result id = %d, want the more important note %d", notes[0].ID, important)
	}
}

func TestSearchNotesHostileQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustWriteNote(t, s, memory.Note{Content: "plain content"})

	// FTS5 syntax characters must not surface as query errors.
	for _, q := range []string{`"`, `-`, `a:b`, `(unbalanced`, `* NEAR`} {
		if _, err := s.SearchNotes(ctx, q, ""); err != nil {
			t.Errorf("SearchNotes(%q) error: %v", q, err)
		}
	}
}

func TestListNotesPaginationAndCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustWriteNote(t, s, memory.Note{Content: "travel note", Category: "travel"})
	}
	mustWriteNote(t, s, memory.Note{Content: "food note", Category: "food"})

	page, err := s.ListNotes(ctx, 2, 2, "travel")
	if err != nil {
		t.Fatalf("ListNotes() error: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("got %d notes, want 2", len(page))
	}
	for _, n := range page {
		if n.Category != "travel" {
			t.Errorf("category filter leaked %+v", n)
		}
	}

	total, err := s.CountNotes(ctx, "travel")
	if err != nil {
		t.Fatalf("CountNotes() error: %v", err)
	}
	if total != 5 {
		t.Errorf("CountNotes(travel) = %d, want 5", total)
	}
	all, err := s.CountNotes(ctx, "")
	if err != nil {
		t.Fatalf("CountNotes() error: %v", err)
	}
	if all != 6 {
		t.Errorf("CountNotes() = %d, want 6", all)
	}
}

func TestListTagsAndCategories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustWriteNote(t, s, memory.Note{Content: "a", Tags: "games, chess", Category: "hobby"})
	mustWriteNote(t, s, memory.Note{Content: "b", Tags: "chess", Category: "hobby"})
	mustWriteNote(t, s, memory.Note{Content: "c", Category: "work"})

	tags, err := s.ListTags(ctx)
	if err != nil {
		t.Fatalf("ListTags() error: %v", err)
	}
	if len(tags) != 2 || tags[0] != "chess" || tags[1] != "games" {
		t.Errorf("ListTags() = %v, want [chess games]", tags)
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories() error: %v", err)
	}
	if len(categories) != 2 || categories[0] != "hobby" || categories[1] != "work" {
		t.Errorf("ListCategories() = %v, want [hobby work]", categories)
	}
}
