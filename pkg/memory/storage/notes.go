package storage

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"time"

	"capsule-hq/capsule/pkg/memory"
)

// SearchLimit caps the number of notes a search returns.
const SearchLimit = 50

// WriteNote validates, clamps, and inserts a note, returning the new id.
// An Importance of zero means "unsupplied" and takes the default; any
// other value is clamped into [1,10]. The FTS triggers mirror the insert
// into the full-text index within the same implicit transaction.
func (s *Store) WriteNote(ctx context.Context, n memory.Note) (id int64, err error) {
	started := time.Now()
	defer func() { s.observe("write_note", started, err) }()

	if strings.TrimSpace(n.Content) == "" {
		return 0, memory.NewValidationError("content", "must not be empty")
	}

	importance := n.Importance
	if importance == 0 {
		importance = memory.DefaultImportance
	}
	importance = memory.ClampImportance(importance)

	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (user_id, source_platform, source_context, category, tags, content, importance, created_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, n.SourcePlatform, n.SourceContext, n.Category, n.Tags, n.Content, importance, createdAt.UnixMilli(),
	)
	if err != nil {
		return 0, s.storageErr("write_note", err)
	}

	id, err = res.LastInsertId()
	if err != nil {
		return 0, s.storageErr("write_note", err)
	}
	return id, nil
}

// SearchNotes returns up to SearchLimit notes ranked by importance then
// recency. A non-empty query goes through the configured search strategy
// (full-text when available, substring otherwise); an empty query
// returns the best-ranked notes unfiltered. A non-empty userID narrows
// either form to that owner.
func (s *Store) SearchNotes(ctx context.Context, query, userID string) (notes []memory.Note, err error) {
	started := time.Now()
	defer func() { s.observe("search_notes", started, err) }()

	query = strings.TrimSpace(query)
	if query == "" {
		return s.recentNotes(ctx, userID)
	}

	notes, err = s.searcher.Search(ctx, s.db, query, userID)
	if err != nil {
		return nil, s.storageErr("search_notes", err)
	}
	return notes, nil
}

func (s *Store) recentNotes(ctx context.Context, userID string) ([]memory.Note, error) {
	q := `SELECT ` + noteColumns + ` FROM notes`
	args := []any{}
	if userID != "" {
		q += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	q += noteRanking + ` LIMIT ?`
	args = append(args, SearchLimit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, s.storageErr("search_notes", err)
	}
	defer rows.Close()
	notes, err := scanNotes(rows)
	if err != nil {
		return nil, s.storageErr("search_notes", err)
	}
	return notes, nil
}

// DeleteNote removes a note by id. Deleting a nonexistent id is a
// no-op; the FTS delete trigger drops the full-text mirror row.
func (s *Store) DeleteNote(ctx context.Context, id int64) (err error) {
	started := time.Now()
	defer func() { s.observe("delete_note", started, err) }()

	if _, err = s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return s.storageErr("delete_note", err)
	}
	return nil
}

// ListNotes returns a page of notes, best-ranked first, optionally
// filtered by category.
func (s *Store) ListNotes(ctx context.Context, limit, offset int, category string) (notes []memory.Note, err error) {
	started := time.Now()
	defer func() { s.observe("list_notes", started, err) }()

	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	q := `SELECT ` + noteColumns + ` FROM notes`
	args := []any{}
	if category != "" {
		q += ` WHERE category = ?`
		args = append(args, category)
	}
	q += noteRanking + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, s.storageErr("list_notes", err)
	}
	defer rows.Close()
	notes, err = scanNotes(rows)
	if err != nil {
		return nil, s.storageErr("list_notes", err)
	}
	return notes, nil
}

// CountNotes returns the number of notes, optionally per category.
func (s *Store) CountNotes(ctx context.Context, category string) (count int64, err error) {
	started := time.Now()
	defer func() { s.observe("count_notes", started, err) }()

	q := `SELECT COUNT(*) FROM notes`
	args := []any{}
	if category != "" {
		q += ` WHERE category = ?`
		args = append(args, category)
	}
	if err = s.db.QueryRowContext(ctx, q, args...).Scan(&count); err != nil {
		return 0, s.storageErr("count_notes", err)
	}
	return count, nil
}

// ListTags returns the distinct set of tags across all notes, sorted.
// Tags are stored comma-separated per note and split here.
func (s *Store) ListTags(ctx context.Context) (tags []string, err error) {
	started := time.Now()
	defer func() { s.observe("list_tags", started, err) }()

	rows, err := s.db.QueryContext(ctx, `SELECT tags FROM notes WHERE tags != ''`)
	if err != nil {
		return nil, s.storageErr("list_tags", err)
	}
	defer rows.Close()

	set := map[string]struct{}{}
	for rows.Next() {
		var raw string
		if err = rows.Scan(&raw); err != nil {
			return nil, s.storageErr("list_tags", err)
		}
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				set[tag] = struct{}{}
			}
		}
	}
	if err = rows.Err(); err != nil {
		return nil, s.storageErr("list_tags", err)
	}

	tags = make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

// ListCategories returns the distinct non-empty categories, sorted.
func (s *Store) ListCategories(ctx context.Context) (categories []string, err error) {
	started := time.Now()
	defer func() { s.observe("list_categories", started, err) }()

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT category FROM notes WHERE category != '' ORDER BY category`)
	if err != nil {
		return nil, s.storageErr("list_categories", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c string
		if err = rows.Scan(&c); err != nil {
			return nil, s.storageErr("list_categories", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, s.storageErr("list_categories", err)
	}
	return categories, nil
}

// noteRanking orders by importance, then recency, with id as a stable
// tiebreak for rows created in the same millisecond.
const noteRanking = ` ORDER BY importance DESC, created_at_ms DESC, id DESC`

func scanNotes(rows *sql.Rows) ([]memory.Note, error) {
	notes := []memory.Note{}
	for rows.Next() {
		var (
			n         memory.Note
			createdMs int64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.SourcePlatform, &n.SourceContext,
			&n.Category, &n.Tags, &n.Content, &n.Importance, &createdMs); err != nil {
			return nil, err
		}
		n.CreatedAt = time.UnixMilli(createdMs)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
