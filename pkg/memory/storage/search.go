package storage

import (
	"context"
	"database/sql"
	"strings"

	"capsule-hq/capsule/pkg/memory"
)

// noteSearcher is the query strategy for non-empty note searches. The
// implementation is chosen once at schema-initialization time based on
// whether the FTS5 module is available.
type noteSearcher interface {
	Name() string
	Search(ctx context.Context, db *sql.DB, query, userID string) ([]memory.Note, error)
}

// ftsSearcher matches against the notes_fts index over content, tags,
// and category.
type ftsSearcher struct{}

func (f *ftsSearcher) Name() string { return "fts5" }

func (f *ftsSearcher) Search(ctx context.Context, db *sql.DB, query, userID string) ([]memory.Note, error) {
	q := `SELECT ` + noteSelect("n") + `
		FROM notes n JOIN notes_fts f ON n.id = f.rowid
		WHERE notes_fts MATCH ?`
	args := []any{ftsQuery(query)}
	if userID != "" {
		q += ` AND n.user_id = ?`
		args = append(args, userID)
	}
	q += ` ORDER BY n.importance DESC, n.created_at_ms DESC, n.id DESC LIMIT ?`
	args = append(args, SearchLimit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

// ftsQuery quotes each whitespace-separated term so user input cannot
// trip the FTS5 query parser (bare "-", ":" and unbalanced quotes are
// all syntax errors there).
func ftsQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// likeSearcher is the substring fallback used when FTS5 is unavailable.
// It matches the same columns the full-text index covers.
type likeSearcher struct{}

func (l *likeSearcher) Name() string { return "substring" }

func (l *likeSearcher) Search(ctx context.Context, db *sql.DB, query, userID string) ([]memory.Note, error) {
	pattern := "%" + escapeLike(query) + "%"
	q := `SELECT ` + noteColumns + ` FROM notes
		WHERE (content LIKE ? ESCAPE '\' OR tags LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\')`
	args := []any{pattern, pattern, pattern}
	if userID != "" {
		q += ` AND user_id = ?`
		args = append(args, userID)
	}
	q += noteRanking + ` LIMIT ?`
	args = append(args, SearchLimit)

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNotes(rows)
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func noteSelect(alias string) string {
	cols := strings.Split(noteColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}
