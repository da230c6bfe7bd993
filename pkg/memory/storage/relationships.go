package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"capsule-hq/capsule/pkg/memory"
)

// UpsertRelationship applies the merge-upsert algorithm: supplied fields
// overwrite, omitted fields keep their stored values, and the intimacy
// delta is added to the stored score (or the baseline of 50 for a fresh
// identity) then clamped to [0,100]. When a supplied nickname differs
// from the stored one, the prior nickname is appended to the alias
// history. Summary is overwritten, never appended.
//
// The read-modify-write runs inside a single transaction so concurrent
// updates to the same identity serialize on the storage engine's lock.
func (s *Store) UpsertRelationship(ctx context.Context, upd memory.RelationshipUpdate) (rel memory.Relationship, err error) {
	started := time.Now()
	defer func() { s.observe("upsert_relationship", started, err) }()

	if strings.TrimSpace(upd.UserID) == "" {
		return rel, memory.NewValidationError("user_id", "must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return rel, s.storageErr("upsert_relationship", err)
	}
	defer tx.Rollback()

	existing, found, err := s.getRelationshipTx(ctx, tx, upd.UserID, upd.GroupID, upd.Platform)
	if err != nil {
		return rel, s.storageErr("upsert_relationship", err)
	}

	now := time.Now()
	if found {
		rel = mergeRelationship(existing, upd)
	} else {
		rel = newRelationship(upd)
	}
	rel.UpdatedAt = now

	aliases, err := json.Marshal(rel.Aliases)
	if err != nil {
		return rel, s.storageErr("upsert_relationship", err)
	}
	contexts, err := json.Marshal(rel.KnownContexts)
	if err != nil {
		return rel, s.storageErr("upsert_relationship", err)
	}

	if found {
		_, err = tx.ExecContext(ctx, `
			UPDATE relationships SET
				nickname = ?, aliases = ?, relation_type = ?, intimacy = ?, tags = ?,
				summary = ?, remark = ?, first_met_time = ?, first_met_location = ?,
				known_contexts = ?, updated_at_ms = ?
			WHERE user_id = ? AND group_id = ? AND platform = ?`,
			rel.Nickname, string(aliases), rel.RelationType, rel.Intimacy, rel.Tags,
			rel.Summary, rel.Remark, rel.FirstMetTime, rel.FirstMetLocation,
			string(contexts), now.UnixMilli(),
			rel.UserID, rel.GroupID, rel.Platform,
		)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO relationships (`+relationshipColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rel.UserID, rel.GroupID, rel.Platform, rel.Nickname, string(aliases),
			rel.RelationType, rel.Intimacy, rel.Tags, rel.Summary, rel.Remark,
			rel.FirstMetTime, rel.FirstMetLocation, string(contexts), now.UnixMilli(),
		)
	}
	if err != nil {
		return rel, s.storageErr("upsert_relationship", err)
	}

	if err = tx.Commit(); err != nil {
		return rel, s.storageErr("upsert_relationship", err)
	}
	return rel, nil
}

// mergeRelationship folds an update into an existing record. Empty
// string fields mean "keep"; supplied fields overwrite.
func mergeRelationship(old memory.Relationship, upd memory.RelationshipUpdate) memory.Relationship {
	rel := old
	if upd.Nickname != "" && upd.Nickname != old.Nickname {
		if old.Nickname != "" {
			rel.Aliases = appendAlias(old.Aliases, old.Nickname)
		}
		rel.Nickname = upd.Nickname
	}
	if upd.RelationType != "" {
		rel.RelationType = upd.RelationType
	}
	if upd.Tags != "" {
		rel.Tags = upd.Tags
	}
	if upd.Summary != "" {
		rel.Summary = upd.Summary
	}
	if upd.Remark != "" {
		rel.Remark = upd.Remark
	}
	if upd.FirstMetTime != "" {
		rel.FirstMetTime = upd.FirstMetTime
	}
	if upd.FirstMetLocation != "" {
		rel.FirstMetLocation = upd.FirstMetLocation
	}
	if upd.KnownContexts != nil {
		rel.KnownContexts = upd.KnownContexts
	}
	rel.Intimacy = memory.ClampIntimacy(old.Intimacy + upd.IntimacyDelta)
	return rel
}

// newRelationship builds a fresh record from an update; unsupplied
// fields default to empty values and intimacy starts from the baseline.
func newRelationship(upd memory.RelationshipUpdate) memory.Relationship {
	contexts := upd.KnownContexts
	if contexts == nil {
		contexts = []string{}
	}
	return memory.Relationship{
		UserID:           upd.UserID,
		GroupID:          upd.GroupID,
		Platform:         upd.Platform,
		Nickname:         upd.Nickname,
		Aliases:          []string{},
		RelationType:     upd.RelationType,
		Intimacy:         memory.ClampIntimacy(memory.BaselineIntimacy + upd.IntimacyDelta),
		Tags:             upd.Tags,
		Summary:          upd.Summary,
		Remark:           upd.Remark,
		FirstMetTime:     upd.FirstMetTime,
		FirstMetLocation: upd.FirstMetLocation,
		KnownContexts:    contexts,
	}
}

func appendAlias(aliases []string, nickname string) []string {
	for _, a := range aliases {
		if a == nickname {
			return aliases
		}
	}
	out := make([]string, len(aliases), len(aliases)+1)
	copy(out, aliases)
	return append(out, nickname)
}

// GetRelationship looks up one record by identity key. Returns
// memory.ErrNotFound when no row exists.
func (s *Store) GetRelationship(ctx context.Context, userID, groupID, platform string) (rel memory.Relationship, err error) {
	started := time.Now()
	defer func() { s.observe("get_relationship", started, err) }()

	rel, found, err := s.getRelationshipTx(ctx, nil, userID, groupID, platform)
	if err != nil {
		return rel, s.storageErr("get_relationship", err)
	}
	if !found {
		return rel, memory.ErrNotFound
	}
	return rel, nil
}

func (s *Store) getRelationshipTx(ctx context.Context, tx *sql.Tx, userID, groupID, platform string) (memory.Relationship, bool, error) {
	q := `SELECT ` + relationshipColumns + ` FROM relationships
		WHERE user_id = ? AND group_id = ? AND platform = ?`

	var row *sql.Row
	if tx != nil {
		row = tx.QueryRowContext(ctx, q, userID, groupID, platform)
	} else {
		row = s.db.QueryRowContext(ctx, q, userID, groupID, platform)
	}

	rel, err := scanRelationship(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return rel, false, nil
	}
	if err != nil {
		return rel, false, err
	}
	return rel, true, nil
}

// SearchRelationships substring-matches across nickname, relation type,
// summary, remark, and alias history. An empty query matches all rows.
// Results are most-recently-updated first, capped at SearchLimit.
func (s *Store) SearchRelationships(ctx context.Context, query string) (rels []memory.Relationship, err error) {
	started := time.Now()
	defer func() { s.observe("search_relationships", started, err) }()

	q := `SELECT ` + relationshipColumns + ` FROM relationships`
	args := []any{}
	if query = strings.TrimSpace(query); query != "" {
		pattern := "%" + escapeLike(query) + "%"
		q += ` WHERE nickname LIKE ? ESCAPE '\'
			OR relation_type LIKE ? ESCAPE '\'
			OR summary LIKE ? ESCAPE '\'
			OR remark LIKE ? ESCAPE '\'
			OR aliases LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern, pattern, pattern, pattern)
	}
	q += ` ORDER BY updated_at_ms DESC LIMIT ?`
	args = append(args, SearchLimit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, s.storageErr("search_relationships", err)
	}
	defer rows.Close()
	rels, err = scanRelationships(rows)
	if err != nil {
		return nil, s.storageErr("search_relationships", err)
	}
	return rels, nil
}

// DeleteRelationship removes a record by identity key; deleting an
// absent identity is a no-op.
func (s *Store) DeleteRelationship(ctx context.Context, userID, groupID, platform string) (err error) {
	started := time.Now()
	defer func() { s.observe("delete_relationship", started, err) }()

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM relationships WHERE user_id = ? AND group_id = ? AND platform = ?`,
		userID, groupID, platform)
	if err != nil {
		return s.storageErr("delete_relationship", err)
	}
	return nil
}

// ListRelationships returns a page of records, most recently updated
// first.
func (s *Store) ListRelationships(ctx context.Context, limit, offset int) (rels []memory.Relationship, err error) {
	started := time.Now()
	defer func() { s.observe("list_relationships", started, err) }()

	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+relationshipColumns+` FROM relationships ORDER BY updated_at_ms DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, s.storageErr("list_relationships", err)
	}
	defer rows.Close()
	rels, err = scanRelationships(rows)
	if err != nil {
		return nil, s.storageErr("list_relationships", err)
	}
	return rels, nil
}

// CountRelationships returns the total number of relationship records.
func (s *Store) CountRelationships(ctx context.Context) (count int64, err error) {
	started := time.Now()
	defer func() { s.observe("count_relationships", started, err) }()

	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM relationships`).Scan(&count); err != nil {
		return 0, s.storageErr("count_relationships", err)
	}
	return count, nil
}

func scanRelationships(rows *sql.Rows) ([]memory.Relationship, error) {
	rels := []memory.Relationship{}
	for rows.Next() {
		rel, err := scanRelationship(rows.Scan)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

func scanRelationship(scan func(dest ...any) error) (memory.Relationship, error) {
	var (
		rel       memory.Relationship
		aliases   string
		contexts  string
		updatedMs int64
	)
	err := scan(&rel.UserID, &rel.GroupID, &rel.Platform, &rel.Nickname, &aliases,
		&rel.RelationType, &rel.Intimacy, &rel.Tags, &rel.Summary, &rel.Remark,
		&rel.FirstMetTime, &rel.FirstMetLocation, &contexts, &updatedMs)
	if err != nil {
		return rel, err
	}
	if aliases != "" {
		if err := json.Unmarshal([]byte(aliases), &rel.Aliases); err != nil {
			rel.Aliases = []string{}
		}
	}
	if contexts != "" {
		if err := json.Unmarshal([]byte(contexts), &rel.KnownContexts); err != nil {
			rel.KnownContexts = []string{}
		}
	}
	if rel.Aliases == nil {
		rel.Aliases = []string{}
	}
	if rel.KnownContexts == nil {
		rel.KnownContexts = []string{}
	}
	rel.UpdatedAt = time.UnixMilli(updatedMs)
	return rel, nil
}
