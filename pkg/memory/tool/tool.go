package tool

import (
	"context"
	"fmt"
	"log/slog"

	"capsule-hq/capsule/pkg/memory"
)

// Store is the record-store surface the tool kit wraps.
type Store interface {
	WriteNote(ctx context.Context, n memory.Note) (int64, error)
	SearchNotes(ctx context.Context, query, userID string) ([]memory.Note, error)
	DeleteNote(ctx context.Context, id int64) error
	ListNotes(ctx context.Context, limit, offset int, category string) ([]memory.Note, error)
	UpsertRelationship(ctx context.Context, upd memory.RelationshipUpdate) (memory.Relationship, error)
	SearchRelationships(ctx context.Context, query string) ([]memory.Relationship, error)
	ListRelationships(ctx context.Context, limit, offset int) ([]memory.Relationship, error)
	DeleteRelationship(ctx context.Context, userID, groupID, platform string) error
}

// Backups is the snapshot surface the tool kit wraps.
type Backups interface {
	Backup(ctx context.Context) (memory.Snapshot, error)
	List() ([]memory.Snapshot, error)
	Restore(filename string) error
}

// Kit exposes the store and backup operations as agent-callable tools.
// Every method returns plain values and never an error: failures are
// logged and turned into a descriptive result message or an empty list,
// so the chat-bot layer can hand results straight back to the model.
type Kit struct {
	store   Store
	backups Backups
	logger  *slog.Logger
}

// NewKit creates a tool kit over the given store and backup manager.
// backups may be nil when backups are disabled; the backup tools then
// report that.
func NewKit(store Store, backups Backups) *Kit {
	return &Kit{
		store:   store,
		backups: backups,
		logger:  slog.Default().With("component", "tool"),
	}
}

// StoreNote writes a note and reports the assigned id.
func (k *Kit) StoreNote(ctx context.Context, n memory.Note) string {
	id, err := k.store.WriteNote(ctx, n)
	if err != nil {
		k.logger.Error("store note failed", "error", err)
		return fmt.Sprintf("failed to store note: %v", err)
	}
	k.logger.Info("note stored", "id", id, "category", n.Category)
	return fmt.Sprintf("note stored with id %d", id)
}

// SearchNotes returns matching notes, or the most recent notes when the
// query is empty. An underlying failure yields an empty list.
func (k *Kit) SearchNotes(ctx context.Context, query, userID string) []memory.Note {
	notes, err := k.store.SearchNotes(ctx, query, userID)
	if err != nil {
		k.logger.Error("search notes failed", "query", query, "error", err)
		return []memory.Note{}
	}
	return notes
}

// RecentNotes returns up to limit notes, newest and most important first.
func (k *Kit) RecentNotes(ctx context.Context, limit int) []memory.Note {
	notes, err := k.store.ListNotes(ctx, limit, 0, "")
	if err != nil {
		k.logger.Error("list notes failed", "error", err)
		return []memory.Note{}
	}
	return notes
}

// DeleteNote removes a note by id. Deleting an absent id succeeds.
func (k *Kit) DeleteNote(ctx context.Context, id int64) string {
	if err := k.store.DeleteNote(ctx, id); err != nil {
		k.logger.Error("delete note failed", "id", id, "error", err)
		return fmt.Sprintf("failed to delete note %d: %v", id, err)
	}
	return fmt.Sprintf("note %d deleted", id)
}

// UpdateRelationship merge-upserts a relationship and reports the
// resulting intimacy.
func (k *Kit) UpdateRelationship(ctx context.Context, upd memory.RelationshipUpdate) string {
	rel, err := k.store.UpsertRelationship(ctx, upd)
	if err != nil {
		k.logger.Error("update relationship failed", "user_id", upd.UserID, "error", err)
		return fmt.Sprintf("failed to update relationship for %s: %v", upd.UserID, err)
	}
	return fmt.Sprintf("relationship for %s updated, intimacy is now %d", rel.UserID, rel.Intimacy)
}

// SearchRelationships returns relationships matching the query, or all
// relationships when the query is empty.
func (k *Kit) SearchRelationships(ctx context.Context, query string) []memory.Relationship {
	rels, err := k.store.SearchRelationships(ctx, query)
	if err != nil {
		k.logger.Error("search relationships failed", "query", query, "error", err)
		return []memory.Relationship{}
	}
	return rels
}

// AllRelationships returns up to limit relationships, most recently
// updated first.
func (k *Kit) AllRelationships(ctx context.Context, limit int) []memory.Relationship {
	rels, err := k.store.ListRelationships(ctx, limit, 0)
	if err != nil {
		k.logger.Error("list relationships failed", "error", err)
		return []memory.Relationship{}
	}
	return rels
}

// DeleteRelationship removes a relationship by identity key. Deleting an
// absent identity succeeds.
func (k *Kit) DeleteRelationship(ctx context.Context, userID, groupID, platform string) string {
	if err := k.store.DeleteRelationship(ctx, userID, groupID, platform); err != nil {
		k.logger.Error("delete relationship failed", "user_id", userID, "error", err)
		return fmt.Sprintf("failed to delete relationship for %s: %v", userID, err)
	}
	return fmt.Sprintf("relationship for %s deleted", userID)
}

// Backup creates a snapshot and reports its filename.
func (k *Kit) Backup(ctx context.Context) string {
	if k.backups == nil {
		return "backups are disabled"
	}
	snap, err := k.backups.Backup(ctx)
	if err != nil {
		k.logger.Error("backup failed", "error", err)
		return fmt.Sprintf("backup failed: %v", err)
	}
	return fmt.Sprintf("backup created: %s", snap.Filename)
}

// ListBackups enumerates retained snapshots, newest first.
func (k *Kit) ListBackups() []memory.Snapshot {
	if k.backups == nil {
		return []memory.Snapshot{}
	}
	snaps, err := k.backups.List()
	if err != nil {
		k.logger.Error("list backups failed", "error", err)
		return []memory.Snapshot{}
	}
	return snaps
}

// Restore replaces the live storage file with the named snapshot.
// Restoring a missing snapshot reports a failure rather than silently
// succeeding.
func (k *Kit) Restore(filename string) string {
	if k.backups == nil {
		return "backups are disabled"
	}
	if err := k.backups.Restore(filename); err != nil {
		k.logger.Error("restore failed", "filename", filename, "error", err)
		return fmt.Sprintf("restore of %s failed: %v", filename, err)
	}
	return fmt.Sprintf("restored from %s", filename)
}
