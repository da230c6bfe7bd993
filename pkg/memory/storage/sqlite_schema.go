package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// schemaStatements creates the base tables and indexes. Statements are
// executed one at a time so both SQLite drivers behave identically, and
// every statement is idempotent so the schema can be re-applied on each
// process start without destroying data.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL DEFAULT '',
		source_platform TEXT NOT NULL DEFAULT '',
		source_context TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		importance INTEGER NOT NULL DEFAULT 5,
		created_at_ms INTEGER NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS relationships (
		user_id TEXT NOT NULL,
		group_id TEXT NOT NULL DEFAULT '',
		platform TEXT NOT NULL DEFAULT '',
		nickname TEXT NOT NULL DEFAULT '',
		aliases TEXT NOT NULL DEFAULT '[]',
		relation_type TEXT NOT NULL DEFAULT '',
		intimacy INTEGER NOT NULL DEFAULT 50,
		tags TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		remark TEXT NOT NULL DEFAULT '',
		first_met_time TEXT NOT NULL DEFAULT '',
		first_met_location TEXT NOT NULL DEFAULT '',
		known_contexts TEXT NOT NULL DEFAULT '[]',
		updated_at_ms INTEGER NOT NULL,
		PRIMARY KEY (user_id, group_id, platform)
	);`,

	`CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_notes_category ON notes(category);`,
	`CREATE INDEX IF NOT EXISTS idx_notes_rank ON notes(importance DESC, created_at_ms DESC);`,

	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at_ms INTEGER NOT NULL
	);`,
}

// ftsStatements creates the full-text shadow structures over notes. The
// triggers keep notes_fts in sync atomically with the base-table write.
// Applying these doubles as the FTS5 capability probe: if the runtime
// lacks the fts5 module the first statement fails and search falls back
// to substring matching.
var ftsStatements = []string{
	`CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(content, tags, category);`,

	`CREATE TRIGGER IF NOT EXISTS notes_fts_insert AFTER INSERT ON notes BEGIN
		INSERT INTO notes_fts(rowid, content, tags, category)
		VALUES (new.id, new.content, new.tags, new.category);
	END;`,

	`CREATE TRIGGER IF NOT EXISTS notes_fts_update AFTER UPDATE ON notes BEGIN
		UPDATE notes_fts SET content = new.content, tags = new.tags, category = new.category
		WHERE rowid = old.id;
	END;`,

	`CREATE TRIGGER IF NOT EXISTS notes_fts_delete AFTER DELETE ON notes BEGIN
		DELETE FROM notes_fts WHERE rowid = old.id;
	END;`,
}

// insertSchemaVersion records the schema version on first creation.
const insertSchemaVersion = `
INSERT INTO schema_version (version, applied_at_ms)
VALUES (?, ?)
ON CONFLICT(version) DO NOTHING;
`

const noteColumns = `id, user_id, source_platform, source_context, category, tags, content, importance, created_at_ms`

const relationshipColumns = `user_id, group_id, platform, nickname, aliases, relation_type, intimacy, tags, summary, remark, first_met_time, first_met_location, known_contexts, updated_at_ms`
