// Package storage implements the SQLite-backed record store for notes
// and relationships, including idempotent schema management and
// full-text indexing.
//
// # Schema Management
//
// Opening a store applies the schema with CREATE ... IF NOT EXISTS on
// every start: the notes and relationships tables, their secondary
// indexes, the notes_fts FTS5 shadow table, and the triggers that mirror
// note writes into it. If the runtime lacks the FTS5 module, the store
// logs the failure and search degrades to substring matching; no schema
// failure is fatal to the host process.
//
// # Connection Model
//
// Each operation acquires a fresh connection from the pool and releases
// it before returning. The pool keeps no idle connections, so nothing is
// shared across calls and a backup restore of the underlying file is
// visible to the very next operation. Serialization of concurrent
// writers is left to SQLite's own locking (WAL mode, busy timeout).
//
// # Drivers
//
// Two SQLite drivers are registered: modernc.org/sqlite ("sqlite", pure
// Go, the default) and mattn/go-sqlite3 ("sqlite3", cgo). The driver is
// selected by configuration; behavior is identical apart from FTS5
// availability, which is probed at startup.
package storage
