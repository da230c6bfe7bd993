package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // driver "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // driver "sqlite" (pure Go)

	"capsule-hq/capsule/pkg/memory"
)

// Supported SQLite driver names. The pure-Go driver is the default; the
// cgo driver is selectable for deployments that already link SQLite.
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

// Config contains configuration for the SQLite store.
type Config struct {
	// Driver selects the SQLite driver: "sqlite" (modernc, pure Go)
	// or "sqlite3" (mattn, cgo).
	Driver string

	// Path is the database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// MaxOpenConns bounds concurrent connections to the database file.
	// Default: 1 (single writer, matching SQLite's locking model)
	MaxOpenConns int
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() *Config {
	return &Config{
		Driver:       DriverModernc,
		Path:         "data/capsule.db",
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 1,
	}
}

// Observer receives per-operation timing signals. Implementations must
// be safe for concurrent use. A nil Observer disables instrumentation.
type Observer interface {
	ObserveOperation(operation string, err error, started time.Time)
}

// Store is the sole read/write interface over the notes and
// relationships tables.
//
// Every operation acquires a fresh connection from the pool and releases
// it before returning; no connection state is shared across calls, so a
// backup restore that swaps the underlying file is picked up by the next
// operation automatically.
type Store struct {
	db       *sql.DB
	config   *Config
	logger   *slog.Logger
	searcher noteSearcher
	obs      Observer
}

// NewStore opens (creating if absent) the storage file and idempotently
// applies the schema. Schema failures are logged and the store proceeds
// in a degraded state rather than failing the host process; only an
// unknown driver or an unopenable pool is fatal.
func NewStore(config *Config, obs Observer) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	logger := slog.Default().With("component", "memory.storage")

	if config.Driver != DriverModernc && config.Driver != DriverMattn {
		return nil, memory.NewStorageError(config.Driver, "open",
			fmt.Errorf("unknown sqlite driver %q", config.Driver))
	}

	if dir := filepath.Dir(config.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, memory.NewStorageError(config.Driver, "open", err)
		}
	}

	db, err := sql.Open(config.Driver, buildDSN(config))
	if err != nil {
		return nil, memory.NewStorageError(config.Driver, "open", err)
	}

	maxOpen := config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	// Zero idle connections keeps the per-operation connection model:
	// each call dials, uses, and releases its own connection.
	db.SetMaxIdleConns(0)

	s := &Store{
		db:     db,
		config: config,
		logger: logger,
		obs:    obs,
	}

	s.initSchema()

	logger.Info("sqlite store initialized",
		"path", config.Path,
		"driver", config.Driver,
		"full_text", s.FullTextEnabled(),
	)

	return s, nil
}

// buildDSN encodes WAL mode and the busy timeout into the DSN so every
// pooled connection picks them up, not just the first one. The two
// drivers spell pragma parameters differently.
func buildDSN(config *Config) string {
	busyMs := config.BusyTimeout.Milliseconds()
	if busyMs <= 0 {
		busyMs = 5000
	}
	path := config.Path
	if config.Driver == DriverMattn {
		return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL", path, busyMs)
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path, busyMs)
}

// initSchema applies the base schema and probes for FTS5. Base-schema
// failures leave the store degraded (every operation will surface the
// underlying error); a failed FTS probe only downgrades search to
// substring matching.
func (s *Store) initSchema() {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			s.logger.Error("schema statement failed, store may be degraded", "error", err)
		}
	}

	if _, err := s.db.Exec(insertSchemaVersion, SchemaVersion, time.Now().UnixMilli()); err != nil {
		s.logger.Error("failed to record schema version", "error", err)
	}

	s.searcher = &ftsSearcher{}
	for _, stmt := range ftsStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			s.logger.Warn("full-text search unavailable, falling back to substring matching", "error", err)
			s.searcher = &likeSearcher{}
			break
		}
	}
}

// FullTextEnabled reports whether note search is FTS5-backed.
func (s *Store) FullTextEnabled() bool {
	_, ok := s.searcher.(*ftsSearcher)
	return ok
}

// Path returns the storage file path.
func (s *Store) Path() string {
	return s.config.Path
}

// Checkpoint flushes the WAL into the main database file so a raw file
// copy of Path() captures all committed writes. The backup manager calls
// this before every snapshot.
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return memory.NewStorageError(s.config.Driver, "checkpoint", err)
	}
	return nil
}

// Stats returns record counts and the storage file size.
func (s *Store) Stats(ctx context.Context) (st memory.Stats, err error) {
	started := time.Now()
	defer func() { s.observe("stats", started, err) }()

	if st.Notes, err = s.CountNotes(ctx, ""); err != nil {
		return st, err
	}
	if st.Relationships, err = s.CountRelationships(ctx); err != nil {
		return st, err
	}
	if info, statErr := os.Stat(s.config.Path); statErr == nil {
		st.FileSizeBytes = info.Size()
	}
	return st, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return memory.NewStorageError(s.config.Driver, "close", err)
	}
	s.logger.Info("sqlite store closed")
	return nil
}

func (s *Store) observe(operation string, started time.Time, err error) {
	if s.obs != nil {
		s.obs.ObserveOperation(operation, err, started)
	}
}

func (s *Store) storageErr(operation string, err error) error {
	return memory.NewStorageError(s.config.Driver, operation, err)
}
