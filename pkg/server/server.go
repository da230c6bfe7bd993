package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"capsule-hq/capsule/pkg/config"
	"capsule-hq/capsule/pkg/memory"
)

// RecordStore is the store surface the admin API serves.
type RecordStore interface {
	WriteNote(ctx context.Context, n memory.Note) (int64, error)
	SearchNotes(ctx context.Context, query, userID string) ([]memory.Note, error)
	DeleteNote(ctx context.Context, id int64) error
	ListNotes(ctx context.Context, limit, offset int, category string) ([]memory.Note, error)
	CountNotes(ctx context.Context, category string) (int64, error)
	ListTags(ctx context.Context) ([]string, error)
	ListCategories(ctx context.Context) ([]string, error)
	UpsertRelationship(ctx context.Context, upd memory.RelationshipUpdate) (memory.Relationship, error)
	SearchRelationships(ctx context.Context, query string) ([]memory.Relationship, error)
	ListRelationships(ctx context.Context, limit, offset int) ([]memory.Relationship, error)
	CountRelationships(ctx context.Context) (int64, error)
	DeleteRelationship(ctx context.Context, userID, groupID, platform string) error
	Stats(ctx context.Context) (memory.Stats, error)
	FullTextEnabled() bool
}

// BackupManager is the snapshot surface the admin API serves.
type BackupManager interface {
	Backup(ctx context.Context) (memory.Snapshot, error)
	List() ([]memory.Snapshot, error)
	Restore(filename string) error
	Delete(filename string) error
}

// Server is the admin HTTP server for the memory store.
type Server struct {
	config       *config.ServerConfig
	store        RecordStore
	backups      BackupManager
	metrics      http.Handler
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new admin server. The metrics handler may be nil,
// in which case the /metrics route is not registered.
func NewServer(cfg *config.ServerConfig, store RecordStore, backups BackupManager, metrics http.Handler) *Server {
	return &Server{
		config:       cfg,
		store:        store,
		backups:      backups,
		metrics:      metrics,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting admin server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("admin server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
