package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"capsule-hq/capsule/pkg/memory"
)

const defaultPageLimit = 20

// setupRoutes configures HTTP routes and middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/notes", s.handleListNotes)
	mux.HandleFunc("POST /api/notes", s.handleCreateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", s.handleDeleteNote)
	mux.HandleFunc("GET /api/notes/search", s.handleSearchNotes)
	mux.HandleFunc("GET /api/notes/tags", s.handleListTags)
	mux.HandleFunc("GET /api/notes/categories", s.handleListCategories)

	mux.HandleFunc("GET /api/relationships", s.handleListRelationships)
	mux.HandleFunc("POST /api/relationships", s.handleUpsertRelationship)
	mux.HandleFunc("DELETE /api/relationships/{user}", s.handleDeleteRelationship)
	mux.HandleFunc("GET /api/relationships/search", s.handleSearchRelationships)

	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /api/backups", s.handleListBackups)
	mux.HandleFunc("POST /api/backups", s.handleCreateBackup)
	mux.HandleFunc("POST /api/backups/restore", s.handleRestoreBackup)
	mux.HandleFunc("DELETE /api/backups/{filename}", s.handleDeleteBackup)

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}

	var handler http.Handler = mux
	handler = LoggingMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	handler = RecoveryMiddleware(handler)
	return handler
}

func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	category := r.URL.Query().Get("category")

	notes, err := s.store.ListNotes(r.Context(), limit, (page-1)*limit, category)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	total, err := s.store.CountNotes(r.Context(), category)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memory.NewPage(notes, total, page, limit))
}

func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var n memory.Note
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id, err := s.store.WriteNote(r.Context(), n)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("note id must be an integer"))
		return
	}
	if err := s.store.DeleteNote(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (s *Server) handleSearchNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	notes, err := s.store.SearchNotes(r.Context(), q.Get("q"), q.Get("user_id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if notes == nil {
		notes = []memory.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":     notes,
		"full_text": s.store.FullTextEnabled(),
	})
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.ListTags(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (s *Server) handleListRelationships(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	rels, err := s.store.ListRelationships(r.Context(), limit, (page-1)*limit)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	total, err := s.store.CountRelationships(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, memory.NewPage(rels, total, page, limit))
}

// relationshipRequest mirrors RelationshipUpdate with JSON tags matching
// the stored Relationship fields, plus the additive intimacy delta.
type relationshipRequest struct {
	UserID           string   `json:"user_id"`
	GroupID          string   `json:"group_id"`
	Platform         string   `json:"platform"`
	Nickname         string   `json:"nickname"`
	RelationType     string   `json:"relation_type"`
	Tags             string   `json:"tags"`
	Summary          string   `json:"summary"`
	Remark           string   `json:"remark"`
	FirstMetTime     string   `json:"first_met_time"`
	FirstMetLocation string   `json:"first_met_location"`
	KnownContexts    []string `json:"known_contexts"`
	IntimacyDelta    int      `json:"intimacy_delta"`
}

func (s *Server) handleUpsertRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rel, err := s.store.UpsertRelationship(r.Context(), memory.RelationshipUpdate{
		UserID:           req.UserID,
		GroupID:          req.GroupID,
		Platform:         req.Platform,
		Nickname:         req.Nickname,
		RelationType:     req.RelationType,
		Tags:             req.Tags,
		Summary:          req.Summary,
		Remark:           req.Remark,
		FirstMetTime:     req.FirstMetTime,
		FirstMetLocation: req.FirstMetLocation,
		KnownContexts:    req.KnownContexts,
		IntimacyDelta:    req.IntimacyDelta,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

func (s *Server) handleDeleteRelationship(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := r.PathValue("user")
	if err := s.store.DeleteRelationship(r.Context(), userID, q.Get("group_id"), q.Get("platform")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": userID})
}

func (s *Server) handleSearchRelationships(w http.ResponseWriter, r *http.Request) {
	rels, err := s.store.SearchRelationships(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if rels == nil {
		rels = []memory.Relationship{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": rels})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.backups.List()
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if snaps == nil {
		snaps = []memory.Snapshot{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": snaps})
}

func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	snap, err := s.backups.Backup(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, errors.New("filename is required"))
		return
	}
	if err := s.backups.Restore(req.Filename); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"restored": req.Filename})
}

func (s *Server) handleDeleteBackup(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if err := s.backups.Delete(filename); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": filename})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// pageParams reads 1-based page and limit query parameters, falling
// back to page 1 and the default limit on absent or invalid values.
func pageParams(r *http.Request) (page, limit int) {
	q := r.URL.Query()
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = defaultPageLimit
	}
	return page, limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeStoreError maps store errors onto HTTP status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	var verr *memory.ValidationError
	switch {
	case errors.Is(err, memory.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
