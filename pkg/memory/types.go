package memory

import "time"

// Importance bounds for notes. Values outside the range are clamped,
// never rejected.
const (
	MinImportance     = 1
	MaxImportance     = 10
	DefaultImportance = 5
)

// Intimacy bounds for relationships. A fresh relationship starts at
// BaselineIntimacy before the first delta is applied.
const (
	MinIntimacy      = 0
	MaxIntimacy      = 100
	BaselineIntimacy = 50
)

// Note is a free-text memory entry. Notes are immutable once written;
// they are only ever created and deleted.
type Note struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`         // Owning user, empty if global
	SourcePlatform string    `json:"source_platform"` // e.g. "qq", "web"
	SourceContext  string    `json:"source_context"`  // e.g. group number, video ID
	Category       string    `json:"category"`
	Tags           string    `json:"tags"` // Comma-separated
	Content        string    `json:"content"`
	Importance     int       `json:"importance"` // Clamped to [1,10]
	CreatedAt      time.Time `json:"created_at"`
}

// Relationship is the agent's accumulated impression of a person.
// Identity is (UserID, GroupID, Platform); the qualifiers default to
// empty strings when a caller tracks users globally.
type Relationship struct {
	UserID           string    `json:"user_id"`
	GroupID          string    `json:"group_id"`
	Platform         string    `json:"platform"`
	Nickname         string    `json:"nickname"`
	Aliases          []string  `json:"aliases"` // Prior nicknames, append-only
	RelationType     string    `json:"relation_type"`
	Intimacy         int       `json:"intimacy"` // Clamped to [0,100]
	Tags             string    `json:"tags"`
	Summary          string    `json:"summary"` // Overwritten on update, not appended
	Remark           string    `json:"remark"`
	FirstMetTime     string    `json:"first_met_time"` // Free-form, caller supplied
	FirstMetLocation string    `json:"first_met_location"`
	KnownContexts    []string  `json:"known_contexts"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RelationshipUpdate carries the merge-upsert input for a relationship.
// Empty string fields keep the stored value; non-empty fields overwrite
// it. KnownContexts replaces the stored set only when non-nil.
// IntimacyDelta is always applied additively and the result clamped.
type RelationshipUpdate struct {
	UserID           string
	GroupID          string
	Platform         string
	Nickname         string
	RelationType     string
	Tags             string
	Summary          string
	Remark           string
	FirstMetTime     string
	FirstMetLocation string
	KnownContexts    []string
	IntimacyDelta    int
}

// Snapshot describes one backup file on disk.
type Snapshot struct {
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"mtime"`
}

// Stats summarizes the current state of the store for dashboards.
type Stats struct {
	Notes         int64 `json:"notes"`
	Relationships int64 `json:"relationships"`
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Page is the pagination envelope returned by listing endpoints.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewPage assembles a pagination envelope. Page numbers are 1-based;
// TotalPages is at least 1 even for an empty result set.
func NewPage[T any](items []T, total int64, page, limit int) Page[T] {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

// ClampImportance forces a note importance into [1,10].
func ClampImportance(v int) int {
	if v < MinImportance {
		return MinImportance
	}
	if v > MaxImportance {
		return MaxImportance
	}
	return v
}

// ClampIntimacy forces an intimacy score into [0,100].
func ClampIntimacy(v int) int {
	if v < MinIntimacy {
		return MinIntimacy
	}
	if v > MaxIntimacy {
		return MaxIntimacy
	}
	return v
}
