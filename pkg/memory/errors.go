package memory

import (
	"errors"
	"fmt"
)

// ErrNotFound marks benign not-found conditions, e.g. reading a
// relationship that was never created. Deletes never return it; they
// are idempotent.
var ErrNotFound = errors.New("record not found")

// ValidationError reports input rejected before any storage access.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [field=%s]: %s", e.Field, e.Reason)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// StorageError represents an error from the storage backend.
type StorageError struct {
	Driver    string // SQLite driver name ("sqlite", "sqlite3")
	Operation string // Operation that failed ("write_note", "search_notes", etc.)
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [driver=%s, operation=%s]: %v", e.Driver, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(driver, operation string, cause error) *StorageError {
	return &StorageError{Driver: driver, Operation: operation, Cause: cause}
}

// BackupError represents a failure in the backup subsystem.
type BackupError struct {
	Operation string // "backup", "restore", "cleanup", "list"
	Filename  string // Snapshot involved, if any
	Cause     error
}

// Error implements the error interface.
func (e *BackupError) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("backup error [operation=%s, file=%s]: %v", e.Operation, e.Filename, e.Cause)
	}
	return fmt.Sprintf("backup error [operation=%s]: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *BackupError) Unwrap() error {
	return e.Cause
}

// NewBackupError creates a new BackupError.
func NewBackupError(operation, filename string, cause error) *BackupError {
	return &BackupError{Operation: operation, Filename: filename, Cause: cause}
}
