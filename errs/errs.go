package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// ValidationError rejects a request before anything is persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// PartialWriteError means the mirror write failed after the primary write
// succeeded, and the primary write was rolled back. The caller may retry the
// whole operation.
type PartialWriteError struct {
	ListingID string
	UserID    string
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write for listing %s / user %s rolled back: %v", e.ListingID, e.UserID, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

// DesyncError means the rollback itself failed. The two sides of the save
// index disagree for this (listing, user) pair and need manual repair; no
// amount of caller retries will fix it.
type DesyncError struct {
	ListingID string
	UserID    string
	Err       error
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("save index desynced for listing %s / user %s: %v", e.ListingID, e.UserID, e.Err)
}

func (e *DesyncError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
