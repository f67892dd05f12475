package board

import (
	"errors"
	"fmt"
	"strings"

	"taskboard/internal/model"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("task not found")
	ErrFetch      = errors.New("fetch failed")
	ErrSync       = errors.New("sync failed")
)

// ValidationError is detected locally and never reaches the network.
type ValidationError struct {
	Op     string
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%s: invalid input: %s", e.Op, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError is a miss in the local collection; no request was made.
type NotFoundError struct {
	Op     string
	TaskID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: task %q not in collection", e.Op, e.TaskID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FetchError wraps a failed read from a store (list tasks, get note).
type FetchError struct {
	Op      string
	OwnerID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s for owner %q: %v", e.Op, e.OwnerID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool {
	return target == ErrFetch
}

// SyncError wraps a failed remote mutation (create, update, delete).
type SyncError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *SyncError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s task %q: %v", e.Op, e.TaskID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

func (e *SyncError) Is(target error) bool {
	return target == ErrSync
}
