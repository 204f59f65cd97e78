package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to
	// another owner.
	ErrNotFound = errors.New("pitch not found")
	// ErrNoOwner is returned when an operation is called without an owner id.
	ErrNoOwner = errors.New("owner id is required")
)

// RepositoryError wraps a storage failure that survived all retries.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }
