package scheduler

import (
	"errors"
	"fmt"
)

// Namespace prefixes every error message produced by this package,
// matching the convention used by the task package's own Namespace.
const Namespace = "scheduler"

// ErrClosed is returned by operations attempted after Close has run.
var ErrClosed = errors.New(Namespace + ": scheduler is closed")

// ErrInvalidConfig is returned by New/NewOptions when the assembled
// Config fails validation.
var ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")

// NotFoundError reports that an id is not present in the heap, the
// active set, or the completed map (§7).
type NotFoundError struct {
	ID string
}

// NewNotFound builds a NotFoundError for id.
func NewNotFound(id string) error {
	return &NotFoundError{ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: task %q not found", Namespace, e.ID)
}
