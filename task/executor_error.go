package task

import (
	"errors"
	"fmt"
)

// ExecutorErrorMeta exposes correlation metadata for a failed execution
// attempt: which task, and which attempt (0 for the first try, incremented
// once per automatic retry). It generalizes the teacher library's
// TaskMetaError from a generic (id, slice-index) pair to a (task id,
// retry attempt) pair, which is what the retry state machine in §4.5.4
// actually needs to correlate.
type ExecutorErrorMeta interface {
	error
	Unwrap() error
	TaskID() string
	Attempt() int
}

// ExecutorError wraps any error returned by or panicking out of an
// Executor's ExecuteTask, tagging it with the owning task's id and the
// retry attempt number it occurred on. The scheduler never lets a raw
// executor error escape; it is always captured as one of these and mapped
// to a Failed transition.
type ExecutorError struct {
	err     error
	id      string
	attempt int
}

// NewExecutorError wraps err with task-correlation metadata. Returns nil if
// err is nil, so callers can write `return NewExecutorError(err, ...)` from
// a deferred recover without a nil check.
func NewExecutorError(err error, id string, attempt int) error {
	if err == nil {
		return nil
	}
	return &ExecutorError{err: err, id: id, attempt: attempt}
}

func (e *ExecutorError) Error() string {
	return fmt.Sprintf("%s: task %s attempt %d: %s", Namespace, e.id, e.attempt, e.err.Error())
}

func (e *ExecutorError) Unwrap() error { return e.err }

func (e *ExecutorError) TaskID() string { return e.id }

func (e *ExecutorError) Attempt() int { return e.attempt }

func (e *ExecutorError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "task(id=%s,attempt=%d): %+v", e.id, e.attempt, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractTaskID returns the task id carried by err, if any wrapped error
// in its chain implements ExecutorErrorMeta.
func ExtractTaskID(err error) (string, bool) {
	var meta ExecutorErrorMeta
	if errors.As(err, &meta) {
		return meta.TaskID(), true
	}
	return "", false
}

// ExtractAttempt returns the retry attempt number carried by err, if any
// wrapped error in its chain implements ExecutorErrorMeta.
func ExtractAttempt(err error) (int, bool) {
	var meta ExecutorErrorMeta
	if errors.As(err, &meta) {
		return meta.Attempt(), true
	}
	return 0, false
}
