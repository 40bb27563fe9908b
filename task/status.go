// Package task defines the unit of scheduled work: its data record, its
// status state machine, and the Executor contract used to run it.
package task

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the lifecycle state of a Task.
type Status int

const (
	// Pending is the initial state of every newly created Task.
	Pending Status = iota
	// Queued means the task is sitting in the scheduler's priority queue.
	Queued
	// Running means a worker currently owns the task and is executing it.
	Running
	// Completed is terminal: the task's executor returned successfully.
	Completed
	// Failed means the last attempt errored or timed out. A failed task
	// may be retried, which transitions it back to Queued.
	Failed
	// Cancelled is terminal: the task was cancelled by user request.
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseStatus normalizes a dynamic status value (string name, or an
// integer/integer-string value) into a Status. It returns InvalidInput
// on anything it cannot resolve to one of the six known states.
func ParseStatus(v any) (Status, error) {
	switch t := v.(type) {
	case Status:
		return t, nil
	case int:
		return statusFromInt(t)
	case int64:
		return statusFromInt(int(t))
	case float64:
		return statusFromInt(int(t))
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return statusFromInt(n)
		}
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "pending":
			return Pending, nil
		case "queued":
			return Queued, nil
		case "running":
			return Running, nil
		case "completed":
			return Completed, nil
		case "failed":
			return Failed, nil
		case "cancelled", "canceled":
			return Cancelled, nil
		}
		return 0, NewInvalidInput("", fmt.Sprintf("unknown status name %q", t))
	default:
		return 0, NewInvalidInput("", fmt.Sprintf("unsupported status value type %T", v))
	}
}

func statusFromInt(n int) (Status, error) {
	if n < int(Pending) || n > int(Cancelled) {
		return 0, NewInvalidInput("", fmt.Sprintf("status value %d out of range", n))
	}
	return Status(n), nil
}

// transitions is the allowed state-transition matrix. Any (from, to) pair
// absent from this set fails with InvalidTransition.
var transitions = map[Status]map[Status]bool{
	Pending:   {Queued: true, Cancelled: true},
	Queued:    {Running: true, Cancelled: true, Failed: true},
	Running:   {Completed: true, Failed: true, Cancelled: true},
	Failed:    {Queued: true},
	Completed: {},
	Cancelled: {},
}

func allowed(from, to Status) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	return next[to]
}
