package task

import (
	"fmt"
	"strconv"
	"strings"
)

// Priority orders tasks in the scheduler's queue. Lower values dequeue
// first; Critical always wins over Low.
type Priority int

const (
	Critical Priority = iota
	High
	Normal
	Low
)

func (p Priority) String() string {
	switch p {
	case Critical:
		return "critical"
	case High:
		return "high"
	case Normal:
		return "normal"
	case Low:
		return "low"
	default:
		return "unknown"
	}
}

// ParsePriority normalizes an integer, integer-valued string, or enum name
// into a Priority, returning InvalidInput on anything else.
func ParsePriority(v any) (Priority, error) {
	switch t := v.(type) {
	case Priority:
		return t, nil
	case int:
		return priorityFromInt(t)
	case int64:
		return priorityFromInt(int(t))
	case float64:
		return priorityFromInt(int(t))
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return priorityFromInt(n)
		}
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "critical":
			return Critical, nil
		case "high":
			return High, nil
		case "normal":
			return Normal, nil
		case "low":
			return Low, nil
		}
		return 0, NewInvalidInput("priority", fmt.Sprintf("unknown priority name %q", t))
	default:
		return 0, NewInvalidInput("priority", fmt.Sprintf("unsupported priority value type %T", v))
	}
}

func priorityFromInt(n int) (Priority, error) {
	if n < int(Critical) || n > int(Low) {
		return 0, NewInvalidInput("priority", fmt.Sprintf("priority value %d out of range", n))
	}
	return Priority(n), nil
}
