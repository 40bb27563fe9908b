package task

import (
	"time"
)

// Record is the wire/serialization form of a Task (§6 of SPEC_FULL.md).
// Progress is carried as a 0-100 percent value with two decimal places;
// converting a fraction back on Deserialize is the caller's responsibility,
// matching the spec's explicit deferral of that conversion.
type Record struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Progress      float64 `json:"progress"`
	QueuePosition *int    `json:"queue_position"`
	QueueTotal    *int    `json:"queue_total"`
	Status        string  `json:"status"`
	Priority      int     `json:"priority"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// Serialize converts a Snapshot into its wire Record. Progress is expressed
// as a percentage (fraction * 100) rounded to two decimal places.
func Serialize(s Snapshot) Record {
	var total *int
	if s.QueuePosition != nil {
		v := s.QueueTotal
		total = &v
	}
	percent := roundTo2(s.Progress * 100)
	return Record{
		ID:            s.ID,
		Title:         s.Title,
		Description:   s.Description,
		Progress:      percent,
		QueuePosition: s.QueuePosition,
		QueueTotal:    total,
		Status:        s.Status.String(),
		Priority:      int(s.Priority),
		CreatedAt:     s.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func roundTo2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}

// DeserializeInput is the subset of a Record needed to reconstruct a Task's
// identity-bearing fields. Status and priority accept a name-string or an
// integer value (ParseStatus/ParsePriority handle both); timestamps MUST
// carry a timezone offset or this returns InvalidInputError.
type DeserializeInput struct {
	ID          string
	Title       string
	Description string
	Status      any
	Priority    any
	CreatedAt   string
	UpdatedAt   string
}

// Deserialized is the result of parsing a Record: plain fields plus the
// normalized Status/Priority and parsed timestamps, ready to feed into a
// reconstructed Task.
type Deserialized struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Deserialize validates and normalizes a DeserializeInput. Timestamps
// without a timezone offset are rejected with InvalidInputError, per §6.
func Deserialize(in DeserializeInput) (Deserialized, error) {
	status, err := ParseStatus(in.Status)
	if err != nil {
		return Deserialized{}, err
	}
	priority, err := ParsePriority(in.Priority)
	if err != nil {
		return Deserialized{}, err
	}
	createdAt, err := parseTimestampWithZone(in.CreatedAt)
	if err != nil {
		return Deserialized{}, NewInvalidInput("created_at", err.Error())
	}
	updatedAt, err := parseTimestampWithZone(in.UpdatedAt)
	if err != nil {
		return Deserialized{}, NewInvalidInput("updated_at", err.Error())
	}
	if len(in.Title) > MaxTitleLen {
		return Deserialized{}, NewInvalidInput("title", "exceeds 100 characters")
	}
	if len(in.Description) > MaxDescriptionLen {
		return Deserialized{}, NewInvalidInput("description", "exceeds 500 characters")
	}
	return Deserialized{
		ID:          in.ID,
		Title:       in.Title,
		Description: in.Description,
		Status:      status,
		Priority:    priority,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// parseTimestampWithZone parses s as RFC3339. Both RFC3339 and RFC3339Nano
// require a "Z" or "+hh:mm"/"-hh:mm" offset in the literal string, so a
// bare local-time string (no zone) is rejected by the format itself.
func parseTimestampWithZone(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
