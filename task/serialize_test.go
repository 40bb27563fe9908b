package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeConvertsProgressToPercent(t *testing.T) {
	tk, err := New(Params{Title: "t"})
	require.NoError(t, err)
	tk.UpdateProgress(0.3333)

	rec := Serialize(tk.Snapshot())
	assert.Equal(t, 33.33, rec.Progress)
	assert.Equal(t, "pending", rec.Status)
	assert.Equal(t, int(Normal), rec.Priority)
}

func TestDeserializeRejectsMissingTimezone(t *testing.T) {
	_, err := Deserialize(DeserializeInput{
		Status:    "pending",
		Priority:  "normal",
		CreatedAt: "2026-01-01T00:00:00",
		UpdatedAt: "2026-01-01T00:00:00",
	})
	require.Error(t, err)
	var invalid *InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestDeserializeAcceptsRFC3339(t *testing.T) {
	d, err := Deserialize(DeserializeInput{
		ID:          "abc",
		Title:       "hi",
		Status:      "queued",
		Priority:    1,
		CreatedAt:   "2026-01-01T00:00:00Z",
		UpdatedAt:   "2026-01-01T00:00:01Z",
	})
	require.NoError(t, err)
	assert.Equal(t, Queued, d.Status)
	assert.Equal(t, High, d.Priority)
	assert.True(t, d.UpdatedAt.After(d.CreatedAt))
}

func TestDeserializeRejectsOverlongFields(t *testing.T) {
	_, err := Deserialize(DeserializeInput{
		Title:     string(make([]byte, MaxTitleLen+1)),
		Status:    "pending",
		Priority:  "normal",
		CreatedAt: "2026-01-01T00:00:00Z",
		UpdatedAt: "2026-01-01T00:00:00Z",
	})
	require.Error(t, err)
}

func TestRoundTo2(t *testing.T) {
	assert.Equal(t, 33.33, roundTo2(33.333))
	assert.Equal(t, 0.0, roundTo2(0))
	assert.Equal(t, 100.0, roundTo2(100))
}

func TestParseTimestampWithZoneAcceptsNano(t *testing.T) {
	ts, err := parseTimestampWithZone("2026-01-01T00:00:00.123456789Z")
	require.NoError(t, err)
	assert.Equal(t, 2026, ts.Year())
}
