package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	cases := []struct {
		in   any
		want Priority
	}{
		{Critical, Critical},
		{1, High},
		{int64(2), Normal},
		{float64(3), Low},
		{"low", Low},
		{"CRITICAL", Critical},
		{"2", Normal},
	}
	for _, c := range cases {
		got, err := ParsePriority(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestParsePriorityRejectsUnknown(t *testing.T) {
	_, err := ParsePriority("urgent")
	require.Error(t, err)
	var invalid *InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestParsePriorityOrdering(t *testing.T) {
	assert.Less(t, int(Critical), int(High))
	assert.Less(t, int(High), int(Normal))
	assert.Less(t, int(Normal), int(Low))
}
