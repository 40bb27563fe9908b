package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   any
		want Status
	}{
		{Queued, Queued},
		{2, Running},
		{int64(3), Completed},
		{float64(4), Failed},
		{"failed", Failed},
		{"FAILED", Failed},
		{"cancelled", Cancelled},
		{"canceled", Cancelled},
		{"0", Pending},
	}
	for _, c := range cases {
		got, err := ParseStatus(c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestParseStatusRejectsUnknown(t *testing.T) {
	_, err := ParseStatus("not-a-status")
	require.Error(t, err)
	var invalid *InvalidInputError
	assert.ErrorAs(t, err, &invalid)
}

func TestParseStatusRejectsOutOfRangeInt(t *testing.T) {
	_, err := ParseStatus(99)
	assert.Error(t, err)
}

func TestAllowedTransitions(t *testing.T) {
	assert.True(t, allowed(Pending, Queued))
	assert.True(t, allowed(Queued, Running))
	assert.True(t, allowed(Running, Completed))
	assert.True(t, allowed(Failed, Queued))
	assert.False(t, allowed(Completed, Queued))
	assert.False(t, allowed(Cancelled, Running))
	assert.False(t, allowed(Pending, Running))
}
