package task

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutorErrorNilPassthrough(t *testing.T) {
	assert.Nil(t, NewExecutorError(nil, "t1", 0))
}

func TestExecutorErrorWrapsAndUnwraps(t *testing.T) {
	base := errors.New("boom")
	err := NewExecutorError(base, "t1", 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "t1")
	assert.Contains(t, err.Error(), "boom")
}

func TestExtractTaskIDAndAttempt(t *testing.T) {
	err := NewExecutorError(errors.New("boom"), "t1", 3)

	id, ok := ExtractTaskID(err)
	require.True(t, ok)
	assert.Equal(t, "t1", id)

	attempt, ok := ExtractAttempt(err)
	require.True(t, ok)
	assert.Equal(t, 3, attempt)
}

func TestExtractTaskIDMissing(t *testing.T) {
	_, ok := ExtractTaskID(errors.New("plain"))
	assert.False(t, ok)
}
