package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidInputErrorMessage(t *testing.T) {
	err := NewInvalidInput("title", "exceeds 100 characters")
	assert.Contains(t, err.Error(), "title")
	assert.Contains(t, err.Error(), "exceeds 100 characters")

	anon := NewInvalidInput("", "unknown status name")
	assert.NotContains(t, anon.Error(), `field ""`)
}

func TestInvalidTransitionErrorMessage(t *testing.T) {
	err := NewInvalidTransition("t1", Completed, Queued)
	assert.Contains(t, err.Error(), "t1")
	assert.Contains(t, err.Error(), "completed")
	assert.Contains(t, err.Error(), "queued")
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := NewTimeoutError("t1", 30)
	assert.Contains(t, err.Error(), "t1")
	assert.Contains(t, err.Error(), "30")
}
