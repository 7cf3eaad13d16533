package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("failed to edit: %w", NewStatusError("edit", "b1", "sending"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "cannot edit broadcast b1 in status sending")
}

func TestPersistenceError(t *testing.T) {
	assert.NoError(t, Persistence("save guest", nil))

	cause := errors.New("disk full")
	err := Persistence("save guest", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsPersistence(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsPersistence(cause))
}
