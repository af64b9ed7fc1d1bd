package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrSlotUnavailable, "slot taken")
	assert.True(t, errors.Is(err, ErrSlotUnavailable))
	assert.False(t, errors.Is(err, ErrEventInactive))
	assert.Equal(t, "slot taken", err.Message)
	assert.Equal(t, "time slot is no longer available", ErrSlotUnavailable.Message)
}

func TestClassification(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", Clone(ErrEventInactive, ""))
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsTransient(wrapped))

	assert.True(t, IsValidation(ErrInvalidInterval))
	assert.True(t, IsTransient(Wrap(errors.New("dial tcp"), ErrTransient.Code, ErrTransient.Status, "save failed")))
	assert.True(t, IsUnauthorized(ErrUnauthorized))
	assert.False(t, IsConflict(errors.New("plain")))
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Nil(t, FromError(nil))
}
