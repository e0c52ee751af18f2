package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeConflict, "request already reviewed")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches code through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("approve: %w", New(CodeConflict, "request already reviewed"))
		assert.True(t, HasCode(err, CodeConflict))
	})

	t.Run("matches nested coded cause", func(t *testing.T) {
		inner := New(CodeInvariantViolation, "bad transition")
		err := Wrap(inner, CodeConflict, "cannot approve")
		assert.True(t, HasCode(err, CodeConflict))
		assert.True(t, HasCode(err, CodeInvariantViolation))
	})

	t.Run("plain error has no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "certificate store unavailable")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "certificate store unavailable: connection refused", err.Error())
}

func TestWithDetails(t *testing.T) {
	base := New(CodeConflict, "blocked")
	withDetails := base.WithDetails(map[string]int{"matches": 2})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]int{"matches": 2}, withDetails.Details)
	assert.Equal(t, CodeConflict, CodeOf(withDetails))
}
