package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewerError_IsMatchesKind(t *testing.T) {
	err := NewValidationError("password is required")

	require.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrIntegrity)
}

func TestViewerError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError("Failed to fetch deck data", cause)

	require.ErrorIs(t, err, ErrNetwork)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMessage(t *testing.T) {
	wrapped := fmt.Errorf("create: %w", NewIntegrityError("deck not found in API response"))

	assert.Equal(t, "deck not found in API response", Message(wrapped, "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("plain"), "fallback"))
	assert.Equal(t, "fallback", Message(nil, "fallback"))
}
