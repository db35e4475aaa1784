package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *EngineError
		expected string
	}{
		{
			name:     "without wrapped error",
			err:      ErrUnknownVariable("points"),
			expected: "UNKNOWN_VARIABLE: unknown variable: points",
		},
		{
			name:     "with wrapped error",
			err:      ErrDatabaseError("insert level", errors.New("connection refused")),
			expected: "DATABASE_ERROR: database error during insert level: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestEngineError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := ErrDatabaseError("query", inner)

	assert.True(t, errors.Is(err, inner))
	assert.Nil(t, ErrConflict("duplicate level").Unwrap())
}

func TestHasCode(t *testing.T) {
	conflict := ErrConflict("level already awarded")

	assert.True(t, HasCode(conflict, ErrCodeConflict))
	assert.False(t, HasCode(conflict, ErrCodeDatabaseError))
	assert.False(t, HasCode(nil, ErrCodeConflict))

	// Wrapped one level deep with %w.
	wrapped := fmt.Errorf("evaluate: %w", conflict)
	assert.True(t, HasCode(wrapped, ErrCodeConflict))

	assert.False(t, HasCode(errors.New("plain"), ErrCodeConflict))
}

func TestErrPermissionDenied(t *testing.T) {
	err := ErrPermissionDenied("points", 42)
	assert.Equal(t, ErrCodePermissionDenied, err.Code)
	assert.Contains(t, err.Message, `"points"`)
	assert.Contains(t, err.Message, "42")
}
