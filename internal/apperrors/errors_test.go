package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("delete entity: %w", NewConflictError(ConflictEntityInUse, 42, "entity is referenced"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))

	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	require.NotNil(t, ce.TransactionID)
	assert.Equal(t, int64(42), *ce.TransactionID)
	assert.Equal(t, ConflictEntityInUse, ce.Kind)
}

func TestConflictErrorWithoutTransaction(t *testing.T) {
	ce := NewConflictError(ConflictTagInUse, 0, "tag has children")
	assert.Nil(t, ce.TransactionID)
	assert.Equal(t, "tag_in_use: tag has children", ce.Error())
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewAppError(500, "failed to begin transaction", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, ErrInternal))
	assert.Equal(t, "failed to begin transaction: connection reset", err.Error())

	notInternal := NewAppError(400, "bad input", nil)
	assert.False(t, errors.Is(notInternal, ErrInternal))
}
