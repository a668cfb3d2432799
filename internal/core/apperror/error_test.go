package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsAppError_ThroughWrapping(t *testing.T) {
	base := NewInsufficientStock("p-1", 130, 124)
	wrapped := fmt.Errorf("issue stock: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInsufficientStock, appErr.Code)
	assert.Equal(t, int64(130), appErr.Details["requested"])
	assert.Equal(t, int64(124), appErr.Details["available"])
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(wrapped))
}

func TestHasCode(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("product", "x")))
	assert.True(t, IsConcurrentModification(fmt.Errorf("tx: %w", NewConcurrentModification("product", "x"))))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
}

func TestWithCause_UnwrapsToCause(t *testing.T) {
	cause := errors.New("serialization failure")
	err := NewConcurrentModification("product", "p-1").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "serialization failure")
}

func TestReversalUnsupported(t *testing.T) {
	err := NewReversalUnsupported("e-1", "ADJUSTMENT")
	assert.Equal(t, CodeReversalUnsupported, err.Code)
	assert.Equal(t, "ADJUSTMENT entry cannot be reverted", err.Message)
	assert.Equal(t, "e-1", err.Details["entry_id"])
}
