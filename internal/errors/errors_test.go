package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("invalid limit", "limit must be positive")
	require.NotNil(t, err)

	assert.Equal(t, "[VALIDATION] invalid limit", err.Error())
	assert.Equal(t, CategoryValidation, err.Category)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("builder", "b-123")
	require.NotNil(t, err)

	assert.Equal(t, CategoryNotFound, err.Category)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.Contains(t, err.Msg, "builder not found")
}

func TestRateLimitError(t *testing.T) {
	err := NewRateLimitError("900")
	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus)
	assert.Equal(t, CategoryRateLimit, err.Category)
}

func TestCustomBuilder(t *testing.T) {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("custom message")

	err := NewAppError(builder, CategoryValidation, http.StatusBadRequest)
	require.NotNil(t, err)
	assert.Equal(t, "custom message", err.Msg)
}

func TestToAppError(t *testing.T) {
	t.Run("passthrough", func(t *testing.T) {
		orig := NewValidationError("bad input")
		assert.Same(t, orig, ToAppError(orig))
	})

	t.Run("no rows maps to not found", func(t *testing.T) {
		err := ToAppError(fmt.Errorf("load builder: %w", sql.ErrNoRows))
		assert.Equal(t, CategoryNotFound, err.Category)
	})

	t.Run("connection refused maps to network", func(t *testing.T) {
		err := ToAppError(fmt.Errorf("dial tcp: connection refused"))
		assert.Equal(t, CategoryNetwork, err.Category)
	})

	t.Run("unknown maps to internal", func(t *testing.T) {
		err := ToAppError(fmt.Errorf("something odd"))
		assert.Equal(t, CategoryInternal, err.Category)
	})
}

func TestRetryability(t *testing.T) {
	networkErr := NewNetworkError("connection failed", fmt.Errorf("connection refused"))

	assert.True(t, IsRetryableError(networkErr))
	assert.False(t, IsRetryableError(NewValidationError("bad input")))
	assert.False(t, IsRetryableError(NewNotFoundError("delivery", "d-1")))

	assert.Greater(t, GetRetryDelay(networkErr, 1), time.Duration(0))
}
