package errors

import (
	"database/sql"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("upload: %w", ErrInvalidCategory)

	appErr := FromError(wrapped)

	require.NotNil(t, appErr)
	assert.Equal(t, "INVALID_CATEGORY", appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestFromErrorWrapsUnknownAsInternal(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestCloneOverridesMessageOnly(t *testing.T) {
	clone := Clone(ErrValidation, "file is required")

	assert.Equal(t, "file is required", clone.Message)
	assert.Equal(t, ErrValidation.Code, clone.Code)
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.True(t, Is(clone, ErrValidation))
	assert.False(t, Is(clone, ErrNotFound))
}

func TestWithDetailsCopies(t *testing.T) {
	details := map[string]string{"status": "must be one of verified rejected"}

	appErr := ErrValidation.WithDetails(details)
	details["status"] = "changed"

	assert.Equal(t, "must be one of verified rejected", appErr.Details["status"])
	assert.Nil(t, ErrValidation.Details)
	assert.True(t, Is(appErr, ErrValidation))
}
