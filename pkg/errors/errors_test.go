package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	appErr := NotFound("review", "rev-123")

	assert.Contains(t, appErr.Error(), "NOT_FOUND")
	assert.Contains(t, appErr.Error(), "rev-123")
	assert.ErrorIs(t, appErr, ErrNotFound)
}

func TestInvalidStateTransition_MapsToConflict(t *testing.T) {
	appErr := InvalidStateTransition("cannot vote on a hidden review")

	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "INVALID_STATE_TRANSITION", appErr.Code)
	assert.ErrorIs(t, appErr, ErrInvalidStateTransition)
}

func TestSelfReport_IsStateTransitionError(t *testing.T) {
	appErr := SelfReport("rev-1")

	assert.Equal(t, "SELF_REPORT", appErr.Code)
	assert.ErrorIs(t, appErr, ErrInvalidStateTransition)
}

func TestAlreadyReported(t *testing.T) {
	appErr := AlreadyReported("rev-1")

	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.ErrorIs(t, appErr, ErrAlreadyReported)
}

func TestConcurrencyConflict_RetrySafeStatus(t *testing.T) {
	appErr := ConcurrencyConflict("per-review lock contention")

	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
	assert.ErrorIs(t, appErr, ErrConcurrencyConflict)
}

func TestHTTPStatus_Sentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrInvalidStateTransition, http.StatusConflict},
		{ErrAlreadyReported, http.StatusConflict},
		{ErrConcurrencyConflict, http.StatusServiceUnavailable},
		{fmt.Errorf("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err))
	}
}

func TestHTTPStatus_WrappedAppError(t *testing.T) {
	wrapped := Wrap(InvalidInput("rating must use 0.5 steps"), "submit review")
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(wrapped))
	assert.True(t, errors.Is(wrapped, ErrInvalidInput))
}
