package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromErrorPassesThroughAppErrors(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := FromError(ErrNotFound)
	require.Equal(t, "NOT_FOUND", appErr.Code)
	require.Equal(t, http.StatusNotFound, appErr.StatusCode)

	wrapped := fmt.Errorf("loading friend: %w", ErrNotFound)
	appErr = FromError(wrapped)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	cause := errors.New("driver: connection reset")
	appErr := FromError(cause)
	require.Equal(t, ErrInternalServer.Code, appErr.Code)
	require.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	// The raw cause is retained for logging but kept out of the client message.
	require.Equal(t, "Internal server error", appErr.Message)
	require.ErrorIs(t, appErr, cause)
}

func TestWithInternalCopies(t *testing.T) {
	cause := errors.New("boom")
	withCause := ErrConflict.WithInternal(cause)

	require.NotSame(t, ErrConflict, withCause)
	require.Nil(t, ErrConflict.Internal)
	require.ErrorIs(t, withCause, cause)
	require.Contains(t, withCause.Error(), "boom")
}

func TestConstructors(t *testing.T) {
	bad := NewBadRequest("name is required")
	require.Equal(t, "BAD_REQUEST", bad.Code)
	require.Equal(t, http.StatusBadRequest, bad.StatusCode)
	require.Equal(t, "name is required", bad.Message)

	conflict := NewConflict("phone already registered")
	require.Equal(t, "CONFLICT", conflict.Code)
	require.Equal(t, http.StatusConflict, conflict.StatusCode)

	custom := New("TEAPOT", "short and stout", http.StatusTeapot)
	require.Equal(t, http.StatusTeapot, custom.StatusCode)
}
