package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"configuration", NewConfiguration("OPENROUTER_API_KEY is not configured"), ErrConfiguration, http.StatusInternalServerError},
		{"provider", NewProvider("openrouter", fmt.Errorf("boom")), ErrProvider, http.StatusBadGateway},
		{"invalid request", NewInvalidRequest("Project ID and prompt are required"), ErrInvalidRequest, http.StatusBadRequest},
		{"unauthorized", NewUnauthorized(), ErrUnauthorized, http.StatusUnauthorized},
		{"not found", NewNotFound("Project"), ErrNotFound, http.StatusNotFound},
		{"nothing to archive", NewNothingToArchive(), ErrNothingToArchive, http.StatusNotFound},
		{"transition", NewInvalidTransition("complete", "thinking"), ErrInvalidTransition, http.StatusConflict},
		{"internal", NewInternal(nil), ErrInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.True(t, Is(tt.err, tt.code))
		})
	}
}

func TestIsAndStatusOfSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("load project: %w", NewNotFound("Project"))

	assert.True(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(wrapped, ErrInternal))
	assert.Equal(t, http.StatusNotFound, StatusOf(wrapped))
	assert.Equal(t, "Project not found", MessageOf(wrapped))
}

func TestStatusOfPlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(fmt.Errorf("plain")))
	assert.Equal(t, "plain", MessageOf(fmt.Errorf("plain")))
	assert.False(t, Is(nil, ErrInternal))
}

func TestProviderUnwrapsCause(t *testing.T) {
	cause := fmt.Errorf("status 503")
	err := NewProvider("minimax", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "minimax", err.Details["provider"])
}
