package server

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/jonathan/buildermatch/internal/executor"
	"github.com/jonathan/buildermatch/internal/orchestrator"
	"github.com/stretchr/testify/assert"
)

func TestErrSessionNotFound(t *testing.T) {
	err := &ErrSessionNotFound{SessionID: "abc"}
	assert.Equal(t, "search session not found: abc", err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "query", Message: "is required"}
	assert.Equal(t, "validation error: query - is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "ErrSessionNotFound",
			err:      &ErrSessionNotFound{SessionID: "x"},
			expected: http.StatusNotFound,
		},
		{
			name:     "wrapped ErrValidation",
			err:      fmt.Errorf("decode: %w", &ErrValidation{Field: "max_results", Message: "too large"}),
			expected: http.StatusBadRequest,
		},
		{
			name:     "empty query",
			err:      orchestrator.ErrEmptyQuery,
			expected: http.StatusBadRequest,
		},
		{
			name:     "store unavailable",
			err:      fmt.Errorf("search iteration 1 failed: %w", executor.ErrStoreUnavailable),
			expected: http.StatusServiceUnavailable,
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("search: %w", context.DeadlineExceeded),
			expected: http.StatusGatewayTimeout,
		},
		{
			name:     "Unknown error",
			err:      assert.AnError,
			expected: http.StatusInternalServerError,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
