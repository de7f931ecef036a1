package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/buildermatch/internal/executor"
	"github.com/jonathan/buildermatch/internal/orchestrator"
)

// ErrSessionNotFound indicates no snapshot exists for a session
type ErrSessionNotFound struct {
	SessionID string
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("search session not found: %s", e.SessionID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var notFound *ErrSessionNotFound
	var invalid *ErrValidation
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalid), errors.Is(err, orchestrator.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, executor.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
