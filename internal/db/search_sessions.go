package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/buildermatch/internal/types"
)

// UpsertSearchSession writes the latest orchestration snapshot for a session
func (db *DB) UpsertSearchSession(ctx context.Context, state *types.OrchestrationState) error {
	id, err := uuid.Parse(state.SessionID)
	if err != nil {
		return fmt.Errorf("invalid session id %q: %w", state.SessionID, err)
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO search_sessions (session_id, query, phase, refinement_count, total_iterations, error_message, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (session_id) DO UPDATE SET
		     phase = $3, refinement_count = $4, total_iterations = $5,
		     error_message = $6, state = $7, updated_at = NOW()`,
		id, state.Query, string(state.Phase), state.RefinementCount, state.TotalIterations, state.Error, stateJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert search session: %w", err)
	}
	return nil
}

// GetSearchSession returns the latest snapshot for a session, or nil if unknown
func (db *DB) GetSearchSession(ctx context.Context, sessionID string) (*types.OrchestrationState, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, nil
	}

	var stateJSON []byte
	err = db.pool.QueryRow(ctx,
		`SELECT state FROM search_sessions WHERE session_id = $1`,
		id,
	).Scan(&stateJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get search session: %w", err)
	}

	var state types.OrchestrationState
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &state, nil
}
