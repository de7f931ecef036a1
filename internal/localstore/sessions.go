package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonathan/buildermatch/internal/types"
)

// UpsertSearchSession writes the latest orchestration snapshot for a session
func (s *Store) UpsertSearchSession(ctx context.Context, state *types.OrchestrationState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO search_sessions (session_id, query, phase, refinement_count, total_iterations, error_message, state)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			phase = excluded.phase, refinement_count = excluded.refinement_count,
			total_iterations = excluded.total_iterations, error_message = excluded.error_message,
			state = excluded.state, updated_at = CURRENT_TIMESTAMP`,
		state.SessionID, state.Query, string(state.Phase), state.RefinementCount, state.TotalIterations,
		state.Error, string(stateJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert search session: %w", err)
	}
	return nil
}

// GetSearchSession returns the latest snapshot for a session, or nil if unknown
func (s *Store) GetSearchSession(ctx context.Context, sessionID string) (*types.OrchestrationState, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM search_sessions WHERE session_id = ?`, sessionID,
	).Scan(&stateJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get search session: %w", err)
	}

	var state types.OrchestrationState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &state, nil
}
