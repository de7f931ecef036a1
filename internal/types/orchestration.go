// Package types provides type definitions for structured data used throughout the buildermatch system.
package types

import "time"

// Phase is a state of the orchestration state machine
type Phase string

// Orchestration phases
const (
	PhasePlanning   Phase = "planning"
	PhaseExecuting  Phase = "executing"
	PhaseEvaluating Phase = "evaluating"
	PhaseRefining   Phase = "refining"
	PhaseComplete   Phase = "complete"
)

// OrchestrationState is owned by a single search run. Snapshots of it are
// written to the state sink for observability only.
type OrchestrationState struct {
	SessionID       string            `json:"session_id"`
	Query           string            `json:"query"`
	Phase           Phase             `json:"phase"`
	Plan            *SearchPlan       `json:"plan,omitempty"`
	ExecutionResult *ExecutionResult  `json:"execution_result,omitempty"`
	Evaluation      *EvaluationResult `json:"evaluation,omitempty"`
	RefinementCount int               `json:"refinement_count"`
	TotalIterations int               `json:"total_iterations"`
	Error           string            `json:"error,omitempty"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// Snapshot returns a copy safe to hand to another goroutine
func (s *OrchestrationState) Snapshot() *OrchestrationState {
	out := *s
	out.Plan = s.Plan.Clone()
	return &out
}

// Refinement records one refinement step for the reasoning trace
type Refinement struct {
	Iteration        int                    `json:"iteration"`
	Reason           string                 `json:"reason,omitempty"`
	Actions          []RefinementSuggestion `json:"actions"`
	ConfidenceBefore float64                `json:"confidence_before"`
}

// AgentReasoning is the full trace of how the results were produced
type AgentReasoning struct {
	Plan            *SearchPlan       `json:"plan"`
	ExecutionSteps  []ExecutionStep   `json:"execution_steps"`
	Evaluation      *EvaluationResult `json:"evaluation"`
	Refinements     []Refinement      `json:"refinements"`
	TotalIterations int               `json:"total_iterations"`
}

// ResultMetadata summarises a completed search
type ResultMetadata struct {
	TotalResults   int      `json:"total_results"`
	LatencyMs      int64    `json:"latency_ms"`
	ModelCallCount int      `json:"model_call_count"`
	SearchStrategy Approach `json:"search_strategy"`
}

// OrchestrationResult is returned to callers of a search
type OrchestrationResult struct {
	SessionID      string            `json:"session_id"`
	Query          string            `json:"query"`
	AgentReasoning AgentReasoning    `json:"agent_reasoning"`
	Results        []ScoredCandidate `json:"results"`
	Metadata       ResultMetadata    `json:"metadata"`
}
