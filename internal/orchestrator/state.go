package orchestrator

import "github.com/jonathan/buildermatch/internal/types"

// Limits bound the refinement loop
type Limits struct {
	// MaxRefinements caps refinement passes; total iterations are MaxRefinements+1
	MaxRefinements int
	// MaxResults is the result count an early exit requires
	MaxResults int
	// EarlyExitConfidence ends the run after the first evaluation when met with a full result set
	EarlyExitConfidence float64
	// RefineBelowConfidence is the confidence under which refinement is allowed
	RefineBelowConfidence float64
}

// DefaultLimits returns the standard loop bounds for maxResults
func DefaultLimits(maxResults int) Limits {
	return Limits{
		MaxRefinements:        2,
		MaxResults:            maxResults,
		EarlyExitConfidence:   0.85,
		RefineBelowConfidence: 0.7,
	}
}

// Next returns the phase that follows state. It reads state and never mutates it.
func Next(state *types.OrchestrationState, limits Limits) types.Phase {
	switch state.Phase {
	case types.PhasePlanning:
		return types.PhaseExecuting
	case types.PhaseExecuting:
		return types.PhaseEvaluating
	case types.PhaseRefining:
		return types.PhaseExecuting
	case types.PhaseEvaluating:
		eval := state.Evaluation
		if eval == nil {
			return types.PhaseComplete
		}
		if state.TotalIterations == 1 && eval.ConfidenceScore >= limits.EarlyExitConfidence &&
			resultCount(state) >= limits.MaxResults {
			return types.PhaseComplete
		}
		if eval.NeedsRefinement && state.RefinementCount < limits.MaxRefinements &&
			eval.ConfidenceScore < limits.RefineBelowConfidence {
			return types.PhaseRefining
		}
		return types.PhaseComplete
	}
	return types.PhaseComplete
}

func resultCount(state *types.OrchestrationState) int {
	if state.ExecutionResult == nil {
		return 0
	}
	return len(state.ExecutionResult.Builders)
}
