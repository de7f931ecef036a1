package orchestrator

import (
	"testing"

	"github.com/jonathan/buildermatch/internal/types"
	"github.com/stretchr/testify/assert"
)

func evaluatedState(iteration, refinements int, confidence float64, needsRefinement bool, count int) *types.OrchestrationState {
	builders := make([]types.ScoredCandidate, count)
	return &types.OrchestrationState{
		Phase:           types.PhaseEvaluating,
		TotalIterations: iteration,
		RefinementCount: refinements,
		ExecutionResult: &types.ExecutionResult{Builders: builders},
		Evaluation: &types.EvaluationResult{
			ConfidenceScore: confidence,
			NeedsRefinement: needsRefinement,
		},
	}
}

func TestNext(t *testing.T) {
	limits := DefaultLimits(10)

	tests := []struct {
		name  string
		state *types.OrchestrationState
		want  types.Phase
	}{
		{name: "planning executes", state: &types.OrchestrationState{Phase: types.PhasePlanning}, want: types.PhaseExecuting},
		{name: "executing evaluates", state: &types.OrchestrationState{Phase: types.PhaseExecuting}, want: types.PhaseEvaluating},
		{name: "refining executes", state: &types.OrchestrationState{Phase: types.PhaseRefining}, want: types.PhaseExecuting},
		{name: "complete stays complete", state: &types.OrchestrationState{Phase: types.PhaseComplete}, want: types.PhaseComplete},
		{name: "evaluating without evaluation completes", state: &types.OrchestrationState{Phase: types.PhaseEvaluating}, want: types.PhaseComplete},
		{name: "early exit on confident full first pass", state: evaluatedState(1, 0, 0.9, true, 10), want: types.PhaseComplete},
		{name: "confident but short of results completes", state: evaluatedState(1, 0, 0.9, true, 4), want: types.PhaseComplete},
		{name: "refines low confidence", state: evaluatedState(1, 0, 0.3, true, 0), want: types.PhaseRefining},
		{name: "refines second time", state: evaluatedState(2, 1, 0.3, true, 0), want: types.PhaseRefining},
		{name: "refinement cap reached", state: evaluatedState(3, 2, 0.3, true, 0), want: types.PhaseComplete},
		{name: "confident enough to stop", state: evaluatedState(1, 0, 0.7, true, 3), want: types.PhaseComplete},
		{name: "evaluator satisfied", state: evaluatedState(1, 0, 0.4, false, 3), want: types.PhaseComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := *tt.state
			assert.Equal(t, tt.want, Next(tt.state, limits))
			assert.Equal(t, before, *tt.state)
		})
	}
}

func TestNext_IterationsBounded(t *testing.T) {
	limits := DefaultLimits(10)
	state := &types.OrchestrationState{Phase: types.PhasePlanning}

	for steps := 0; state.Phase != types.PhaseComplete; steps++ {
		if steps > 20 {
			t.Fatal("state machine did not terminate")
		}
		state.Phase = Next(state, limits)
		switch state.Phase {
		case types.PhaseExecuting:
			state.TotalIterations++
			state.ExecutionResult = &types.ExecutionResult{}
		case types.PhaseEvaluating:
			state.Evaluation = &types.EvaluationResult{NeedsRefinement: true}
		case types.PhaseRefining:
			state.RefinementCount++
		}
	}
	assert.Equal(t, 3, state.TotalIterations)
	assert.Equal(t, 2, state.RefinementCount)
}
