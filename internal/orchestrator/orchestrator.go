// Package orchestrator drives a builder search through planning, retrieval,
// evaluation and bounded refinement, and reports the best generation it saw.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/buildermatch/internal/evaluator"
	"github.com/jonathan/buildermatch/internal/executor"
	"github.com/jonathan/buildermatch/internal/llm"
	"github.com/jonathan/buildermatch/internal/planner"
	"github.com/jonathan/buildermatch/internal/types"
)

// ErrEmptyQuery is returned when the query is blank after trimming
var ErrEmptyQuery = errors.New("query is required")

// Result count bounds
const (
	DefaultMaxResults = 10
	MaxResultsLimit   = 100
)

// Options are per-search caller inputs
type Options struct {
	MaxResults  int
	Filters     *types.SearchFilters
	RequesterID string
	PlanContext *planner.PlanContext
	// OnPhase, when set, receives a snapshot as each phase begins
	OnPhase func(state *types.OrchestrationState)
}

// Config wires the orchestrator's collaborators
type Config struct {
	Client       llm.Client
	Store        executor.CandidateStore
	Embedder     executor.Embedder
	Sink         StateSink
	Executor     executor.Config
	ModelTimeout time.Duration
	// Limits overrides the loop bounds; MaxResults is always taken from Options
	Limits *Limits
	Now    func() time.Time
}

// Orchestrator runs searches. It holds no per-search state and is safe for concurrent use.
type Orchestrator struct {
	cfg Config
}

// New creates an Orchestrator
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("candidate store is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{cfg: cfg}, nil
}

// generation is one executed and evaluated iteration
type generation struct {
	plan   *types.SearchPlan
	result *types.ExecutionResult
	eval   *types.EvaluationResult
}

// OrchestrateSearch runs one search to completion. Only an unreachable
// candidate store (or cancellation) fails the run.
func (o *Orchestrator) OrchestrateSearch(ctx context.Context, query string, opts Options) (*types.OrchestrationResult, error) {
	started := o.cfg.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > MaxResultsLimit {
		maxResults = MaxResultsLimit
	}
	limits := DefaultLimits(maxResults)
	if o.cfg.Limits != nil {
		limits = *o.cfg.Limits
		limits.MaxResults = maxResults
	}

	// Each run gets its own counter so concurrent searches report their own calls
	counting := llm.NewCountingClient(o.cfg.Client)
	var client llm.Client
	if counting != nil {
		client = counting
	}
	planning := planner.New(client, o.cfg.ModelTimeout)
	evaluation := evaluator.New(client, o.cfg.ModelTimeout)
	retrieval := executor.New(o.cfg.Store, o.cfg.Embedder, o.cfg.Executor)

	state := &types.OrchestrationState{
		SessionID: uuid.NewString(),
		Query:     query,
		Phase:     types.PhasePlanning,
	}
	if opts.RequesterID != "" {
		log.Printf("[ORCHESTRATOR] Session %s for requester %s", state.SessionID, opts.RequesterID)
	}
	o.record(ctx, state, opts.OnPhase)

	state.Plan = planning.Plan(ctx, query, opts.PlanContext)
	planner.MergeCallerFilters(state.Plan, opts.Filters)

	var best *generation
	var refinements []types.Refinement

	for state.Phase != types.PhaseComplete {
		state.Phase = Next(state, limits)
		o.record(ctx, state, opts.OnPhase)

		switch state.Phase {
		case types.PhaseExecuting:
			state.TotalIterations++
			result, err := retrieval.ExecuteSearch(ctx, state.Plan, maxResults)
			if err != nil {
				state.Error = err.Error()
				state.Phase = types.PhaseComplete
				o.record(ctx, state, opts.OnPhase)
				return nil, fmt.Errorf("search iteration %d failed: %w", state.TotalIterations, err)
			}
			state.ExecutionResult = result

		case types.PhaseEvaluating:
			state.Evaluation = evaluation.Evaluate(ctx, query, state.Plan, state.ExecutionResult)
			if best == nil || state.Evaluation.ConfidenceScore >= best.eval.ConfidenceScore {
				best = &generation{plan: state.Plan, result: state.ExecutionResult, eval: state.Evaluation}
			}

		case types.PhaseRefining:
			refinements = append(refinements, types.Refinement{
				Iteration:        state.TotalIterations,
				Reason:           state.Evaluation.RefinementReason,
				Actions:          state.Evaluation.RefinementSuggestions,
				ConfidenceBefore: state.Evaluation.ConfidenceScore,
			})
			state.Plan = Refine(state.Plan, state.Evaluation.RefinementSuggestions, state.ExecutionResult.Builders)
			state.RefinementCount++
			log.Printf("[ORCHESTRATOR] Refinement %d: %s", state.RefinementCount, describeActions(state.Evaluation.RefinementSuggestions))
		}
	}

	return o.buildResult(state, best, refinements, counting.Calls(), started), nil
}

func (o *Orchestrator) buildResult(state *types.OrchestrationState, best *generation, refinements []types.Refinement, modelCalls int, started time.Time) *types.OrchestrationResult {
	if refinements == nil {
		refinements = []types.Refinement{}
	}
	result := &types.OrchestrationResult{
		SessionID: state.SessionID,
		Query:     state.Query,
		AgentReasoning: types.AgentReasoning{
			Plan:            best.plan,
			ExecutionSteps:  best.result.Steps,
			Evaluation:      best.eval,
			Refinements:     refinements,
			TotalIterations: state.TotalIterations,
		},
		Results: best.result.Builders,
	}
	if result.Results == nil {
		result.Results = []types.ScoredCandidate{}
	}
	if result.AgentReasoning.ExecutionSteps == nil {
		result.AgentReasoning.ExecutionSteps = []types.ExecutionStep{}
	}
	result.Metadata = types.ResultMetadata{
		TotalResults:   len(result.Results),
		LatencyMs:      o.cfg.Now().Sub(started).Milliseconds(),
		ModelCallCount: modelCalls,
		SearchStrategy: best.plan.SearchStrategy.Approach,
	}
	log.Printf("[ORCHESTRATOR] Session %s complete: %d results after %d iterations (confidence %.2f)",
		state.SessionID, len(result.Results), state.TotalIterations, best.eval.ConfidenceScore)
	return result
}

// record hands a snapshot to the sink and the caller's observer. Sink failures never affect the run.
func (o *Orchestrator) record(ctx context.Context, state *types.OrchestrationState, onPhase func(*types.OrchestrationState)) {
	state.UpdatedAt = o.cfg.Now()
	if onPhase != nil {
		onPhase(state.Snapshot())
	}
	if o.cfg.Sink == nil {
		return
	}
	if err := o.cfg.Sink.UpsertSearchSession(ctx, state.Snapshot()); err != nil {
		log.Printf("[ORCHESTRATOR] Snapshot of %s not recorded: %v", state.Phase, err)
	}
}

func describeActions(suggestions []types.RefinementSuggestion) string {
	names := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		names = append(names, string(s.Action))
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
