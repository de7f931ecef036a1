// Package evaluator judges the quality of a result set and proposes plan refinements.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/buildermatch/internal/llm"
	"github.com/jonathan/buildermatch/internal/prompts"
	"github.com/jonathan/buildermatch/internal/types"
	rootschemas "github.com/jonathan/buildermatch/schemas"
)

// Rule-based thresholds used when the model is unavailable
const (
	MinRelevance = 0.6
	MinDiversity = 0.5
)

// topResultCount is how many results are summarised for the model
const topResultCount = 5

// Evaluator scores result sets
type Evaluator struct {
	client  llm.Client
	timeout time.Duration
}

// New creates an Evaluator. A nil client means every evaluation is rule-based.
func New(client llm.Client, timeout time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Evaluator{client: client, timeout: timeout}
}

// Evaluate measures result against plan and decides whether refinement is needed.
// It never fails: model problems fall back to rule-based refinement.
func (e *Evaluator) Evaluate(ctx context.Context, query string, plan *types.SearchPlan, result *types.ExecutionResult) *types.EvaluationResult {
	var builders []types.ScoredCandidate
	if result != nil {
		builders = result.Builders
	}
	metrics := ComputeMetrics(plan, builders)

	eval, err := e.modelJudgement(ctx, query, plan, builders, metrics)
	if err != nil {
		if e.client != nil {
			log.Printf("[EVALUATOR] Model evaluation failed, using rules: %v", err)
		}
		eval = RuleBasedEvaluation(metrics)
	}

	eval.RelevanceScore = metrics.Relevance
	eval.DiversityScore = metrics.Diversity
	eval.CoverageScore = metrics.Coverage
	eval.ConfidenceScore = metrics.Confidence
	eval.RefinementSuggestions = ValidSuggestions(eval.RefinementSuggestions)

	if len(builders) == 0 {
		eval.NeedsRefinement = true
		if eval.RefinementReason == "" {
			eval.RefinementReason = "no builders matched"
		}
		if len(eval.RefinementSuggestions) == 0 {
			eval.RefinementSuggestions = []types.RefinementSuggestion{{Action: types.ActionBroaden}}
		}
	}
	if !eval.NeedsRefinement {
		eval.RefinementSuggestions = []types.RefinementSuggestion{}
	}

	log.Printf("[EVALUATOR] relevance=%.2f diversity=%.2f coverage=%.2f confidence=%.2f refine=%t",
		eval.RelevanceScore, eval.DiversityScore, eval.CoverageScore, eval.ConfidenceScore, eval.NeedsRefinement)
	return eval
}

// RuleBasedEvaluation decides refinement from the metrics alone
func RuleBasedEvaluation(m Metrics) *types.EvaluationResult {
	eval := &types.EvaluationResult{
		RelevanceScore:        m.Relevance,
		DiversityScore:        m.Diversity,
		CoverageScore:         m.Coverage,
		ConfidenceScore:       m.Confidence,
		RefinementSuggestions: []types.RefinementSuggestion{},
	}
	switch {
	case m.Relevance < MinRelevance:
		eval.NeedsRefinement = true
		eval.RefinementReason = fmt.Sprintf("relevance %.2f below %.2f", m.Relevance, MinRelevance)
		eval.RefinementSuggestions = append(eval.RefinementSuggestions, types.RefinementSuggestion{Action: types.ActionBroaden})
	case m.Diversity < MinDiversity:
		eval.NeedsRefinement = true
		eval.RefinementReason = fmt.Sprintf("diversity %.2f below %.2f", m.Diversity, MinDiversity)
		eval.RefinementSuggestions = append(eval.RefinementSuggestions, types.RefinementSuggestion{Action: types.ActionReweight})
	}
	return eval
}

// ValidSuggestions drops suggestions with unknown actions and lower-cases the rest
func ValidSuggestions(in []types.RefinementSuggestion) []types.RefinementSuggestion {
	out := make([]types.RefinementSuggestion, 0, len(in))
	for _, s := range in {
		s.Action = types.RefinementAction(strings.ToLower(strings.TrimSpace(string(s.Action))))
		if !s.Action.Valid() {
			log.Printf("[EVALUATOR] Dropping unknown refinement action %q", s.Action)
			continue
		}
		out = append(out, s)
	}
	return out
}

func (e *Evaluator) modelJudgement(ctx context.Context, query string, plan *types.SearchPlan, builders []types.ScoredCandidate, m Metrics) (*types.EvaluationResult, error) {
	if e.client == nil {
		return nil, fmt.Errorf("no LLM client configured")
	}

	prompt, err := buildEvaluationPrompt(query, plan, builders, m)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var eval types.EvaluationResult
	if err := llm.GenerateValidated(callCtx, e.client, prompt, llm.TierLite, rootschemas.Evaluation, &eval); err != nil {
		return nil, err
	}
	return &eval, nil
}

func buildEvaluationPrompt(query string, plan *types.SearchPlan, builders []types.ScoredCandidate, m Metrics) (string, error) {
	system, err := prompts.Get(prompts.EvaluationFile, "system")
	if err != nil {
		return "", err
	}

	planJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}
	metricsJSON, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal metrics: %w", err)
	}

	body, err := prompts.Render(prompts.EvaluationFile, "evaluate-results", map[string]string{
		"Query":      query,
		"Plan":       string(planJSON),
		"Metrics":    string(metricsJSON),
		"TopResults": summarizeTop(builders, topResultCount),
	})
	if err != nil {
		return "", err
	}
	return system + "\n\n" + body, nil
}

// summarizeTop renders one line per top builder for the model
func summarizeTop(builders []types.ScoredCandidate, n int) string {
	if len(builders) == 0 {
		return "(no results)"
	}
	if len(builders) > n {
		builders = builders[:n]
	}
	var sb strings.Builder
	for i, b := range builders {
		skillNames := b.SkillNames()
		if len(skillNames) > 5 {
			skillNames = skillNames[:5]
		}
		sb.WriteString(fmt.Sprintf("%d. %s (%s, %s) score=%.2f skills=[%s]\n",
			i+1, b.Name, b.Role, b.Availability, b.FinalScore, strings.Join(skillNames, ", ")))
	}
	return sb.String()
}
