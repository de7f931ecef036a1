// Package planner turns a free-text builder search query into a structured search plan.
// The model is asked for a schema-constrained plan; any failure degrades to a
// deterministic default so a search always has something to execute.
package planner

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/jonathan/buildermatch/internal/llm"
	"github.com/jonathan/buildermatch/internal/prompts"
	"github.com/jonathan/buildermatch/internal/ranking"
	"github.com/jonathan/buildermatch/internal/types"
	rootschemas "github.com/jonathan/buildermatch/schemas"
)

// DefaultConfidence is the confidence assigned to fallback plans
const DefaultConfidence = 0.5

// DefaultExpectedResults is used when the model does not estimate a result count
const DefaultExpectedResults = 10

// shortQueryLength bounds the queries the heuristic treats as exact lookups
const shortQueryLength = 20

// PlanContext carries optional requester context for planning
type PlanContext struct {
	PreviousQueries []string `json:"previous_queries,omitempty"`
	UserProfile     string   `json:"user_profile,omitempty"`
}

// Planner produces search plans
type Planner struct {
	client  llm.Client
	timeout time.Duration
}

// New creates a Planner. A nil client means no model is available and the
// approach heuristic is used for every query.
func New(client llm.Client, timeout time.Duration) *Planner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Planner{client: client, timeout: timeout}
}

// Plan interprets query. It never fails: model errors, timeouts and invalid
// responses all yield DefaultPlan.
func (p *Planner) Plan(ctx context.Context, query string, pc *PlanContext) *types.SearchPlan {
	query = strings.TrimSpace(query)
	if p.client == nil {
		plan := HeuristicPlan(query)
		log.Printf("[PLANNER] No model configured, heuristic chose %s", plan.SearchStrategy.Approach)
		return plan
	}

	prompt, err := buildPlanningPrompt(query, pc)
	if err != nil {
		log.Printf("[PLANNER] Failed to build prompt, using default plan: %v", err)
		return DefaultPlan(query)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var plan types.SearchPlan
	if err := llm.GenerateValidated(callCtx, p.client, prompt, llm.TierStandard, rootschemas.SearchPlan, &plan); err != nil {
		log.Printf("[PLANNER] Model planning failed, using default plan: %v", err)
		return DefaultPlan(query)
	}

	Normalize(&plan, query)
	log.Printf("[PLANNER] Planned %s search for %q (confidence %.2f)",
		plan.SearchStrategy.Approach, plan.QueryIntent.Primary, plan.ConfidenceScore)
	return &plan
}

// DefaultPlan is the plan used when the model cannot produce one
func DefaultPlan(query string) *types.SearchPlan {
	return &types.SearchPlan{
		QueryIntent: types.QueryIntent{Primary: strings.TrimSpace(query)},
		SearchStrategy: types.SearchStrategy{
			Approach:        types.ApproachHybrid,
			RankingCriteria: []types.RankingCriterion{{Factor: ranking.FactorRelevance, Weight: 1.0}},
		},
		ExpectedResultCount: DefaultExpectedResults,
		ConfidenceScore:     DefaultConfidence,
	}
}

// HeuristicPlan is DefaultPlan with the approach picked from the query's shape:
// short alphanumeric queries are treated as exact keyword lookups.
func HeuristicPlan(query string) *types.SearchPlan {
	plan := DefaultPlan(query)
	plan.SearchStrategy.Approach = heuristicApproach(plan.QueryIntent.Primary)
	return plan
}

func heuristicApproach(query string) types.Approach {
	if query == "" || len(query) >= shortQueryLength {
		return types.ApproachHybrid
	}
	for _, r := range query {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' {
			return types.ApproachHybrid
		}
	}
	return types.ApproachKeyword
}

// buildPlanningPrompt renders the planning prompt with optional requester context
func buildPlanningPrompt(query string, pc *PlanContext) (string, error) {
	system, err := prompts.Get(prompts.PlanningFile, "system")
	if err != nil {
		return "", err
	}
	body, err := prompts.Render(prompts.PlanningFile, "plan-search", map[string]string{
		"Query":   query,
		"Context": formatContext(pc),
	})
	if err != nil {
		return "", err
	}
	return system + "\n\n" + body, nil
}

func formatContext(pc *PlanContext) string {
	if pc == nil {
		return ""
	}
	var sb strings.Builder
	if len(pc.PreviousQueries) > 0 {
		sb.WriteString("Previous requests from this user:\n")
		for _, q := range pc.PreviousQueries {
			sb.WriteString(fmt.Sprintf("- %s\n", q))
		}
	}
	if pc.UserProfile != "" {
		sb.WriteString(fmt.Sprintf("Requester profile: %s\n", pc.UserProfile))
	}
	return sb.String()
}
