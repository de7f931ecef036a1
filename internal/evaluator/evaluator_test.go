package evaluator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonathan/buildermatch/internal/llm"
	"github.com/jonathan/buildermatch/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(id, role string, score float64, bio string, skills ...string) types.ScoredCandidate {
	c := types.ScoredCandidate{FinalScore: score}
	c.ID = id
	c.Name = "Builder " + id
	c.Role = role
	c.Bio = bio
	for _, s := range skills {
		c.Skills = append(c.Skills, types.Skill{Name: s})
	}
	return c
}

func reactPlan() *types.SearchPlan {
	return &types.SearchPlan{
		QueryIntent:    types.QueryIntent{Primary: "React", Secondary: []string{"design"}},
		SearchStrategy: types.SearchStrategy{Approach: types.ApproachHybrid},
	}
}

func TestComputeMetrics(t *testing.T) {
	builders := []types.ScoredCandidate{
		scored("a", "frontend", 0.8, "Builds React apps", "TypeScript"),
		scored("b", "Frontend", 0.6, "", "Go"),
		scored("c", "backend", 0.4, "", "Postgres"),
		scored("d", "designer", 0.6, "", "Figma"),
	}

	m := ComputeMetrics(reactPlan(), builders)
	assert.InDelta(t, 0.6, m.Relevance, 1e-9)
	// 3 distinct roles over max(1, 4/2)
	assert.InDelta(t, 1.0, m.Diversity, 1e-9)
	// "design" only appears as a role, which coverage does not search
	assert.InDelta(t, 0.5, m.Coverage, 1e-9)
	assert.InDelta(t, (0.6+1.0+0.5)/3, m.Confidence, 1e-9)

	again := ComputeMetrics(reactPlan(), builders)
	assert.Equal(t, m, again)
}

func TestComputeMetrics_Diversity(t *testing.T) {
	same := []types.ScoredCandidate{
		scored("a", "frontend", 0.5, ""),
		scored("b", "frontend", 0.5, ""),
		scored("c", "frontend", 0.5, ""),
		scored("d", "frontend", 0.5, ""),
	}
	assert.InDelta(t, 0.5, ComputeMetrics(reactPlan(), same).Diversity, 1e-9)
	assert.InDelta(t, 1.0, ComputeMetrics(reactPlan(), same[:1]).Diversity, 1e-9)
}

func TestComputeMetrics_Empty(t *testing.T) {
	m := ComputeMetrics(reactPlan(), nil)
	assert.Equal(t, Metrics{}, m)
}

func TestEvaluate_RuleBasedWithoutClient(t *testing.T) {
	tests := []struct {
		name        string
		builders    []types.ScoredCandidate
		wantRefine  bool
		wantActions []types.RefinementAction
	}{
		{
			name:        "low relevance broadens",
			builders:    []types.ScoredCandidate{scored("a", "frontend", 0.3, "React"), scored("b", "designer", 0.3, "design")},
			wantRefine:  true,
			wantActions: []types.RefinementAction{types.ActionBroaden},
		},
		{
			name: "low diversity reweights",
			builders: []types.ScoredCandidate{
				scored("a", "frontend", 0.9, "React"), scored("b", "frontend", 0.9, "design"),
				scored("c", "frontend", 0.9, ""), scored("d", "frontend", 0.9, ""),
				scored("e", "frontend", 0.9, ""), scored("f", "frontend", 0.9, ""),
			},
			wantRefine:  true,
			wantActions: []types.RefinementAction{types.ActionReweight},
		},
		{
			name:        "good results",
			builders:    []types.ScoredCandidate{scored("a", "frontend", 0.9, "React"), scored("b", "designer", 0.8, "design")},
			wantRefine:  false,
			wantActions: []types.RefinementAction{},
		},
		{
			name:        "empty results",
			builders:    []types.ScoredCandidate{},
			wantRefine:  true,
			wantActions: []types.RefinementAction{types.ActionBroaden},
		},
	}

	e := New(nil, time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval := e.Evaluate(context.Background(), "React with design", reactPlan(), &types.ExecutionResult{Builders: tt.builders})
			require.NotNil(t, eval)
			assert.Equal(t, tt.wantRefine, eval.NeedsRefinement)
			actions := []types.RefinementAction{}
			for _, s := range eval.RefinementSuggestions {
				actions = append(actions, s.Action)
			}
			assert.Equal(t, tt.wantActions, actions)
		})
	}
}

func TestEvaluate_ModelJudgement(t *testing.T) {
	var gotTier llm.ModelTier
	var gotPrompt string
	client := &llm.MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
			gotTier = tier
			gotPrompt = prompt
			return `{
				"relevance_score": 0.99,
				"confidence_score": 0.99,
				"needs_refinement": true,
				"refinement_reason": "results lack designers",
				"refinement_suggestions": [
					{"action": "Filter", "parameters": {"roles": ["designer"]}},
					{"action": "teleport", "parameters": {}}
				]
			}`, nil
		},
	}

	builders := []types.ScoredCandidate{scored("a", "frontend", 0.7, "React apps", "React")}
	e := New(client, time.Second)
	eval := e.Evaluate(context.Background(), "React with design", reactPlan(), &types.ExecutionResult{Builders: builders})

	assert.Equal(t, llm.TierLite, gotTier)
	assert.Contains(t, gotPrompt, "1. Builder a (frontend")
	assert.NotContains(t, gotPrompt, "{{.")

	assert.True(t, eval.NeedsRefinement)
	assert.Equal(t, "results lack designers", eval.RefinementReason)
	// deterministic metrics override the model's numbers
	assert.InDelta(t, 0.7, eval.RelevanceScore, 1e-9)
	assert.InDelta(t, ComputeMetrics(reactPlan(), builders).Confidence, eval.ConfidenceScore, 1e-9)
	require.Len(t, eval.RefinementSuggestions, 1)
	assert.Equal(t, types.ActionFilter, eval.RefinementSuggestions[0].Action)
	assert.Equal(t, []string{"designer"}, eval.RefinementSuggestions[0].Parameters.Roles)
}

func TestEvaluate_EmptyResultsOverrideModel(t *testing.T) {
	client := &llm.MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
			return `{"needs_refinement": false, "refinement_suggestions": []}`, nil
		},
	}
	eval := New(client, time.Second).Evaluate(context.Background(), "asdkjhasd", reactPlan(), &types.ExecutionResult{})
	assert.True(t, eval.NeedsRefinement)
	assert.Equal(t, 0.0, eval.ConfidenceScore)
	assert.NotEmpty(t, eval.RefinementSuggestions)
}

func TestEvaluate_ModelFailureFallsBack(t *testing.T) {
	client := &llm.MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	builders := []types.ScoredCandidate{scored("a", "frontend", 0.2, "")}
	eval := New(client, time.Second).Evaluate(context.Background(), "React", reactPlan(), &types.ExecutionResult{Builders: builders})
	assert.True(t, eval.NeedsRefinement)
	require.Len(t, eval.RefinementSuggestions, 1)
	assert.Equal(t, types.ActionBroaden, eval.RefinementSuggestions[0].Action)
}

func TestValidSuggestions(t *testing.T) {
	in := []types.RefinementSuggestion{
		{Action: " NARROW "},
		{Action: "expand"},
		{Action: types.ActionReweight, Parameters: types.RefinementParameters{
			RankingCriteria: []types.RankingCriterion{{Factor: "skills", Weight: 0.5}},
		}},
	}
	out := ValidSuggestions(in)
	require.Len(t, out, 2)
	assert.Equal(t, types.ActionNarrow, out[0].Action)
	assert.Equal(t, types.ActionReweight, out[1].Action)
	assert.NotNil(t, ValidSuggestions(nil))
}

func TestSummarizeTop(t *testing.T) {
	assert.Equal(t, "(no results)", summarizeTop(nil, 5))
	var builders []types.ScoredCandidate
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		builders = append(builders, scored(id, "frontend", 0.5, ""))
	}
	out := summarizeTop(builders, 5)
	assert.Contains(t, out, "5. Builder e")
	assert.NotContains(t, out, "Builder f")
}
