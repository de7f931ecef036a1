package planner

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

const reactPlanJSON = `{
	"query_intent": {"primary": "React developer", "secondary": ["design skills"], "implicit": ["builds user interfaces"]},
	"search_strategy": {
		"approach": "HYBRID",
		"filters": {"roles": ["Frontend", "fullstack", "frontend"], "skills": ["reactjs", "design"]},
		"ranking_criteria": [
			{"factor": "skill_match", "weight": 0.4},
			{"factor": "semantic", "weight": 1.7},
			{"factor": "vibes", "weight": 0.2}
		]
	},
	"expected_result_count": 10,
	"confidence_score": 0.85
}`

func jsonClient(response string, err error) *llm.MockClient {
	return &llm.MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
			return response, err
		},
	}
}

func TestPlan_ModelPlanIsNormalized(t *testing.T) {
	var gotPrompt string
	var gotTier llm.ModelTier
	client := &llm.MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
			gotPrompt = prompt
			gotTier = tier
			return "```json\n" + reactPlanJSON + "\n```", nil
		},
	}

	p := New(client, time.Second)
	plan := p.Plan(context.Background(), "  React developer with design skills ", &PlanContext{
		PreviousQueries: []string{"Vue engineer"},
	})

	require.NotNil(t, plan)
	assert.Equal(t, llm.TierStandard, gotTier)
	assert.Contains(t, gotPrompt, `Request: "React developer with design skills"`)
	assert.Contains(t, gotPrompt, "- Vue engineer")
	assert.NotContains(t, gotPrompt, "{{.")

	assert.Equal(t, types.ApproachHybrid, plan.SearchStrategy.Approach)
	assert.Equal(t, []string{"frontend", "fullstack"}, plan.SearchStrategy.Filters.Roles)
	assert.Equal(t, []string{"React", "Design"}, plan.SearchStrategy.Filters.Skills)
	assert.Equal(t, []types.RankingCriterion{
		{Factor: "skills", Weight: 0.4},
		{Factor: "semantic", Weight: 1.0},
	}, plan.SearchStrategy.RankingCriteria)
	assert.InDelta(t, 0.85, plan.ConfidenceScore, 1e-9)
}

func TestPlan_FallsBackToDefault(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "model error", err: errors.New("503 unavailable")},
		{name: "invalid JSON", response: "I think you want a React developer"},
		{name: "schema violation", response: `{"query_intent": {"primary": ""}, "search_strategy": {"approach": "hybrid"}, "expected_result_count": 10, "confidence_score": 0.9}`},
		{name: "wrong type", response: `{"query_intent": {"primary": "x"}, "search_strategy": {"approach": "hybrid"}, "expected_result_count": "ten", "confidence_score": 0.9}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(jsonClient(tt.response, tt.err), time.Second)
			plan := p.Plan(context.Background(), "React developer with design skills", nil)

			require.NotNil(t, plan)
			assert.Equal(t, DefaultPlan("React developer with design skills"), plan)
		})
	}
}

func TestPlan_TimeoutFallsBack(t *testing.T) {
	client := &llm.MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	p := New(client, 10*time.Millisecond)
	plan := p.Plan(context.Background(), "Kubernetes", nil)
	assert.Equal(t, types.ApproachHybrid, plan.SearchStrategy.Approach)
	assert.Equal(t, DefaultConfidence, plan.ConfidenceScore)
}

func TestPlan_NoClientUsesHeuristic(t *testing.T) {
	tests := []struct {
		query string
		want  types.Approach
	}{
		{query: "Kubernetes", want: types.ApproachKeyword},
		{query: "Go engineer", want: types.ApproachKeyword},
		{query: "node.js", want: types.ApproachHybrid},
		{query: "someone who ships consumer apps", want: types.ApproachHybrid},
		{query: "", want: types.ApproachHybrid},
	}

	p := New(nil, 0)
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			plan := p.Plan(context.Background(), tt.query, nil)
			assert.Equal(t, tt.want, plan.SearchStrategy.Approach)
			assert.Equal(t, DefaultConfidence, plan.ConfidenceScore)
		})
	}
}

func TestDefaultPlan(t *testing.T) {
	plan := DefaultPlan("  asdkjhasd  ")
	assert.Equal(t, "asdkjhasd", plan.QueryIntent.Primary)
	assert.Equal(t, types.ApproachHybrid, plan.SearchStrategy.Approach)
	assert.True(t, plan.SearchStrategy.Filters.IsEmpty())
	assert.Empty(t, plan.SearchStrategy.Filters.Skills)
	assert.Equal(t, []types.RankingCriterion{{Factor: "relevance", Weight: 1.0}}, plan.SearchStrategy.RankingCriteria)
	assert.Equal(t, 0.5, plan.ConfidenceScore)
}

func TestNormalize(t *testing.T) {
	plan := &types.SearchPlan{
		QueryIntent: types.QueryIntent{Primary: "  ", Secondary: []string{" ", "startup"}},
		SearchStrategy: types.SearchStrategy{
			Approach: "vector",
			Filters: types.SearchFilters{
				Availability:     []string{"Available", "Not Looking", "sometimes"},
				ExperienceLevels: []string{"Senior"},
				Location:         "  Berlin ",
			},
		},
		ExpectedResultCount: -3,
		ConfidenceScore:     -0.2,
	}

	Normalize(plan, "builders in Berlin")

	assert.Equal(t, "builders in Berlin", plan.QueryIntent.Primary)
	assert.Equal(t, []string{"startup"}, plan.QueryIntent.Secondary)
	assert.Equal(t, types.ApproachHybrid, plan.SearchStrategy.Approach)
	assert.Equal(t, []string{"available", "not_looking"}, plan.SearchStrategy.Filters.Availability)
	assert.Equal(t, []string{"senior"}, plan.SearchStrategy.Filters.ExperienceLevels)
	assert.Equal(t, "Berlin", plan.SearchStrategy.Filters.Location)
	assert.Equal(t, []types.RankingCriterion{{Factor: "relevance", Weight: 1.0}}, plan.SearchStrategy.RankingCriteria)
	assert.Equal(t, DefaultExpectedResults, plan.ExpectedResultCount)
	assert.Equal(t, 0.0, plan.ConfidenceScore)
}

func TestMergeCallerFilters(t *testing.T) {
	plan := DefaultPlan("designer")
	plan.SearchStrategy.Filters = types.SearchFilters{
		Roles:            []string{"designer"},
		ExperienceLevels: []string{"senior"},
		Skills:           []string{"Figma"},
	}

	MergeCallerFilters(plan, &types.SearchFilters{
		Roles:        []string{"Frontend"},
		Availability: []string{"available"},
		Location:     "Lisbon",
	})

	f := plan.SearchStrategy.Filters
	assert.Equal(t, []string{"frontend"}, f.Roles)
	assert.Equal(t, []string{"senior"}, f.ExperienceLevels)
	assert.Equal(t, []string{"Figma"}, f.Skills)
	assert.Equal(t, []string{"available"}, f.Availability)
	assert.Equal(t, "Lisbon", f.Location)

	MergeCallerFilters(plan, nil)
	assert.Equal(t, f, plan.SearchStrategy.Filters)
}

func TestFormatContext(t *testing.T) {
	assert.Empty(t, formatContext(nil))
	out := formatContext(&PlanContext{PreviousQueries: []string{"a", "b"}, UserProfile: "hiring manager"})
	assert.Contains(t, out, "- a\n- b\n")
	assert.Contains(t, out, "Requester profile: hiring manager")
}
