package orchestrator

import (
	"testing"

	"github.com/jonathan/buildermatch/internal/types"
	"github.com/stretchr/testify/assert"
)

func basePlan() *types.SearchPlan {
	return &types.SearchPlan{
		QueryIntent: types.QueryIntent{Primary: "senior React developer"},
		SearchStrategy: types.SearchStrategy{
			Approach: types.ApproachSemantic,
			Filters: types.SearchFilters{
				Roles:            []string{"frontend"},
				ExperienceLevels: []string{"senior"},
				Skills:           []string{"React"},
			},
			RankingCriteria: []types.RankingCriterion{{Factor: "semantic", Weight: 0.6}},
		},
	}
}

func rolesOf(roles ...string) []types.ScoredCandidate {
	out := make([]types.ScoredCandidate, len(roles))
	for i, r := range roles {
		out[i].Role = r
	}
	return out
}

func TestRefine_Broaden(t *testing.T) {
	plan := basePlan()
	next := Refine(plan, []types.RefinementSuggestion{{Action: types.ActionBroaden}}, nil)

	assert.Nil(t, next.SearchStrategy.Filters.ExperienceLevels)
	assert.Equal(t, types.ApproachHybrid, next.SearchStrategy.Approach)
	assert.Equal(t, []string{"frontend"}, next.SearchStrategy.Filters.Roles)

	// the input plan is never modified
	assert.Equal(t, []string{"senior"}, plan.SearchStrategy.Filters.ExperienceLevels)
	assert.Equal(t, types.ApproachSemantic, plan.SearchStrategy.Approach)
}

func TestRefine_Narrow(t *testing.T) {
	top := rolesOf("Designer", "frontend", "designer", "", "fullstack", "backend")
	next := Refine(basePlan(), []types.RefinementSuggestion{{Action: types.ActionNarrow}}, top)
	assert.Equal(t, []string{"designer", "frontend", "fullstack"}, next.SearchStrategy.Filters.Roles)

	unchanged := Refine(basePlan(), []types.RefinementSuggestion{{Action: types.ActionNarrow}}, nil)
	assert.Equal(t, []string{"frontend"}, unchanged.SearchStrategy.Filters.Roles)
}

func TestRefine_Reweight(t *testing.T) {
	next := Refine(basePlan(), []types.RefinementSuggestion{{
		Action: types.ActionReweight,
		Parameters: types.RefinementParameters{RankingCriteria: []types.RankingCriterion{
			{Factor: "skill_match", Weight: 0.5},
			{Factor: "availability", Weight: 0.5},
			{Factor: "mystery", Weight: 0.9},
		}},
	}}, nil)
	assert.Equal(t, []types.RankingCriterion{
		{Factor: "skills", Weight: 0.5},
		{Factor: "availability", Weight: 0.5},
	}, next.SearchStrategy.RankingCriteria)

	reset := Refine(basePlan(), []types.RefinementSuggestion{{Action: types.ActionReweight}}, nil)
	assert.Equal(t, []types.RankingCriterion{{Factor: "relevance", Weight: 1.0}}, reset.SearchStrategy.RankingCriteria)
}

func TestRefine_Filter(t *testing.T) {
	next := Refine(basePlan(), []types.RefinementSuggestion{{
		Action: types.ActionFilter,
		Parameters: types.RefinementParameters{
			Roles:        []string{"Designer", "frontend"},
			Skills:       []string{"figma", "react"},
			Availability: []string{"available"},
			Location:     "Remote",
		},
	}}, nil)

	f := next.SearchStrategy.Filters
	assert.Equal(t, []string{"frontend", "designer"}, f.Roles)
	assert.Equal(t, []string{"React", "Figma"}, f.Skills)
	assert.Equal(t, []string{"available"}, f.Availability)
	assert.Equal(t, "Remote", f.Location)
	assert.Equal(t, []string{"senior"}, f.ExperienceLevels)
}

func TestRefine_AppliesInOrder(t *testing.T) {
	next := Refine(basePlan(), []types.RefinementSuggestion{
		{Action: types.ActionFilter, Parameters: types.RefinementParameters{ExperienceLevels: []string{"lead"}}},
		{Action: types.ActionBroaden},
	}, nil)
	assert.Nil(t, next.SearchStrategy.Filters.ExperienceLevels)
}
