package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSearchRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SearchRequest
		wantErr bool
	}{
		{name: "valid minimal", req: SearchRequest{Query: "react developer"}},
		{name: "valid with filters", req: SearchRequest{
			Query:      "go engineer",
			MaxResults: 20,
			Filters:    &SearchFilters{Availability: []string{"available", "busy"}},
		}},
		{name: "missing query", req: SearchRequest{}, wantErr: true},
		{name: "query too long", req: SearchRequest{Query: strings.Repeat("a", 501)}, wantErr: true},
		{name: "max results too high", req: SearchRequest{Query: "x", MaxResults: 101}, wantErr: true},
		{name: "unknown availability", req: SearchRequest{
			Query:   "designer",
			Filters: &SearchFilters{Availability: []string{"sometimes"}},
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSearchPlan_CloneIsDeep(t *testing.T) {
	plan := &SearchPlan{
		QueryIntent: QueryIntent{Primary: "react", Secondary: []string{"design"}},
		SearchStrategy: SearchStrategy{
			Approach:        ApproachHybrid,
			Filters:         SearchFilters{Roles: []string{"frontend"}},
			RankingCriteria: []RankingCriterion{{Factor: "relevance", Weight: 1}},
		},
	}

	clone := plan.Clone()
	clone.QueryIntent.Secondary[0] = "changed"
	clone.SearchStrategy.Filters.Roles[0] = "backend"
	clone.SearchStrategy.RankingCriteria[0].Weight = 0.2

	assert.Equal(t, "design", plan.QueryIntent.Secondary[0])
	assert.Equal(t, "frontend", plan.SearchStrategy.Filters.Roles[0])
	assert.Equal(t, 1.0, plan.SearchStrategy.RankingCriteria[0].Weight)
}

func TestSearchPlan_IntentTerms(t *testing.T) {
	plan := &SearchPlan{QueryIntent: QueryIntent{Primary: "react developer", Secondary: []string{"", "design"}}}
	assert.Equal(t, []string{"react developer", "design"}, plan.IntentTerms())
}

func TestSearchFilters_IsEmpty(t *testing.T) {
	assert.True(t, SearchFilters{}.IsEmpty())
	assert.True(t, SearchFilters{Skills: []string{"Go"}}.IsEmpty())
	assert.False(t, SearchFilters{Location: "Berlin"}.IsEmpty())
}
