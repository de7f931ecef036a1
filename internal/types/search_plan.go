// Package types provides type definitions for structured data used throughout the buildermatch system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Approach selects which retrieval branches run for a plan.
type Approach string

// Retrieval approaches
const (
	ApproachSemantic Approach = "semantic"
	ApproachKeyword  Approach = "keyword"
	ApproachHybrid   Approach = "hybrid"
)

// Valid reports whether the approach is one of the known values.
func (a Approach) Valid() bool {
	switch a {
	case ApproachSemantic, ApproachKeyword, ApproachHybrid:
		return true
	}
	return false
}

// UsesSemantic reports whether vector retrieval runs for this approach.
func (a Approach) UsesSemantic() bool {
	return a == ApproachSemantic || a == ApproachHybrid
}

// UsesKeyword reports whether lexical retrieval runs for this approach.
func (a Approach) UsesKeyword() bool {
	return a == ApproachKeyword || a == ApproachHybrid
}

// SearchPlan is the structured interpretation of a free-text query.
type SearchPlan struct {
	QueryIntent         QueryIntent    `json:"query_intent"`
	SearchStrategy      SearchStrategy `json:"search_strategy"`
	ExpectedResultCount int            `json:"expected_result_count"`
	ConfidenceScore     float64        `json:"confidence_score"`
}

// QueryIntent captures what the requester is looking for
type QueryIntent struct {
	Primary   string   `json:"primary"`
	Secondary []string `json:"secondary,omitempty"`
	Implicit  []string `json:"implicit,omitempty"`
}

// SearchStrategy describes how retrieval and ranking should proceed
type SearchStrategy struct {
	Approach        Approach           `json:"approach"`
	Filters         SearchFilters      `json:"filters"`
	RankingCriteria []RankingCriterion `json:"ranking_criteria"`
}

// SearchFilters are hard constraints applied to retrieved candidates.
// An empty slice or string means the filter is not set.
type SearchFilters struct {
	Roles            []string `json:"roles,omitempty"`
	ExperienceLevels []string `json:"experience_levels,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	Availability     []string `json:"availability,omitempty"`
	Location         string   `json:"location,omitempty"`
}

// RankingCriterion weights one scoring factor
type RankingCriterion struct {
	Factor string  `json:"factor"`
	Weight float64 `json:"weight"`
}

// IsEmpty reports whether no hard filter is set. Skills are not a hard filter.
func (f SearchFilters) IsEmpty() bool {
	return len(f.Roles) == 0 && len(f.ExperienceLevels) == 0 &&
		len(f.Availability) == 0 && f.Location == ""
}

// Clone returns a deep copy of the filters
func (f SearchFilters) Clone() SearchFilters {
	return SearchFilters{
		Roles:            cloneStrings(f.Roles),
		ExperienceLevels: cloneStrings(f.ExperienceLevels),
		Skills:           cloneStrings(f.Skills),
		Availability:     cloneStrings(f.Availability),
		Location:         f.Location,
	}
}

// Clone returns a deep copy of the plan so downstream stages cannot alias it.
func (p *SearchPlan) Clone() *SearchPlan {
	if p == nil {
		return nil
	}
	out := *p
	out.QueryIntent.Secondary = cloneStrings(p.QueryIntent.Secondary)
	out.QueryIntent.Implicit = cloneStrings(p.QueryIntent.Implicit)
	out.SearchStrategy.Filters = p.SearchStrategy.Filters.Clone()
	if p.SearchStrategy.RankingCriteria != nil {
		out.SearchStrategy.RankingCriteria = make([]RankingCriterion, len(p.SearchStrategy.RankingCriteria))
		copy(out.SearchStrategy.RankingCriteria, p.SearchStrategy.RankingCriteria)
	}
	return &out
}

// IntentTerms returns the primary intent followed by the secondary intents, skipping blanks.
func (p *SearchPlan) IntentTerms() []string {
	terms := make([]string, 0, 1+len(p.QueryIntent.Secondary))
	if p.QueryIntent.Primary != "" {
		terms = append(terms, p.QueryIntent.Primary)
	}
	for _, s := range p.QueryIntent.Secondary {
		if s != "" {
			terms = append(terms, s)
		}
	}
	return terms
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
