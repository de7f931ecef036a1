// Package types provides type definitions for structured data used throughout the buildermatch system.
package types

// RefinementAction names a plan mutation suggested by the evaluator
type RefinementAction string

// Refinement actions
const (
	ActionBroaden  RefinementAction = "broaden"
	ActionNarrow   RefinementAction = "narrow"
	ActionReweight RefinementAction = "reweight"
	ActionFilter   RefinementAction = "filter"
)

// Valid reports whether the action is known
func (a RefinementAction) Valid() bool {
	switch a {
	case ActionBroaden, ActionNarrow, ActionReweight, ActionFilter:
		return true
	}
	return false
}

// EvaluationResult scores the quality of one result set
type EvaluationResult struct {
	RelevanceScore        float64                `json:"relevance_score"`
	DiversityScore        float64                `json:"diversity_score"`
	CoverageScore         float64                `json:"coverage_score"`
	ConfidenceScore       float64                `json:"confidence_score"`
	NeedsRefinement       bool                   `json:"needs_refinement"`
	RefinementReason      string                 `json:"refinement_reason,omitempty"`
	RefinementSuggestions []RefinementSuggestion `json:"refinement_suggestions"`
}

// RefinementSuggestion is an action plus its action-specific payload.
//
// Parameters by action:
//   - reweight: ranking_criteria (list of {factor, weight})
//   - filter: any of roles, experience_levels, skills, availability (lists) and location
//   - broaden, narrow: no parameters
type RefinementSuggestion struct {
	Action     RefinementAction     `json:"action"`
	Parameters RefinementParameters `json:"parameters,omitempty"`
}

// RefinementParameters is the typed payload of a refinement suggestion
type RefinementParameters struct {
	RankingCriteria  []RankingCriterion `json:"ranking_criteria,omitempty"`
	Roles            []string           `json:"roles,omitempty"`
	ExperienceLevels []string           `json:"experience_levels,omitempty"`
	Skills           []string           `json:"skills,omitempty"`
	Availability     []string           `json:"availability,omitempty"`
	Location         string             `json:"location,omitempty"`
}
