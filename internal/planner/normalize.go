package planner

import (
	"strings"

	"github.com/jonathan/buildermatch/internal/ranking"
	"github.com/jonathan/buildermatch/internal/skills"
	"github.com/jonathan/buildermatch/internal/types"
)

var knownAvailability = map[string]bool{
	types.AvailabilityAvailable:  true,
	types.AvailabilityBusy:       true,
	types.AvailabilityNotLooking: true,
}

// Normalize cleans a model-produced plan in place: enum values are lower-cased,
// unknown approaches become hybrid, weights and confidence are clamped to [0,1].
func Normalize(plan *types.SearchPlan, query string) {
	plan.QueryIntent.Primary = strings.TrimSpace(plan.QueryIntent.Primary)
	if plan.QueryIntent.Primary == "" {
		plan.QueryIntent.Primary = strings.TrimSpace(query)
	}
	plan.QueryIntent.Secondary = trimAll(plan.QueryIntent.Secondary)
	plan.QueryIntent.Implicit = trimAll(plan.QueryIntent.Implicit)

	approach := types.Approach(strings.ToLower(strings.TrimSpace(string(plan.SearchStrategy.Approach))))
	if !approach.Valid() {
		approach = types.ApproachHybrid
	}
	plan.SearchStrategy.Approach = approach

	f := &plan.SearchStrategy.Filters
	f.Roles = lowerDedup(f.Roles)
	f.ExperienceLevels = lowerDedup(f.ExperienceLevels)
	f.Skills = skills.NormalizeSkills(f.Skills)
	f.Location = strings.TrimSpace(f.Location)

	var availability []string
	for _, a := range lowerDedup(f.Availability) {
		a = strings.ReplaceAll(a, " ", "_")
		if knownAvailability[a] {
			availability = append(availability, a)
		}
	}
	f.Availability = availability

	criteria := make([]types.RankingCriterion, 0, len(plan.SearchStrategy.RankingCriteria))
	for _, c := range plan.SearchStrategy.RankingCriteria {
		factor := ranking.CanonicalFactor(c.Factor)
		if factor == "" {
			continue
		}
		criteria = append(criteria, types.RankingCriterion{Factor: factor, Weight: clamp01(c.Weight)})
	}
	if len(criteria) == 0 {
		criteria = []types.RankingCriterion{{Factor: ranking.FactorRelevance, Weight: 1.0}}
	}
	plan.SearchStrategy.RankingCriteria = criteria

	if plan.ExpectedResultCount <= 0 {
		plan.ExpectedResultCount = DefaultExpectedResults
	}
	plan.ConfidenceScore = clamp01(plan.ConfidenceScore)
}

// MergeCallerFilters overlays caller-supplied filters on the planner's.
// Each field the caller sets replaces the planner's value for that field.
func MergeCallerFilters(plan *types.SearchPlan, caller *types.SearchFilters) {
	if plan == nil || caller == nil {
		return
	}
	f := &plan.SearchStrategy.Filters
	if len(caller.Roles) > 0 {
		f.Roles = lowerDedup(caller.Roles)
	}
	if len(caller.ExperienceLevels) > 0 {
		f.ExperienceLevels = lowerDedup(caller.ExperienceLevels)
	}
	if len(caller.Skills) > 0 {
		f.Skills = skills.NormalizeSkills(caller.Skills)
	}
	if len(caller.Availability) > 0 {
		f.Availability = lowerDedup(caller.Availability)
	}
	if loc := strings.TrimSpace(caller.Location); loc != "" {
		f.Location = loc
	}
}

func lowerDedup(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]bool)
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
