package orchestrator

import (
	"strings"

	"github.com/jonathan/buildermatch/internal/ranking"
	"github.com/jonathan/buildermatch/internal/skills"
	"github.com/jonathan/buildermatch/internal/types"
)

// narrowWindow is how many top results define the roles kept by narrow
const narrowWindow = 5

// Refine applies suggestions to a copy of plan. top is the previous iteration's
// ranked result set. Suggestions apply in order.
func Refine(plan *types.SearchPlan, suggestions []types.RefinementSuggestion, top []types.ScoredCandidate) *types.SearchPlan {
	next := plan.Clone()
	for _, s := range suggestions {
		switch s.Action {
		case types.ActionBroaden:
			broaden(next)
		case types.ActionNarrow:
			narrow(next, top)
		case types.ActionReweight:
			reweight(next, s.Parameters.RankingCriteria)
		case types.ActionFilter:
			mergeFilters(&next.SearchStrategy.Filters, s.Parameters)
		}
	}
	return next
}

// broaden drops the experience filter and runs both retrieval branches
func broaden(plan *types.SearchPlan) {
	plan.SearchStrategy.Filters.ExperienceLevels = nil
	plan.SearchStrategy.Approach = types.ApproachHybrid
}

// narrow restricts roles to those present in the top results
func narrow(plan *types.SearchPlan, top []types.ScoredCandidate) {
	if len(top) > narrowWindow {
		top = top[:narrowWindow]
	}
	var roles []string
	seen := make(map[string]bool)
	for _, b := range top {
		role := strings.ToLower(strings.TrimSpace(b.Role))
		if role == "" || seen[role] {
			continue
		}
		seen[role] = true
		roles = append(roles, role)
	}
	if len(roles) > 0 {
		plan.SearchStrategy.Filters.Roles = roles
	}
}

// reweight replaces the ranking criteria wholesale. Without a payload the plan
// returns to the default balance.
func reweight(plan *types.SearchPlan, criteria []types.RankingCriterion) {
	var next []types.RankingCriterion
	for _, c := range criteria {
		if factor := ranking.CanonicalFactor(c.Factor); factor != "" {
			next = append(next, types.RankingCriterion{Factor: factor, Weight: c.Weight})
		}
	}
	if len(next) == 0 {
		next = []types.RankingCriterion{{Factor: ranking.FactorRelevance, Weight: 1.0}}
	}
	plan.SearchStrategy.RankingCriteria = next
}

// mergeFilters unions suggested list values into f; a suggested location replaces the current one
func mergeFilters(f *types.SearchFilters, p types.RefinementParameters) {
	f.Roles = union(f.Roles, lowerAll(p.Roles))
	f.ExperienceLevels = union(f.ExperienceLevels, lowerAll(p.ExperienceLevels))
	f.Availability = union(f.Availability, lowerAll(p.Availability))
	if len(p.Skills) > 0 {
		f.Skills = skills.NormalizeSkills(append(append([]string{}, f.Skills...), p.Skills...))
	}
	if loc := strings.TrimSpace(p.Location); loc != "" {
		f.Location = loc
	}
}

func union(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	out := append([]string{}, base...)
	seen := make(map[string]bool, len(base))
	for _, v := range base {
		seen[v] = true
	}
	for _, v := range extra {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}
