package evaluator

import (
	"math"
	"strings"

	"github.com/jonathan/buildermatch/internal/types"
)

// Metrics are the deterministic quality measures of one result set
type Metrics struct {
	Relevance  float64 `json:"relevance"`
	Diversity  float64 `json:"diversity"`
	Coverage   float64 `json:"coverage"`
	Confidence float64 `json:"confidence"`
}

// ComputeMetrics measures builders against plan. It is pure and reproducible.
func ComputeMetrics(plan *types.SearchPlan, builders []types.ScoredCandidate) Metrics {
	m := Metrics{
		Relevance: relevance(builders),
		Diversity: diversity(builders),
		Coverage:  coverage(plan, builders),
	}
	m.Confidence = (m.Relevance + m.Diversity + m.Coverage) / 3
	return m
}

// relevance is the mean final score
func relevance(builders []types.ScoredCandidate) float64 {
	if len(builders) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range builders {
		sum += b.FinalScore
	}
	return sum / float64(len(builders))
}

// diversity is distinct roles relative to half the result count, capped at 1
func diversity(builders []types.ScoredCandidate) float64 {
	if len(builders) == 0 {
		return 0
	}
	roles := make(map[string]bool)
	for _, b := range builders {
		roles[strings.ToLower(strings.TrimSpace(b.Role))] = true
	}
	denom := math.Max(1, float64(len(builders))/2)
	return math.Min(1, float64(len(roles))/denom)
}

// coverage is the fraction of intent terms found in some builder's bio or skills
func coverage(plan *types.SearchPlan, builders []types.ScoredCandidate) float64 {
	if plan == nil || len(builders) == 0 {
		return 0
	}
	terms := plan.IntentTerms()
	if len(terms) == 0 {
		return 0
	}

	haystacks := make([]string, len(builders))
	for i, b := range builders {
		haystacks[i] = strings.ToLower(b.Bio + " " + strings.Join(b.SkillNames(), " "))
	}

	covered := 0
	for _, term := range terms {
		needle := strings.ToLower(strings.TrimSpace(term))
		for _, h := range haystacks {
			if strings.Contains(h, needle) {
				covered++
				break
			}
		}
	}
	return float64(covered) / float64(len(terms))
}
