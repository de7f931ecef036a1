// Package ranking scores retrieved builders against a search plan and orders them for presentation.
package ranking

import (
	"strings"

	"github.com/jonathan/buildermatch/internal/types"
)

// Factor names used in ranking criteria and relevance factor output
const (
	FactorSemantic     = "semantic"
	FactorKeyword      = "keyword"
	FactorSkills       = "skills"
	FactorAvailability = "availability"
	FactorRecency      = "recency"
	FactorCompleteness = "completeness"
	FactorRelevance    = "relevance"
)

// Weights holds the weight of each scoring component in the final score
type Weights struct {
	Semantic     float64 `json:"semantic"`
	Keyword      float64 `json:"keyword"`
	Skills       float64 `json:"skills"`
	Availability float64 `json:"availability"`
	Recency      float64 `json:"recency"`
	Completeness float64 `json:"completeness"`
}

// DefaultWeights returns the weights used when a plan does not override them
func DefaultWeights() Weights {
	return Weights{
		Semantic:     0.35,
		Keyword:      0.25,
		Skills:       0.20,
		Availability: 0.10,
		Recency:      0.05,
		Completeness: 0.05,
	}
}

// factorAliases maps the factor names a planner may emit onto canonical factors
var factorAliases = map[string]string{
	"semantic":             FactorSemantic,
	"semantic_similarity":  FactorSemantic,
	"semantic_match":       FactorSemantic,
	"keyword":              FactorKeyword,
	"keyword_match":        FactorKeyword,
	"keyword_relevance":    FactorKeyword,
	"skills":               FactorSkills,
	"skill_match":          FactorSkills,
	"skill_overlap":        FactorSkills,
	"availability":         FactorAvailability,
	"recency":              FactorRecency,
	"recent_activity":      FactorRecency,
	"activity":             FactorRecency,
	"completeness":         FactorCompleteness,
	"profile_completeness": FactorCompleteness,
	"profile_quality":      FactorCompleteness,
	"relevance":            FactorRelevance,
}

// CanonicalFactor returns the canonical factor name, or "" if the name is unknown
func CanonicalFactor(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return factorAliases[key]
}

// WeightsFromCriteria derives scoring weights from a plan's ranking criteria.
// Recognised factors override the matching default weight and the result is
// normalised to sum to 1. "relevance" and unknown factors leave defaults untouched.
func WeightsFromCriteria(criteria []types.RankingCriterion) Weights {
	w := DefaultWeights()
	overridden := false
	for _, c := range criteria {
		weight := clamp01(c.Weight)
		factor := CanonicalFactor(c.Factor)
		if factor != "" && factor != FactorRelevance {
			overridden = true
		}
		switch factor {
		case FactorSemantic:
			w.Semantic = weight
		case FactorKeyword:
			w.Keyword = weight
		case FactorSkills:
			w.Skills = weight
		case FactorAvailability:
			w.Availability = weight
		case FactorRecency:
			w.Recency = weight
		case FactorCompleteness:
			w.Completeness = weight
		}
	}

	if !overridden {
		return w
	}

	total := w.Semantic + w.Keyword + w.Skills + w.Availability + w.Recency + w.Completeness
	if total <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Semantic:     w.Semantic / total,
		Keyword:      w.Keyword / total,
		Skills:       w.Skills / total,
		Availability: w.Availability / total,
		Recency:      w.Recency / total,
		Completeness: w.Completeness / total,
	}
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
