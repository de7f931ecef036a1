// Package ranking scores retrieved builders against a search plan and orders them for presentation.
package ranking

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/buildermatch/internal/types"
)

// DefaultMaxPerRole is the diversity cap applied to each role
const DefaultMaxPerRole = 3

// Signals carries a hydrated candidate with its retrieval scores
type Signals struct {
	Candidate types.Candidate
	Semantic  float64
	Keyword   float64
}

// Options configures a scoring pass
type Options struct {
	QuerySkills []string
	Weights     Weights
	Now         time.Time
}

// OptionsForPlan builds scoring options from a plan. Query skills must already be
// extracted by the caller.
func OptionsForPlan(plan *types.SearchPlan, querySkills []string, now time.Time) Options {
	var criteria []types.RankingCriterion
	if plan != nil {
		criteria = plan.SearchStrategy.RankingCriteria
	}
	return Options{
		QuerySkills: querySkills,
		Weights:     WeightsFromCriteria(criteria),
		Now:         now,
	}
}

// ScoreCandidate computes every component score and the final weighted score
func ScoreCandidate(sig Signals, opts Options) types.ScoredCandidate {
	c := sig.Candidate
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	semantic := clamp01(sig.Semantic)
	keyword := clamp01(sig.Keyword)
	skillScore, matched := computeSkillMatchScore(&c, opts.QuerySkills)
	availability := computeAvailabilityBoost(&c)
	recency := computeRecentActivityBoost(&c, now)
	completeness := computeCompletenessBoost(&c)

	w := opts.Weights
	factors := []types.RelevanceFactor{
		{Factor: FactorSemantic, Contribution: w.Semantic * semantic},
		{Factor: FactorKeyword, Contribution: w.Keyword * keyword},
		{Factor: FactorSkills, Contribution: w.Skills * skillScore},
		{Factor: FactorAvailability, Contribution: w.Availability * availability},
		{Factor: FactorRecency, Contribution: w.Recency * recency},
		{Factor: FactorCompleteness, Contribution: w.Completeness * completeness},
	}
	total := 0.0
	for _, f := range factors {
		total += f.Contribution
	}

	scored := types.ScoredCandidate{
		Candidate:           c,
		SemanticScore:       semantic,
		KeywordScore:        keyword,
		SkillMatchScore:     skillScore,
		AvailabilityBoost:   availability,
		RecentActivityBoost: recency,
		CompletenessBoost:   completeness,
		FinalScore:          clamp01(total),
		MatchedSkills:       matched,
		RelevanceFactors:    factors,
	}
	scored.MatchExplanation = generateExplanation(&scored)
	return scored
}

// RankCandidates scores every candidate and sorts by final score descending.
// Ties keep retrieval order.
func RankCandidates(signals []Signals, opts Options) []types.ScoredCandidate {
	scored := make([]types.ScoredCandidate, 0, len(signals))
	for _, sig := range signals {
		scored = append(scored, ScoreCandidate(sig, opts))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].FinalScore > scored[j].FinalScore
	})
	return scored
}

// ApplyDiversityCap keeps at most maxPerRole candidates per role, walking the list
// in order so the strongest of each role survive.
func ApplyDiversityCap(ranked []types.ScoredCandidate, maxPerRole int) []types.ScoredCandidate {
	if maxPerRole <= 0 {
		return ranked
	}
	counts := make(map[string]int)
	out := make([]types.ScoredCandidate, 0, len(ranked))
	for _, c := range ranked {
		role := strings.ToLower(strings.TrimSpace(c.Role))
		if counts[role] >= maxPerRole {
			continue
		}
		counts[role]++
		out = append(out, c)
	}
	return out
}

// Rank scores, sorts, caps per role and truncates to maxResults
func Rank(signals []Signals, opts Options, maxResults int) []types.ScoredCandidate {
	ranked := ApplyDiversityCap(RankCandidates(signals, opts), DefaultMaxPerRole)
	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked
}

// NormalizeKeywordRanks divides every rank by the largest rank so values land in [0,1]
func NormalizeKeywordRanks(ranks map[string]float64) map[string]float64 {
	maxRank := 0.0
	for _, r := range ranks {
		if r > maxRank {
			maxRank = r
		}
	}
	out := make(map[string]float64, len(ranks))
	for id, r := range ranks {
		if maxRank <= 0 || r <= 0 {
			out[id] = 0
			continue
		}
		out[id] = r / maxRank
	}
	return out
}

// generateExplanation builds a human-readable reason for the match
func generateExplanation(c *types.ScoredCandidate) string {
	var parts []string

	if c.SemanticScore > 0.7 {
		parts = append(parts, "Strong semantic match")
	}
	if c.SkillMatchScore > 0.6 && len(c.MatchedSkills) > 0 {
		top := c.MatchedSkills
		if len(top) > 3 {
			top = top[:3]
		}
		parts = append(parts, fmt.Sprintf("Skilled in %s", strings.Join(top, ", ")))
	}
	if c.AvailabilityBoost > 1.0 {
		parts = append(parts, "Currently available")
	}

	if len(parts) == 0 {
		if c.KeywordScore > 0 {
			return "Matches search keywords"
		}
		return "Related profile"
	}
	return strings.Join(parts, ". ")
}
