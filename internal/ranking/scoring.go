// Package ranking scores retrieved builders against a search plan and orders them for presentation.
package ranking

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jonathan/buildermatch/internal/types"
)

const (
	// neutralSkillScore is used when the query carries no extractable skills
	neutralSkillScore = 0.5

	// recencyDecayDays is the e-folding time of the recent activity boost
	recencyDecayDays = 30.0

	// bioLengthThreshold is the bio length above which a profile counts as filled out
	bioLengthThreshold = 100
)

// proficiencyScore maps proficiency levels onto [0.25, 1.0]
func proficiencyScore(level string) float64 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case types.ProficiencyBeginner:
		return 0.25
	case types.ProficiencyIntermediate:
		return 0.5
	case types.ProficiencyAdvanced:
		return 0.75
	case types.ProficiencyExpert:
		return 1.0
	default:
		// Unknown proficiency defaults to intermediate
		return 0.5
	}
}

// computeSkillMatchScore computes the fraction of query skills found in the candidate's
// skills (case-insensitive substring match in either direction) multiplied by the average
// proficiency of the matched skills. Returns the score and the matched candidate skills,
// strongest first.
func computeSkillMatchScore(candidate *types.Candidate, querySkills []string) (float64, []string) {
	if len(querySkills) == 0 {
		return neutralSkillScore, nil
	}

	type match struct {
		name  string
		score float64
		order int
	}
	matched := 0
	proficiencySum := 0.0
	seen := make(map[string]bool)
	var matches []match

	for _, q := range querySkills {
		qLower := strings.ToLower(strings.TrimSpace(q))
		if qLower == "" {
			continue
		}

		bestIdx := -1
		bestScore := -1.0
		for i, s := range candidate.Skills {
			sLower := strings.ToLower(strings.TrimSpace(s.Name))
			if sLower == "" {
				continue
			}
			if strings.Contains(sLower, qLower) || strings.Contains(qLower, sLower) {
				if p := proficiencyScore(s.Proficiency); p > bestScore {
					bestScore = p
					bestIdx = i
				}
			}
		}
		if bestIdx < 0 {
			continue
		}

		matched++
		proficiencySum += bestScore
		name := candidate.Skills[bestIdx].Name
		if !seen[name] {
			seen[name] = true
			matches = append(matches, match{name: name, score: bestScore, order: bestIdx})
		}
	}

	if matched == 0 {
		return 0.0, nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].order < matches[j].order
	})
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m.name
	}

	fraction := float64(matched) / float64(len(querySkills))
	avgProficiency := proficiencySum / float64(matched)
	return fraction * avgProficiency, names
}

// computeAvailabilityBoost returns the multiplicative availability boost
func computeAvailabilityBoost(candidate *types.Candidate) float64 {
	switch strings.ToLower(candidate.Availability) {
	case types.AvailabilityAvailable:
		return 1.2
	case types.AvailabilityBusy:
		return 0.9
	case types.AvailabilityNotLooking:
		return 0.5
	default:
		return 0.9
	}
}

// computeRecentActivityBoost decays from 1.0 toward a 0.8 floor over roughly 30 days
func computeRecentActivityBoost(candidate *types.Candidate, now time.Time) float64 {
	if candidate.UpdatedAt.IsZero() {
		return 0.8
	}
	days := now.Sub(candidate.UpdatedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-days/recencyDecayDays)*0.2 + 0.8
}

// computeCompletenessBoost rewards filled-out profiles
func computeCompletenessBoost(candidate *types.Candidate) float64 {
	score := 0.0
	if candidate.AvatarURL != "" {
		score += 0.3
	}
	if len(candidate.Projects) > 0 {
		score += 0.3
	}
	if candidate.HasExternalLink() {
		score += 0.2
	}
	if len(candidate.Bio) > bioLengthThreshold {
		score += 0.2
	}
	return score
}
