// Package types provides type definitions for structured data used throughout the buildermatch system.
package types

import (
	"strings"
	"time"
)

// Availability values stored on builder profiles
const (
	AvailabilityAvailable  = "available"
	AvailabilityBusy       = "busy"
	AvailabilityNotLooking = "not_looking"
)

// Proficiency levels for builder skills
const (
	ProficiencyBeginner     = "beginner"
	ProficiencyIntermediate = "intermediate"
	ProficiencyAdvanced     = "advanced"
	ProficiencyExpert       = "expert"
)

// Candidate is a builder profile snapshot hydrated once per iteration
type Candidate struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Role            string    `json:"role"`
	ExperienceLevel string    `json:"experience_level,omitempty"`
	Bio             string    `json:"bio,omitempty"`
	Location        string    `json:"location,omitempty"`
	Availability    string    `json:"availability,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	GitHubURL       string    `json:"github_url,omitempty"`
	LinkedInURL     string    `json:"linkedin_url,omitempty"`
	WebsiteURL      string    `json:"website_url,omitempty"`
	Skills          []Skill   `json:"skills,omitempty"`
	Projects        []Project `json:"projects,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Skill is a named skill with a proficiency level
type Skill struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency,omitempty"`
}

// Project is a showcase project on a builder profile
type Project struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	TechStack   []string `json:"tech_stack,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// HasExternalLink reports whether the profile links to an external identity
func (c *Candidate) HasExternalLink() bool {
	return c.GitHubURL != "" || c.LinkedInURL != "" || c.WebsiteURL != ""
}

// SkillNames returns the candidate's skill names in profile order
func (c *Candidate) SkillNames() []string {
	names := make([]string, 0, len(c.Skills))
	for _, s := range c.Skills {
		names = append(names, s.Name)
	}
	return names
}

// ScoredCandidate is a candidate with every scoring signal attached.
// A new generation is produced on every iteration; values are never updated in place.
type ScoredCandidate struct {
	Candidate
	SemanticScore       float64           `json:"semantic_score"`
	KeywordScore        float64           `json:"keyword_score"`
	SkillMatchScore     float64           `json:"skill_match_score"`
	AvailabilityBoost   float64           `json:"availability_boost"`
	RecentActivityBoost float64           `json:"recent_activity_boost"`
	CompletenessBoost   float64           `json:"completeness_boost"`
	FinalScore          float64           `json:"final_score"`
	MatchExplanation    string            `json:"match_explanation"`
	MatchedSkills       []string          `json:"matched_skills,omitempty"`
	RelevanceFactors    []RelevanceFactor `json:"relevance_factors,omitempty"`
}

// RelevanceFactor is one factor's weighted contribution to the final score
type RelevanceFactor struct {
	Factor       string  `json:"factor"`
	Contribution float64 `json:"contribution"`
}

// ExecutionResult is the ordered output of one retrieval iteration
type ExecutionResult struct {
	Builders []ScoredCandidate `json:"builders"`
	Steps    []ExecutionStep   `json:"steps"`
}

// ExecutionStep records one stage of retrieval for the reasoning trace
type ExecutionStep struct {
	Phase       string `json:"phase"`
	Description string `json:"description"`
	ResultCount int    `json:"result_count"`
	ElapsedMs   int64  `json:"elapsed_ms"`
}

// ScoredID is a candidate identifier with a retrieval score
type ScoredID struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// EmbeddingText is the profile text that gets embedded for semantic retrieval
func (c *Candidate) EmbeddingText() string {
	var sb strings.Builder
	sb.WriteString(c.Name)
	if c.Role != "" {
		sb.WriteString(". ")
		sb.WriteString(c.Role)
	}
	if c.ExperienceLevel != "" {
		sb.WriteString(" (")
		sb.WriteString(c.ExperienceLevel)
		sb.WriteString(")")
	}
	if c.Bio != "" {
		sb.WriteString(". ")
		sb.WriteString(c.Bio)
	}
	if len(c.Skills) > 0 {
		sb.WriteString(". Skills: ")
		sb.WriteString(strings.Join(c.SkillNames(), ", "))
	}
	for _, p := range c.Projects {
		sb.WriteString(". Project: ")
		sb.WriteString(p.Title)
		if p.Description != "" {
			sb.WriteString(" - ")
			sb.WriteString(p.Description)
		}
		if len(p.TechStack) > 0 {
			sb.WriteString(" (")
			sb.WriteString(strings.Join(p.TechStack, ", "))
			sb.WriteString(")")
		}
	}
	return sb.String()
}

// SearchText is the profile text used for lexical matching
func (c *Candidate) SearchText() string {
	parts := []string{c.Name, c.Role, c.Bio}
	parts = append(parts, c.SkillNames()...)
	for _, p := range c.Projects {
		parts = append(parts, p.Title, p.Description)
		parts = append(parts, p.TechStack...)
	}
	return strings.Join(parts, " ")
}
