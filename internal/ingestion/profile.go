package ingestion

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/jonathan/buildermatch/internal/types"
)

var validAvailability = []string{
	types.AvailabilityAvailable,
	types.AvailabilityBusy,
	types.AvailabilityNotLooking,
}

var validProficiency = []string{
	types.ProficiencyBeginner,
	types.ProficiencyIntermediate,
	types.ProficiencyAdvanced,
	types.ProficiencyExpert,
}

// LoadBuilders reads a JSON array of builder profiles and normalizes each one
func LoadBuilders(path string) ([]types.Candidate, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("builders file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read builders file %s: %w", path, err)
	}

	var builders []types.Candidate
	if err := json.Unmarshal(content, &builders); err != nil {
		return nil, fmt.Errorf("failed to unmarshal builders JSON: %w", err)
	}

	for i := range builders {
		if err := NormalizeProfile(&builders[i]); err != nil {
			return nil, fmt.Errorf("builder %d: %w", i, err)
		}
	}
	return builders, nil
}

// NormalizeProfile cleans a profile in place: free text is converted to plain text,
// role and enum fields are lowercased, and blank or repeated skills are dropped.
// Name and role are required; a missing availability means available.
func NormalizeProfile(c *types.Candidate) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Role = strings.ToLower(strings.TrimSpace(c.Role))
	c.ExperienceLevel = strings.ToLower(strings.TrimSpace(c.ExperienceLevel))
	c.Location = strings.TrimSpace(c.Location)
	c.Availability = strings.ToLower(strings.TrimSpace(c.Availability))
	c.Availability = strings.ReplaceAll(c.Availability, " ", "_")

	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Role == "" {
		return fmt.Errorf("%s: role is required", c.Name)
	}
	if c.Availability == "" {
		c.Availability = types.AvailabilityAvailable
	}
	if !slices.Contains(validAvailability, c.Availability) {
		return fmt.Errorf("%s: unknown availability %q", c.Name, c.Availability)
	}

	c.Bio = CleanProfileText(c.Bio)
	c.Skills = normalizeSkills(c.Skills)
	for i := range c.Projects {
		p := &c.Projects[i]
		p.Title = strings.TrimSpace(p.Title)
		p.Description = CleanProfileText(p.Description)
	}
	return nil
}

func normalizeSkills(in []types.Skill) []types.Skill {
	seen := make(map[string]bool)
	out := make([]types.Skill, 0, len(in))
	for _, s := range in {
		s.Name = strings.TrimSpace(s.Name)
		key := strings.ToLower(s.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		s.Proficiency = strings.ToLower(strings.TrimSpace(s.Proficiency))
		if !slices.Contains(validProficiency, s.Proficiency) {
			s.Proficiency = ""
		}
		out = append(out, s)
	}
	return out
}
