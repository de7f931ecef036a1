// Package skills provides skill name normalization and extraction of skills from query text.
package skills

import "strings"

// skillNormalizations maps common skill name variants to canonical names
var skillNormalizations = map[string]string{
	"golang":       "Go",
	"go lang":      "Go",
	"javascript":   "JavaScript",
	"js":           "JavaScript",
	"typescript":   "TypeScript",
	"ts":           "TypeScript",
	"k8s":          "Kubernetes",
	"kubernetes":   "Kubernetes",
	"react":        "React",
	"react.js":     "React",
	"reactjs":      "React",
	"react native": "React Native",
	"vue":          "Vue",
	"vue.js":       "Vue",
	"vuejs":        "Vue",
	"node":         "Node.js",
	"node.js":      "Node.js",
	"nodejs":       "Node.js",
	"next.js":      "Next.js",
	"nextjs":       "Next.js",
	"postgres":     "PostgreSQL",
	"postgresql":   "PostgreSQL",
	"ml":           "Machine Learning",
	"ai":           "AI",
	"llm":          "LLM",
	"ux":           "UX",
	"ui":           "UI",
	"css":          "CSS",
	"html":         "HTML",
	"aws":          "AWS",
	"gcp":          "GCP",
	"sql":          "SQL",
	"ios":          "iOS",
	"c#":           "C#",
	"c++":          "C++",
}

// NormalizeSkillName normalizes a skill name to its canonical form
func NormalizeSkillName(skillName string) string {
	if skillName == "" {
		return ""
	}

	normalized := strings.TrimSpace(skillName)

	lower := strings.ToLower(normalized)
	if canonical, ok := skillNormalizations[lower]; ok {
		return canonical
	}

	// Mixed case is taken as already canonical
	if normalized != strings.ToUpper(normalized) && normalized != strings.ToLower(normalized) {
		return normalized
	}

	// Single lowercase words get a leading capital
	if normalized == lower && !strings.Contains(normalized, " ") {
		return strings.ToUpper(normalized[:1]) + normalized[1:]
	}

	return normalized
}

// NormalizeSkills normalizes and deduplicates a list of skill names, keeping first-seen order
func NormalizeSkills(names []string) []string {
	if len(names) == 0 {
		return nil
	}

	out := make([]string, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		n := NormalizeSkillName(name)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
