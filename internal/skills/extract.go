package skills

import (
	"sort"
	"strings"
	"unicode"
)

// vocabulary lists skills recognised in free text, keyed by lower-case surface form.
// Aliases from skillNormalizations are merged in at init.
var vocabulary = map[string]string{
	"python":           "Python",
	"go":               "Go",
	"java":             "Java",
	"rust":             "Rust",
	"ruby":             "Ruby",
	"rails":            "Rails",
	"django":           "Django",
	"flask":            "Flask",
	"swift":            "Swift",
	"kotlin":           "Kotlin",
	"flutter":          "Flutter",
	"angular":          "Angular",
	"svelte":           "Svelte",
	"tailwind":         "Tailwind",
	"graphql":          "GraphQL",
	"docker":           "Docker",
	"terraform":        "Terraform",
	"mongodb":          "MongoDB",
	"redis":            "Redis",
	"figma":            "Figma",
	"design":           "Design",
	"product design":   "Product Design",
	"ui design":        "UI Design",
	"ux design":        "UX Design",
	"data science":     "Data Science",
	"machine learning": "Machine Learning",
	"solidity":         "Solidity",
	"web3":             "Web3",
	"devops":           "DevOps",
	"android":          "Android",
	"backend":          "Backend",
	"frontend":         "Frontend",
}

func init() {
	for alias, canonical := range skillNormalizations {
		if _, exists := vocabulary[alias]; !exists {
			vocabulary[alias] = canonical
		}
	}
}

// ExtractSkills finds known skills mentioned in free text.
// Results are canonical names in order of first mention, without duplicates.
func ExtractSkills(text string) []string {
	padded := " " + tokenize(text) + " "
	if strings.TrimSpace(padded) == "" {
		return nil
	}

	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for alias, canonical := range vocabulary {
		if idx := strings.Index(padded, " "+alias+" "); idx >= 0 {
			hits = append(hits, hit{pos: idx, name: canonical})
		}
	}

	// Earlier mention first; longer canonical names first at the same position
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		if len(hits[i].name) != len(hits[j].name) {
			return len(hits[i].name) > len(hits[j].name)
		}
		return hits[i].name < hits[j].name
	})

	names := make([]string, 0, len(hits))
	for _, h := range hits {
		names = append(names, h.name)
	}
	return NormalizeSkills(names)
}

// tokenize lower-cases text and replaces separators with single spaces.
// Characters that appear inside skill names (. # +) are kept, except trailing periods.
func tokenize(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '#' || r == '+' {
			sb.WriteRune(r)
			continue
		}
		sb.WriteByte(' ')
	}

	words := strings.Fields(sb.String())
	for i, w := range words {
		words[i] = strings.TrimRight(w, ".")
	}
	return strings.Join(words, " ")
}
