// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/buildermatch/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSearchPlan outputs the interpreted intent, strategy and filters.
func (p *Printer) PrintSearchPlan(plan *types.SearchPlan) {
	if plan == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Intent:     %s\n", plan.QueryIntent.Primary))
	if len(plan.QueryIntent.Secondary) > 0 {
		sb.WriteString(fmt.Sprintf("Also:       %s\n", strings.Join(plan.QueryIntent.Secondary, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Approach:   %s\n", plan.SearchStrategy.Approach))
	sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", plan.ConfidenceScore))

	f := plan.SearchStrategy.Filters
	filters := []string{}
	if len(f.Roles) > 0 {
		filters = append(filters, "roles: "+strings.Join(f.Roles, ", "))
	}
	if len(f.ExperienceLevels) > 0 {
		filters = append(filters, "experience: "+strings.Join(f.ExperienceLevels, ", "))
	}
	if len(f.Skills) > 0 {
		filters = append(filters, "skills: "+strings.Join(f.Skills, ", "))
	}
	if len(f.Availability) > 0 {
		filters = append(filters, "availability: "+strings.Join(f.Availability, ", "))
	}
	if f.Location != "" {
		filters = append(filters, "location: "+f.Location)
	}
	if len(filters) > 0 {
		sb.WriteString("\nFilters:\n")
		for _, line := range filters {
			sb.WriteString(fmt.Sprintf("  • %s\n", line))
		}
	}

	if len(plan.SearchStrategy.RankingCriteria) > 0 {
		sb.WriteString("\nRanking:\n")
		for _, c := range plan.SearchStrategy.RankingCriteria {
			sb.WriteString(fmt.Sprintf("  • %s %.2f\n", c.Factor, c.Weight))
		}
	}

	p.printBox("SEARCH PLAN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintExecutionSteps outputs the retrieval trace of one iteration.
func (p *Printer) PrintExecutionSteps(steps []types.ExecutionStep) {
	if len(steps) == 0 {
		return
	}

	var sb strings.Builder
	for _, s := range steps {
		sb.WriteString(fmt.Sprintf("%-18s %4d  %5dms\n", s.Phase, s.ResultCount, s.ElapsedMs))
		if s.Description != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", s.Description))
		}
	}

	p.printBox("EXECUTION STEPS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEvaluation outputs quality metrics and any refinement suggestions.
func (p *Printer) PrintEvaluation(eval *types.EvaluationResult) {
	if eval == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Relevance:  %.2f\n", eval.RelevanceScore))
	sb.WriteString(fmt.Sprintf("Diversity:  %.2f\n", eval.DiversityScore))
	sb.WriteString(fmt.Sprintf("Coverage:   %.2f\n", eval.CoverageScore))
	sb.WriteString(fmt.Sprintf("Confidence: %.2f\n", eval.ConfidenceScore))

	if eval.NeedsRefinement {
		sb.WriteString("\n⚠ Needs refinement")
		if eval.RefinementReason != "" {
			sb.WriteString(": " + eval.RefinementReason)
		}
		sb.WriteString("\n")
		for _, s := range eval.RefinementSuggestions {
			sb.WriteString(fmt.Sprintf("  • %s\n", s.Action))
		}
	}

	p.printBox("EVALUATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRefinements outputs the refinement history of a search.
func (p *Printer) PrintRefinements(refinements []types.Refinement) {
	if len(refinements) == 0 {
		return
	}

	var sb strings.Builder
	for i, r := range refinements {
		actions := make([]string, 0, len(r.Actions))
		for _, a := range r.Actions {
			actions = append(actions, string(a.Action))
		}
		sb.WriteString(fmt.Sprintf("After iteration %d (confidence %.2f)\n", r.Iteration, r.ConfidenceBefore))
		sb.WriteString(fmt.Sprintf("  actions: %s\n", strings.Join(actions, ", ")))
		if r.Reason != "" {
			sb.WriteString(fmt.Sprintf("  reason:  %s\n", r.Reason))
		}
		if i < len(refinements)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("REFINEMENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResults outputs the top N builders with scores and match reasons.
func (p *Printer) PrintResults(results []types.ScoredCandidate) {
	if len(results) == 0 {
		p.printBox("RESULTS", "No builders matched")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total builders: %d\n\n", len(results)))

	count := min(len(results), maxItemsToShow)
	for i := 0; i < count; i++ {
		b := results[i]
		sb.WriteString(fmt.Sprintf("#%d  %s (%s)\n", i+1, b.Name, b.Role))
		sb.WriteString(fmt.Sprintf("    Score: %.2f", b.FinalScore))
		if b.Availability != "" {
			sb.WriteString(fmt.Sprintf("  [%s]", b.Availability))
		}
		sb.WriteString("\n")
		if b.MatchExplanation != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", b.MatchExplanation))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(results) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more builders", len(results)-maxItemsToShow))
	}

	p.printBox("TOP BUILDERS", sb.String())
}

// PrintSummary prints the one-line outcome of a search.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSummary(result *types.OrchestrationResult) {
	if result == nil {
		return
	}
	fmt.Fprintf(p.out, "Session %s: %d builders, %d iterations, %d model calls, %dms\n",
		result.SessionID, result.Metadata.TotalResults, result.AgentReasoning.TotalIterations,
		result.Metadata.ModelCallCount, result.Metadata.LatencyMs)
}
