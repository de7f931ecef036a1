package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/buildermatch/internal/observability"
	"github.com/jonathan/buildermatch/internal/orchestrator"
	"github.com/jonathan/buildermatch/internal/types"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search for builders matching a natural-language request",
	Long: `Runs the full search loop: plan -> retrieve -> rank -> evaluate -> refine, and prints the best results with their reasoning trace.

Without --verbose the full result is written as JSON (to --out or stdout).`,
	RunE: runSearch,
}

var (
	searchQuery        string
	searchMaxResults   int
	searchRoles        []string
	searchSkills       []string
	searchExperience   []string
	searchAvailability []string
	searchLocation     string
	searchOutput       string
	searchVerbose      bool
)

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Natural-language request (required)")
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "Maximum builders to return (defaults to config max_results)")
	searchCmd.Flags().StringSliceVar(&searchRoles, "role", nil, "Restrict to roles (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchSkills, "skill", nil, "Require skills (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchExperience, "experience", nil, "Restrict to experience levels (repeatable)")
	searchCmd.Flags().StringSliceVar(&searchAvailability, "availability", nil, "Restrict to availability states (repeatable)")
	searchCmd.Flags().StringVar(&searchLocation, "location", "", "Restrict to a location")
	searchCmd.Flags().StringVarP(&searchOutput, "out", "o", "", "Write the JSON result to this file")
	searchCmd.Flags().BoolVarP(&searchVerbose, "verbose", "v", false, "Print the plan, retrieval steps, evaluation and results")

	markRequired(searchCmd, "query")
	rootCmd.AddCommand(searchCmd)
}

// buildSearchFilters returns nil when no filter flag was given
func buildSearchFilters(roles, skills, experience, availability []string, location string) *types.SearchFilters {
	f := &types.SearchFilters{
		Roles:            roles,
		Skills:           skills,
		ExperienceLevels: experience,
		Availability:     availability,
		Location:         strings.TrimSpace(location),
	}
	if len(f.Roles) == 0 && len(f.Skills) == 0 && len(f.ExperienceLevels) == 0 &&
		len(f.Availability) == 0 && f.Location == "" {
		return nil
	}
	return f
}

func runSearch(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = searchVerbose
	}

	maxResults := cfg.MaxResults
	if searchMaxResults > 0 {
		maxResults = searchMaxResults
	}

	req := types.SearchRequest{
		Query:      searchQuery,
		MaxResults: maxResults,
		Filters:    buildSearchFilters(searchRoles, searchSkills, searchExperience, searchAvailability, searchLocation),
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid search request: %w", err)
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	orch, err := a.orchestrator()
	if err != nil {
		return err
	}

	result, err := orch.OrchestrateSearch(ctx, req.Query, orchestrator.Options{
		MaxResults: req.MaxResults,
		Filters:    req.Filters,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cfg.Verbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintSearchPlan(result.AgentReasoning.Plan)
		printer.PrintExecutionSteps(result.AgentReasoning.ExecutionSteps)
		printer.PrintEvaluation(result.AgentReasoning.Evaluation)
		printer.PrintRefinements(result.AgentReasoning.Refinements)
		printer.PrintResults(result.Results)
		printer.PrintSummary(result)
		if searchOutput == "" {
			return nil
		}
	}

	if err := writeJSON(searchOutput, result); err != nil {
		return err
	}
	if searchOutput != "" {
		_, _ = fmt.Fprintf(os.Stdout, "Found %d builders, saved to %s\n", len(result.Results), searchOutput)
	}
	return nil
}
