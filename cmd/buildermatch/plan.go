package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/buildermatch/internal/observability"
	"github.com/jonathan/buildermatch/internal/planner"
	"github.com/jonathan/buildermatch/internal/schemas"
	rootschemas "github.com/jonathan/buildermatch/schemas"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Interpret a request into a search plan without running it",
	Long:  "Produces the normalized search plan for a request: intent, hard filters, retrieval approach and ranking weights. Uses the model when GEMINI_API_KEY is set and query-shape heuristics otherwise.",
	RunE:  runPlan,
}

var (
	planQuery    string
	planOutput   string
	planPrevious []string
	planProfile  string
	planVerbose  bool
)

func init() {
	planCmd.Flags().StringVarP(&planQuery, "query", "q", "", "Natural-language request (required)")
	planCmd.Flags().StringVarP(&planOutput, "out", "o", "", "Path to output SearchPlan JSON file (defaults to stdout)")
	planCmd.Flags().StringSliceVar(&planPrevious, "previous", nil, "Earlier requests from the same user (repeatable)")
	planCmd.Flags().StringVar(&planProfile, "profile", "", "Short description of the requester")
	planCmd.Flags().BoolVarP(&planVerbose, "verbose", "v", false, "Print the plan as a box as well")

	markRequired(planCmd, "query")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	if client != nil {
		defer func() { _ = client.Close() }()
	}

	var pc *planner.PlanContext
	if len(planPrevious) > 0 || planProfile != "" {
		pc = &planner.PlanContext{PreviousQueries: planPrevious, UserProfile: planProfile}
	}

	plan := planner.New(client, cfg.ModelTimeout()).Plan(ctx, planQuery, pc)

	if planVerbose {
		observability.NewPrinter(os.Stderr).PrintSearchPlan(plan)
	}

	// Output validation is a safety check, not a requirement
	if content, err := json.Marshal(plan); err == nil {
		if err := schemas.Validate(rootschemas.SearchPlan, string(content)); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Warning: Output validation failed: %v\n", err)
		}
	}

	if err := writeJSON(planOutput, plan); err != nil {
		return err
	}
	if planOutput != "" {
		_, _ = fmt.Fprintf(os.Stdout, "Successfully planned %s search to %s\n", plan.SearchStrategy.Approach, planOutput)
	}
	return nil
}
