package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/buildermatch/internal/evaluator"
	"github.com/jonathan/buildermatch/internal/observability"
	"github.com/jonathan/buildermatch/internal/types"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Judge an execution result against its search plan",
	Long:  "Computes relevance, diversity and coverage for a saved ExecutionResult and decides whether the search should be refined. Rule-based unless --use-model is set and GEMINI_API_KEY is available.",
	RunE:  runEvaluate,
}

var (
	evaluateQuery    string
	evaluatePlan     string
	evaluateResults  string
	evaluateOutput   string
	evaluateUseModel bool
	evaluateVerbose  bool
)

func init() {
	evaluateCmd.Flags().StringVarP(&evaluateQuery, "query", "q", "", "The original request (required)")
	evaluateCmd.Flags().StringVarP(&evaluatePlan, "plan", "p", "", "Path to input SearchPlan JSON file (required)")
	evaluateCmd.Flags().StringVarP(&evaluateResults, "results", "r", "", "Path to input ExecutionResult JSON file (required)")
	evaluateCmd.Flags().StringVarP(&evaluateOutput, "out", "o", "", "Path to output EvaluationResult JSON file (defaults to stdout)")
	evaluateCmd.Flags().BoolVar(&evaluateUseModel, "use-model", false, "Ask the model for a judgement instead of applying rules")
	evaluateCmd.Flags().BoolVarP(&evaluateVerbose, "verbose", "v", false, "Print the evaluation as a box as well")

	markRequired(evaluateCmd, "query", "plan", "results")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	var plan types.SearchPlan
	if err := readJSON(evaluatePlan, &plan); err != nil {
		return fmt.Errorf("failed to load search plan: %w", err)
	}
	var result types.ExecutionResult
	if err := readJSON(evaluateResults, &result); err != nil {
		return fmt.Errorf("failed to load execution result: %w", err)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ev := evaluator.New(nil, cfg.ModelTimeout())
	if evaluateUseModel {
		client, err := newLLMClient(ctx, cfg)
		if err != nil {
			return err
		}
		if client == nil {
			return fmt.Errorf("--use-model requires GEMINI_API_KEY or --api-key")
		}
		defer func() { _ = client.Close() }()
		ev = evaluator.New(client, cfg.ModelTimeout())
	}

	eval := ev.Evaluate(ctx, evaluateQuery, &plan, &result)

	if evaluateVerbose {
		observability.NewPrinter(os.Stderr).PrintEvaluation(eval)
	}
	if err := writeJSON(evaluateOutput, eval); err != nil {
		return err
	}
	if evaluateOutput != "" {
		_, _ = fmt.Fprintf(os.Stdout, "Confidence %.2f, needs refinement: %t, saved to %s\n",
			eval.ConfidenceScore, eval.NeedsRefinement, evaluateOutput)
	}
	return nil
}
