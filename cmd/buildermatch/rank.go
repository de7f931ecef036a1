package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/buildermatch/internal/executor"
	"github.com/jonathan/buildermatch/internal/ranking"
	"github.com/jonathan/buildermatch/internal/types"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Score candidates against a search plan offline",
	Long:  "Deterministically scores candidates (with their retrieval scores) against a SearchPlan, applies the per-role diversity cap and writes the ordered ScoredCandidate JSON. No store or model is contacted.",
	RunE:  runRank,
}

var (
	rankPlan           string
	rankCandidatesPath string
	rankOutput         string
	rankMaxResults     int
	rankMaxPerRole     int
)

func init() {
	rankCmd.Flags().StringVarP(&rankPlan, "plan", "p", "", "Path to input SearchPlan JSON file (required)")
	rankCmd.Flags().StringVarP(&rankCandidatesPath, "candidates", "c", "", "Path to input candidates JSON file (required)")
	rankCmd.Flags().StringVarP(&rankOutput, "out", "o", "", "Path to output ranked JSON file (defaults to stdout)")
	rankCmd.Flags().IntVar(&rankMaxResults, "max-results", 10, "Maximum candidates to keep")
	rankCmd.Flags().IntVar(&rankMaxPerRole, "max-per-role", ranking.DefaultMaxPerRole, "Maximum candidates per role")

	markRequired(rankCmd, "plan", "candidates")
	rootCmd.AddCommand(rankCmd)
}

// retrievedCandidate is one entry of the rank input file: a profile plus the
// scores retrieval gave it
type retrievedCandidate struct {
	types.Candidate
	SemanticScore float64 `json:"semantic_score"`
	KeywordScore  float64 `json:"keyword_score"`
}

// rankCandidates scores and orders candidates for plan
func rankCandidates(plan *types.SearchPlan, candidates []retrievedCandidate, maxResults, maxPerRole int, now time.Time) []types.ScoredCandidate {
	signals := make([]ranking.Signals, 0, len(candidates))
	for _, c := range candidates {
		signals = append(signals, ranking.Signals{
			Candidate: c.Candidate,
			Semantic:  c.SemanticScore,
			Keyword:   c.KeywordScore,
		})
	}

	opts := ranking.OptionsForPlan(plan, executor.QuerySkills(plan), now)
	ranked := ranking.ApplyDiversityCap(ranking.RankCandidates(signals, opts), maxPerRole)
	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}
	return ranked
}

func runRank(_ *cobra.Command, _ []string) error {
	if rankMaxResults <= 0 {
		return fmt.Errorf("max-results must be greater than 0, got %d", rankMaxResults)
	}
	if rankMaxPerRole <= 0 {
		return fmt.Errorf("max-per-role must be greater than 0, got %d", rankMaxPerRole)
	}

	var plan types.SearchPlan
	if err := readJSON(rankPlan, &plan); err != nil {
		return fmt.Errorf("failed to load search plan: %w", err)
	}
	var candidates []retrievedCandidate
	if err := readJSON(rankCandidatesPath, &candidates); err != nil {
		return fmt.Errorf("failed to load candidates: %w", err)
	}

	ranked := rankCandidates(&plan, candidates, rankMaxResults, rankMaxPerRole, time.Now())

	if err := writeJSON(rankOutput, ranked); err != nil {
		return err
	}
	if rankOutput != "" {
		_, _ = fmt.Fprintf(os.Stdout, "Successfully ranked %d of %d candidates to %s\n", len(ranked), len(candidates), rankOutput)
	}
	return nil
}
