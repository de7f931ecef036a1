package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/buildermatch/internal/embedding"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed builders that have no embedding yet",
	Long:  "Backfills profile embeddings for semantic retrieval. Builders are embedded in batches and written back by a worker pool.",
	RunE:  runIndex,
}

var (
	indexBatchSize int
	indexWorkers   int
	indexLimit     int
)

func init() {
	indexCmd.Flags().IntVar(&indexBatchSize, "batch-size", 50, "Builders embedded per provider call")
	indexCmd.Flags().IntVar(&indexWorkers, "workers", 0, "Concurrent embedding writes (defaults to config index_workers)")
	indexCmd.Flags().IntVar(&indexLimit, "limit", 0, "Stop after this many builders (0 means all)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	if indexBatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0, got %d", indexBatchSize)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	workers := cfg.IndexWorkers
	if indexWorkers > 0 {
		workers = indexWorkers
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.embedder == nil {
		return fmt.Errorf("no embedding provider configured (set OPENAI_API_KEY or EMBEDDING_BASE_URL)")
	}

	stats, err := a.embedder.Backfill(ctx, a.store, embedding.BackfillOptions{
		BatchSize:   indexBatchSize,
		Workers:     workers,
		MaxBuilders: indexLimit,
	})
	_, _ = fmt.Fprintf(os.Stdout, "Embedded %d builders in %d batches (%d failed)\n", stats.Embedded, stats.Batches, stats.Failed)
	if err != nil {
		return fmt.Errorf("indexing stopped: %w", err)
	}
	return nil
}
