package embedding

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"

	"github.com/jonathan/buildermatch/internal/types"
)

// BackfillStore lists builders without an embedding and stores new ones
type BackfillStore interface {
	ListMissingEmbeddings(ctx context.Context, limit int) ([]types.Candidate, error)
	UpdateEmbedding(ctx context.Context, id string, vec []float32) error
}

// BackfillOptions bounds a backfill run
type BackfillOptions struct {
	BatchSize   int
	Workers     int
	MaxBuilders int // 0 means no limit
}

// BackfillStats reports what a backfill run did
type BackfillStats struct {
	Batches  int
	Embedded int
	Failed   int
}

// Backfill embeds every builder the store reports as missing an embedding.
// Each batch is embedded in one provider call and the vectors are written by a
// worker pool. A batch in which every write fails stops the run.
func (e *Embedder) Backfill(ctx context.Context, store BackfillStore, opts BackfillOptions) (BackfillStats, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	var stats BackfillStats
	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return stats, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	var embedded, failed atomic.Int64
	processed := 0

	for {
		if err := ctx.Err(); err != nil {
			return snapshot(stats, &embedded, &failed), err
		}

		limit := opts.BatchSize
		if opts.MaxBuilders > 0 && opts.MaxBuilders-processed < limit {
			limit = opts.MaxBuilders - processed
		}

		builders, err := store.ListMissingEmbeddings(ctx, limit)
		if err != nil {
			return snapshot(stats, &embedded, &failed), fmt.Errorf("failed to list builders: %w", err)
		}
		if len(builders) == 0 {
			break
		}

		texts := make([]string, len(builders))
		for i := range builders {
			texts[i] = builders[i].EmbeddingText()
		}
		vectors, err := e.EmbedBatch(ctx, texts)
		if err != nil {
			return snapshot(stats, &embedded, &failed), fmt.Errorf("failed to embed batch %d: %w", stats.Batches+1, err)
		}

		before := failed.Load()
		var wg sync.WaitGroup
		for i := range builders {
			id, vec := builders[i].ID, vectors[i]
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				if err := store.UpdateEmbedding(ctx, id, vec); err != nil {
					log.Printf("[EMBEDDING] Failed to store embedding for %s: %v", id, err)
					failed.Inc()
					return
				}
				embedded.Inc()
			})
			if submitErr != nil {
				wg.Done()
				failed.Inc()
			}
		}
		wg.Wait()

		stats.Batches++
		processed += len(builders)
		log.Printf("[EMBEDDING] Batch %d: %d builders", stats.Batches, len(builders))

		if failed.Load()-before == int64(len(builders)) {
			return snapshot(stats, &embedded, &failed), fmt.Errorf("batch %d made no progress: every update failed", stats.Batches)
		}
		if opts.MaxBuilders > 0 && processed >= opts.MaxBuilders {
			break
		}
		if len(builders) < limit {
			break
		}
	}

	return snapshot(stats, &embedded, &failed), nil
}

func snapshot(stats BackfillStats, embedded, failed *atomic.Int64) BackfillStats {
	stats.Embedded = int(embedded.Load())
	stats.Failed = int(failed.Load())
	return stats
}
