package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonathan/buildermatch/internal/types"
	"github.com/panjf2000/ants/v2"
)

// StateSink receives orchestration snapshots for observability
type StateSink interface {
	UpsertSearchSession(ctx context.Context, state *types.OrchestrationState) error
}

// DefaultSinkPoolSize is the number of concurrent snapshot writers
const DefaultSinkPoolSize = 4

// AsyncSink writes snapshots to an inner sink on a bounded worker pool.
// Submission never blocks: when every worker is busy the snapshot is dropped.
// Writes for one session are serialized; while a write is in flight only the
// newest snapshot for that session is kept, so the stored phase never goes back.
type AsyncSink struct {
	inner   StateSink
	pool    *ants.Pool
	timeout time.Duration

	mu       sync.Mutex
	inflight map[string]bool
	pending  map[string]*types.OrchestrationState
}

// NewAsyncSink creates an AsyncSink with size workers, each write bounded by timeout
func NewAsyncSink(inner StateSink, size int, timeout time.Duration) (*AsyncSink, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner sink is required")
	}
	if size <= 0 {
		size = DefaultSinkPoolSize
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pool, err := ants.NewPool(size, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create sink pool: %w", err)
	}
	return &AsyncSink{
		inner:    inner,
		pool:     pool,
		timeout:  timeout,
		inflight: make(map[string]bool),
		pending:  make(map[string]*types.OrchestrationState),
	}, nil
}

// UpsertSearchSession schedules a write of a snapshot of state. Only a failed
// submission is reported; write failures are logged.
func (s *AsyncSink) UpsertSearchSession(ctx context.Context, state *types.OrchestrationState) error {
	snap := state.Snapshot()
	writeCtx := context.WithoutCancel(ctx)

	s.mu.Lock()
	if s.inflight[snap.SessionID] {
		s.pending[snap.SessionID] = snap
		s.mu.Unlock()
		return nil
	}
	s.inflight[snap.SessionID] = true
	s.mu.Unlock()

	err := s.pool.Submit(func() { s.drain(writeCtx, snap) })
	if err != nil {
		s.mu.Lock()
		delete(s.inflight, snap.SessionID)
		s.mu.Unlock()
		return fmt.Errorf("snapshot dropped: %w", err)
	}
	return nil
}

// drain writes snap, then any snapshot that arrived for the same session meanwhile
func (s *AsyncSink) drain(ctx context.Context, snap *types.OrchestrationState) {
	for {
		s.write(ctx, snap)

		s.mu.Lock()
		next, ok := s.pending[snap.SessionID]
		if !ok {
			delete(s.inflight, snap.SessionID)
			s.mu.Unlock()
			return
		}
		delete(s.pending, snap.SessionID)
		s.mu.Unlock()
		snap = next
	}
}

func (s *AsyncSink) write(ctx context.Context, snap *types.OrchestrationState) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.inner.UpsertSearchSession(ctx, snap); err != nil {
		log.Printf("[SINK] Failed to write session %s (%s): %v", snap.SessionID, snap.Phase, err)
	}
}

// Close waits up to timeout for pending writes and stops the workers
func (s *AsyncSink) Close(timeout time.Duration) error {
	return s.pool.ReleaseTimeout(timeout)
}
