// Package executor runs one retrieval iteration for a search plan: semantic and
// lexical branches in parallel, hard filtering, batched hydration, then scoring.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/buildermatch/internal/ranking"
	"github.com/jonathan/buildermatch/internal/skills"
	"github.com/jonathan/buildermatch/internal/types"
	"golang.org/x/sync/errgroup"
)

// ErrStoreUnavailable is returned when the candidate store failed in every branch that ran
var ErrStoreUnavailable = errors.New("candidate store unavailable")

// CandidateStore is the retrieval surface the executor needs
type CandidateStore interface {
	VectorSearch(ctx context.Context, vec []float32, limit int, threshold float64) ([]types.ScoredID, error)
	LexicalSearch(ctx context.Context, text string, limit int) ([]types.ScoredID, error)
	FilterIDs(ctx context.Context, ids []string, filters types.SearchFilters) ([]string, error)
	Hydrate(ctx context.Context, ids []string) ([]types.Candidate, error)
}

// Embedder turns retrieval text into a query vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config tunes retrieval
type Config struct {
	SemanticLimit       int
	KeywordLimit        int
	SimilarityThreshold float64
	StoreTimeout        time.Duration
	MaxPerRole          int
	Now                 func() time.Time
}

// DefaultConfig returns the default retrieval settings
func DefaultConfig() Config {
	return Config{
		SemanticLimit:       100,
		KeywordLimit:        100,
		SimilarityThreshold: 0.6,
		StoreTimeout:        5 * time.Second,
		MaxPerRole:          ranking.DefaultMaxPerRole,
		Now:                 time.Now,
	}
}

// Executor runs retrieval iterations against a store
type Executor struct {
	store    CandidateStore
	embedder Embedder
	cfg      Config
}

// New creates an Executor. embedder may be nil, in which case the semantic
// branch always comes back empty.
func New(store CandidateStore, embedder Embedder, cfg Config) *Executor {
	def := DefaultConfig()
	if cfg.SemanticLimit <= 0 {
		cfg.SemanticLimit = def.SemanticLimit
	}
	if cfg.KeywordLimit <= 0 {
		cfg.KeywordLimit = def.KeywordLimit
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = def.StoreTimeout
	}
	if cfg.MaxPerRole <= 0 {
		cfg.MaxPerRole = def.MaxPerRole
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	return &Executor{store: store, embedder: embedder, cfg: cfg}
}

// branchResult is what one retrieval branch produced
type branchResult struct {
	name         string
	ran          bool
	scores       map[string]float64
	ids          []string
	candidates   []types.Candidate
	steps        []types.ExecutionStep
	err          error
	storeFailure bool
}

func (b *branchResult) step(phase, description string, count int, started time.Time) {
	b.steps = append(b.steps, types.ExecutionStep{
		Phase:       phase,
		Description: description,
		ResultCount: count,
		ElapsedMs:   time.Since(started).Milliseconds(),
	})
}

func (b *branchResult) fail(phase string, err error, store bool, started time.Time) {
	b.err = fmt.Errorf("%s %s: %w", b.name, phase, err)
	b.storeFailure = store
	b.step(phase, "failed: "+err.Error(), 0, started)
	b.scores = nil
	b.ids = nil
	b.candidates = nil
}

// ExecuteSearch runs one retrieval iteration for plan and returns at most
// maxResults scored builders in presentation order.
func (e *Executor) ExecuteSearch(ctx context.Context, plan *types.SearchPlan, maxResults int) (*types.ExecutionResult, error) {
	if plan == nil {
		return nil, fmt.Errorf("search plan is required")
	}

	approach := plan.SearchStrategy.Approach
	if !approach.Valid() {
		approach = types.ApproachHybrid
	}
	filters := plan.SearchStrategy.Filters
	retrievalText := strings.TrimSpace(strings.Join(plan.IntentTerms(), " "))

	semantic := &branchResult{name: "semantic"}
	keyword := &branchResult{name: "keyword"}

	var g errgroup.Group
	if approach.UsesSemantic() {
		semantic.ran = true
		g.Go(func() error {
			e.runSemantic(ctx, retrievalText, semantic)
			return nil
		})
	}
	if approach.UsesKeyword() {
		keyword.ran = true
		keywordText := strings.TrimSpace(retrievalText + " " + strings.Join(filters.Skills, " "))
		g.Go(func() error {
			e.runKeyword(ctx, keywordText, keyword)
			return nil
		})
	}
	_ = g.Wait()

	if err := storeUnavailable(semantic, keyword); err != nil {
		log.Printf("[EXECUTOR] All retrieval branches failed: %v", err)
		return nil, err
	}
	for _, b := range []*branchResult{semantic, keyword} {
		if b.err != nil {
			log.Printf("[EXECUTOR] Continuing without %s branch: %v", b.name, b.err)
		}
	}

	result := &types.ExecutionResult{}
	result.Steps = append(result.Steps, semantic.steps...)
	result.Steps = append(result.Steps, keyword.steps...)

	signals, err := e.fetchCandidates(ctx, filters, semantic, keyword, result)
	if err != nil {
		log.Printf("[EXECUTOR] Candidate fetch failed in every branch: %v", err)
		return nil, err
	}

	started := time.Now()
	querySkills := QuerySkills(plan)
	opts := ranking.OptionsForPlan(plan, querySkills, e.cfg.Now())
	ranked := ranking.RankCandidates(signals, opts)
	result.Steps = append(result.Steps, types.ExecutionStep{
		Phase:       "score",
		Description: fmt.Sprintf("scored %d builders against %d query skills", len(ranked), len(querySkills)),
		ResultCount: len(ranked),
		ElapsedMs:   time.Since(started).Milliseconds(),
	})

	started = time.Now()
	diverse := ranking.ApplyDiversityCap(ranked, e.cfg.MaxPerRole)
	if maxResults > 0 && len(diverse) > maxResults {
		diverse = diverse[:maxResults]
	}
	result.Steps = append(result.Steps, types.ExecutionStep{
		Phase:       "diversify",
		Description: fmt.Sprintf("capped at %d per role and truncated to %d", e.cfg.MaxPerRole, maxResults),
		ResultCount: len(diverse),
		ElapsedMs:   time.Since(started).Milliseconds(),
	})

	result.Builders = diverse
	if result.Builders == nil {
		result.Builders = []types.ScoredCandidate{}
	}
	log.Printf("[EXECUTOR] %s retrieval returned %d builders", approach, len(result.Builders))
	return result, nil
}

func (e *Executor) runSemantic(ctx context.Context, text string, b *branchResult) {
	started := time.Now()
	if e.embedder == nil {
		b.fail("embed", errors.New("no embedding provider configured"), false, started)
		return
	}
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		b.fail("embed", err, false, started)
		return
	}
	b.step("embed", fmt.Sprintf("embedded %d characters of intent", len(text)), 1, started)

	started = time.Now()
	storeCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	hits, err := e.store.VectorSearch(storeCtx, vec, e.cfg.SemanticLimit, e.cfg.SimilarityThreshold)
	cancel()
	if err != nil {
		b.fail("semantic_search", err, true, started)
		return
	}
	b.scores = make(map[string]float64, len(hits))
	for _, h := range hits {
		b.scores[h.ID] = h.Score
	}
	b.ids = idsOf(hits)
	b.step("semantic_search", fmt.Sprintf("vector similarity >= %.2f", e.cfg.SimilarityThreshold), len(hits), started)
}

func (e *Executor) runKeyword(ctx context.Context, text string, b *branchResult) {
	started := time.Now()
	storeCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	hits, err := e.store.LexicalSearch(storeCtx, text, e.cfg.KeywordLimit)
	cancel()
	if err != nil {
		b.fail("keyword_search", err, true, started)
		return
	}
	raw := make(map[string]float64, len(hits))
	for _, h := range hits {
		raw[h.ID] = h.Score
	}
	b.scores = ranking.NormalizeKeywordRanks(raw)
	b.ids = idsOf(hits)
	b.step("keyword_search", fmt.Sprintf("full-text match on %q", text), len(hits), started)
}

// fetchCandidates filters and hydrates the union of both branches' hits in one
// batch. If the batch fails, each branch is fetched on its own so a failure
// confined to one branch's identifiers only empties that branch.
func (e *Executor) fetchCandidates(ctx context.Context, filters types.SearchFilters, semantic, keyword *branchResult, result *types.ExecutionResult) ([]ranking.Signals, error) {
	union := unionIDs(semantic.ids, keyword.ids)
	if len(union) == 0 {
		return nil, nil
	}

	batch := &branchResult{name: "union"}
	candidates, ok := e.filterAndHydrateBatch(ctx, union, filters, batch)
	result.Steps = append(result.Steps, batch.steps...)
	if ok {
		return signalsFor(candidates, semantic.scores, keyword.scores), nil
	}

	log.Printf("[EXECUTOR] Batched fetch failed, fetching branches separately: %v", batch.err)
	for _, b := range []*branchResult{semantic, keyword} {
		if !b.ran || b.err != nil || len(b.ids) == 0 {
			continue
		}
		before := len(b.steps)
		e.filterAndHydrate(ctx, b.ids, filters, b)
		result.Steps = append(result.Steps, b.steps[before:]...)
	}
	if err := storeUnavailable(semantic, keyword); err != nil {
		return nil, err
	}
	return mergeBranches(semantic, keyword), nil
}

// filterAndHydrateBatch runs the shared filter and hydrate steps for ids.
// It reports false when either store call failed.
func (e *Executor) filterAndHydrateBatch(ctx context.Context, ids []string, filters types.SearchFilters, b *branchResult) ([]types.Candidate, bool) {
	if !filters.IsEmpty() {
		started := time.Now()
		storeCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
		filtered, err := e.store.FilterIDs(storeCtx, ids, filters)
		cancel()
		if err != nil {
			b.fail("filter", err, true, started)
			return nil, false
		}
		b.step("filter", describeFilters(filters), len(filtered), started)
		ids = filtered
		if len(ids) == 0 {
			return nil, true
		}
	}

	started := time.Now()
	storeCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	candidates, err := e.store.Hydrate(storeCtx, ids)
	cancel()
	if err != nil {
		b.fail("hydrate", err, true, started)
		return nil, false
	}
	b.step("hydrate", "loaded builder profiles", len(candidates), started)
	return candidates, true
}

func (e *Executor) filterAndHydrate(ctx context.Context, ids []string, filters types.SearchFilters, b *branchResult) {
	if len(ids) == 0 {
		return
	}

	if !filters.IsEmpty() {
		started := time.Now()
		storeCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
		filtered, err := e.store.FilterIDs(storeCtx, ids, filters)
		cancel()
		if err != nil {
			b.fail(b.name+"_filter", err, true, started)
			return
		}
		b.step(b.name+"_filter", describeFilters(filters), len(filtered), started)
		ids = filtered
		if len(ids) == 0 {
			return
		}
	}

	started := time.Now()
	storeCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	candidates, err := e.store.Hydrate(storeCtx, ids)
	cancel()
	if err != nil {
		b.fail(b.name+"_hydrate", err, true, started)
		return
	}
	b.candidates = candidates
	b.step(b.name+"_hydrate", "loaded builder profiles", len(candidates), started)
}

// storeUnavailable reports a fatal error when every branch that ran failed and at
// least one of those failures came from the store.
func storeUnavailable(branches ...*branchResult) error {
	ran := 0
	var errs []error
	storeFailed := false
	for _, b := range branches {
		if !b.ran {
			continue
		}
		ran++
		if b.err == nil {
			return nil
		}
		errs = append(errs, b.err)
		storeFailed = storeFailed || b.storeFailure
	}
	if ran == 0 || !storeFailed {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, errors.Join(errs...))
}

// mergeBranches unions both branches by ID, semantic hits first, attaching each
// branch's score to the shared record.
func mergeBranches(semantic, keyword *branchResult) []ranking.Signals {
	var signals []ranking.Signals
	index := make(map[string]int)

	add := func(b *branchResult, isSemantic bool) {
		for _, c := range b.candidates {
			i, ok := index[c.ID]
			if !ok {
				i = len(signals)
				index[c.ID] = i
				signals = append(signals, ranking.Signals{Candidate: c})
			}
			if isSemantic {
				signals[i].Semantic = b.scores[c.ID]
			} else {
				signals[i].Keyword = b.scores[c.ID]
			}
		}
	}
	add(semantic, true)
	add(keyword, false)

	// Attach scores for candidates hydrated by only one branch but retrieved by both
	for id, i := range index {
		if signals[i].Semantic == 0 {
			signals[i].Semantic = semantic.scores[id]
		}
		if signals[i].Keyword == 0 {
			signals[i].Keyword = keyword.scores[id]
		}
	}
	return signals
}

// signalsFor pairs hydrated candidates with their branch scores, keeping
// hydration order
func signalsFor(candidates []types.Candidate, semantic, keyword map[string]float64) []ranking.Signals {
	signals := make([]ranking.Signals, 0, len(candidates))
	for _, c := range candidates {
		signals = append(signals, ranking.Signals{
			Candidate: c,
			Semantic:  semantic[c.ID],
			Keyword:   keyword[c.ID],
		})
	}
	return signals
}

// unionIDs concatenates id lists without duplicates, first-seen order
func unionIDs(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, ids := range lists {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// QuerySkills is the union of the plan's skill filter and skills named in the intent text
func QuerySkills(plan *types.SearchPlan) []string {
	if plan == nil {
		return nil
	}
	combined := append([]string{}, plan.SearchStrategy.Filters.Skills...)
	combined = append(combined, skills.ExtractSkills(strings.Join(plan.IntentTerms(), " "))...)
	return skills.NormalizeSkills(combined)
}

func idsOf(hits []types.ScoredID) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

func describeFilters(f types.SearchFilters) string {
	var parts []string
	if len(f.Roles) > 0 {
		parts = append(parts, "roles="+strings.Join(f.Roles, ","))
	}
	if len(f.ExperienceLevels) > 0 {
		parts = append(parts, "experience="+strings.Join(f.ExperienceLevels, ","))
	}
	if len(f.Availability) > 0 {
		parts = append(parts, "availability="+strings.Join(f.Availability, ","))
	}
	if f.Location != "" {
		parts = append(parts, "location="+f.Location)
	}
	return "filtered by " + strings.Join(parts, " ")
}
