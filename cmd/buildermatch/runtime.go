package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/buildermatch/internal/config"
	"github.com/jonathan/buildermatch/internal/db"
	"github.com/jonathan/buildermatch/internal/embedding"
	"github.com/jonathan/buildermatch/internal/executor"
	"github.com/jonathan/buildermatch/internal/llm"
	"github.com/jonathan/buildermatch/internal/localstore"
	"github.com/jonathan/buildermatch/internal/orchestrator"
	"github.com/jonathan/buildermatch/internal/types"
)

// builderStore is the storage surface shared by the postgres and sqlite backends
type builderStore interface {
	executor.CandidateStore
	orchestrator.StateSink
	GetSearchSession(ctx context.Context, sessionID string) (*types.OrchestrationState, error)
	ListMissingEmbeddings(ctx context.Context, limit int) ([]types.Candidate, error)
	UpdateEmbedding(ctx context.Context, id string, vec []float32) error
	UpsertBuilder(ctx context.Context, c *types.Candidate) error
	Ping(ctx context.Context) error
}

// resolveConfig layers the config file, environment and explicitly set flags over the defaults
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if rootConfigPath != "" {
		loaded, err := config.LoadConfig(rootConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Store = rootStore
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = rootDBURL
	}
	if flags.Changed("sqlite-path") {
		cfg.SQLitePath = rootSQLitePath
	}
	if flags.Changed("api-key") {
		cfg.APIKey = rootAPIKey
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// app holds the long-lived collaborators a command needs
type app struct {
	cfg      config.Config
	store    builderStore
	embedder *embedding.Embedder
	client   llm.Client
	sink     *orchestrator.AsyncSink
	closers  []func()
}

// openApp connects the store and, when credentials are present, the embedding
// provider and the model client
func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	embedder, closeCache, err := newEmbedder(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.embedder = embedder
	a.closers = append(a.closers, closeCache)

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if client != nil {
		a.client = client
		a.closers = append(a.closers, func() { _ = client.Close() })
	}

	return a, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	if a.sink != nil {
		if err := a.sink.Close(a.cfg.StoreTimeout()); err != nil {
			log.Printf("[SINK] Pending snapshots not flushed: %v", err)
		}
		a.sink = nil
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// orchestrator builds a search orchestrator over the app's collaborators. Session
// snapshots go through an async sink so they never slow a search down.
func (a *app) orchestrator() (*orchestrator.Orchestrator, error) {
	if a.sink == nil {
		sink, err := orchestrator.NewAsyncSink(a.store, a.cfg.SinkPoolSize, a.cfg.StoreTimeout())
		if err != nil {
			return nil, fmt.Errorf("failed to create session sink: %w", err)
		}
		a.sink = sink
	}

	execCfg := executor.DefaultConfig()
	execCfg.StoreTimeout = a.cfg.StoreTimeout()

	cfg := orchestrator.Config{
		Client:       a.client,
		Store:        a.store,
		Sink:         a.sink,
		Executor:     execCfg,
		ModelTimeout: a.cfg.ModelTimeout(),
	}
	if a.embedder != nil {
		cfg.Embedder = a.embedder
	}
	return orchestrator.New(cfg)
}

func openStore(ctx context.Context, cfg config.Config) (builderStore, func(), error) {
	switch cfg.Store {
	case config.StoreSQLite:
		store, err := localstore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store %s: %w", cfg.SQLitePath, err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Printf("Error closing sqlite store: %v", err)
			}
		}, nil
	default:
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
		}
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return database, database.Close, nil
	}
}

// newEmbedder returns nil when no embedding provider is configured; retrieval
// then runs lexically only
func newEmbedder(cfg config.Config) (*embedding.Embedder, func(), error) {
	noop := func() {}
	if cfg.OpenAIAPIKey == "" && cfg.EmbeddingBaseURL == "" {
		log.Printf("[EMBEDDING] No embedding provider configured, semantic retrieval disabled")
		return nil, noop, nil
	}

	provider, err := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.EmbeddingModel,
		BaseURL: cfg.EmbeddingBaseURL,
	})
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	opts := embedding.DefaultOptions()
	opts.Timeout = cfg.EmbeddingTimeout()

	if cfg.EmbeddingCacheDir == "" {
		return embedding.NewEmbedder(provider, embedding.NewMemoryCache(cfg.EmbeddingCacheSize), opts), noop, nil
	}

	cache, err := embedding.OpenBadgerCache(cfg.EmbeddingCacheDir, 0)
	if err != nil {
		return nil, noop, err
	}
	return embedding.NewEmbedder(provider, cache, opts), func() {
		if err := cache.Close(); err != nil {
			log.Printf("[EMBEDDING] Error closing cache: %v", err)
		}
	}, nil
}

// newLLMClient returns nil without an API key; planning then falls back to
// heuristics and evaluation to rules
func newLLMClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	if cfg.APIKey == "" {
		log.Printf("GEMINI_API_KEY not set, using heuristic planning and rule-based evaluation")
		return nil, nil
	}

	llmCfg := llm.DefaultConfig()
	if cfg.PlanningModel != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, cfg.PlanningModel)
	}
	if cfg.EvaluationModel != "" {
		llmCfg = llmCfg.WithModel(llm.TierLite, cfg.EvaluationModel)
	}
	llmCfg.Timeout = cfg.ModelTimeout()

	client, err := llm.NewClient(ctx, llmCfg, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return client, nil
}

// readJSON decodes a JSON file into out
func readJSON(path string, out any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(content, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v as indented JSON to path, or to stdout when path is empty
func writeJSON(path string, v any) error {
	jsonOutput, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if path == "" {
		_, err := fmt.Fprintln(os.Stdout, string(jsonOutput))
		return err
	}

	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
		}
	}
	if err := os.WriteFile(path, jsonOutput, 0644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", path, err)
	}
	return nil
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
}
