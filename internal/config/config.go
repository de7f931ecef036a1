// Package config provides configuration loading and validation for the CLI and servers.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Candidate store backends
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config represents the runtime configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults, environment variables or CLI flags.
type Config struct {
	// Storage
	Store       string `json:"store,omitempty" validate:"omitempty,oneof=postgres sqlite"` // Candidate store backend
	DatabaseURL string `json:"database_url,omitempty"`                                    // PostgreSQL connection URL
	SQLitePath  string `json:"sqlite_path,omitempty"`                                     // SQLite file, ":memory:" for ephemeral

	// Models
	APIKey          string `json:"api_key,omitempty"`          // Gemini API key
	PlanningModel   string `json:"planning_model,omitempty"`   // Overrides the standard tier model
	EvaluationModel string `json:"evaluation_model,omitempty"` // Overrides the lite tier model
	ModelTimeoutMs  int    `json:"model_timeout_ms,omitempty" validate:"gte=0"`

	// Embeddings
	OpenAIAPIKey       string `json:"openai_api_key,omitempty"`       // Embedding provider key
	EmbeddingModel     string `json:"embedding_model,omitempty"`      // Embedding model name
	EmbeddingBaseURL   string `json:"embedding_base_url,omitempty"`   // OpenAI-compatible endpoint
	EmbeddingCacheDir  string `json:"embedding_cache_dir,omitempty"`  // Persistent cache directory, empty for memory only
	EmbeddingCacheSize int    `json:"embedding_cache_size,omitempty" validate:"gte=0"`
	EmbeddingTimeoutMs int    `json:"embedding_timeout_ms,omitempty" validate:"gte=0"`

	// Retrieval
	StoreTimeoutMs int `json:"store_timeout_ms,omitempty" validate:"gte=0"`
	MaxResults     int `json:"max_results,omitempty" validate:"gte=0,lte=100"`

	// Workers
	SinkPoolSize int `json:"sink_pool_size,omitempty" validate:"gte=0"`
	IndexWorkers int `json:"index_workers,omitempty" validate:"gte=0"`

	// Behavior
	Port    int  `json:"port,omitempty" validate:"gte=0,lte=65535"`
	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Store:              StorePostgres,
		SQLitePath:         "buildermatch.db",
		ModelTimeoutMs:     10000,
		EmbeddingModel:     "text-embedding-3-small",
		EmbeddingCacheSize: 10000,
		EmbeddingTimeoutMs: 5000,
		StoreTimeoutMs:     5000,
		MaxResults:         10,
		SinkPoolSize:       4,
		IndexWorkers:       4,
		Port:               8080,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check that a store is reachable, only that it is described.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.Store == StoreSQLite && c.SQLitePath == "" {
		return fmt.Errorf("config error: 'sqlite_path' is required for the sqlite store")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Store == "" {
		result.Store = defaults.Store
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SQLitePath == "" {
		result.SQLitePath = defaults.SQLitePath
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.PlanningModel == "" {
		result.PlanningModel = defaults.PlanningModel
	}
	if result.EvaluationModel == "" {
		result.EvaluationModel = defaults.EvaluationModel
	}
	if result.OpenAIAPIKey == "" {
		result.OpenAIAPIKey = defaults.OpenAIAPIKey
	}
	if result.EmbeddingModel == "" {
		result.EmbeddingModel = defaults.EmbeddingModel
	}
	if result.EmbeddingBaseURL == "" {
		result.EmbeddingBaseURL = defaults.EmbeddingBaseURL
	}
	if result.EmbeddingCacheDir == "" {
		result.EmbeddingCacheDir = defaults.EmbeddingCacheDir
	}

	// Int fields: use default if zero
	if result.ModelTimeoutMs == 0 {
		result.ModelTimeoutMs = defaults.ModelTimeoutMs
	}
	if result.EmbeddingCacheSize == 0 {
		result.EmbeddingCacheSize = defaults.EmbeddingCacheSize
	}
	if result.EmbeddingTimeoutMs == 0 {
		result.EmbeddingTimeoutMs = defaults.EmbeddingTimeoutMs
	}
	if result.StoreTimeoutMs == 0 {
		result.StoreTimeoutMs = defaults.StoreTimeoutMs
	}
	if result.MaxResults == 0 {
		result.MaxResults = defaults.MaxResults
	}
	if result.SinkPoolSize == 0 {
		result.SinkPoolSize = defaults.SinkPoolSize
	}
	if result.IndexWorkers == 0 {
		result.IndexWorkers = defaults.IndexWorkers
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv overlays environment variables onto c. Set variables win over file values.
func (c *Config) ApplyEnv() {
	setString := func(target *string, key string) {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.Store, "BUILDERMATCH_STORE")
	setString(&c.SQLitePath, "BUILDERMATCH_SQLITE_PATH")
	setString(&c.APIKey, "GEMINI_API_KEY")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.EmbeddingBaseURL, "EMBEDDING_BASE_URL")
	setString(&c.EmbeddingModel, "EMBEDDING_MODEL")
	setString(&c.EmbeddingCacheDir, "EMBEDDING_CACHE_DIR")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

// ModelTimeout returns the per-call model timeout
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutMs) * time.Millisecond
}

// EmbeddingTimeout returns the per-call embedding timeout
func (c *Config) EmbeddingTimeout() time.Duration {
	return time.Duration(c.EmbeddingTimeoutMs) * time.Millisecond
}

// StoreTimeout returns the per-query candidate store timeout
func (c *Config) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutMs) * time.Millisecond
}
