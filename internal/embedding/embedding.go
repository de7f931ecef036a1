// Package embedding turns query and profile text into vectors through a pluggable
// provider, with content-hash caching and bounded retries.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// DefaultDimension is the vector width of the default embedding model
const DefaultDimension = 1536

// Common errors
var (
	ErrEmptyText      = errors.New("text cannot be empty")
	ErrProviderFailed = errors.New("embedding provider failed")
)

// Provider generates embeddings from text
type Provider interface {
	// Embed returns the embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one embedding per text, in order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Model returns the provider's model name
	Model() string
}

// Cache stores embeddings by content hash
type Cache interface {
	Get(key string) ([]float32, bool)
	Set(key string, vector []float32)
}

// Options configures an Embedder
type Options struct {
	Timeout time.Duration
	Retry   RetryConfig
}

// DefaultOptions returns the default embedder options
func DefaultOptions() Options {
	return Options{
		Timeout: 5 * time.Second,
		Retry:   DefaultRetryConfig(),
	}
}

// Embedder wraps a Provider with caching, a per-call timeout and retries
type Embedder struct {
	provider Provider
	cache    Cache
	opts     Options
}

// NewEmbedder creates an Embedder. cache may be nil.
func NewEmbedder(provider Provider, cache Cache, opts Options) *Embedder {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.Retry.MaxRetries <= 0 {
		opts.Retry = DefaultRetryConfig()
	}
	return &Embedder{provider: provider, cache: cache, opts: opts}
}

// Model returns the underlying provider's model name
func (e *Embedder) Model() string {
	return e.provider.Model()
}

// Embed returns the embedding for text, consulting the cache first
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	key := ContentHash(e.provider.Model(), text)
	if e.cache != nil {
		if vec, ok := e.cache.Get(key); ok {
			return vec, nil
		}
	}

	vec, err := retryWithBackoff(ctx, e.opts.Retry, func() ([]float32, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
		return e.provider.Embed(callCtx, text)
	})
	if err != nil {
		log.Printf("[EMBEDDING] Provider %s failed: %v", e.provider.Model(), err)
		return nil, fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("%w: empty vector returned", ErrProviderFailed)
	}

	if e.cache != nil {
		e.cache.Set(key, vec)
	}
	return vec, nil
}

// EmbedBatch embeds several texts in one provider call. Cached texts are served
// from the cache and only the misses are sent to the provider.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("%w: text at index %d", ErrEmptyText, i)
		}
		if e.cache != nil {
			if vec, ok := e.cache.Get(ContentHash(e.provider.Model(), text)); ok {
				out[i] = vec
				continue
			}
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := retryWithBackoff(ctx, e.opts.Retry, func() ([][]float32, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout*time.Duration(len(missTexts)))
		defer cancel()
		return e.provider.EmbedBatch(callCtx, missTexts)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderFailed, err)
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", ErrProviderFailed, len(missTexts), len(vecs))
	}

	for j, vec := range vecs {
		out[missIdx[j]] = vec
		if e.cache != nil {
			e.cache.Set(ContentHash(e.provider.Model(), missTexts[j]), vec)
		}
	}
	return out, nil
}
