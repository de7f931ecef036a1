package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// MockProvider is a deterministic Provider for tests and offline runs.
// Identical text always yields the identical unit vector.
type MockProvider struct {
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
	Dim       int

	mu    sync.Mutex
	calls int
}

// NewMockProvider creates a mock producing vectors of dim width
func NewMockProvider(dim int) *MockProvider {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &MockProvider{Dim: dim}
}

// Embed returns EmbedFunc's result, or a deterministic vector
func (m *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return DeterministicVector(text, m.Dim), nil
}

// EmbedBatch embeds each text in turn
func (m *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Model returns the mock model name
func (m *MockProvider) Model() string {
	return "mock-embedding"
}

// Calls returns how many texts were embedded
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// DeterministicVector derives a unit vector from an FNV hash of text
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	var sumSquares float64
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223
		vector[i] = float32(seed%1000)/1000.0 - 0.5
		sumSquares += float64(vector[i]) * float64(vector[i])
	}

	if sumSquares > 0 {
		norm := float32(1 / math.Sqrt(sumSquares))
		for i := range vector {
			vector[i] *= norm
		}
	}
	return vector
}
