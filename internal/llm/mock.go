package llm

import (
	"context"
	"fmt"
)

// MockClient implements Client with swappable functions. Unset functions return an error.
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier ModelTier) (string, error)
	GetModelFunc        func(tier ModelTier) string
	CloseFunc           func() error
}

// GenerateContent calls GenerateContentFunc
func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", fmt.Errorf("mock: GenerateContent not implemented")
}

// GenerateJSON calls GenerateJSONFunc
func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "", fmt.Errorf("mock: GenerateJSON not implemented")
}

// GetModel calls GetModelFunc
func (m *MockClient) GetModel(tier ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

// Close calls CloseFunc
func (m *MockClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}
