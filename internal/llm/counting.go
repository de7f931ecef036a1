package llm

import (
	"context"

	"go.uber.org/atomic"
)

// CountingClient wraps a Client and counts generation calls, successful or not
type CountingClient struct {
	Client
	calls *atomic.Int64
}

// NewCountingClient wraps inner. A nil inner yields nil so callers keep their
// "no model configured" path.
func NewCountingClient(inner Client) *CountingClient {
	if inner == nil {
		return nil
	}
	return &CountingClient{Client: inner, calls: atomic.NewInt64(0)}
}

// GenerateContent counts and forwards the call
func (c *CountingClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	c.calls.Inc()
	return c.Client.GenerateContent(ctx, prompt, tier)
}

// GenerateJSON counts and forwards the call
func (c *CountingClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	c.calls.Inc()
	return c.Client.GenerateJSON(ctx, prompt, tier)
}

// Calls returns the number of generation calls made so far
func (c *CountingClient) Calls() int {
	if c == nil {
		return 0
	}
	return int(c.calls.Load())
}
