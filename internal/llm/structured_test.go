package llm

import (
	"context"
	"errors"
	"testing"

	rootschemas "github.com/jonathan/buildermatch/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type evaluationReply struct {
	NeedsRefinement bool   `json:"needs_refinement"`
	Reason          string `json:"refinement_reason"`
}

func TestGenerateValidated_Success(t *testing.T) {
	client := &MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			assert.Equal(t, TierLite, tier)
			return "```json\n{\"needs_refinement\": true, \"refinement_reason\": \"few results\"}\n```", nil
		},
	}

	var out evaluationReply
	err := GenerateValidated(context.Background(), client, "prompt", TierLite, rootschemas.Evaluation, &out)
	require.NoError(t, err)
	assert.True(t, out.NeedsRefinement)
	assert.Equal(t, "few results", out.Reason)
}

func TestGenerateValidated_SchemaViolation(t *testing.T) {
	client := &MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			return `{"refinement_reason": "missing flag"}`, nil
		},
	}

	var out evaluationReply
	err := GenerateValidated(context.Background(), client, "prompt", TierLite, rootschemas.Evaluation, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}

func TestGenerateValidated_ModelError(t *testing.T) {
	client := &MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}

	var out evaluationReply
	err := GenerateValidated(context.Background(), client, "prompt", TierLite, rootschemas.Evaluation, &out)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidResponse))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateValidated_NilClient(t *testing.T) {
	var out evaluationReply
	err := GenerateValidated(context.Background(), nil, "prompt", TierLite, rootschemas.Evaluation, &out)
	assert.Error(t, err)
}

func TestCountingClient(t *testing.T) {
	assert.Nil(t, NewCountingClient(nil))

	var nilCounter *CountingClient
	assert.Equal(t, 0, nilCounter.Calls())

	inner := &MockClient{
		GenerateJSONFunc: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			return "", errors.New("boom")
		},
		GenerateContentFunc: func(ctx context.Context, prompt string, tier ModelTier) (string, error) {
			return "ok", nil
		},
	}
	counter := NewCountingClient(inner)

	_, _ = counter.GenerateJSON(context.Background(), "p", TierLite)
	_, _ = counter.GenerateJSON(context.Background(), "p", TierLite)
	_, err := counter.GenerateContent(context.Background(), "p", TierLite)
	require.NoError(t, err)

	assert.Equal(t, 3, counter.Calls())
	assert.Equal(t, "mock-model", counter.GetModel(TierLite))
}
