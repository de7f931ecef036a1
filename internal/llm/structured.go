package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonathan/buildermatch/internal/schemas"
)

// ErrInvalidResponse is returned when a model response does not satisfy its schema
var ErrInvalidResponse = errors.New("invalid model response")

// GenerateValidated requests JSON from the model, validates it against the named
// embedded schema and decodes it into out.
func GenerateValidated(ctx context.Context, client Client, prompt string, tier ModelTier, schemaName string, out interface{}) error {
	if client == nil {
		return fmt.Errorf("no LLM client configured")
	}

	raw, err := client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return fmt.Errorf("model call failed: %w", err)
	}

	cleaned := CleanJSONBlock(raw)
	if err := schemas.Validate(schemaName, cleaned); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("%w: failed to decode: %w", ErrInvalidResponse, err)
	}
	return nil
}
