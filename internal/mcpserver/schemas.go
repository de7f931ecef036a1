package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jonathan/buildermatch/internal/orchestrator"
	"github.com/jonathan/buildermatch/internal/types"
)

func stringArray(description string, enum ...string) map[string]interface{} {
	items := map[string]interface{}{"type": "string"}
	if len(enum) > 0 {
		items["enum"] = enum
	}
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items":       items,
	}
}

// searchBuildersTool returns the tool definition for search_builders
func searchBuildersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_builders",
		Description: "Find builders matching a natural-language request, with match explanations and a reasoning trace",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What kind of builder is needed, e.g. 'React developer with design skills'",
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of builders to return",
					"default":     orchestrator.DefaultMaxResults,
					"minimum":     1,
					"maximum":     orchestrator.MaxResultsLimit,
				},
				"roles":      stringArray("Only return builders with one of these roles"),
				"skills":     stringArray("Skills the builder should have"),
				"experience": stringArray("Experience levels to include"),
				"availability": stringArray("Availability states to include",
					types.AvailabilityAvailable, types.AvailabilityBusy, types.AvailabilityNotLooking),
				"location": map[string]interface{}{
					"type":        "string",
					"description": "Location filter",
				},
			},
			Required: []string{"query"},
		},
	}
}

// planSearchTool returns the tool definition for plan_search
func planSearchTool() mcp.Tool {
	return mcp.Tool{
		Name:        "plan_search",
		Description: "Show how a request would be interpreted: intent, filters, retrieval approach and ranking weights",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural-language builder request",
				},
			},
			Required: []string{"query"},
		},
	}
}
