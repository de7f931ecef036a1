package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jonathan/buildermatch/internal/orchestrator"
	"github.com/jonathan/buildermatch/internal/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

// handleSearchBuilders handles the search_builders tool invocation
func (s *Server) handleSearchBuilders(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	query, err := queryArgument(args)
	if err != nil {
		return nil, err
	}

	maxResults := getIntDefault(args, "max_results", orchestrator.DefaultMaxResults)
	if maxResults < 1 || maxResults > orchestrator.MaxResultsLimit {
		return nil, newMCPError(ErrorCodeInvalidParams,
			fmt.Sprintf("max_results must be between 1 and %d", orchestrator.MaxResultsLimit),
			map[string]interface{}{"param": "max_results", "value": maxResults})
	}

	result, err := s.searcher.OrchestrateSearch(ctx, query, orchestrator.Options{
		MaxResults: maxResults,
		Filters:    filtersFromArgs(args),
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handlePlanSearch handles the plan_search tool invocation
func (s *Server) handlePlanSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}
	query, err := queryArgument(args)
	if err != nil {
		return nil, err
	}

	plan := s.planner.Plan(ctx, query, nil)
	return mcp.NewToolResultText(formatJSON(plan)), nil
}

func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

func queryArgument(args map[string]interface{}) (string, error) {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return "", newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}
	return query, nil
}

// filtersFromArgs returns nil when no filter argument is present
func filtersFromArgs(args map[string]interface{}) *types.SearchFilters {
	f := types.SearchFilters{
		Roles:            getStringSlice(args, "roles"),
		Skills:           getStringSlice(args, "skills"),
		ExperienceLevels: getStringSlice(args, "experience"),
		Availability:     getStringSlice(args, "availability"),
		Location:         strings.TrimSpace(getStringDefault(args, "location", "")),
	}
	if len(f.Roles) == 0 && len(f.Skills) == 0 && len(f.ExperienceLevels) == 0 &&
		len(f.Availability) == 0 && f.Location == "" {
		return nil
	}
	return &f
}

func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getStringSlice accepts JSON arrays of strings and skips blank or non-string items
func getStringSlice(args map[string]interface{}, key string) []string {
	switch val := args[key].(type) {
	case []string:
		return val
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}
