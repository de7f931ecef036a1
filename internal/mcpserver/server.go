// Package mcpserver exposes builder search as Model Context Protocol tools over stdio.
//
// Two tools are registered:
//   - search_builders: run the full plan, execute, evaluate and refine loop
//   - plan_search: return the normalized search plan for a query without executing it
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/jonathan/buildermatch/internal/orchestrator"
	"github.com/jonathan/buildermatch/internal/planner"
	"github.com/jonathan/buildermatch/internal/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "buildermatch"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Searcher runs a complete search
type Searcher interface {
	OrchestrateSearch(ctx context.Context, query string, opts orchestrator.Options) (*types.OrchestrationResult, error)
}

// Planner produces a search plan without executing it
type Planner interface {
	Plan(ctx context.Context, query string, pc *planner.PlanContext) *types.SearchPlan
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	searcher Searcher
	planner  Planner
}

// NewServer creates a new MCP server instance
func NewServer(searcher Searcher, plans Planner) (*Server, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher is required")
	}
	if plans == nil {
		return nil, fmt.Errorf("planner is required")
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		searcher: searcher,
		planner:  plans,
	}
	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(searchBuildersTool(), s.handleSearchBuilders)
	s.mcp.AddTool(planSearchTool(), s.handlePlanSearch)
}
