package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/buildermatch/internal/mcpserver"
	"github.com/jonathan/buildermatch/internal/planner"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve builder search as MCP tools over stdio",
	Long:  "Starts a Model Context Protocol server on stdin/stdout exposing the search_builders and plan_search tools.",
	RunE:  runMCP,
}

var mcpQuiet bool

func init() {
	mcpCmd.Flags().BoolVar(&mcpQuiet, "quiet", false, "Discard log output")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// stdout carries the protocol
	log.SetOutput(os.Stderr)
	if mcpQuiet {
		log.SetOutput(io.Discard)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	orch, err := a.orchestrator()
	if err != nil {
		return err
	}

	srv, err := mcpserver.NewServer(orch, planner.New(a.client, cfg.ModelTimeout()))
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return srv.Serve()
}
