package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/buildermatch/internal/server"
)

var (
	servePort          int
	serveSearchTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes builder search, streamed search progress and session snapshots.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to PORT env var or 8080)")
	serveCmd.Flags().DurationVar(&serveSearchTimeout, "search-timeout", 60*time.Second, "Upper bound on one search request")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Port = servePort
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}

	orch, err := a.orchestrator()
	if err != nil {
		a.Close()
		return err
	}

	srv, err := server.New(server.Config{
		Port:              cfg.Port,
		Searcher:          orch,
		Sessions:          a.store,
		Health:            a.store,
		SearchTimeout:     serveSearchTimeout,
		DefaultMaxResults: cfg.MaxResults,
		OnShutdown:        a.Close,
	})
	if err != nil {
		a.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
