package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/buildermatch/internal/config"
	"github.com/jonathan/buildermatch/internal/db"
	"github.com/jonathan/buildermatch/internal/localstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the builder and search session tables",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Store == config.StoreSQLite {
		// Opening a local store applies its migrations
		store, err := localstore.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to migrate sqlite store: %w", err)
		}
		_ = store.Close()
		_, _ = fmt.Fprintf(os.Stdout, "SQLite store ready at %s\n", cfg.SQLitePath)
		return nil
	}

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(os.Stdout, "PostgreSQL schema applied")
	return nil
}
