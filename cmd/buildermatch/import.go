package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/buildermatch/internal/ingestion"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load builder profiles from a JSON file into the store",
	Long:  "Upserts every builder in a JSON array of profiles. HTML in bios and project descriptions is converted to plain text. Imported profiles have no embedding until the index command runs.",
	RunE:  runImport,
}

var importFile string

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Path to builders JSON file (required)")
	markRequired(importCmd, "file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	builders, err := ingestion.LoadBuilders(importFile)
	if err != nil {
		return fmt.Errorf("failed to load builders: %w", err)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	for i := range builders {
		if err := store.UpsertBuilder(ctx, &builders[i]); err != nil {
			return fmt.Errorf("failed to import builder %s: %w", builders[i].Name, err)
		}
	}

	_, _ = fmt.Fprintf(os.Stdout, "Successfully imported %d builders\n", len(builders))
	_, _ = fmt.Fprintf(os.Stdout, "Run 'buildermatch index' to embed them for semantic search\n")
	return nil
}
