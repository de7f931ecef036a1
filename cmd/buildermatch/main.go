// Package main provides the buildermatch CLI: search, inspection commands and the HTTP and MCP servers.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "buildermatch",
	Short: "Natural-language builder search",
	Long:  "buildermatch finds builders for free-text requests by planning a search, retrieving candidates semantically and lexically, ranking them, and refining the search until the results are good enough.",
}

// Flags shared by every command that touches the store or the models
var (
	rootConfigPath string
	rootStore      string
	rootDBURL      string
	rootSQLitePath string
	rootAPIKey     string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootConfigPath, "config", "", "Path to config.json file (values can be overridden by flags and environment)")
	flags.StringVar(&rootStore, "store", "", "Candidate store backend: postgres or sqlite (defaults to BUILDERMATCH_STORE or postgres)")
	flags.StringVar(&rootDBURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	flags.StringVar(&rootSQLitePath, "sqlite-path", "", "SQLite database file for the sqlite store")
	flags.StringVar(&rootAPIKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY env var)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
