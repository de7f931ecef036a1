package localstore

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is the version recorded after migrations run
const SchemaVersion = "1"

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS builders (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT '',
    experience_level TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    availability TEXT NOT NULL DEFAULT 'busy',
    avatar_url TEXT NOT NULL DEFAULT '',
    github_url TEXT NOT NULL DEFAULT '',
    linkedin_url TEXT NOT NULL DEFAULT '',
    website_url TEXT NOT NULL DEFAULT '',
    skills TEXT NOT NULL DEFAULT '[]',
    projects TEXT NOT NULL DEFAULT '[]',
    embedding BLOB,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_builders_role ON builders(lower(role));
CREATE INDEX IF NOT EXISTS idx_builders_updated ON builders(updated_at);

CREATE VIRTUAL TABLE IF NOT EXISTS builders_fts USING fts5(
    builder_id UNINDEXED,
    search_text
);

CREATE TABLE IF NOT EXISTS search_sessions (
    session_id TEXT PRIMARY KEY,
    query TEXT NOT NULL,
    phase TEXT NOT NULL,
    refinement_count INTEGER NOT NULL DEFAULT 0,
    total_iterations INTEGER NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    state TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

func applyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to apply schema v%s: %w", SchemaVersion, err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion,
	); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}
