package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/buildermatch/internal/types"
)

// -----------------------------------------------------------------------------
// Retrieval
// -----------------------------------------------------------------------------

// VectorSearch returns builders whose embedding similarity to vec is at least
// threshold, most similar first.
func (db *DB) VectorSearch(ctx context.Context, vec []float32, limit int, threshold float64) ([]types.ScoredID, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, 1 - (embedding <=> $1::vector) AS similarity
		 FROM builders
		 WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1::vector) >= $2
		 ORDER BY embedding <=> $1::vector
		 LIMIT $3`,
		vectorLiteral(vec), threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to run vector search: %w", err)
	}
	return scanScoredIDs(rows)
}

// LexicalSearch ranks builders by full-text match against text, best first
func (db *DB) LexicalSearch(ctx context.Context, text string, limit int) ([]types.ScoredID, error) {
	tsquery := orTSQuery(text)
	if tsquery == "" {
		return nil, nil
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, ts_rank(search_vector, to_tsquery('english', $1)) AS rank
		 FROM builders
		 WHERE search_vector @@ to_tsquery('english', $1)
		 ORDER BY rank DESC, id
		 LIMIT $2`,
		tsquery, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to run lexical search: %w", err)
	}
	return scanScoredIDs(rows)
}

func scanScoredIDs(rows pgx.Rows) ([]types.ScoredID, error) {
	defer rows.Close()

	var results []types.ScoredID
	for rows.Next() {
		var id uuid.UUID
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, types.ScoredID{ID: id.String(), Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search results: %w", err)
	}
	return results, nil
}

// FilterIDs returns the subset of ids matching the hard filters, in input order
func (db *DB) FilterIDs(ctx context.Context, ids []string, filters types.SearchFilters) ([]string, error) {
	parsed := parseIDs(ids)
	if len(parsed) == 0 {
		return nil, nil
	}

	query := `SELECT id FROM builders WHERE id = ANY($1)`
	args := []any{parsed}
	argNum := 2

	if roles := lowerAll(filters.Roles); len(roles) > 0 {
		query += fmt.Sprintf(" AND lower(role) = ANY($%d)", argNum)
		args = append(args, roles)
		argNum++
	}
	if levels := lowerAll(filters.ExperienceLevels); len(levels) > 0 {
		query += fmt.Sprintf(" AND lower(experience_level) = ANY($%d)", argNum)
		args = append(args, levels)
		argNum++
	}
	if availability := lowerAll(filters.Availability); len(availability) > 0 {
		query += fmt.Sprintf(" AND lower(availability) = ANY($%d)", argNum)
		args = append(args, availability)
		argNum++
	}
	if loc := strings.TrimSpace(filters.Location); loc != "" {
		query += fmt.Sprintf(" AND strpos(lower(location), lower($%d)) > 0", argNum)
		args = append(args, loc)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter builders: %w", err)
	}
	defer rows.Close()

	matched := make(map[string]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan builder id: %w", err)
		}
		matched[id.String()] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read filtered builders: %w", err)
	}

	out := make([]string, 0, len(matched))
	for _, id := range ids {
		if matched[id] {
			out = append(out, id)
			delete(matched, id)
		}
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Profiles
// -----------------------------------------------------------------------------

// Hydrate loads full profiles for ids in one batch, returned in input order.
// Unknown ids are skipped.
func (db *DB) Hydrate(ctx context.Context, ids []string) ([]types.Candidate, error) {
	parsed := parseIDs(ids)
	if len(parsed) == 0 {
		return nil, nil
	}

	byID, err := db.loadBuilders(ctx, `WHERE id = ANY($1)`, parsed)
	if err != nil {
		return nil, err
	}

	out := make([]types.Candidate, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, *c)
			delete(byID, id)
		}
	}
	return out, nil
}

// ListMissingEmbeddings returns up to limit builders that have no embedding yet
func (db *DB) ListMissingEmbeddings(ctx context.Context, limit int) ([]types.Candidate, error) {
	byID, err := db.loadBuilders(ctx, `WHERE embedding IS NULL ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.Candidate, 0, len(byID))
	for _, c := range byID {
		out = append(out, *c)
	}
	return out, nil
}

// UpdateEmbedding stores a builder's embedding
func (db *DB) UpdateEmbedding(ctx context.Context, id string, vec []float32) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid builder id %q: %w", id, err)
	}
	result, err := db.pool.Exec(ctx,
		`UPDATE builders SET embedding = $1::vector WHERE id = $2`,
		vectorLiteral(vec), parsed,
	)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("builder not found: %s", id)
	}
	return nil
}

// UpsertBuilder inserts or replaces a builder profile with its skills and projects.
// A missing ID is generated and written back to c. The embedding is cleared so the
// index command picks the profile up again.
func (db *DB) UpsertBuilder(ctx context.Context, c *types.Candidate) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	id, err := uuid.Parse(c.ID)
	if err != nil {
		return fmt.Errorf("invalid builder id %q: %w", c.ID, err)
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO builders (id, name, role, experience_level, bio, location, availability,
		                       avatar_url, github_url, linkedin_url, website_url, search_text, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
		 ON CONFLICT (id) DO UPDATE SET
		     name = $2, role = $3, experience_level = $4, bio = $5, location = $6, availability = $7,
		     avatar_url = $8, github_url = $9, linkedin_url = $10, website_url = $11,
		     search_text = $12, embedding = NULL, updated_at = NOW()`,
		id, c.Name, c.Role, c.ExperienceLevel, c.Bio, c.Location, c.Availability,
		c.AvatarURL, c.GitHubURL, c.LinkedInURL, c.WebsiteURL, c.SearchText(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert builder: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM builder_skills WHERE builder_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear skills: %w", err)
	}
	for i, s := range c.Skills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO builder_skills (builder_id, position, name, proficiency) VALUES ($1, $2, $3, $4)`,
			id, i, s.Name, s.Proficiency,
		); err != nil {
			return fmt.Errorf("failed to insert skill %s: %w", s.Name, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM builder_projects WHERE builder_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear projects: %w", err)
	}
	for i, p := range c.Projects {
		techStack := p.TechStack
		if techStack == nil {
			techStack = []string{}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO builder_projects (builder_id, position, title, description, tech_stack, url)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			id, i, p.Title, p.Description, techStack, p.URL,
		); err != nil {
			return fmt.Errorf("failed to insert project %s: %w", p.Title, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit builder: %w", err)
	}
	return nil
}

// loadBuilders runs a builders query with the given WHERE/ORDER clause and attaches
// skills and projects in two batched queries.
func (db *DB) loadBuilders(ctx context.Context, clause string, args ...any) (map[string]*types.Candidate, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, role, experience_level, bio, location, availability,
		        avatar_url, github_url, linkedin_url, website_url, updated_at
		 FROM builders `+clause,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load builders: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*types.Candidate)
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		var c types.Candidate
		if err := rows.Scan(&id, &c.Name, &c.Role, &c.ExperienceLevel, &c.Bio, &c.Location, &c.Availability,
			&c.AvatarURL, &c.GitHubURL, &c.LinkedInURL, &c.WebsiteURL, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan builder: %w", err)
		}
		c.ID = id.String()
		byID[c.ID] = &c
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read builders: %w", err)
	}
	if len(ids) == 0 {
		return byID, nil
	}

	if err := db.attachSkills(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := db.attachProjects(ctx, ids, byID); err != nil {
		return nil, err
	}
	return byID, nil
}

func (db *DB) attachSkills(ctx context.Context, ids []uuid.UUID, byID map[string]*types.Candidate) error {
	rows, err := db.pool.Query(ctx,
		`SELECT builder_id, name, proficiency FROM builder_skills
		 WHERE builder_id = ANY($1) ORDER BY builder_id, position`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to load skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var s types.Skill
		if err := rows.Scan(&id, &s.Name, &s.Proficiency); err != nil {
			return fmt.Errorf("failed to scan skill: %w", err)
		}
		if c, ok := byID[id.String()]; ok {
			c.Skills = append(c.Skills, s)
		}
	}
	return rows.Err()
}

func (db *DB) attachProjects(ctx context.Context, ids []uuid.UUID, byID map[string]*types.Candidate) error {
	rows, err := db.pool.Query(ctx,
		`SELECT builder_id, title, description, tech_stack, url FROM builder_projects
		 WHERE builder_id = ANY($1) ORDER BY builder_id, position`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to load projects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var p types.Project
		if err := rows.Scan(&id, &p.Title, &p.Description, &p.TechStack, &p.URL); err != nil {
			return fmt.Errorf("failed to scan project: %w", err)
		}
		if c, ok := byID[id.String()]; ok {
			c.Projects = append(c.Projects, p)
		}
	}
	return rows.Err()
}
