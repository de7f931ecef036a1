package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jonathan/buildermatch/internal/embedding"
	"github.com/jonathan/buildermatch/internal/types"
)

const builderColumns = `id, name, role, experience_level, bio, location, availability,
	avatar_url, github_url, linkedin_url, website_url, skills, projects, updated_at`

// UpsertBuilder inserts or replaces a builder profile. A missing ID is generated
// and written back to c. The stored embedding is cleared.
func (s *Store) UpsertBuilder(ctx context.Context, c *types.Candidate) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}

	skillsJSON, err := json.Marshal(nonNilSkills(c.Skills))
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	projectsJSON, err := json.Marshal(nonNilProjects(c.Projects))
	if err != nil {
		return fmt.Errorf("failed to marshal projects: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builders (`+builderColumns+`, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, role = excluded.role, experience_level = excluded.experience_level,
			bio = excluded.bio, location = excluded.location, availability = excluded.availability,
			avatar_url = excluded.avatar_url, github_url = excluded.github_url,
			linkedin_url = excluded.linkedin_url, website_url = excluded.website_url,
			skills = excluded.skills, projects = excluded.projects,
			embedding = NULL, updated_at = excluded.updated_at`,
		c.ID, c.Name, c.Role, c.ExperienceLevel, c.Bio, c.Location, c.Availability,
		c.AvatarURL, c.GitHubURL, c.LinkedInURL, c.WebsiteURL, string(skillsJSON), string(projectsJSON),
		c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert builder: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM builders_fts WHERE builder_id = ?`, c.ID); err != nil {
		return fmt.Errorf("failed to clear search index: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO builders_fts (builder_id, search_text) VALUES (?, ?)`, c.ID, c.SearchText(),
	); err != nil {
		return fmt.Errorf("failed to index builder: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit builder: %w", err)
	}
	return nil
}

// UpdateEmbedding stores a builder's embedding
func (s *Store) UpdateEmbedding(ctx context.Context, id string, vec []float32) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE builders SET embedding = ? WHERE id = ?`, embedding.EncodeVector(vec), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("builder %s: %w", id, ErrNotFound)
	}
	return nil
}

// VectorSearch scores every embedded builder by cosine similarity in Go and
// returns those at or above threshold, most similar first.
func (s *Store) VectorSearch(ctx context.Context, vec []float32, limit int, threshold float64) ([]types.ScoredID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding FROM builders WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []types.ScoredID
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		stored, err := embedding.DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("builder %s: %w", id, err)
		}
		if sim := embedding.CosineSimilarity(vec, stored); sim >= threshold {
			results = append(results, types.ScoredID{ID: id, Score: sim})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read embeddings: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// LexicalSearch ranks builders with FTS5 BM25, best first. Scores are negated
// BM25 values so that higher is better.
func (s *Store) LexicalSearch(ctx context.Context, text string, limit int) ([]types.ScoredID, error) {
	match := sanitizeFTSQuery(text)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT builder_id, -bm25(builders_fts) AS score
		FROM builders_fts
		WHERE builders_fts MATCH ?
		ORDER BY score DESC
		LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []types.ScoredID
	for rows.Next() {
		var r types.ScoredID
		if err := rows.Scan(&r.ID, &r.Score); err != nil {
			return nil, fmt.Errorf("failed to scan FTS result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// FilterIDs returns the subset of ids matching the hard filters, in input order
func (s *Store) FilterIDs(ctx context.Context, ids []string, filters types.SearchFilters) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT id FROM builders WHERE id IN (` + placeholders(len(ids)) + `)`
	args := make([]interface{}, 0, len(ids)+8)
	for _, id := range ids {
		args = append(args, id)
	}

	query, args = appendInFilter(query, args, "lower(role)", lowerAll(filters.Roles))
	query, args = appendInFilter(query, args, "lower(experience_level)", lowerAll(filters.ExperienceLevels))
	query, args = appendInFilter(query, args, "lower(availability)", lowerAll(filters.Availability))
	if loc := strings.TrimSpace(filters.Location); loc != "" {
		query += " AND instr(lower(location), ?) > 0"
		args = append(args, strings.ToLower(loc))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter builders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	matched := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan builder id: %w", err)
		}
		matched[id] = true
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

// Hydrate loads full profiles for ids in one query, returned in input order
func (s *Store) Hydrate(ctx context.Context, ids []string) ([]types.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+builderColumns+` FROM builders WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate builders: %w", err)
	}
	byID, err := scanBuilders(rows)
	if err != nil {
		return nil, err
	}

	out := make([]types.Candidate, 0, len(byID))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
			delete(byID, id)
		}
	}
	return out, nil
}

// GetBuilder returns one builder profile
func (s *Store) GetBuilder(ctx context.Context, id string) (*types.Candidate, error) {
	found, err := s.Hydrate(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("builder %s: %w", id, ErrNotFound)
	}
	return &found[0], nil
}

// ListMissingEmbeddings returns up to limit builders without an embedding
func (s *Store) ListMissingEmbeddings(ctx context.Context, limit int) ([]types.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+builderColumns+` FROM builders WHERE embedding IS NULL ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builders: %w", err)
	}
	byID, err := scanBuilders(rows)
	if err != nil {
		return nil, err
	}

	out := make([]types.Candidate, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func scanBuilders(rows *sql.Rows) (map[string]types.Candidate, error) {
	defer func() { _ = rows.Close() }()

	byID := make(map[string]types.Candidate)
	for rows.Next() {
		var c types.Candidate
		var skillsJSON, projectsJSON, updatedAt string
		if err := rows.Scan(&c.ID, &c.Name, &c.Role, &c.ExperienceLevel, &c.Bio, &c.Location, &c.Availability,
			&c.AvatarURL, &c.GitHubURL, &c.LinkedInURL, &c.WebsiteURL, &skillsJSON, &projectsJSON, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan builder: %w", err)
		}
		if err := json.Unmarshal([]byte(skillsJSON), &c.Skills); err != nil {
			return nil, fmt.Errorf("builder %s has invalid skills: %w", c.ID, err)
		}
		if err := json.Unmarshal([]byte(projectsJSON), &c.Projects); err != nil {
			return nil, fmt.Errorf("builder %s has invalid projects: %w", c.ID, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
			c.UpdatedAt = t
		}
		if len(c.Skills) == 0 {
			c.Skills = nil
		}
		if len(c.Projects) == 0 {
			c.Projects = nil
		}
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read builders: %w", err)
	}
	return byID, nil
}

// sanitizeFTSQuery quotes each word and ORs them so FTS5 syntax characters in
// user text cannot break the MATCH expression.
func sanitizeFTSQuery(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " OR ")
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func appendInFilter(query string, args []interface{}, column string, values []string) (string, []interface{}) {
	if len(values) == 0 {
		return query, args
	}
	query += " AND " + column + " IN (" + placeholders(len(values)) + ")"
	for _, v := range values {
		args = append(args, v)
	}
	return query, args
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonNilSkills(in []types.Skill) []types.Skill {
	if in == nil {
		return []types.Skill{}
	}
	return in
}

func nonNilProjects(in []types.Project) []types.Project {
	if in == nil {
		return []types.Project{}
	}
	return in
}
