package localstore

import (
	"context"
	"testing"
	"time"

	"github.com/jonathan/buildermatch/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedBuilders(t *testing.T, store *Store) (frontend, designer, backend *types.Candidate) {
	t.Helper()
	ctx := context.Background()

	frontend = &types.Candidate{
		ID:              "b-frontend",
		Name:            "Ada Front",
		Role:            "frontend",
		ExperienceLevel: "senior",
		Bio:             "Builds React interfaces for consumer apps",
		Location:        "Berlin, Germany",
		Availability:    "available",
		Skills:          []types.Skill{{Name: "React", Proficiency: "expert"}, {Name: "UI Design", Proficiency: "advanced"}},
		Projects:        []types.Project{{Title: "Storybook kit", TechStack: []string{"React", "TypeScript"}}},
		UpdatedAt:       time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	designer = &types.Candidate{
		ID:           "b-designer",
		Name:         "Grace Pixel",
		Role:         "designer",
		Bio:          "Product designer working in Figma",
		Location:     "Lagos",
		Availability: "busy",
		Skills:       []types.Skill{{Name: "Figma", Proficiency: "expert"}},
	}
	backend = &types.Candidate{
		ID:              "b-backend",
		Name:            "Linus Core",
		Role:            "backend",
		ExperienceLevel: "mid",
		Bio:             "Go services and Postgres",
		Availability:    "not_looking",
		Skills:          []types.Skill{{Name: "Go", Proficiency: "advanced"}},
	}

	for _, c := range []*types.Candidate{frontend, designer, backend} {
		require.NoError(t, store.UpsertBuilder(ctx, c))
	}
	return frontend, designer, backend
}

func TestUpsertBuilder_GeneratesID(t *testing.T) {
	store := setupStore(t)
	c := &types.Candidate{Name: "No ID"}
	require.NoError(t, store.UpsertBuilder(context.Background(), c))
	assert.NotEmpty(t, c.ID)

	got, err := store.GetBuilder(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "No ID", got.Name)
}

func TestHydrate_PreservesOrderAndDetails(t *testing.T) {
	store := setupStore(t)
	frontend, _, backend := seedBuilders(t, store)

	got, err := store.Hydrate(context.Background(), []string{backend.ID, "unknown", frontend.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, backend.ID, got[0].ID)
	assert.Equal(t, frontend.ID, got[1].ID)
	assert.Equal(t, frontend.Skills, got[1].Skills)
	assert.Equal(t, frontend.Projects, got[1].Projects)
	assert.True(t, frontend.UpdatedAt.Equal(got[1].UpdatedAt))
}

func TestLexicalSearch(t *testing.T) {
	store := setupStore(t)
	frontend, designer, _ := seedBuilders(t, store)

	results, err := store.LexicalSearch(context.Background(), "React designer", 10)
	require.NoError(t, err)

	var ids []string
	for _, r := range results {
		ids = append(ids, r.ID)
		assert.Greater(t, r.Score, 0.0)
	}
	assert.Contains(t, ids, frontend.ID)
	assert.Contains(t, ids, designer.ID)
	assert.Len(t, ids, 2)
}

func TestLexicalSearch_SyntaxCharactersAreSafe(t *testing.T) {
	store := setupStore(t)
	seedBuilders(t, store)

	results, err := store.LexicalSearch(context.Background(), `react" OR (NEAR`, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, results)

	empty, err := store.LexicalSearch(context.Background(), `"" ()`, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestVectorSearch(t *testing.T) {
	store := setupStore(t)
	frontend, designer, backend := seedBuilders(t, store)
	ctx := context.Background()

	require.NoError(t, store.UpdateEmbedding(ctx, frontend.ID, []float32{1, 0, 0}))
	require.NoError(t, store.UpdateEmbedding(ctx, designer.ID, []float32{0.8, 0.6, 0}))
	require.NoError(t, store.UpdateEmbedding(ctx, backend.ID, []float32{0, 0, 1}))

	results, err := store.VectorSearch(ctx, []float32{1, 0, 0}, 10, 0.6)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, frontend.ID, results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
	assert.Equal(t, designer.ID, results[1].ID)
	assert.InDelta(t, 0.8, results[1].Score, 1e-6)

	limited, err := store.VectorSearch(ctx, []float32{1, 0, 0}, 1, 0.0)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestUpdateEmbedding_UnknownBuilder(t *testing.T) {
	store := setupStore(t)
	err := store.UpdateEmbedding(context.Background(), "missing", []float32{1})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFilterIDs(t *testing.T) {
	store := setupStore(t)
	frontend, designer, backend := seedBuilders(t, store)
	all := []string{backend.ID, designer.ID, frontend.ID}
	ctx := context.Background()

	tests := []struct {
		name    string
		filters types.SearchFilters
		want    []string
	}{
		{"no filters keeps order", types.SearchFilters{}, all},
		{"roles case-insensitive", types.SearchFilters{Roles: []string{"Frontend", "DESIGNER"}}, []string{designer.ID, frontend.ID}},
		{"experience level", types.SearchFilters{ExperienceLevels: []string{"senior"}}, []string{frontend.ID}},
		{"availability", types.SearchFilters{Availability: []string{"available", "busy"}}, []string{designer.ID, frontend.ID}},
		{"location substring", types.SearchFilters{Location: "berlin"}, []string{frontend.ID}},
		{"location wildcards are literal", types.SearchFilters{Location: "B_rlin"}, []string{}},
		{"location percent is literal", types.SearchFilters{Location: "%"}, []string{}},
		{"skills are not a filter", types.SearchFilters{Skills: []string{"Rust"}}, all},
		{"no match", types.SearchFilters{Roles: []string{"mobile"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FilterIDs(ctx, all, tt.filters)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListMissingEmbeddings(t *testing.T) {
	store := setupStore(t)
	frontend, designer, backend := seedBuilders(t, store)
	ctx := context.Background()

	require.NoError(t, store.UpdateEmbedding(ctx, frontend.ID, []float32{1, 0}))

	missing, err := store.ListMissingEmbeddings(ctx, 10)
	require.NoError(t, err)
	require.Len(t, missing, 2)
	assert.Equal(t, backend.ID, missing[0].ID)
	assert.Equal(t, designer.ID, missing[1].ID)

	// Re-upserting a profile clears its embedding
	require.NoError(t, store.UpsertBuilder(ctx, frontend))
	missing, err = store.ListMissingEmbeddings(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, missing, 3)
}

func TestSearchSessions(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	state := &types.OrchestrationState{SessionID: "s-1", Query: "React developer", Phase: types.PhasePlanning}
	require.NoError(t, store.UpsertSearchSession(ctx, state))

	state.Phase = types.PhaseComplete
	state.RefinementCount = 1
	require.NoError(t, store.UpsertSearchSession(ctx, state))

	got, err := store.GetSearchSession(ctx, "s-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.PhaseComplete, got.Phase)
	assert.Equal(t, 1, got.RefinementCount)

	missing, err := store.GetSearchSession(ctx, "s-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSanitizeFTSQuery(t *testing.T) {
	assert.Equal(t, `"react" OR "developer"`, sanitizeFTSQuery("React developer react"))
	assert.Equal(t, "", sanitizeFTSQuery(`"()*`))
	assert.Equal(t, `"node" OR "js"`, sanitizeFTSQuery("node.js"))
}
