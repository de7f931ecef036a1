package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonathan/buildermatch/internal/executor"
	"github.com/jonathan/buildermatch/internal/orchestrator"
	"github.com/jonathan/buildermatch/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSearcher records the last call and returns a canned result
type mockSearcher struct {
	lastQuery string
	lastOpts  orchestrator.Options
	err       error
}

func (m *mockSearcher) OrchestrateSearch(ctx context.Context, query string, opts orchestrator.Options) (*types.OrchestrationResult, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	state := &types.OrchestrationState{SessionID: "session-1", Phase: types.PhasePlanning}
	if opts.OnPhase != nil {
		opts.OnPhase(state)
		state.Phase = types.PhaseComplete
		opts.OnPhase(state)
	}
	return &types.OrchestrationResult{
		SessionID: "session-1",
		Query:     query,
		Results:   []types.ScoredCandidate{},
		Metadata:  types.ResultMetadata{SearchStrategy: types.ApproachHybrid},
	}, nil
}

type mockSessions struct {
	states map[string]*types.OrchestrationState
	err    error
}

func (m *mockSessions) GetSearchSession(ctx context.Context, id string) (*types.OrchestrationState, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.states[id], nil
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

func newTestServer(t *testing.T, searcher *mockSearcher, sessions SessionReader, health Pinger) http.Handler {
	t.Helper()
	s, err := New(Config{Port: 0, Searcher: searcher, Sessions: sessions, Health: health, DefaultMaxResults: 10})
	require.NoError(t, err)
	return s.Handler()
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		health     Pinger
		wantStatus int
		wantBody   string
	}{
		{name: "no store check", health: nil, wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "store reachable", health: &mockPinger{}, wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "store down", health: &mockPinger{err: errors.New("refused")}, wantStatus: http.StatusServiceUnavailable, wantBody: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &mockSearcher{}, nil, tt.health)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, decodeBody(t, w)["status"])
		})
	}
}

func TestSearchEndpoint_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed JSON", body: `{"query": `},
		{name: "missing query", body: `{"max_results": 5}`},
		{name: "whitespace query", body: `{"query": "   \t "}`},
		{name: "too many results", body: `{"query": "React", "max_results": 500}`},
		{name: "unknown availability", body: `{"query": "React", "filters": {"availability": ["sometimes"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &mockSearcher{}
			h := newTestServer(t, searcher, nil, nil)

			req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decodeBody(t, w)["error"])
			assert.Empty(t, searcher.lastQuery)
		})
	}
}

func TestSearchEndpoint_Success(t *testing.T) {
	searcher := &mockSearcher{}
	h := newTestServer(t, searcher, nil, nil)

	body := `{"query": "React developer with design skills", "filters": {"roles": ["frontend"]}, "requester_id": "u1"}`
	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var result types.OrchestrationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "session-1", result.SessionID)
	assert.NotNil(t, result.Results)

	assert.Equal(t, "React developer with design skills", searcher.lastQuery)
	assert.Equal(t, 10, searcher.lastOpts.MaxResults)
	assert.Equal(t, "u1", searcher.lastOpts.RequesterID)
	require.NotNil(t, searcher.lastOpts.Filters)
	assert.Equal(t, []string{"frontend"}, searcher.lastOpts.Filters.Roles)
}

func TestSearchEndpoint_StoreUnavailable(t *testing.T) {
	searcher := &mockSearcher{err: fmt.Errorf("search iteration 1 failed: %w", executor.ErrStoreUnavailable)}
	h := newTestServer(t, searcher, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewBufferString(`{"query": "Go"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decodeBody(t, w)["error"], "candidate store unavailable")
}

func TestSearchStreamEndpoint(t *testing.T) {
	h := newTestServer(t, &mockSearcher{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/search/stream", bytes.NewBufferString(`{"query": "Go"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event: phase\n"))
	assert.Contains(t, body, `"phase":"planning"`)
	assert.Contains(t, body, "event: result\n")
	assert.Contains(t, body, "event: complete\n")
	assert.Contains(t, body, `"session_id":"session-1"`)
}

func TestSearchStreamEndpoint_Error(t *testing.T) {
	h := newTestServer(t, &mockSearcher{err: errors.New("boom")}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/search/stream", bytes.NewBufferString(`{"query": "Go"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Contains(t, w.Body.String(), "event: error\n")
	assert.NotContains(t, w.Body.String(), "event: complete\n")
}

func TestGetSessionEndpoint(t *testing.T) {
	sessions := &mockSessions{states: map[string]*types.OrchestrationState{
		"s1": {SessionID: "s1", Query: "React", Phase: types.PhaseEvaluating, TotalIterations: 1},
	}}
	h := newTestServer(t, &mockSearcher{}, sessions, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search/sessions/s1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var state types.OrchestrationState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Equal(t, types.PhaseEvaluating, state.Phase)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search/sessions/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	sessions.err = errors.New("db down")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search/sessions/s1", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetSessionEndpoint_NotConfigured(t *testing.T) {
	h := newTestServer(t, &mockSearcher{}, nil, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/search/sessions/s1", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, &mockSearcher{}, nil, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/search", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNew_RequiresSearcher(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
