package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/buildermatch/internal/orchestrator"
	"github.com/jonathan/buildermatch/internal/types"
)

// decodeSearchRequest parses and validates a search request body
func (s *Server) decodeSearchRequest(r *http.Request) (*types.SearchRequest, error) {
	var req types.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: err.Error()}
	}
	req.Query = strings.TrimSpace(req.Query)
	if err := req.Validate(); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return nil, &ErrValidation{Field: fe.Field(), Message: "failed '" + fe.Tag() + "' check"}
		}
		return nil, &ErrValidation{Field: "request", Message: err.Error()}
	}
	if req.MaxResults == 0 {
		req.MaxResults = s.defaultMaxResults
	}
	return &req, nil
}

func searchOptions(req *types.SearchRequest) orchestrator.Options {
	return orchestrator.Options{
		MaxResults:  req.MaxResults,
		Filters:     req.Filters,
		RequesterID: req.RequesterID,
	}
}

// handleSearch runs a search and returns the full result with its reasoning trace
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeSearchRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.searchTimeout)
	defer cancel()

	result, err := s.searcher.OrchestrateSearch(ctx, req.Query, searchOptions(req))
	if err != nil {
		log.Printf("Search failed for %q: %v", req.Query, err)
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleSearchStream runs a search and streams each phase as a server-sent event
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeSearchRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.searchTimeout)
	defer cancel()

	opts := searchOptions(req)
	opts.OnPhase = func(state *types.OrchestrationState) {
		if err := sse.WriteEvent("phase", phaseEvent(state)); err != nil {
			log.Printf("Error writing SSE event: %v", err)
		}
	}

	result, err := s.searcher.OrchestrateSearch(ctx, req.Query, opts)
	if err != nil {
		sse.WriteError(err.Error())
		return
	}
	if err := sse.WriteEvent("result", result); err != nil {
		log.Printf("Error writing SSE result: %v", err)
	}
	sse.WriteComplete(result.SessionID, string(types.PhaseComplete))
}

// phaseEvent is the streamed summary of one phase transition
func phaseEvent(state *types.OrchestrationState) map[string]any {
	event := map[string]any{
		"session_id":       state.SessionID,
		"phase":            state.Phase,
		"iteration":        state.TotalIterations,
		"refinement_count": state.RefinementCount,
	}
	if state.Plan != nil {
		event["approach"] = state.Plan.SearchStrategy.Approach
	}
	if state.Evaluation != nil {
		event["confidence"] = state.Evaluation.ConfidenceScore
	}
	if state.Error != "" {
		event["error"] = state.Error
	}
	return event
}

// handleGetSession returns the latest snapshot of a search session
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		s.errorResponse(w, http.StatusNotImplemented, "session storage is not configured")
		return
	}

	id := r.PathValue("id")
	state, err := s.sessions.GetSearchSession(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if state == nil {
		err := &ErrSessionNotFound{SessionID: id}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, state)
}
