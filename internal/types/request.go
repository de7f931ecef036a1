// Package types provides type definitions for structured data used throughout the buildermatch system.
package types

import (
	"github.com/go-playground/validator/v10"
)

// SearchRequest is the inbound search request accepted by the HTTP and MCP surfaces.
type SearchRequest struct {
	Query       string         `json:"query" validate:"required,min=1,max=500"`
	MaxResults  int            `json:"max_results,omitempty" validate:"omitempty,min=1,max=100"`
	Filters     *SearchFilters `json:"filters,omitempty"`
	RequesterID string         `json:"requester_id,omitempty" validate:"omitempty,max=128"`
}

// Validate validates the SearchRequest using the validator.
func (r *SearchRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.Filters != nil {
		return validate.Var(r.Filters.Availability, "omitempty,dive,oneof=available busy not_looking")
	}
	return nil
}
