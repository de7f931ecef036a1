package schemas

import (
	"errors"
	"testing"

	rootschemas "github.com/jonathan/buildermatch/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_SearchPlan(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{
			name: "valid plan",
			json: `{
				"query_intent": {"primary": "react developer", "secondary": ["design"]},
				"search_strategy": {
					"approach": "hybrid",
					"filters": {"roles": ["frontend", "fullstack"], "skills": ["React"]},
					"ranking_criteria": [{"factor": "skills", "weight": 0.6}]
				},
				"expected_result_count": 10,
				"confidence_score": 0.8
			}`,
		},
		{
			name:    "missing strategy",
			json:    `{"query_intent": {"primary": "x"}, "expected_result_count": 1, "confidence_score": 0.5}`,
			wantErr: true,
		},
		{
			name: "empty primary",
			json: `{
				"query_intent": {"primary": ""},
				"search_strategy": {"approach": "keyword"},
				"expected_result_count": 1,
				"confidence_score": 0.5
			}`,
			wantErr: true,
		},
		{
			name: "weight wrong type",
			json: `{
				"query_intent": {"primary": "go"},
				"search_strategy": {"approach": "keyword", "ranking_criteria": [{"factor": "skills", "weight": "high"}]},
				"expected_result_count": 1,
				"confidence_score": 0.5
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(rootschemas.SearchPlan, tt.json)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidate_Evaluation(t *testing.T) {
	err := Validate(rootschemas.Evaluation, `{
		"needs_refinement": true,
		"refinement_reason": "too few designers",
		"refinement_suggestions": [{"action": "broaden"}, {"action": "filter", "parameters": {"roles": ["designer"]}}]
	}`)
	assert.NoError(t, err)

	err = Validate(rootschemas.Evaluation, `{"refinement_reason": "missing flag"}`)
	assert.Error(t, err)
}

func TestValidate_MalformedJSON(t *testing.T) {
	err := Validate(rootschemas.Evaluation, `{not json`)
	require.Error(t, err)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing.schema.json", `{}`)
	require.Error(t, err)
	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`
	assert.NoError(t, ValidateJSONString(schema, `{"name": "ada"}`))

	err := ValidateJSONString(schema, `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
