package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain object", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"preamble", "Here is the plan:\n{\"approach\": \"hybrid\"}", `{"approach": "hybrid"}`},
		{"trailing text", "{\"a\": 1}\n\nLet me know!", `{"a": 1}`},
		{"braces in strings", `{"t": "Hello {name}"} extra`, `{"t": "Hello {name}"}`},
		{"escaped quotes", `Result: {"m": "He said \"hi\""}`, `{"m": "He said \"hi\""}`},
		{"array", "Items:\n[\"a\", \"b\"]", `["a", "b"]`},
		{"not json", "no json here", "no json here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractBalanced(t *testing.T) {
	assert.Equal(t, `{"a": {"b": 1}}`, extractBalanced(`{"a": {"b": 1}} tail`, '{', '}'))
	assert.Equal(t, "", extractBalanced(`{"unterminated": 1`, '{', '}'))
	assert.Equal(t, "", extractBalanced("", '{', '}'))
	assert.Equal(t, `[[1], [2]]`, extractBalanced(`[[1], [2]]`, '[', ']'))
}
