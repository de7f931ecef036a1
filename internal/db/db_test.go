package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestVectorLiteral(t *testing.T) {
	assert.Equal(t, "[]", vectorLiteral(nil))
	assert.Equal(t, "[0.5,-1,0.25]", vectorLiteral([]float32{0.5, -1, 0.25}))
}

func TestOrTSQuery(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"React developer", "react | developer"},
		{"go, go & Postgres!", "go | postgres"},
		{"c++ (node.js)", "c | node | js"},
		{"  ' ; -- ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, orTSQuery(tt.input))
		})
	}
}

func TestParseIDs_SkipsMalformed(t *testing.T) {
	good := uuid.New()
	parsed := parseIDs([]string{good.String(), "not-a-uuid", ""})
	assert.Equal(t, []uuid.UUID{good}, parsed)
}

func TestLowerAll(t *testing.T) {
	assert.Equal(t, []string{"frontend", "fullstack"}, lowerAll([]string{" Frontend", "", "FULLSTACK"}))
}
