// Package schemas holds the JSON Schema documents that model responses are validated against.
package schemas

import "embed"

// FS contains every *.schema.json file in this directory
//
//go:embed *.schema.json
var FS embed.FS

// Schema file names
const (
	SearchPlan = "search_plan.schema.json"
	Evaluation = "evaluation.schema.json"
)
