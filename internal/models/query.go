// internal/models/query.go
package models

import "strings"

// Stage names the states of one question-answering request.
type Stage string

const (
	StageReceived      Stage = "received"
	StageSchemaFetched Stage = "schema_fetched"
	StageSynthesized   Stage = "synthesized"
	StageParsed        Stage = "parsed"
	StageValidated     Stage = "validated"
	StageExecuted      Stage = "executed"
	StageSummarized    Stage = "summarized"
	StageCompleted     Stage = "completed"
	StageFailed        Stage = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// NormalizeQuestion trims surrounding whitespace, the only normalization applied.
func NormalizeQuestion(q string) string {
	return strings.TrimSpace(q)
}

// GenerationStatus distinguishes well-formed model output from heuristically recovered output.
type GenerationStatus string

const (
	StatusGenerated     GenerationStatus = "generated"
	StatusParseFallback GenerationStatus = "parse_fallback"
)

type GeneratedQuery struct {
	Explanation string           `json:"explanation"`
	QueryText   string           `json:"query_text"`
	Status      GenerationStatus `json:"status"`
}

// Empty reports whether no query was produced.
func (g GeneratedQuery) Empty() bool {
	return strings.TrimSpace(g.QueryText) == ""
}

type ValidationVerdict struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func Allow() ValidationVerdict { return ValidationVerdict{Allowed: true} }

func Reject(reason string) ValidationVerdict {
	return ValidationVerdict{Allowed: false, Reason: reason}
}
