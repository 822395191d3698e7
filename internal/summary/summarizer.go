// internal/summary/summarizer.go
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/common/metrics"
	"cypher-catalog/internal/genai"
	"cypher-catalog/internal/models"
)

const (
	NotConfiguredMessage = "AI summary is not configured. Set the GenAI API key to enable summaries."
	NoResultsMessage     = "No results found for your query."

	systemMessage     = "You are a data analyst providing business insights."
	defaultSampleSize = 10
	maxSampleSize     = 20
)

type Summarizer struct {
	model      genai.Completer
	sampleSize int
	logger     logger.Logger
}

// New returns a Summarizer sending at most sampleSize records to the model. sampleSize is
// clamped to 1..20; 0 selects the default of 10.
func New(model genai.Completer, sampleSize int, log logger.Logger) *Summarizer {
	switch {
	case sampleSize <= 0:
		sampleSize = defaultSampleSize
	case sampleSize > maxSampleSize:
		sampleSize = maxSampleSize
	}
	return &Summarizer{
		model:      model,
		sampleSize: sampleSize,
		logger:     logger.Component(log, "summarizer"),
	}
}

// Summarize never returns an error; failures are reported in the summary text itself.
func (s *Summarizer) Summarize(ctx context.Context, question string, result models.ExecutionResult, query string) string {
	if len(result.Records) == 0 {
		return NoResultsMessage
	}
	if s.model == nil || !s.model.Configured() {
		return NotConfiguredMessage
	}

	sample, err := json.Marshal(result.Sample(s.sampleSize))
	if err != nil {
		return fmt.Sprintf("Summary generation failed: %v", err)
	}

	prompt := fmt.Sprintf(`Based on the following query results, provide a concise business summary.

User Question: %s
Cypher Query: %s
Results (sample): %s
Total Records: %d

Provide a clear, business-friendly summary of what the data shows.`, question, query, sample, len(result.Records))

	reply, err := s.model.Complete(ctx, systemMessage, prompt, genai.Options{
		Temperature: 0.5,
		MaxTokens:   300,
	})
	metrics.ObserveModelCall("summarize", err)
	if err != nil {
		s.logger.Warn("summary generation failed", map[string]interface{}{"error": err.Error()})
		return fmt.Sprintf("Summary generation failed: %v", err)
	}
	return strings.TrimSpace(reply)
}
