package summary

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/genai"
	"cypher-catalog/internal/genai/genaitest"
	"cypher-catalog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(n int) models.ExecutionResult {
	recs := make([]models.Record, n)
	for i := range recs {
		recs[i] = models.Record{"name": models.String(fmt.Sprintf("client-%02d", i))}
	}
	return models.NewExecutionResult(recs)
}

func TestSummarize_EmptyResultsMakesNoCall(t *testing.T) {
	model := genaitest.New()
	s := New(model, 10, logger.NewTestLogger(t))

	for i := 0; i < 3; i++ {
		got := s.Summarize(context.Background(), "q", models.NewExecutionResult(nil), "MATCH (n) RETURN n")
		assert.Equal(t, NoResultsMessage, got)
	}
	assert.Equal(t, 0, model.CallCount())
}

func TestSummarize_NotConfigured(t *testing.T) {
	model := genaitest.Unconfigured()
	s := New(model, 10, logger.NewNoOpLogger())

	assert.Equal(t, NotConfiguredMessage, s.Summarize(context.Background(), "q", records(3), "MATCH (n) RETURN n"))
	assert.Equal(t, 0, model.CallCount())
}

func TestSummarize_SamplesRecords(t *testing.T) {
	tests := []struct {
		name       string
		sampleSize int
		total      int
		wantLast   string
		notSent    string
	}{
		{"default sample of ten", 0, 25, "client-09", "client-10"},
		{"configured sample", 3, 25, "client-02", "client-03"},
		{"clamped to twenty", 100, 25, "client-19", "client-20"},
		{"fewer records than sample", 10, 2, "client-01", "client-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := genaitest.New().Reply("data analyst", "  Most clients hold savings accounts.  ")
			s := New(model, tt.sampleSize, logger.NewNoOpLogger())

			got := s.Summarize(context.Background(), "Show all clients", records(tt.total), "MATCH (c:Client) RETURN c.name AS name")
			assert.Equal(t, "Most clients hold savings accounts.", got)

			calls := model.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, "You are a data analyst providing business insights.", calls[0].System)
			assert.Equal(t, genai.Options{Temperature: 0.5, MaxTokens: 300}, calls[0].Opts)
			assert.Contains(t, calls[0].User, tt.wantLast)
			assert.NotContains(t, calls[0].User, tt.notSent)
			assert.Contains(t, calls[0].User, fmt.Sprintf("Total Records: %d", tt.total))
			assert.Contains(t, calls[0].User, "User Question: Show all clients")
		})
	}
}

func TestSummarize_FailureIsEmbedded(t *testing.T) {
	model := genaitest.New().Fail("data analyst", errors.New("rate limited"))
	s := New(model, 10, logger.NewNoOpLogger())

	got := s.Summarize(context.Background(), "q", records(1), "MATCH (n) RETURN n")
	assert.Equal(t, "Summary generation failed: rate limited", got)
}

func TestSummarize_EmptyWinsOverMissingCredentials(t *testing.T) {
	s := New(genaitest.Unconfigured(), 10, logger.NewNoOpLogger())
	assert.Equal(t, NoResultsMessage, s.Summarize(context.Background(), "q", models.NewExecutionResult(nil), "MATCH (n) RETURN n"))
}
