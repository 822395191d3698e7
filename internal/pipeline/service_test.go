package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cypher-catalog/internal/catalog"
	"cypher-catalog/internal/common/config"
	"cypher-catalog/internal/common/database/graphtest"
	apperrors "cypher-catalog/internal/common/errors"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/common/observability"
	"cypher-catalog/internal/executor"
	"cypher-catalog/internal/genai"
	"cypher-catalog/internal/genai/genaitest"
	"cypher-catalog/internal/models"
	"cypher-catalog/internal/summary"
	"cypher-catalog/internal/synthesis"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const savingsQuery = "MATCH (c:Client)-[:HAS_ACCOUNT]->(a:Bank_account) WHERE a.account_category = 'Savings' RETURN c.first_name AS first_name, c.last_name AS last_name"

var fixedNow = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

type harness struct {
	store   *graphtest.Store
	model   *genaitest.Completer
	service *Service
}

func schemaRecords() *graphtest.Store {
	col := func(name, typ string) map[string]any { return map[string]any{"name": name, "type": typ} }
	return graphtest.New().OnRecords("HAS_COLUMN]->(c:Column)",
		graphtest.Record([]string{"table", "columns"}, "Client",
			[]any{col("client_id", "STRING"), col("first_name", "STRING"), col("last_name", "STRING")}),
		graphtest.Record([]string{"table", "columns"}, "Bank_account",
			[]any{col("account_id", "STRING"), col("account_category", "STRING")}),
	)
}

func newHarness(t *testing.T, store *graphtest.Store, model *genaitest.Completer, cfg config.PipelineConfig, opts ...Option) *harness {
	log := logger.NewTestLogger(t)
	exec := executor.New(store, log, nil)
	reader := catalog.NewReader(exec, config.CatalogConfig{SchemaSampleSize: 20}, log)

	opts = append([]Option{
		WithTranslator(synthesis.NewTranslator(model, log)),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)

	svc := NewService(
		reader,
		synthesis.NewSynthesizer(model, log),
		exec,
		summary.New(model, 10, log),
		cfg,
		log,
		opts...,
	)
	return &harness{store: store, model: model, service: svc}
}

func requireStageError(t *testing.T, err error, stage models.Stage, code apperrors.ErrorCode) *apperrors.StageError {
	t.Helper()
	var stageErr *apperrors.StageError
	require.True(t, errors.As(err, &stageErr), "expected StageError, got %v", err)
	assert.Equal(t, string(stage), stageErr.Stage)
	assert.Equal(t, code, stageErr.Err.Code)
	return stageErr
}

// ==========================
// Ask: happy path
// ==========================

func TestAsk_SavingsAccountClients(t *testing.T) {
	store := schemaRecords().OnRecords("HAS_ACCOUNT",
		graphtest.Record([]string{"first_name", "last_name"}, "Ada", "Lovelace"),
		graphtest.Record([]string{"first_name", "last_name"}, "Alan", "Turing"),
	)
	model := genaitest.New().
		Reply("Cypher expert", "EXPLANATION: Finds clients linked to a savings account.\nCYPHER: "+savingsQuery).
		Reply("converting Cypher to SQL", "```sql\nSELECT c.first_name, c.last_name FROM clients c JOIN bank_accounts a ON a.client_id = c.client_id WHERE a.account_category = 'Savings';\n```").
		Reply("data analyst", "Two clients hold savings accounts.")
	h := newHarness(t, store, model, config.PipelineConfig{})

	resp, err := h.service.Ask(context.Background(), "  Show all clients who have a savings account.  ")
	require.NoError(t, err)

	assert.Equal(t, "Finds clients linked to a savings account.", resp.Explanation)
	assert.Equal(t, savingsQuery, resp.CypherQuery)
	assert.Equal(t, models.StatusGenerated, resp.Status)
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Ada", resp.Results[0]["first_name"].Str())
	assert.Equal(t, "Two clients hold savings accounts.", resp.Summary)
	assert.Contains(t, resp.SQLQuery, "FROM clients c JOIN bank_accounts a")
	assert.Equal(t, "2024-03-01T12:30:00Z", resp.Timestamp)

	calls := h.store.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, savingsQuery, calls[1].Query)

	synthCall := model.Calls()[0]
	assert.Contains(t, synthCall.User, "User Question: Show all clients who have a savings account.")
	assert.Contains(t, synthCall.User, "- Bank_account: account_id (STRING), account_category (STRING)")
}

func TestAsk_HeuristicReplyIsParseFallback(t *testing.T) {
	store := schemaRecords().OnRecords("RETURN c.name", graphtest.Record([]string{"name"}, "Ada"))
	model := genaitest.New().
		Reply("Cypher expert", "Here you go:\n```cypher\nMATCH (c:Client)\nRETURN c.name AS name\n```").
		Reply("data analyst", "One client.")
	h := newHarness(t, store, model, config.PipelineConfig{DisableSQLTranslation: true})

	resp, err := h.service.Ask(context.Background(), "List client names")
	require.NoError(t, err)
	assert.Equal(t, models.StatusParseFallback, resp.Status)
	assert.Equal(t, "MATCH (c:Client)\nRETURN c.name AS name", resp.CypherQuery)
	assert.Empty(t, resp.SQLQuery)
	assert.Equal(t, 1, resp.Count)
}

func TestAsk_EmptyResultsSkipSummaryModel(t *testing.T) {
	model := genaitest.New().
		Reply("Cypher expert", "EXPLANATION: none\nCYPHER: MATCH (c:Client) WHERE c.city = 'Atlantis' RETURN c")
	h := newHarness(t, schemaRecords(), model, config.PipelineConfig{DisableSQLTranslation: true})

	resp, err := h.service.Ask(context.Background(), "Clients in Atlantis")
	require.NoError(t, err)
	assert.Equal(t, summary.NoResultsMessage, resp.Summary)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 1, model.CallCount())
}

// ==========================
// Ask: failures
// ==========================

func TestAsk_MissingCredentialsShortCircuits(t *testing.T) {
	store := schemaRecords()
	model := genaitest.Unconfigured()
	h := newHarness(t, store, model, config.PipelineConfig{})

	_, err := h.service.Ask(context.Background(), "Show all clients")
	stageErr := requireStageError(t, err, models.StageReceived, apperrors.ErrCodeCredentialsMissing)
	assert.Equal(t, "genai.api_key", stageErr.Err.Details)

	opened, closed := h.store.Sessions()
	assert.Equal(t, 0, opened)
	assert.Equal(t, 0, closed)
	assert.Equal(t, 0, model.CallCount())
}

func TestAsk_BlankQuestion(t *testing.T) {
	h := newHarness(t, schemaRecords(), genaitest.New(), config.PipelineConfig{})

	_, err := h.service.Ask(context.Background(), " \t ")
	requireStageError(t, err, models.StageReceived, apperrors.ErrCodeInvalidInput)
	assert.Equal(t, 0, h.store.CallCount())
}

func TestAsk_MutatingQueryIsRejected(t *testing.T) {
	store := schemaRecords()
	model := genaitest.New().
		Reply("Cypher expert", "EXPLANATION: Removes every client.\nCYPHER: MATCH (c:Client) DETACH DELETE c")
	h := newHarness(t, store, model, config.PipelineConfig{})

	_, err := h.service.Ask(context.Background(), "Delete all clients")
	stageErr := requireStageError(t, err, models.StageValidated, apperrors.ErrCodeValidationRejected)
	assert.Contains(t, stageErr.Err.Details, "disallowed operation")
	assert.Equal(t, "Removes every client.", stageErr.Explanation)

	calls := h.store.Calls()
	require.Len(t, calls, 1, "only the schema fetch reaches the store")
	assert.Contains(t, calls[0].Query, "HAS_COLUMN")
	assert.Equal(t, 1, model.CallCount())
}

func TestAsk_StageFailures(t *testing.T) {
	tests := []struct {
		name      string
		store     func() *graphtest.Store
		model     func() *genaitest.Completer
		wantStage models.Stage
		wantCode  apperrors.ErrorCode
	}{
		{
			name:      "catalog unavailable",
			store:     func() *graphtest.Store { return graphtest.New().FailAll(errors.New("connection refused")) },
			model:     genaitest.New,
			wantStage: models.StageSchemaFetched,
			wantCode:  apperrors.ErrCodeCatalogUnavailable,
		},
		{
			name:  "model unavailable",
			store: schemaRecords,
			model: func() *genaitest.Completer {
				return genaitest.New().Fail("Cypher expert", fmt.Errorf("%w: status 503", genai.ErrModelUnavailable))
			},
			wantStage: models.StageSynthesized,
			wantCode:  apperrors.ErrCodeModelUnavailable,
		},
		{
			name:  "model timeout",
			store: schemaRecords,
			model: func() *genaitest.Completer {
				return genaitest.New().Fail("Cypher expert", fmt.Errorf("%w: deadline", genai.ErrModelTimeout))
			},
			wantStage: models.StageSynthesized,
			wantCode:  apperrors.ErrCodeModelTimeout,
		},
		{
			name:      "no query produced",
			store:     schemaRecords,
			model:     func() *genaitest.Completer { return genaitest.New().Reply("Cypher expert", "I cannot help with that.") },
			wantStage: models.StageParsed,
			wantCode:  apperrors.ErrCodeNoQueryProduced,
		},
		{
			name: "execution error",
			store: func() *graphtest.Store {
				return schemaRecords().OnError("RETURN c.name", errors.New("syntax error"))
			},
			model: func() *genaitest.Completer {
				return genaitest.New().Reply("Cypher expert", "EXPLANATION: x\nCYPHER: MATCH (c:Client) RETURN c.name")
			},
			wantStage: models.StageExecuted,
			wantCode:  apperrors.ErrCodeExecutionError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.store(), tt.model(), config.PipelineConfig{})
			resp, err := h.service.Ask(context.Background(), "Show all clients")
			assert.Nil(t, resp)
			requireStageError(t, err, tt.wantStage, tt.wantCode)

			opened, closed := h.store.Sessions()
			assert.Equal(t, opened, closed, "every session is closed")
		})
	}
}

func TestAsk_SynthesisFailureCarriesExplanation(t *testing.T) {
	model := genaitest.New().Fail("Cypher expert", fmt.Errorf("%w: status 500", genai.ErrModelUnavailable))
	h := newHarness(t, schemaRecords(), model, config.PipelineConfig{})

	_, err := h.service.Ask(context.Background(), "Show all clients")
	stageErr := requireStageError(t, err, models.StageSynthesized, apperrors.ErrCodeModelUnavailable)
	assert.Equal(t, "Error generating query: GENAI_MODEL_UNAVAILABLE: status 500", stageErr.Explanation)
	assert.Equal(t, 1, model.CallCount(), "no retry")
}

func TestAsk_RecordsStageSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := observability.New("test", observability.WithRegisterer(promclient.NewRegistry()), observability.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = obs.Shutdown(context.Background()) })

	model := genaitest.New().
		Reply("Cypher expert", "EXPLANATION: x\nCYPHER: MATCH (c:Client) RETURN c.name").
		Reply("data analyst", "ok")
	store := schemaRecords().OnRecords("RETURN c.name", graphtest.Record([]string{"c.name"}, "Ada"))
	h := newHarness(t, store, model, config.PipelineConfig{DisableSQLTranslation: true}, WithObservability(obs))

	_, err := h.service.Ask(context.Background(), "names")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, span := range recorder.Ended() {
		names[span.Name()] = true
	}
	for _, want := range []string{
		"pipeline.ask",
		"pipeline.schema_fetched",
		"pipeline.synthesized",
		"pipeline.parsed",
		"pipeline.validated",
		"pipeline.executed",
		"pipeline.summarized",
	} {
		assert.True(t, names[want], "missing span %s", want)
	}
}

// ==========================
// RunQuery
// ==========================

func TestRunQuery(t *testing.T) {
	store := graphtest.New().OnRecords("count(c)", graphtest.Record([]string{"clients"}, int64(42)))
	h := newHarness(t, store, genaitest.New(), config.PipelineConfig{})

	resp, err := h.service.RunQuery(context.Background(), "MATCH (c:Client) RETURN count(c) AS clients")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, int64(42), resp.Results[0]["clients"].Int())
}

func TestRunQuery_RejectedNeverExecutes(t *testing.T) {
	for _, q := range []string{
		"CREATE (c:Client {name: 'x'})",
		"MATCH (c:Client) SET c.name = 'y'",
		"MATCH (n) DETACH DELETE n",
		"MERGE (c:Client {id: 1})",
		"DROP INDEX client_idx",
	} {
		store := graphtest.New()
		h := newHarness(t, store, genaitest.New(), config.PipelineConfig{})

		resp, err := h.service.RunQuery(context.Background(), q)
		requireStageError(t, err, models.StageValidated, apperrors.ErrCodeValidationRejected)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "disallowed operation")
		assert.Equal(t, 0, store.CallCount(), q)
	}
}

func TestRunQuery_ExecutionFailure(t *testing.T) {
	store := graphtest.New().FailAll(errors.New("Invalid input 'RETRN'"))
	h := newHarness(t, store, genaitest.New(), config.PipelineConfig{})

	resp, err := h.service.RunQuery(context.Background(), "MATCH (n) RETRN n")
	requireStageError(t, err, models.StageExecuted, apperrors.ErrCodeExecutionError)
	assert.False(t, resp.Success)
	assert.Equal(t, "Invalid input 'RETRN'", resp.Error)
	assert.Empty(t, resp.Results)
}

func TestRunQuery_Blank(t *testing.T) {
	h := newHarness(t, graphtest.New(), genaitest.New(), config.PipelineConfig{})

	resp, err := h.service.RunQuery(context.Background(), "   ")
	requireStageError(t, err, models.StageReceived, apperrors.ErrCodeInvalidInput)
	assert.False(t, resp.Success)
}
