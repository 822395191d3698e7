// internal/pipeline/service.go
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cypher-catalog/internal/common/config"
	apperrors "cypher-catalog/internal/common/errors"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/common/metrics"
	"cypher-catalog/internal/common/observability"
	"cypher-catalog/internal/cypher"
	"cypher-catalog/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

const (
	outcomeCompleted = "completed"
	outcomeFailed    = "failed"
	outcomeRejected  = "rejected"
)

type SchemaReader interface {
	FetchSchemaContext(ctx context.Context) (models.SchemaContext, error)
}

type QuerySynthesizer interface {
	Configured() bool
	Synthesize(ctx context.Context, question string, schema models.SchemaContext) (string, error)
}

type QueryExecutor interface {
	Execute(ctx context.Context, query string, params map[string]any) (models.ExecutionResult, error)
}

type SQLTranslator interface {
	Translate(ctx context.Context, cypherQuery, question string) string
}

type ResultSummarizer interface {
	Summarize(ctx context.Context, question string, result models.ExecutionResult, query string) string
}

// Service runs questions through fetch, synthesize, parse, validate, execute and summarize.
// Nothing is retried; the first failing stage ends the request.
type Service struct {
	schema     SchemaReader
	synth      QuerySynthesizer
	executor   QueryExecutor
	summarizer ResultSummarizer
	translator SQLTranslator
	cfg        config.PipelineConfig
	obs        *observability.Observability
	logger     logger.Logger
	now        func() time.Time
}

type Option func(*Service)

// WithTranslator adds the SQL equivalent of each answered query.
func WithTranslator(t SQLTranslator) Option {
	return func(s *Service) { s.translator = t }
}

func WithObservability(obs *observability.Observability) Option {
	return func(s *Service) { s.obs = obs }
}

// WithClock overrides the completion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	schema SchemaReader,
	synth QuerySynthesizer,
	executor QueryExecutor,
	summarizer ResultSummarizer,
	cfg config.PipelineConfig,
	log logger.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		schema:     schema,
		synth:      synth,
		executor:   executor,
		summarizer: summarizer,
		cfg:        cfg,
		logger:     logger.Component(log, "pipeline"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers a natural-language question. Failures are *errors.StageError naming the stage
// the request was entering.
func (s *Service) Ask(ctx context.Context, question string) (resp *models.AskResponse, err error) {
	ctx, span := s.obs.StartSpan(ctx, "pipeline.ask")
	defer func() {
		s.finish(ctx, err)
		observability.EndSpan(span, err)
	}()

	question = models.NormalizeQuestion(question)
	if question == "" {
		return nil, s.fail(models.StageReceived, apperrors.NewInvalidInputError("question is required"))
	}
	if !s.synth.Configured() {
		return nil, s.fail(models.StageReceived, apperrors.NewCredentialsMissingError("genai.api_key"))
	}
	s.transition(models.StageReceived, nil)

	var schema models.SchemaContext
	if err := s.stage(ctx, models.StageSchemaFetched, func(ctx context.Context) error {
		var err error
		schema, err = s.schema.FetchSchemaContext(ctx)
		return err
	}); err != nil {
		return nil, err
	}

	var raw string
	if err := s.stage(ctx, models.StageSynthesized, func(ctx context.Context) error {
		var err error
		raw, err = s.synth.Synthesize(ctx, question, schema)
		return err
	}); err != nil {
		err.WithExplanation(fmt.Sprintf("Error generating query: %v", err.Err.Details))
		return nil, err
	}

	var generated models.GeneratedQuery
	if err := s.stage(ctx, models.StageParsed, func(context.Context) error {
		reply := cypher.Parse(raw)
		if reply.Kind == cypher.ReplyEmpty {
			return apperrors.NewNoQueryProducedError()
		}
		generated = reply.Generated()
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.stage(ctx, models.StageValidated, func(context.Context) error {
		if verdict := cypher.Validate(generated.QueryText, cypher.ReadOnly); !verdict.Allowed {
			return apperrors.NewValidationRejectedError(verdict.Reason)
		}
		return nil
	}); err != nil {
		return nil, err.WithExplanation(generated.Explanation)
	}

	var result models.ExecutionResult
	if err := s.stage(ctx, models.StageExecuted, func(ctx context.Context) error {
		var err error
		result, err = s.executor.Execute(ctx, generated.QueryText, nil)
		return err
	}); err != nil {
		return nil, err.WithExplanation(generated.Explanation)
	}

	sqlQuery := ""
	if s.translator != nil && !s.cfg.DisableSQLTranslation {
		sqlQuery = s.translator.Translate(ctx, generated.QueryText, question)
	}

	var summary string
	_ = s.stage(ctx, models.StageSummarized, func(ctx context.Context) error {
		summary = s.summarizer.Summarize(ctx, question, result, generated.QueryText)
		return nil
	})

	s.transition(models.StageCompleted, map[string]interface{}{
		"status":  string(generated.Status),
		"records": result.Count,
	})

	return &models.AskResponse{
		Explanation: generated.Explanation,
		CypherQuery: generated.QueryText,
		SQLQuery:    sqlQuery,
		Results:     result.Records,
		Count:       result.Count,
		Summary:     summary,
		Status:      generated.Status,
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	}, nil
}

// RunQuery validates a caller-supplied query as read-only and executes it. A rejected
// query never reaches the executor.
func (s *Service) RunQuery(ctx context.Context, query string) (*models.RunQueryResponse, error) {
	ctx, span := s.obs.StartSpan(ctx, "pipeline.run_query")

	query = strings.TrimSpace(query)
	if query == "" {
		err := s.fail(models.StageReceived, apperrors.NewInvalidInputError("cypher query is required"))
		observability.EndSpan(span, err)
		return failedRun(err), err
	}

	if verdict := cypher.Validate(query, cypher.ReadOnly); !verdict.Allowed {
		err := s.fail(models.StageValidated, apperrors.NewValidationRejectedError(verdict.Reason))
		s.record(ctx, outcomeRejected)
		observability.EndSpan(span, err)
		return &models.RunQueryResponse{Success: false, Results: []models.Record{}, Error: verdict.Reason}, err
	}

	result, err := s.executor.Execute(ctx, query, nil)
	if err != nil {
		stageErr := s.fail(models.StageExecuted, err)
		s.record(ctx, outcomeFailed)
		observability.EndSpan(span, stageErr)
		return failedRun(stageErr), stageErr
	}

	s.record(ctx, outcomeCompleted)
	span.SetAttributes(attribute.Int("records", result.Count))
	observability.EndSpan(span, nil)
	return &models.RunQueryResponse{Success: true, Results: result.Records, Count: result.Count}, nil
}

func failedRun(err *apperrors.StageError) *models.RunQueryResponse {
	msg := err.Err.Details
	if msg == "" {
		msg = err.Err.Message
	}
	return &models.RunQueryResponse{Success: false, Results: []models.Record{}, Error: msg}
}

// stage runs fn as the transition into st, timing and tracing it.
func (s *Service) stage(ctx context.Context, st models.Stage, fn func(context.Context) error) *apperrors.StageError {
	ctx, span := s.obs.StartSpan(ctx, "pipeline."+string(st))
	observe := metrics.TimeStage(string(st))
	start := time.Now()

	err := fn(ctx)

	observe()
	s.obs.RecordStageDuration(ctx, string(st), time.Since(start))
	observability.EndSpan(span, err)

	if err != nil {
		return s.fail(st, err)
	}
	s.transition(st, map[string]interface{}{"duration_ms": time.Since(start).Milliseconds()})
	return nil
}

func (s *Service) transition(st models.Stage, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["stage"] = string(st)
	s.logger.Debug("pipeline transition", fields)
}

func (s *Service) fail(st models.Stage, err error) *apperrors.StageError {
	stageErr := apperrors.NewStageError(string(st), err)
	s.logger.Warn("pipeline failed", map[string]interface{}{
		"stage": string(st),
		"code":  string(stageErr.Err.Code),
		"error": stageErr.Err.Error(),
	})
	return stageErr
}

// finish records the outcome of an Ask.
func (s *Service) finish(ctx context.Context, err error) {
	if err != nil {
		s.record(ctx, outcomeFailed)
		return
	}
	s.record(ctx, outcomeCompleted)
}

func (s *Service) record(ctx context.Context, outcome string) {
	metrics.PipelineRequests.WithLabelValues(outcome).Inc()
	s.obs.RecordRequest(ctx, outcome)
}
