// internal/executor/executor.go
package executor

import (
	"context"

	"cypher-catalog/internal/common/database"
	apperrors "cypher-catalog/internal/common/errors"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/common/metrics"
	"cypher-catalog/internal/common/observability"
	"cypher-catalog/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// Executor is the only component that sends statements to the graph store. Callers are
// responsible for validating statements before handing them over.
type Executor struct {
	store  database.GraphStore
	logger logger.Logger
	obs    *observability.Observability
}

func New(store database.GraphStore, log logger.Logger, obs *observability.Observability) *Executor {
	return &Executor{
		store:  store,
		logger: logger.Component(log, "executor"),
		obs:    obs,
	}
}

// Execute runs a read statement.
func (e *Executor) Execute(ctx context.Context, query string, params map[string]any) (models.ExecutionResult, error) {
	return e.ExecuteMode(ctx, database.ReadAccess, query, params)
}

// ExecuteWrite runs a statement in a write session. Only maintenance code calls it.
func (e *Executor) ExecuteWrite(ctx context.Context, query string, params map[string]any) (models.ExecutionResult, error) {
	return e.ExecuteMode(ctx, database.WriteAccess, query, params)
}

// ExecuteMode runs a statement with the given access mode and materializes every record.
// On failure the result is empty and the error is an EXECUTION_ERROR.
func (e *Executor) ExecuteMode(ctx context.Context, mode database.AccessMode, query string, params map[string]any) (models.ExecutionResult, error) {
	ctx, span := e.obs.StartSpan(ctx, "graph.execute", attribute.String("mode", mode.String()))

	records, err := e.store.Run(ctx, mode, query, params)
	metrics.ObserveGraphQuery(mode.String(), err)
	if err != nil {
		observability.EndSpan(span, err)
		e.logger.Error("graph query failed", map[string]interface{}{
			"mode":  mode.String(),
			"error": err.Error(),
		})
		return models.NewExecutionResult(nil), apperrors.NewExecutionError(err)
	}

	result := models.NewExecutionResult(Materialize(records))
	span.SetAttributes(attribute.Int("records", result.Count))
	observability.EndSpan(span, nil)

	e.logger.Debug("graph query executed", map[string]interface{}{
		"mode":    mode.String(),
		"records": result.Count,
	})
	return result, nil
}
