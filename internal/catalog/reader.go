// internal/catalog/reader.go
package catalog

import (
	"context"

	"cypher-catalog/internal/common/config"
	apperrors "cypher-catalog/internal/common/errors"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/models"
)

const schemaContextQuery = `MATCH (t:Table)-[:HAS_COLUMN]->(c:Column)
RETURN t.name AS table, collect({name: c.name, type: c.data_type}) AS columns
LIMIT $limit`

// Runner executes read statements against the graph. *executor.Executor satisfies it.
type Runner interface {
	Execute(ctx context.Context, query string, params map[string]any) (models.ExecutionResult, error)
}

// Reader reads catalog metadata (tables, columns, CDEs, regions) from the graph.
type Reader struct {
	runner Runner
	cache  SchemaCache
	cfg    config.CatalogConfig
	logger logger.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithCache enables the schema-context cache.
func WithCache(cache SchemaCache) Option {
	return func(r *Reader) { r.cache = cache }
}

func NewReader(runner Runner, cfg config.CatalogConfig, log logger.Logger, opts ...Option) *Reader {
	r := &Reader{
		runner: runner,
		cfg:    cfg,
		logger: logger.Component(log, "catalog"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reader) schemaLimit() int {
	if r.cfg.SchemaSampleSize <= 0 || r.cfg.SchemaSampleSize > 20 {
		return 20
	}
	return r.cfg.SchemaSampleSize
}

// FetchSchemaContext returns at most schema_sample_size tables with their columns, in
// catalog order. A cache failure never fails the call.
func (r *Reader) FetchSchemaContext(ctx context.Context) (models.SchemaContext, error) {
	limit := r.schemaLimit()

	if r.cache != nil {
		cached, ok, err := r.cache.Get(ctx, limit)
		if err != nil {
			r.logger.Warn("schema cache read failed", map[string]interface{}{"error": err.Error()})
		} else if ok {
			return cached, nil
		}
	}

	result, err := r.runner.Execute(ctx, schemaContextQuery, map[string]any{"limit": limit})
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError(err)
	}

	schema := make(models.SchemaContext, 0, result.Count)
	for _, rec := range result.Records {
		schema = append(schema, models.TableSchema{
			Table:   rec["table"].Str(),
			Columns: columnsFrom(rec["columns"], "type"),
		})
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, limit, schema); err != nil {
			r.logger.Warn("schema cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}

	r.logger.Debug("schema context fetched", map[string]interface{}{"tables": len(schema)})
	return schema, nil
}

// columnsFrom reads a collected list of column maps, skipping entries without a name
// (OPTIONAL MATCH on a table with no columns yields one null entry).
func columnsFrom(v models.Value, typeKey string) []models.ColumnSchema {
	items := v.Items()
	cols := make([]models.ColumnSchema, 0, len(items))
	for _, item := range items {
		name := item.Field("name")
		if name.IsNull() {
			continue
		}
		cols = append(cols, models.ColumnSchema{
			Name:     name.Str(),
			DataType: item.Field(typeKey).Str(),
		})
	}
	return cols
}
