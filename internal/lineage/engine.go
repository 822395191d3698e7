// internal/lineage/engine.go
package lineage

import (
	"context"
	"strings"

	"cypher-catalog/internal/common/config"
	apperrors "cypher-catalog/internal/common/errors"
	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/cypher"
	"cypher-catalog/internal/models"
)

const (
	MinDepth     = 1
	MaxDepth     = 5
	DefaultDepth = 2
)

// Runner executes read statements against the graph. *executor.Executor satisfies it.
type Runner interface {
	Execute(ctx context.Context, query string, params map[string]any) (models.ExecutionResult, error)
}

// Engine walks LOADS_INTO edges around a table in both directions.
type Engine struct {
	runner Runner
	dedupe bool
	logger logger.Logger
}

func NewEngine(runner Runner, cfg config.LineageConfig, log logger.Logger) *Engine {
	return &Engine{
		runner: runner,
		dedupe: cfg.DedupeEdges,
		logger: logger.Component(log, "lineage"),
	}
}

// BuildQuery returns the downstream-then-upstream traversal for depth. Depth must already be
// within bounds; variable-length bounds cannot be parameterized so it is written as a literal.
// Each hop carries the relationship element id, so parallel edges between the same tables
// keep their rows distinct through UNION.
func BuildQuery(table string, depth int) (cypher.Statement, error) {
	hops := "[r IN relationships(path) | [startNode(r).name, endNode(r).name, elementId(r)]] AS hops"
	return cypher.NewBuilder().
		Text("MATCH path = (t:Table {name: $table_name})-[").RelType(models.LineageEdgeType).
		Text("*1..").Int(depth).Text("]->(related:Table)\n").
		Text("RETURN related.name AS related, " + hops + "\n").
		Text("UNION\n").
		Text("MATCH path = (related:Table)-[").RelType(models.LineageEdgeType).
		Text("*1..").Int(depth).Text("]->(t:Table {name: $table_name})\n").
		Text("RETURN related.name AS related, " + hops).
		Bind("table_name", table).
		Build()
}

// Traverse returns the lineage graph of table up to depth hops away. The table itself is
// always the first node, even when it has no lineage or does not exist.
func (e *Engine) Traverse(ctx context.Context, table string, depth int) (*models.LineageGraph, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, apperrors.NewInvalidInputError("table name is required")
	}
	if depth < MinDepth || depth > MaxDepth {
		return nil, apperrors.NewInvalidDepthError(depth, MinDepth, MaxDepth)
	}

	stmt, err := BuildQuery(table, depth)
	if err != nil {
		return nil, err
	}

	result, err := e.runner.Execute(ctx, stmt.Text, stmt.Params)
	if err != nil {
		return nil, err
	}

	graph := models.NewLineageGraph(table)
	for _, rec := range result.Records {
		related := rec["related"]
		if related.IsNull() {
			continue
		}
		graph.AddRelated(related.Str())

		for _, hop := range rec["hops"].Items() {
			ends := hop.Items()
			if len(ends) < 2 {
				continue
			}
			graph.AddEdge(ends[0].Str(), ends[1].Str())
		}
	}

	if e.dedupe {
		graph.DedupeEdges()
	}

	e.logger.Debug("lineage traversed", map[string]interface{}{
		"table": table,
		"depth": depth,
		"nodes": len(graph.Nodes),
		"edges": len(graph.Edges),
	})
	return graph, nil
}
