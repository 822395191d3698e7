package tablelineage

import (
	"context"

	"cypher-catalog/internal/models"
)

type Input struct {
	TableName string `json:"table_name"`
	Depth     *int   `json:"depth,omitempty"`
}

type Output struct {
	TableName string               `json:"table_name"`
	Depth     int                  `json:"depth"`
	Nodes     []models.LineageNode `json:"nodes"`
	Edges     []models.LineageEdge `json:"edges"`
}

// Traverser walks table lineage. *lineage.Engine satisfies it.
type Traverser interface {
	Traverse(ctx context.Context, table string, depth int) (*models.LineageGraph, error)
}
