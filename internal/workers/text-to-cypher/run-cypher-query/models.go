package runcypherquery

import (
	"context"

	"cypher-catalog/internal/models"
)

type Input struct {
	Cypher string `json:"cypher"`
}

type Output struct {
	models.RunQueryResponse
}

// QueryRunner validates and runs caller-supplied queries. *pipeline.Service satisfies it.
type QueryRunner interface {
	RunQuery(ctx context.Context, query string) (*models.RunQueryResponse, error)
}
