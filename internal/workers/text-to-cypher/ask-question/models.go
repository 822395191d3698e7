package askquestion

import (
	"context"

	"cypher-catalog/internal/models"
)

type Input struct {
	Question string `json:"question"`
}

// Output is the answer, flattened into the process variables.
type Output struct {
	models.AskResponse
}

// Asker answers questions. *pipeline.Service satisfies it.
type Asker interface {
	Ask(ctx context.Context, question string) (*models.AskResponse, error)
}
