// internal/synthesis/synthesizer.go
package synthesis

import (
	"context"

	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/common/metrics"
	"cypher-catalog/internal/genai"
	"cypher-catalog/internal/models"
)

// Synthesizer turns a question plus schema context into a raw model reply.
type Synthesizer struct {
	model  genai.Completer
	logger logger.Logger
}

func NewSynthesizer(model genai.Completer, log logger.Logger) *Synthesizer {
	return &Synthesizer{
		model:  model,
		logger: logger.Component(log, "synthesizer"),
	}
}

// Configured reports whether the model credentials are present.
func (s *Synthesizer) Configured() bool {
	return s.model != nil && s.model.Configured()
}

// Synthesize returns the raw reply text. Errors are CREDENTIALS_MISSING, MODEL_UNAVAILABLE
// or MODEL_TIMEOUT; the call is never retried.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, schema models.SchemaContext) (string, error) {
	if !s.Configured() {
		return "", genai.ToStandard(genai.ErrCredentialsMissing)
	}

	reply, err := s.model.Complete(ctx, cypherSystemMessage, BuildPrompt(question, schema), genai.Options{
		Temperature: 0.3,
		MaxTokens:   500,
	})
	metrics.ObserveModelCall("synthesize", err)
	if err != nil {
		s.logger.Warn("query synthesis failed", map[string]interface{}{"error": err.Error()})
		return "", genai.ToStandard(err)
	}

	s.logger.Debug("query synthesized", map[string]interface{}{"replyLength": len(reply)})
	return reply, nil
}
