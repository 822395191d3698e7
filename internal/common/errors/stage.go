package errors

import "fmt"

// StageError reports a request that failed while entering Stage. Explanation carries any
// text worth showing the caller alongside the failure, such as a model error message.
type StageError struct {
	Stage       string
	Err         *StandardError
	Explanation string
}

// NewStageError wraps err, normalizing it to a StandardError.
func NewStageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: Normalize(err)}
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %s", e.Stage, e.Err.Error())
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ToStandard returns the underlying StandardError tagged with the stage.
func (e *StageError) ToStandard() *StandardError {
	std := *e.Err
	std.Metadata = make(map[string]interface{}, len(e.Err.Metadata)+1)
	for k, v := range e.Err.Metadata {
		std.Metadata[k] = v
	}
	return std.WithMetadata("stage", e.Stage)
}

// WithExplanation sets the caller-facing explanation.
func (e *StageError) WithExplanation(explanation string) *StageError {
	e.Explanation = explanation
	return e
}
