package genai

import (
	"errors"

	apperrors "cypher-catalog/internal/common/errors"
)

// ToStandard maps a Completer error onto the service error taxonomy.
func ToStandard(err error) *apperrors.StandardError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrCredentialsMissing):
		return apperrors.NewCredentialsMissingError("genai.api_key")
	case errors.Is(err, ErrModelTimeout):
		return apperrors.NewModelTimeoutError(err)
	default:
		return apperrors.NewModelUnavailableError(err)
	}
}
