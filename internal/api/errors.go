package api

import (
	stderrors "errors"
	"net/http"

	apperrors "cypher-catalog/internal/common/errors"
)

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Details     string `json:"details,omitempty"`
	Stage       string `json:"stage,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

// httpStatusFromCode maps error codes to HTTP status codes.
func httpStatusFromCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeNoQueryProduced, apperrors.ErrCodeInvalidDepth:
		return http.StatusBadRequest
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeValidationRejected:
		return http.StatusUnprocessableEntity
	case apperrors.ErrCodeCredentialsMissing:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeModelUnavailable:
		return http.StatusBadGateway
	case apperrors.ErrCodeModelTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorBodyFrom flattens err, keeping the stage and explanation of a pipeline failure.
func errorBodyFrom(err error) (int, ErrorBody) {
	std := apperrors.Normalize(err)
	body := ErrorBody{
		Code:    string(std.Code),
		Message: std.Message,
		Details: std.Details,
	}

	var stageErr *apperrors.StageError
	if stderrors.As(err, &stageErr) {
		body.Stage = stageErr.Stage
		body.Explanation = stageErr.Explanation
	}
	return httpStatusFromCode(std.Code), body
}
