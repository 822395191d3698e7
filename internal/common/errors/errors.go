// Package errors provides the error taxonomy of the catalog service and its BPMN mapping.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeCredentialsMissing ErrorCode = "CREDENTIALS_MISSING"

	ErrCodeCatalogUnavailable ErrorCode = "CATALOG_UNAVAILABLE"
	ErrCodeExecutionError     ErrorCode = "EXECUTION_ERROR"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"

	ErrCodeModelUnavailable ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeModelTimeout     ErrorCode = "MODEL_TIMEOUT"
	ErrCodeNoQueryProduced  ErrorCode = "NO_QUERY_PRODUCED"

	ErrCodeValidationRejected ErrorCode = "VALIDATION_REJECTED"
	ErrCodeInvalidDepth       ErrorCode = "INVALID_DEPTH"
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// WithMetadata returns the error with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, cause error) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// NewCredentialsMissingError reports an absent external credential, named by its config key.
func NewCredentialsMissingError(credential string) *StandardError {
	e := newError(ErrCodeCredentialsMissing, "Required credential is not configured", nil)
	e.Details = credential
	return e
}

// NewCatalogUnavailableError wraps a graph store failure while reading catalog metadata.
func NewCatalogUnavailableError(err error) *StandardError {
	return newError(ErrCodeCatalogUnavailable, "Catalog metadata could not be read", err)
}

// NewExecutionError wraps a graph store failure while running a statement.
func NewExecutionError(err error) *StandardError {
	return newError(ErrCodeExecutionError, "Query execution failed", err)
}

func NewNotFoundError(kind, name string) *StandardError {
	e := newError(ErrCodeNotFound, fmt.Sprintf("%s not found", kind), nil)
	e.Details = fmt.Sprintf("%s '%s' not found", strings.ToLower(kind), name)
	return e
}

func NewModelUnavailableError(err error) *StandardError {
	return newError(ErrCodeModelUnavailable, "Language model request failed", err)
}

func NewModelTimeoutError(err error) *StandardError {
	return newError(ErrCodeModelTimeout, "Language model request timed out", err)
}

func NewNoQueryProducedError() *StandardError {
	e := newError(ErrCodeNoQueryProduced, "Failed to generate Cypher query", nil)
	e.Details = "model reply contained no recognizable query"
	return e
}

// NewValidationRejectedError carries the validator's reason as details.
func NewValidationRejectedError(reason string) *StandardError {
	e := newError(ErrCodeValidationRejected, "Query rejected by validator", nil)
	e.Details = reason
	return e
}

func NewInvalidDepthError(depth, min, max int) *StandardError {
	e := newError(ErrCodeInvalidDepth, "Lineage depth out of range", nil)
	e.Details = fmt.Sprintf("depth %d is outside [%d, %d]", depth, min, max)
	return e
}

func NewInvalidInputError(details string) *StandardError {
	e := newError(ErrCodeInvalidInput, "Invalid input", nil)
	e.Details = details
	return e
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err)
}

// NewExternalServiceError is used for infrastructure failures outside the request taxonomy,
// such as the workflow broker.
func NewExternalServiceError(service string, err error) *StandardError {
	e := newError("EXTERNAL_SERVICE_ERROR", fmt.Sprintf("External service '%s' error", service), err)
	e.Retryable = true
	return e
}

func NewTimeoutError(service string, err error) *StandardError {
	e := newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err)
	e.Retryable = true
	return e
}

// ==========================
// 4. Inspection
// ==========================

// AsStandard finds a StandardError anywhere in err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first StandardError in err's chain, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the number of job retries for a code. Request failures are reported
// once and never retried; only infrastructure codes get retries.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case "EXTERNAL_SERVICE_ERROR", "TIMEOUT_ERROR":
		return 3
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeCredentialsMissing:
		return "CONFIGURATION"
	case ErrCodeCatalogUnavailable, ErrCodeExecutionError:
		return "GRAPH_STORE"
	case ErrCodeModelUnavailable, ErrCodeModelTimeout, ErrCodeNoQueryProduced:
		return "LANGUAGE_MODEL"
	case ErrCodeValidationRejected, ErrCodeInvalidDepth, ErrCodeInvalidInput:
		return "VALIDATION"
	case ErrCodeNotFound:
		return "NOT_FOUND"
	default:
		codeStr := string(code)
		if strings.Contains(codeStr, "TIMEOUT") {
			return "TIMEOUT"
		}
		return "OTHER"
	}
}
