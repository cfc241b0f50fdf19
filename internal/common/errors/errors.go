// Package errors provides standardized error handling for the estimation
// pipeline. Only input and authentication errors ever reach the caller; every
// other class is absorbed by its component and degrades the estimate's
// confidence, not its validity.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Class (a): fatal, reported to the caller immediately.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// Class (b): retrieval degradation, recovered with empty results.
	ErrCodeEmbeddingUnavailable ErrorCode = "EMBEDDING_UNAVAILABLE"
	ErrCodeSearchQueryFailed    ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout        ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeRegionLookupFailed   ErrorCode = "REGION_LOOKUP_FAILED"
	ErrCodeProjectLookupFailed  ErrorCode = "PROJECT_LOOKUP_FAILED"

	// Class (c): synthesis failure, recovered via the fallback estimator.
	ErrCodeSynthesisFailed        ErrorCode = "SYNTHESIS_FAILED"
	ErrCodeSynthesisTimeout       ErrorCode = "SYNTHESIS_TIMEOUT"
	ErrCodeOutputValidationFailed ErrorCode = "OUTPUT_VALIDATION_FAILED"

	// Class (d): logged only, never affects the response.
	ErrCodePersistenceFailed      ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidInputError creates a non-retryable caller input error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Request input is missing or malformed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnauthorizedError creates a non-retryable authentication error.
func NewUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmbeddingUnavailableError records an embedding-service failure; the
// vector branch is skipped for the run.
func NewEmbeddingUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmbeddingUnavailable,
		Message:   "Embedding service unavailable, vector search disabled",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search error for a single
// retrieval branch.
func NewSearchQueryFailedError(branch string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Reference search failed",
		Details:   fmt.Sprintf("branch: %s, error: %s", branch, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable branch timeout error.
func NewSearchTimeoutError(branch string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Reference search timed out",
		Details:   fmt.Sprintf("branch: %s", branch),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegionLookupFailedError records a regional-table failure; the adjuster
// falls back to the national average.
func NewRegionLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegionLookupFailed,
		Message:   "Regional multiplier lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProjectLookupFailedError records a project-store failure during context
// resolution.
func NewProjectLookupFailedError(projectID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProjectLookupFailed,
		Message:   "Project record lookup failed",
		Details:   fmt.Sprintf("projectId: %s, error: %s", projectID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSynthesisFailedError creates the error that routes a run to the
// fallback estimator.
func NewSynthesisFailedError(reason string, err error) *StandardError {
	details := reason
	if err != nil {
		details = fmt.Sprintf("%s: %s", reason, err.Error())
	}
	return &StandardError{
		Code:      ErrCodeSynthesisFailed,
		Message:   "Generative estimate synthesis failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSynthesisTimeoutError creates a synthesis deadline error.
func NewSynthesisTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSynthesisTimeout,
		Message:   "Generative call exceeded its deadline",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewOutputValidationFailedError rejects a generative payload that failed the
// schema or arithmetic checks.
func NewOutputValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOutputValidationFailed,
		Message:   "Generated estimate failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailedError records a failed estimate write.
func NewPersistenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "Estimate persistence failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError records a failed estimate-ready publish.
func NewNotificationSendFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification
// ==========================

// IsFatal reports whether an error must surface to the caller. Everything
// else is absorbed per the degradation policy.
func IsFatal(err error) bool {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) {
		return false
	}
	return stdErr.Code == ErrCodeInvalidInput || stdErr.Code == ErrCodeUnauthorized
}

// HTTPStatus maps an error to the status for the inbound API. Non-fatal
// codes map to 200 because the pipeline still answers.
func HTTPStatus(err error) int {
	var stdErr *StandardError
	if !errors.As(err, &stdErr) {
		return http.StatusInternalServerError
	}
	switch stdErr.Code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusOK
	}
}

// ClassifySearchError maps a retrieval branch failure onto the taxonomy.
// Already-classified errors pass through unchanged.
func ClassifySearchError(branch string, err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewSearchTimeoutError(branch)
	}
	return NewSearchQueryFailedError(branch, err)
}

// GetErrorCategory returns the degradation class of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "UNAUTHORIZED"):
		return "INPUT"
	case strings.Contains(codeStr, "SYNTHESIS") || strings.Contains(codeStr, "OUTPUT"):
		return "SYNTHESIS"
	case strings.Contains(codeStr, "PERSISTENCE") || strings.Contains(codeStr, "NOTIFICATION"):
		return "PERSISTENCE"
	default:
		return "RETRIEVAL"
	}
}
