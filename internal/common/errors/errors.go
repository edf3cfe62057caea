// Package errors provides the standardized error model shared by the HTTP API
// and the workflow worker.
package errors

import (
	stderrors "errors"
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
	ErrCodeAppNotFound  ErrorCode = "APP_NOT_FOUND"
	ErrCodeNoReviews    ErrorCode = "NO_REVIEWS_FOUND"
	ErrCodeSearchFailed ErrorCode = "CATALOG_SEARCH_FAILED"
	ErrCodeFetchFailed  ErrorCode = "REVIEW_FETCH_FAILED"

	ErrCodeClassificationFailed  ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeClassificationTimeout ErrorCode = "CLASSIFICATION_TIMEOUT"

	ErrCodeInfrastructureFailure ErrorCode = "INFRASTRUCTURE_FAILURE"
	ErrCodeInvalidRequest        ErrorCode = "INVALID_REQUEST"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
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

// NewAppNotFoundError is returned when search yields no candidates.
func NewAppNotFoundError(appName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAppNotFound,
		Message:   fmt.Sprintf("No apps found with name: %s", appName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoReviewsError is returned when a resolved app has no reviews.
func NewNoReviewsError(appID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoReviews,
		Message:   "No reviews found for this app",
		Details:   fmt.Sprintf("appId: %s", appID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchFailedError wraps a catalog search failure.
func NewSearchFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "Error searching apps",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewFetchFailedError wraps a review retrieval failure.
func NewFetchFailedError(appID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFetchFailed,
		Message:   "Error fetching reviews",
		Details:   fmt.Sprintf("appId: %s, error: %s", appID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewClassificationFailedError describes a single failed classification.
// It is recovered locally and never reaches a caller.
func NewClassificationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassificationFailed,
		Message:   "Sentiment classification failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewClassificationTimeoutError(timeout time.Duration) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassificationTimeout,
		Message:   "Sentiment classification timeout",
		Details:   fmt.Sprintf("call exceeded %s", timeout),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInfrastructureError is returned when the governor or rate gate cannot be used.
func NewInfrastructureError(component string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInfrastructureFailure,
		Message:   fmt.Sprintf("Concurrency infrastructure '%s' unavailable", component),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Classification helpers
// ==========================

// As extracts a StandardError from err, normalizing anything else to INTERNAL_ERROR.
func As(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// IsNotFound reports whether err is one of the not-found codes.
func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeAppNotFound) || HasCode(err, ErrCodeNoReviews)
}

// HTTPStatus maps an error to the status code returned by the API.
func HTTPStatus(err error) int {
	switch As(err).Code {
	case ErrCodeAppNotFound, ErrCodeNoReviews:
		return http.StatusNotFound
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeAppNotFound:           "APP_NOT_FOUND",
	ErrCodeNoReviews:             "NO_REVIEWS_FOUND",
	ErrCodeSearchFailed:          "CATALOG_SEARCH_FAILED",
	ErrCodeFetchFailed:           "REVIEW_FETCH_FAILED",
	ErrCodeInfrastructureFailure: "INFRASTRUCTURE_FAILURE",
	ErrCodeInvalidRequest:        "INVALID_REQUEST",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSearchFailed, ErrCodeFetchFailed:
		return 3
	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "FETCH"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "CLASSIFICATION"):
		return "CLASSIFICATION"
	case strings.Contains(codeStr, "INFRASTRUCTURE"):
		return "INFRASTRUCTURE"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
