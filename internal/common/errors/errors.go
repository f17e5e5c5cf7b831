// Package errors provides standardized portal errors and their mapping to
// HTTP responses and user-facing toasts.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"rental-portal/internal/common/response"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeUpstreamRejected    ErrorCode = "UPSTREAM_REJECTED"

	ErrCodeStepIncomplete       ErrorCode = "STEP_INCOMPLETE"
	ErrCodeDraftNotFound        ErrorCode = "DRAFT_NOT_FOUND"
	ErrCodeWizardNotFound       ErrorCode = "WIZARD_NOT_FOUND"
	ErrCodeInvalidFileField     ErrorCode = "INVALID_FILE_FIELD"
	ErrCodeFileTooLarge         ErrorCode = "FILE_TOO_LARGE"
	ErrCodeSubmissionInProgress ErrorCode = "SUBMISSION_IN_PROGRESS"

	ErrCodeSessionInvalid      ErrorCode = "SESSION_INVALID"
	ErrCodeForbidden           ErrorCode = "FORBIDDEN"
	ErrCodeProxySecretMismatch ErrorCode = "PROXY_SECRET_MISMATCH"
	ErrCodeUnknownCounty       ErrorCode = "UNKNOWN_COUNTY"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrCodeResourceNotFound    ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeSearchFailed        ErrorCode = "SEARCH_FAILED"
	ErrCodeStorageFailed       ErrorCode = "STORAGE_FAILED"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

// GenericToastMessage is shown when no server-supplied message is available.
const GenericToastMessage = "Something went wrong. Please try again."

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

// WithMetadata attaches a key to the error and returns it for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewUpstreamUnavailableError wraps a transport failure talking to the backend API.
func NewUpstreamUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeUpstreamUnavailable,
		"Backend service unavailable",
		fmt.Sprintf("operation: %s, error: %v", operation, err),
		true)
}

func NewUpstreamTimeoutError(operation string) *StandardError {
	return newError(ErrCodeUpstreamTimeout,
		"Backend service timeout",
		fmt.Sprintf("operation: %s", operation),
		true)
}

// NewUpstreamRejectedError records a non-2xx backend answer. serverMessage,
// when present, is what the user sees in the toast.
func NewUpstreamRejectedError(operation string, status int, serverMessage string) *StandardError {
	e := newError(ErrCodeUpstreamRejected,
		serverMessage,
		fmt.Sprintf("operation: %s, status: %d", operation, status),
		status >= 500)
	return e.WithMetadata("upstreamStatus", status)
}

func NewStepIncompleteError(wizardID string, step int, missing []string) *StandardError {
	e := newError(ErrCodeStepIncomplete,
		"Please complete the required fields",
		fmt.Sprintf("wizard: %s, step: %d, missing: %s", wizardID, step, strings.Join(missing, ",")),
		false)
	return e.WithMetadata("step", step).WithMetadata("missing", missing)
}

func NewDraftNotFoundError(draftID string) *StandardError {
	return newError(ErrCodeDraftNotFound,
		"Draft not found or expired",
		fmt.Sprintf("draftId: %s", draftID),
		false)
}

func NewWizardNotFoundError(wizardID string) *StandardError {
	return newError(ErrCodeWizardNotFound,
		"Unknown form",
		fmt.Sprintf("wizard: %s", wizardID),
		false)
}

func NewInvalidFileFieldError(field, details string) *StandardError {
	return newError(ErrCodeInvalidFileField,
		fmt.Sprintf("Field %q must be an uploaded file", field),
		details,
		false).WithMetadata("field", field)
}

func NewFileTooLargeError(field string, size, limit int64) *StandardError {
	return newError(ErrCodeFileTooLarge,
		fmt.Sprintf("File for %q is too large", field),
		fmt.Sprintf("size: %d, limit: %d", size, limit),
		false).WithMetadata("field", field)
}

func NewSubmissionInProgressError(draftID string) *StandardError {
	return newError(ErrCodeSubmissionInProgress,
		"Submission already in progress",
		fmt.Sprintf("draftId: %s", draftID),
		false)
}

func NewSessionInvalidError(details string) *StandardError {
	return newError(ErrCodeSessionInvalid,
		"Please sign in to continue",
		details,
		false)
}

func NewForbiddenError(role, path string) *StandardError {
	return newError(ErrCodeForbidden,
		"You do not have access to this page",
		fmt.Sprintf("role: %s, path: %s", role, path),
		false)
}

func NewProxySecretMismatchError() *StandardError {
	return newError(ErrCodeProxySecretMismatch,
		"Request rejected",
		"missing or invalid proxy secret header",
		false)
}

func NewUnknownCountyError(county string) *StandardError {
	return newError(ErrCodeUnknownCounty,
		"Unknown county",
		fmt.Sprintf("county: %s", county),
		false)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput,
		"Invalid request",
		details,
		false)
}

func NewResourceNotFoundError(details string) *StandardError {
	return newError(ErrCodeResourceNotFound,
		"Not found",
		details,
		false)
}

func NewSearchFailedError(source string, err error) *StandardError {
	return newError(ErrCodeSearchFailed,
		"Search suggestions unavailable",
		fmt.Sprintf("source: %s, error: %v", source, err),
		true)
}

func NewStorageFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeStorageFailed,
		"Could not save your progress",
		fmt.Sprintf("operation: %s, error: %v", operation, err),
		true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal,
		"Unexpected error",
		err.Error(),
		false)
}

// ==========================
// 3. HTTP / Toast mapping
// ==========================

var statusByCode = map[ErrorCode]int{
	ErrCodeUpstreamUnavailable:  http.StatusBadGateway,
	ErrCodeUpstreamTimeout:      http.StatusGatewayTimeout,
	ErrCodeStepIncomplete:       http.StatusUnprocessableEntity,
	ErrCodeDraftNotFound:        http.StatusNotFound,
	ErrCodeWizardNotFound:       http.StatusNotFound,
	ErrCodeInvalidFileField:     http.StatusBadRequest,
	ErrCodeFileTooLarge:         http.StatusRequestEntityTooLarge,
	ErrCodeSubmissionInProgress: http.StatusConflict,
	ErrCodeSessionInvalid:       http.StatusUnauthorized,
	ErrCodeForbidden:            http.StatusForbidden,
	ErrCodeProxySecretMismatch:  http.StatusForbidden,
	ErrCodeUnknownCounty:        http.StatusNotFound,
	ErrCodeInvalidInput:         http.StatusBadRequest,
	ErrCodeResourceNotFound:     http.StatusNotFound,
	ErrCodeSearchFailed:         http.StatusBadGateway,
	ErrCodeStorageFailed:        http.StatusServiceUnavailable,
	ErrCodeInternal:             http.StatusInternalServerError,
}

// HTTPStatus returns the response status for an error. Backend rejections in
// the 4xx range pass through, everything else from the backend becomes 502.
func HTTPStatus(e *StandardError) int {
	if status, ok := e.Metadata["httpStatus"].(int); ok {
		return status
	}
	if e.Code == ErrCodeUpstreamRejected {
		if status, ok := e.Metadata["upstreamStatus"].(int); ok && status >= 400 && status < 500 {
			return status
		}
		return http.StatusBadGateway
	}
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ToToast builds the user-facing notification for an error.
func ToToast(e *StandardError) *response.Toast {
	switch e.Code {
	case ErrCodeStepIncomplete:
		return &response.Toast{Level: "warning", Message: e.Message}
	case ErrCodeUpstreamRejected:
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			msg = GenericToastMessage
		}
		return &response.Toast{Level: "error", Message: msg}
	case ErrCodeUpstreamUnavailable, ErrCodeUpstreamTimeout, ErrCodeInternal, ErrCodeStorageFailed:
		return &response.Toast{Level: "error", Message: GenericToastMessage}
	}
	return &response.Toast{Level: "error", Message: e.Message}
}

// ==========================
// 4. Utility Functions
// ==========================

// AsStandard unwraps err into a StandardError when one is in the chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewUpstreamTimeoutError("request")
	}
	return NewInternalError(err)
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "UPSTREAM"):
		return "UPSTREAM"
	case code == ErrCodeSessionInvalid || code == ErrCodeForbidden || code == ErrCodeProxySecretMismatch:
		return "AUTH"
	case code == ErrCodeStepIncomplete || strings.Contains(codeStr, "FILE") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "DRAFT") || strings.Contains(codeStr, "WIZARD") || strings.Contains(codeStr, "SUBMISSION"):
		return "WIZARD"
	case strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "COUNTY"):
		return "DISCOVERY"
	case strings.Contains(codeStr, "STORAGE"):
		return "STORAGE"
	default:
		return "UNKNOWN"
	}
}
