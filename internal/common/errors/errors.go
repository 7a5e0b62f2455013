// Package errors provides the standardized error taxonomy surfaced by the dashboard.
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
	// ErrCodeAuthNotReady is a transient state, never shown to the user.
	ErrCodeAuthNotReady      ErrorCode = "AUTH_NOT_READY"
	ErrCodeProfileNotFound   ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeNetworkFailure    ErrorCode = "NETWORK_FAILURE"
	ErrCodeServerError       ErrorCode = "SERVER_ERROR"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"

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

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

func NewAuthNotReadyError() *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthNotReady,
		Message:   "Session is not authenticated yet",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError reports an identity with no backing company record.
func NewProfileNotFoundError(email, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "Company profile not found",
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"email": email},
		Timestamp: time.Now().UTC(),
	}
}

// NewNetworkFailureError reports a request that could not complete.
func NewNetworkFailureError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNetworkFailure,
		Message:   fmt.Sprintf("Could not reach %s", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewServerError reports a non-2xx response. message is the server-provided
// text, or empty when the body carried none.
func NewServerError(service string, status int, message string) *StandardError {
	msg := strings.TrimSpace(message)
	metadata := map[string]interface{}{"status": status}
	if msg == "" {
		msg = fmt.Sprintf("%s request failed", service)
	} else {
		metadata["serverMessage"] = msg
	}
	return &StandardError{
		Code:      ErrCodeServerError,
		Message:   msg,
		Details:   fmt.Sprintf("service: %s, status: %d", service, status),
		Retryable: status >= 500,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedResponseError reports a 2xx response whose body could not be used.
func NewMalformedResponseError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedResponse,
		Message:   fmt.Sprintf("Unexpected response from %s", service),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewValidationError reports a client-side precondition failure.
func NewValidationError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidation,
		Message:   fmt.Sprintf("Invalid %s", field),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard returns the StandardError in err's chain, if any.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf returns the code of the StandardError in err's chain, or
// ErrCodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// UserMessage returns the most specific message available for display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandard(err); ok {
		if stdErr.Code == ErrCodeValidation && stdErr.Details != "" {
			return stdErr.Details
		}
		return stdErr.Message
	}
	return "Something went wrong"
}

// ServerMessage returns the text a server put in its error body, or "".
func ServerMessage(err error) string {
	stdErr, ok := AsStandard(err)
	if !ok || stdErr.Code != ErrCodeServerError {
		return ""
	}
	msg, _ := stdErr.Metadata["serverMessage"].(string)
	return msg
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeAuthNotReady, ErrCodeNetworkFailure:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeAuthNotReady, ErrCodeProfileNotFound:
		return "AUTH/PROFILE"
	case ErrCodeNetworkFailure, ErrCodeServerError, ErrCodeMalformedResponse:
		return "BACKEND"
	case ErrCodeValidation:
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
