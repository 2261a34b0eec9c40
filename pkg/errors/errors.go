// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Aura.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies Aura errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates malformed or missing parameters.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeConnection indicates the bridge cannot reach the dispatcher.
	CodeConnection ErrorCode = "CONNECTION_ERROR"

	// CodeToolNotFound indicates no tool is registered under the requested name.
	CodeToolNotFound ErrorCode = "TOOL_NOT_FOUND"

	// CodeToolFailure indicates a tool handler failed during execution.
	CodeToolFailure ErrorCode = "TOOL_FAILURE"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeFallbackExhausted indicates both the primary and fallback paths failed.
	CodeFallbackExhausted ErrorCode = "FALLBACK_EXHAUSTED"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeUnauthorized indicates authorization failed.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// AuraError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type AuraError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]any
	Recoverable bool
	StatusCode  int // For HTTP responses
}

// Error implements the error interface.
func (e *AuraError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *AuraError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *AuraError) MarshalJSON() ([]byte, error) {
	type Alias AuraError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new AuraError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *AuraError {
	return &AuraError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]any),
		StatusCode: codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *AuraError) WithContext(key string, value any) *AuraError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *AuraError) WithRecoverable(recoverable bool) *AuraError {
	e.Recoverable = recoverable
	return e
}

// AsAuraError attempts to convert an error to an AuraError.
// Returns the error as AuraError if it is one, or wraps it otherwise.
func AsAuraError(err error) *AuraError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AuraError); ok {
		return ae
	}
	return New(CodeInternal, "wrapped error", err)
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound, CodeToolNotFound:
		return 404
	case CodeUnauthorized:
		return 401
	case CodeInvalidInput:
		return 400
	case CodeTimeout:
		return 408
	case CodeConnection, CodeFallbackExhausted:
		return 502
	default:
		return 500
	}
}
