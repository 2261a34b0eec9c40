package core

import "fmt"

// ResultStatus tags an invocation result as success or error.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultError   ResultStatus = "error"
)

// Result is the single shape every tool invocation, bridge call and
// fallback path normalizes to before it reaches the orchestrator.
// Downstream code branches on Status and Code, never on payload shape.
type Result struct {
	Status     ResultStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Payload    map[string]any `json:"payload,omitempty"`
	Code       string         `json:"code,omitempty"`
	Resolution string         `json:"resolution,omitempty"`
}

// OK reports whether the result carries a success status.
func (r Result) OK() bool {
	return r.Status == ResultSuccess
}

// Success builds a success result with a message.
func Success(msg string) Result {
	return Result{Status: ResultSuccess, Message: msg}
}

// Successf builds a success result with a formatted message.
func Successf(format string, args ...any) Result {
	return Success(fmt.Sprintf(format, args...))
}

// Failure builds an error result with a taxonomy code and message.
func Failure(code, msg string) Result {
	return Result{Status: ResultError, Code: code, Message: msg}
}

// Failuref builds an error result with a formatted message.
func Failuref(code, format string, args ...any) Result {
	return Failure(code, fmt.Sprintf(format, args...))
}

// WithPayload attaches a payload entry, allocating the map on first use.
func (r Result) WithPayload(key string, value any) Result {
	if r.Payload == nil {
		r.Payload = make(map[string]any)
	}
	r.Payload[key] = value
	return r
}

// WithResolution attaches a human-readable remediation hint.
func (r Result) WithResolution(hint string) Result {
	r.Resolution = hint
	return r
}
