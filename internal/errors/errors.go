// Package errors provides structured error types for chatsim.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error codes for chatsim operations.
const (
	// Config errors
	CodeConfigMissingField = "CONFIG_001" // Missing required field
	CodeConfigInvalidValue = "CONFIG_002" // Invalid value type

	// Test simulation errors
	CodeTestNotFound = "TEST_001" // Named test case absent from config
	CodeTestNoMatch  = "TEST_002" // No sequence step matched the session

	// Match rule errors
	CodeMatchInvalidRule    = "MATCH_001" // Rule missing pattern/value
	CodeMatchInvalidPattern = "MATCH_002" // Regex pattern does not compile

	// Tool errors
	CodeToolNoRunner   = "TOOL_001" // Execute policy with no runner configured
	CodeToolNotDefined = "TOOL_002" // Tool name not declared in config

	// Session errors
	CodeSessionNotFound = "SESSION_001" // Session file not found
	CodeSessionInvalid  = "SESSION_002" // Session failed schema validation
	CodeSessionLocked   = "SESSION_003" // Session locked by another process

	// Definition errors
	CodeDefParseError   = "DEF_001" // Frontmatter parse error
	CodeDefMissingField = "DEF_002" // Definition missing required field
	CodeDefNotFound     = "DEF_003" // Definition not found

	// IO errors
	CodeIOFileNotFound = "IO_001" // File not found
	CodeIOReadError    = "IO_002" // Read error
	CodeIOWriteError   = "IO_003" // Write error
)

// SimError is the structured error type for chatsim operations.
type SimError struct {
	Code    string         `json:"code"`              // Error code (e.g., "TEST_001")
	Message string         `json:"message"`           // Human-readable message
	Details map[string]any `json:"details,omitempty"` // Context (test_name, path, etc.)
	Cause   error          `json:"-"`                 // Wrapped error (not serialized)
}

// Error implements the error interface.
func (e *SimError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *SimError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error.
func (e *SimError) WithDetail(key string, value any) *SimError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause wraps an underlying error.
func (e *SimError) WithCause(err error) *SimError {
	e.Cause = err
	return e
}

// MarshalJSON implements json.Marshaler with cause error message.
func (e *SimError) MarshalJSON() ([]byte, error) {
	type alias SimError
	aux := struct {
		*alias
		CauseMsg string `json:"cause,omitempty"`
	}{
		alias: (*alias)(e),
	}
	if e.Cause != nil {
		aux.CauseMsg = e.Cause.Error()
	}
	return json.Marshal(aux)
}

// New creates a new SimError.
func New(code, message string) *SimError {
	return &SimError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new SimError with formatted message.
func Newf(code, format string, args ...any) *SimError {
	return &SimError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with a SimError.
func Wrap(code, message string, err error) *SimError {
	return &SimError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with a formatted SimError.
func Wrapf(code string, err error, format string, args ...any) *SimError {
	return &SimError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// --- Config Errors ---

// ConfigMissingField creates an error for missing config field.
func ConfigMissingField(field string) *SimError {
	return Newf(CodeConfigMissingField, "missing required config field: %s", field).
		WithDetail("field", field)
}

// ConfigInvalidValue creates an error for invalid config value.
func ConfigInvalidValue(field string, value any, reason string) *SimError {
	return Newf(CodeConfigInvalidValue, "invalid config value for %s: %s", field, reason).
		WithDetail("field", field).
		WithDetail("value", value).
		WithDetail("reason", reason)
}

// --- Test Simulation Errors ---

// TestNotFound creates an error for a test case absent from the config.
func TestNotFound(testName string) *SimError {
	return Newf(CodeTestNotFound, "test case not found: %s", testName).
		WithDetail("test_name", testName)
}

// TestNoMatch creates an error for a sequence that never produced a response.
func TestNoMatch(testName string) *SimError {
	return Newf(CodeTestNoMatch, "no sequence step matched for test case: %s", testName).
		WithDetail("test_name", testName)
}

// --- Match Rule Errors ---

// MatchInvalidRule creates an error for a structurally invalid match rule.
func MatchInvalidRule(kind, reason string) *SimError {
	return Newf(CodeMatchInvalidRule, "invalid %s match rule: %s", kind, reason).
		WithDetail("kind", kind).
		WithDetail("reason", reason)
}

// MatchInvalidPattern creates an error for an uncompilable regex pattern.
func MatchInvalidPattern(pattern string, err error) *SimError {
	return Wrapf(CodeMatchInvalidPattern, err, "invalid regex pattern: %s", pattern).
		WithDetail("pattern", pattern)
}

// --- Tool Errors ---

// ToolNoRunner creates an error for an execute policy with no runner.
func ToolNoRunner(toolName string) *SimError {
	return Newf(CodeToolNoRunner, "tool execution requested for %s but no tool runner is configured", toolName).
		WithDetail("tool", toolName)
}

// ToolNotDefined creates an error for an undeclared tool.
func ToolNotDefined(toolName string) *SimError {
	return Newf(CodeToolNotDefined, "tool not defined: %s", toolName).
		WithDetail("tool", toolName)
}

// --- Session Errors ---

// SessionNotFound creates an error for a missing session.
func SessionNotFound(name string) *SimError {
	return Newf(CodeSessionNotFound, "session not found: %s", name).
		WithDetail("session", name)
}

// SessionInvalid creates an error for a session failing validation.
func SessionInvalid(name string, err error) *SimError {
	return Wrapf(CodeSessionInvalid, err, "session %s failed validation", name).
		WithDetail("session", name)
}

// SessionLocked creates an error for a session held by another process.
func SessionLocked(name string) *SimError {
	return Newf(CodeSessionLocked, "session is locked by another process: %s", name).
		WithDetail("session", name)
}

// --- Definition Errors ---

// DefParseError creates an error for a definition parse failure.
func DefParseError(path string, err error) *SimError {
	return Wrap(CodeDefParseError, "failed to parse definition", err).
		WithDetail("path", path)
}

// DefMissingField creates an error for a definition missing a field.
func DefMissingField(name, field string) *SimError {
	return Newf(CodeDefMissingField, "definition %s missing required field: %s", name, field).
		WithDetail("definition", name).
		WithDetail("field", field)
}

// DefNotFound creates an error for a missing definition.
func DefNotFound(name string) *SimError {
	return Newf(CodeDefNotFound, "definition not found: %s", name).
		WithDetail("definition", name)
}

// --- IO Errors ---

// IOFileNotFound creates an error for a missing file.
func IOFileNotFound(path string) *SimError {
	return Newf(CodeIOFileNotFound, "file not found: %s", path).
		WithDetail("path", path)
}

// IOReadError creates an error for read failures.
func IOReadError(path string, err error) *SimError {
	return Wrap(CodeIOReadError, "failed to read file", err).
		WithDetail("path", path)
}

// IOWriteError creates an error for write failures.
func IOWriteError(path string, err error) *SimError {
	return Wrap(CodeIOWriteError, "failed to write file", err).
		WithDetail("path", path)
}

// HasCode checks if an error is a SimError with the given code.
// It handles wrapped errors by unwrapping to find a SimError.
func HasCode(err error, code string) bool {
	var serr *SimError
	if errors.As(err, &serr) {
		return serr.Code == code
	}
	return false
}

// Code returns the error code if err is a SimError, empty string otherwise.
// It handles wrapped errors by unwrapping to find a SimError.
func Code(err error) string {
	var serr *SimError
	if errors.As(err, &serr) {
		return serr.Code
	}
	return ""
}
