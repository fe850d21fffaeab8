package errors

import (
	"fmt"
)

// FindError is the structured error type for everfind.
// It provides context for error handling, logging, and user presentation.
type FindError struct {
	// Code is the unique error code (e.g., "ERR_401_INVALID_REGEX").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Pattern, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *FindError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *FindError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with FindError.
func (e *FindError) Is(target error) bool {
	if t, ok := target.(*FindError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *FindError) WithDetail(key, value string) *FindError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *FindError) WithSuggestion(suggestion string) *FindError {
	e.Suggestion = suggestion
	return e
}

// New creates a new FindError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *FindError {
	return &FindError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a FindError from an existing error.
// The error's message becomes the FindError message.
func Wrap(code string, err error) *FindError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *FindError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ReadError creates a per-file read error. Recovered by the caller.
func ReadError(message string, cause error) *FindError {
	return New(ErrCodeFileRead, message, cause)
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the run before the pipeline starts.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if fe, ok := err.(*FindError); ok {
		return fe.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a FindError.
// Returns empty string if not a FindError.
func GetCode(err error) string {
	if fe, ok := err.(*FindError); ok {
		return fe.Code
	}
	return ""
}

// GetCategory extracts the category from a FindError.
// Returns empty string if not a FindError.
func GetCategory(err error) Category {
	if fe, ok := err.(*FindError); ok {
		return fe.Category
	}
	return ""
}
