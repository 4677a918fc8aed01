// Package errors provides a lightweight structured error type (GrupError)
// for category-based classification in the HTTP adapter and CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a GrupError for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Document processing errors
	CategoryRender     ErrorCategory = "render"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Server and infrastructure errors
	CategoryBind     ErrorCategory = "bind"
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// GrupError is a structured error with category, severity, and context
type GrupError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for GrupError
type ContextFields map[string]any

// Error implements the error interface
func (e *GrupError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *GrupError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *GrupError) WithContext(key string, value any) *GrupError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new GrupError
func New(category ErrorCategory, severity ErrorSeverity, message string) *GrupError {
	return &GrupError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new GrupError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *GrupError {
	return &GrupError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// AsGrupError extracts a *GrupError from anywhere in an error chain.
func AsGrupError(err error) (*GrupError, bool) {
	var ge *GrupError
	if stderrors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsCategory reports whether err is (or wraps) a GrupError of the given category.
func IsCategory(err error, category ErrorCategory) bool {
	ge, ok := AsGrupError(err)
	return ok && ge.Category == category
}
