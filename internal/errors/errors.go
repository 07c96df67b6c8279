// Package errors provides the structured error type used across cargo-vitasdk
// for category-based classification of build, stage and protocol failures.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory classifies an Error for exit-code mapping and aggregation.
type ErrorCategory string

const (
	// Startup errors, reported before any work begins.
	CategoryPrecondition ErrorCategory = "precondition"
	CategoryConfig       ErrorCategory = "config"

	// The build tool emitted a line that is not a valid message.
	CategoryProtocol ErrorCategory = "protocol"

	// The build subprocess itself exited unsuccessfully.
	CategoryBuild ErrorCategory = "build"

	// Per-artifact pipeline errors.
	CategoryMissingInput ErrorCategory = "missing_input"
	CategoryStage        ErrorCategory = "stage"
	CategoryStageTimeout ErrorCategory = "stage_timeout"

	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the whole run
	SeverityError   ErrorSeverity = "error"   // Fails one artifact
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// Error is a structured error with category, severity and context.
type Error struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for Error.
type ContextFields map[string]any

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new Error.
func New(category ErrorCategory, severity ErrorSeverity, message string) *Error {
	return &Error{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new Error that wraps an existing error.
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *Error {
	return &Error{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As finds the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsCategory reports whether any *Error in err's chain has the given category.
func IsCategory(err error, category ErrorCategory) bool {
	for err != nil {
		var e *Error
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Category == category {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCategory extracts the category of the outermost *Error, or CategoryInternal.
func GetCategory(err error) ErrorCategory {
	if e, ok := As(err); ok {
		return e.Category
	}
	return CategoryInternal
}
