package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorData     = 3   // Indicates the historical data failed an integrity check.
	ExitErrorConfig   = 4   // Indicates a configuration or request parameter error.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
//
// Returns:
//   - string: The error message string.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
// It allows for the creation of configuration-specific errors with dynamic
// content.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// InvalidParameterError is returned when a calibration or projection input
// is rejected before any evaluation starts: a zero growth rate, an empty
// growth-rate list, an inverted range, a count below one.
type InvalidParameterError struct {
	// Field is the name of the offending input field.
	Field string
	// Message explains why the value was rejected.
	Message string
}

// Error returns a formatted message describing the rejected parameter.
func (e InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Field, e.Message)
}

// NewInvalidParameter creates an InvalidParameterError with a formatted message.
func NewInvalidParameter(field, format string, a ...any) error {
	return InvalidParameterError{Field: field, Message: fmt.Sprintf(format, a...)}
}

// DataIntegrityError reports historical data that cannot be used as-is:
// a required year is missing, rows are out of order, or a row is malformed.
// Year is zero when the problem is not tied to a specific year.
type DataIntegrityError struct {
	Year    int
	Message string
}

// Error returns a formatted message describing the integrity failure.
func (e DataIntegrityError) Error() string {
	if e.Year == 0 {
		return fmt.Sprintf("data integrity error: %s", e.Message)
	}
	return fmt.Sprintf("data integrity error at year %d: %s", e.Year, e.Message)
}

// CalculationError encapsulates a calculation error while preserving the
// original cause. This allows for structured error handling and inspection
// of what went wrong while fitting or projecting a scenario.
type CalculationError struct {
	// Cause is the underlying error that triggered this calculation error.
	Cause error
}

// Error returns the error message from the underlying cause.
//
// Returns:
//   - string: The error message string from the wrapped error.
func (e CalculationError) Error() string { return e.Cause.Error() }

// Unwrap returns the original wrapped error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
//
// Returns:
//   - error: The underlying cause of the CalculationError.
func (e CalculationError) Unwrap() error { return e.Cause }

// TimeoutError represents a run timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
//
// Returns:
//   - string: The error message string.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: true if the error is a context error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// IsInvalidParameter reports whether err carries an InvalidParameterError.
func IsInvalidParameter(err error) bool {
	var target InvalidParameterError
	return errors.As(err, &target)
}

// IsDataIntegrity reports whether err carries a DataIntegrityError.
func IsDataIntegrity(err error) bool {
	var target DataIntegrityError
	return errors.As(err, &target)
}

// ExitCodeFor maps an error to the process exit code the CLI reports.
//
// Parameters:
//   - err: The error returned by a run, or nil.
//
// Returns:
//   - int: One of the Exit* constants.
func ExitCodeFor(err error) int {
	var cfgErr ConfigError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		return ExitErrorCanceled
	case IsInvalidParameter(err), errors.As(err, &cfgErr):
		return ExitErrorConfig
	case IsDataIntegrity(err):
		return ExitErrorData
	default:
		return ExitErrorGeneric
	}
}
