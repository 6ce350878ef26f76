package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Model-runtime errors

var (
	// ErrModelNotLoaded indicates a model artifact has not been loaded yet
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrModelInference indicates a model invocation failed
	ErrModelInference = errors.New("model inference failed")

	// ErrUnknownModelType indicates a manifest names an unsupported artifact type
	ErrUnknownModelType = errors.New("unknown model artifact type")
)

// Pipeline errors

var (
	// ErrUnknownPolicy indicates an unrecognized recovery-duration policy
	ErrUnknownPolicy = errors.New("unknown recovery duration policy")

	// ErrUnknownMode indicates an unrecognized execution mode
	ErrUnknownMode = errors.New("unknown execution mode")

	// ErrNoBackgroundRow indicates the cohort table has no row to sample
	ErrNoBackgroundRow = errors.New("no background row available")

	// ErrBatchLocked indicates another instance holds the batch lock
	ErrBatchLocked = errors.New("batch already in progress")
)

// Intake errors

var (
	// ErrUnusableExport indicates a wearable export contains no usable records
	ErrUnusableExport = errors.New("unusable wearable export")
)

// MissingFeatureError reports every required feature name absent from an
// assembled vector. It is fatal for the subject being scored, never for the
// batch.
type MissingFeatureError struct {
	Missing []string
}

// Error implements the error interface
func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing required features: %s", strings.Join(e.Missing, ", "))
}

// NewMissingFeatureError creates a MissingFeatureError for the given names
func NewMissingFeatureError(missing []string) *MissingFeatureError {
	return &MissingFeatureError{Missing: missing}
}

// MalformedSessionError marks a test session the extractor could not derive
// markers from. Sessions failing this way are silently skipped.
type MalformedSessionError struct {
	SessionID string
	Reason    string
}

// Error implements the error interface
func (e *MalformedSessionError) Error() string {
	return fmt.Sprintf("malformed session %s: %s", e.SessionID, e.Reason)
}

// NewMalformedSessionError creates a MalformedSessionError
func NewMalformedSessionError(sessionID, reason string) *MalformedSessionError {
	return &MalformedSessionError{SessionID: sessionID, Reason: reason}
}

// ParseError marks a single unparseable value in a tabular input. The value
// is treated as missing downstream; parsing never aborts a table.
type ParseError struct {
	Column string
	Value  string
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable value in column %q: %q", e.Column, e.Value)
}

// DomainError wraps an error with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
