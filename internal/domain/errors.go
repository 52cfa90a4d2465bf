package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services. Handlers map these to HTTP codes.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrRunActive indicates a tailoring run is already in progress for the resume.
	ErrRunActive = errors.New("tailoring run already active")

	// ErrInvalidTransition indicates a record or run mutation that violates
	// the status lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotDownloadable indicates a download was requested for a record
	// that has not completed.
	ErrNotDownloadable = errors.New("artifact not available")
)

// ValidationError indicates client-supplied input was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field.
// Parameters:
//   - field: input field that failed validation; may be empty.
//   - format: printf-style message format.
//   - args: format arguments.
//
// Returns:
//   - error: the validation error.
func NewValidationError(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// BackendError indicates an upstream dependency (LLM API, job source)
// returned a failure.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsBackend reports whether err is a BackendError.
func IsBackend(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
