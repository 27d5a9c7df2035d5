/*
errors.go - Error types for caller-side validation

PURPOSE:
  The engine itself is total and returns no errors. These types serve the
  callers (HTTP API, CLI, settings service) that screen input before it
  reaches the engine.

ERROR CATEGORIES:
  1. Input errors  - DOB/DOA inconsistencies (ErrInvalidInput)
  2. Config errors - policy values outside accepted ranges (ErrInvalidConfig)

USAGE:
  if err := retirement.ValidateInputs(in, today); err != nil {
      var verrs retirement.ValidationErrors
      if errors.As(err, &verrs) { ... per-field messages ... }
  }

SEE ALSO:
  - validate.go: Produces these errors
  - api/handlers.go: Maps them to 400 responses
*/
package retirement

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput marks per-employee inputs that fail caller-side checks.
	ErrInvalidInput = errors.New("invalid retirement input")

	// ErrInvalidConfig marks a policy with values outside accepted ranges.
	ErrInvalidConfig = errors.New("invalid retirement config")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError describes one failed field check.
type ValidationError struct {
	Field   string
	Message string
	kind    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.kind }

// NewInputError builds a field error for inputs rejected before validation,
// such as a date that does not parse.
func NewInputError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, kind: ErrInvalidInput}
}

// ValidationErrors collects every failed check so a form can show them all.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.Is / errors.As.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// Fields maps field name to message; the first message per field wins.
func (v ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(v))
	for _, e := range v {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// IsValidationError reports whether err came from ValidateInputs or ValidateConfig.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidConfig)
}
