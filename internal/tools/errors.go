package tools

import (
	"errors"
	"fmt"
)

// Registry errors.
var (
	// ErrToolNotFound is returned when a tool is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolNameEmpty is returned when a tool has no name.
	ErrToolNameEmpty = errors.New("tool name cannot be empty")

	// ErrToolExecuteNil is returned when a tool has no execute function.
	ErrToolExecuteNil = errors.New("tool execute function cannot be nil")

	// ErrToolAlreadyRegistered is returned when registering a duplicate.
	ErrToolAlreadyRegistered = errors.New("tool already registered")
)

// ValidationError reports malformed caller input. It is always raised before
// any upstream mutation, with enough detail for the caller to self-correct.
type ValidationError struct {
	// Field names the offending argument.
	Field string
	// Index is the offending positional index, or -1 when not positional.
	Index int
	// Detail describes the violation and, where applicable, the valid range.
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid %s at index %d: %s", e.Field, e.Index, e.Detail)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// NewValidationError builds a non-positional validation error.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Index: -1, Detail: fmt.Sprintf(format, args...)}
}

// UpstreamError carries a remote platform's own rejection or failure. It is
// propagated with the upstream status and body, never swallowed.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error %d: %s", e.Status, e.Body)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
