package events

import "fmt"

// ValidationError is the sum-typed failure every fallible operation in this
// module returns instead of throwing. Kind is the only field callers should
// branch on; Message is diagnostic text only.
type ValidationError struct {
	Kind    EventType
	Message string
	Cause   error
}

// NewValidationError builds a ValidationError with no wrapped cause.
func NewValidationError(kind EventType, message string) *ValidationError {
	return &ValidationError{Kind: kind, Message: message}
}

// Wrap builds a ValidationError that chains an underlying error for
// diagnostics, without changing the machine-readable Kind.
func Wrap(kind EventType, message string, cause error) *ValidationError {
	return &ValidationError{Kind: kind, Message: message, Cause: cause}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}
