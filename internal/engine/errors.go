package engine

import (
	"errors"
	"fmt"
)

// Global error declarations.
var (
	// ErrMissingField reports a caller-contract violation: a required input
	// field (strategy name, trade type) is absent from the stream.
	ErrMissingField = errors.New("required field missing")

	// ErrStrategyNotFound reports a request for a strategy name that does
	// not exist in the batch.
	ErrStrategyNotFound = errors.New("strategy not found")
)

// ValidationError reports malformed filter or profit configuration. It names
// the offending field so callers can surface a useful message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErr(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
