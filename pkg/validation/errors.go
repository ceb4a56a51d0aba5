package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is matched by every ValidationError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError describes a single rejected input value.
type ValidationError struct {
	Field  string // dotted path, e.g. "topology.link_starts[2]"
	Value  any    // offending value (may be nil)
	Reason string
	Cause  error // optional sentinel from the package that detected it
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrInvalidInput or the wrapped cause.
func (e *ValidationError) Is(target error) bool {
	if target == ErrInvalidInput {
		return true
	}
	return e.Cause != nil && errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building ValidationErrors.
type ErrorBuilder struct {
	err ValidationError
}

// NewError starts a ValidationError for the given field.
func NewError(field string) *ErrorBuilder {
	return &ErrorBuilder{err: ValidationError{Field: field}}
}

// Value records the rejected value.
func (b *ErrorBuilder) Value(v any) *ErrorBuilder {
	b.err.Value = v
	return b
}

// Reason sets the human readable explanation.
func (b *ErrorBuilder) Reason(format string, args ...any) *ErrorBuilder {
	b.err.Reason = fmt.Sprintf(format, args...)
	return b
}

// Cause attaches a sentinel error.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	if b.err.Reason == "" && err != nil {
		b.err.Reason = err.Error()
	}
	return b
}

// Build returns the finished error.
func (b *ErrorBuilder) Build() *ValidationError {
	e := b.err
	return &e
}

// ValidationErrors is every problem found in one input, in detection order.
type ValidationErrors []*ValidationError

// Error joins all messages.
func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return "no validation errors"
	case 1:
		return v[0].Error()
	}
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d validation errors: %s", len(v), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual errors to errors.Is / errors.As.
func (v ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v))
	for i, e := range v {
		errs[i] = e
	}
	return errs
}

// Fields returns the field paths that failed, in order.
func (v ValidationErrors) Fields() []string {
	fields := make([]string, len(v))
	for i, e := range v {
		fields[i] = e.Field
	}
	return fields
}

// AsValidationErrors extracts the collected errors from err, if any.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var many ValidationErrors
	if errors.As(err, &many) {
		return many, true
	}
	var one *ValidationError
	if errors.As(err, &one) {
		return ValidationErrors{one}, true
	}
	return nil, false
}
