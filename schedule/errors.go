package schedule

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDateRange = errors.New("end date is before start date")
	ErrDomainValidation = errors.New("domain validation failed")
)

// ValidationError describes the field that violated a domain invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrDomainValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
