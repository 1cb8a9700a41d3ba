// Package apperr defines the engine error taxonomy. Handlers translate these
// into HTTP responses; services return them wrapped with context.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a referenced record that does not exist. This indicates a
// caller or state bug rather than an operator mistake.
var ErrNotFound = errors.New("record not found")

// FormatError means the input document is not well-formed and the import was
// aborted. Other statements are unaffected.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed statement document: %v", e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// SchemaError means the document parsed but required header or account
// elements are missing.
type SchemaError struct {
	Missing string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("statement document missing required element: %s", e.Missing)
}

// MismatchError means proposed allocations do not sum to the payment amount.
// Diff is allocated minus payment amount, so positive means over-allocated.
// Recoverable; it only blocks confirmation.
type MismatchError struct {
	PaymentAmount float64
	Allocated     float64
}

func (e *MismatchError) Diff() float64 { return e.Allocated - e.PaymentAmount }

func (e *MismatchError) Over() bool { return e.Diff() > 0 }

func (e *MismatchError) Error() string {
	if e.Over() {
		return fmt.Sprintf("allocations %.2f exceed payment amount %.2f", e.Allocated, e.PaymentAmount)
	}
	return fmt.Sprintf("allocations %.2f fall short of payment amount %.2f", e.Allocated, e.PaymentAmount)
}

// DuplicateError marks a uniqueness violation, e.g. a cost type name that
// already exists. Recoverable validation error.
type DuplicateError struct {
	What string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already exists", e.What)
}
