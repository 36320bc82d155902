package analytics

import (
	"errors"
	"fmt"
)

// The engine distinguishes exactly two failure classes. Caller misuse is
// fixable by the caller; a query failure is a transient infrastructure
// condition the caller may retry under its own policy. The engine itself
// never retries and never translates beyond this split.

var (
	// ErrMissingUser rejects calls without a user id. Identity is always
	// supplied by the caller, never inferred or defaulted.
	ErrMissingUser = errors.New("user id is required")

	// ErrUnknownFormat rejects a report format outside the closed set.
	ErrUnknownFormat = errors.New("unknown report format")

	// ErrPDFNotImplemented marks the reserved PDF variant.
	ErrPDFNotImplemented = errors.New("pdf rendering not implemented")
)

// QueryError wraps a ledger failure, preserving the underlying cause and the
// operation that issued it.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// queryErr wraps err as a QueryError unless it is nil.
func queryErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &QueryError{Op: op, Err: err}
}

// IsValidation reports whether err belongs to the caller-misuse class.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingUser) || errors.Is(err, ErrUnknownFormat)
}

// IsInfrastructure reports whether err belongs to the ledger-failure class.
func IsInfrastructure(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}
