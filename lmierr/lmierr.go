/*
Package lmierr centralizes the fatal-error taxonomy spec.md §7 names
(configuration error, invariant violation, inforce anomaly, convergence
failure, user interruption) so a caller anywhere in the module can test
what kind of failure stopped a run with errors.Is/errors.As instead of
matching on an error string. Domain packages wrap one of these sentinels
with whatever context they have; they do not construct a new sentinel
per call site.

GROUNDED ON:
  generic/errors.go's sentinel-plus-structured-error split: a var block
  of errors.New sentinels meant for errors.Is, paired with structured
  *Error types that carry detail and Unwrap to the matching sentinel.
  lmi's taxonomy is spec.md §7's five fatal/non-fatal kinds rather than
  the teacher's ledger-specific categories (duplicate idempotency key,
  insufficient balance, and so on), but the shape — category sentinels
  a caller branches on, detail structs wrapping them for a human-
  readable message — is the same one this package reuses.
*/
package lmierr

import (
	"errors"
	"fmt"
)

// Sentinel errors, one per spec.md §7 fatal/non-fatal kind. Use
// errors.Is(err, lmierr.ErrConfiguration) (etc.) to classify an error
// returned from anywhere in the core, regardless of which package
// raised it.
var (
	// ErrConfiguration is a fatal-at-construction error: an inconsistent
	// product database or table (spec.md §7, §4.4's premium-tax
	// pass-through/tiered-load invariant).
	ErrConfiguration = errors.New("lmi: configuration error")

	// ErrInvariantViolation is a fatal precondition failure in the
	// stratified, calendar, or currency packages — negative amount where
	// prohibited, a tier table missing its +∞ top, subunits out of range.
	ErrInvariantViolation = errors.New("lmi: invariant violation")

	// ErrInforceAnomaly is a fatal request-shape error: an inforce
	// illustration requested at issue month, or a monthly-detail trace
	// requested for solve mode.
	ErrInforceAnomaly = errors.New("lmi: inforce anomaly")

	// ErrConvergenceFailure is a solve-fatal error: the root finder could
	// not bracket or converge within its iteration budget.
	ErrConvergenceFailure = errors.New("lmi: convergence failure")

	// ErrCancelled marks a cooperative user interruption (spec.md §5):
	// the run ends in a well-defined, incomplete state with no ledger
	// emitted, and is not itself a defect.
	ErrCancelled = errors.New("lmi: run cancelled")
)

// Error carries a human-readable message alongside the sentinel it
// wraps, so %w-based wrapping and errors.Is both work from a single
// constructed value.
type Error struct {
	sentinel error
	msg      string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.sentinel }

// Configuration builds a fatal configuration-error Error.
func Configuration(format string, args ...any) *Error {
	return &Error{sentinel: ErrConfiguration, msg: fmt.Sprintf(format, args...)}
}

// InvariantViolation builds a fatal invariant-violation Error.
func InvariantViolation(format string, args ...any) *Error {
	return &Error{sentinel: ErrInvariantViolation, msg: fmt.Sprintf(format, args...)}
}

// InforceAnomaly builds a fatal inforce-anomaly Error.
func InforceAnomaly(format string, args ...any) *Error {
	return &Error{sentinel: ErrInforceAnomaly, msg: fmt.Sprintf(format, args...)}
}

// ConvergenceFailure builds a fatal convergence-failure Error.
func ConvergenceFailure(format string, args ...any) *Error {
	return &Error{sentinel: ErrConvergenceFailure, msg: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err is one of spec.md §7's fatal kinds
// (everything except cancellation, which ends a run without treating it
// as a defect).
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrInvariantViolation) ||
		errors.Is(err, ErrInforceAnomaly) ||
		errors.Is(err, ErrConvergenceFailure)
}

// IsCancelled reports whether err represents a cooperative user
// interruption rather than a defect.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
