/*
errors.go - Centralized error types for the calculation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every failure is synchronous and fatal to the single calculation; none of
  them is retried because they signal input or configuration defects, not
  transient faults.

ERROR CATEGORIES:
  1. Configuration defects - The rule partition or coefficient data is broken
  2. Client errors - The request is malformed
  3. Store errors - Journal persistence failures

  Adjustment ineligibility is NOT an error; it is a boolean predicate.

USAGE:
    if errors.Is(err, generic.ErrAmbiguousScale) {
        // partition defect: two scales claimed the same worker
    }

    var missing *generic.MissingCoefficientTableError
    if errors.As(err, &missing) {
        log.Printf("no %s table before %s", missing.Rule, missing.Earliest)
    }

SEE ALSO:
  - bracket.go: MalformedBracketsError
  - payg/classifier.go: NoApplicableScaleError, AmbiguousScaleError
  - payg/bracket_scale.go: MissingCoefficientTableError
*/
package generic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoApplicableScale is returned when no scale accepts the worker.
	ErrNoApplicableScale = errors.New("no applicable tax scale")

	// ErrAmbiguousScale is returned when more than one scale accepts the
	// worker. Always a defect in the eligibility partition.
	ErrAmbiguousScale = errors.New("ambiguous tax scale")

	// ErrMissingCoefficientTable is returned when the pay date precedes the
	// earliest table version of a rule.
	ErrMissingCoefficientTable = errors.New("missing coefficient table")

	// ErrMalformedBrackets is returned when a bracket table has no match for a
	// weekly amount or breaks the ascending/sentinel invariant.
	ErrMalformedBrackets = errors.New("malformed coefficient brackets")

	// ErrInvalidInput is returned for malformed requests (bad enum, date, amount).
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidPeriod is returned when a period ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrRecordNotFound is returned when a journal record doesn't exist.
	ErrRecordNotFound = errors.New("calculation record not found")

	// ErrDuplicateIdempotencyKey is returned when a record with the same
	// idempotency key already exists. This is expected behavior for retries.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NoApplicableScaleError reports an unsupported worker/payment combination.
type NoApplicableScaleError struct {
	PayDate TimePoint
	Detail  string
}

func (e *NoApplicableScaleError) Error() string {
	return fmt.Sprintf("no applicable tax scale for pay date %s (%s)", e.PayDate, e.Detail)
}

func (e *NoApplicableScaleError) Unwrap() error {
	return ErrNoApplicableScale
}

// AmbiguousScaleError lists every scale that claimed the same input.
type AmbiguousScaleError struct {
	PayDate TimePoint
	Matches []string
}

func (e *AmbiguousScaleError) Error() string {
	return fmt.Sprintf("ambiguous tax scale for pay date %s: %s", e.PayDate, strings.Join(e.Matches, ", "))
}

func (e *AmbiguousScaleError) Unwrap() error {
	return ErrAmbiguousScale
}

// MissingCoefficientTableError reports a pay date before the first table.
type MissingCoefficientTableError struct {
	Rule     string
	PayDate  TimePoint
	Earliest TimePoint
}

func (e *MissingCoefficientTableError) Error() string {
	if e.Earliest.IsZero() {
		return fmt.Sprintf("no coefficient table for %s on %s", e.Rule, e.PayDate)
	}
	return fmt.Sprintf("no coefficient table for %s on %s (earliest %s)", e.Rule, e.PayDate, e.Earliest)
}

func (e *MissingCoefficientTableError) Unwrap() error {
	return ErrMissingCoefficientTable
}

// MalformedBracketsError reports a broken coefficient table.
type MalformedBracketsError struct {
	Rule   string
	Weekly decimal.Decimal
	Reason string
}

func (e *MalformedBracketsError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("malformed brackets: %s (weekly %s)", e.Reason, e.Weekly)
	}
	return fmt.Sprintf("malformed brackets in %s: %s (weekly %s)", e.Rule, e.Reason, e.Weekly)
}

func (e *MalformedBracketsError) Unwrap() error {
	return ErrMalformedBrackets
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigurationDefect returns true if the error points at broken rule data
// or an incomplete eligibility partition rather than bad input.
func IsConfigurationDefect(err error) bool {
	return errors.Is(err, ErrNoApplicableScale) ||
		errors.Is(err, ErrAmbiguousScale) ||
		errors.Is(err, ErrMissingCoefficientTable) ||
		errors.Is(err, ErrMalformedBrackets)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
