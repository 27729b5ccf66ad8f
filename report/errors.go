/*
errors.go - Pipeline error taxonomy

PURPOSE:
  All terminal outcomes of a pipeline run in one place. The orchestrator
  owns failure-to-error-kind mapping: collaborators return their own errors
  and the pipeline wraps them into exactly one of these kinds.

ORDERING:
  The first four kinds are detected before any expensive work. Quota denial
  happens before any record I/O. GenerationFailed and PersistenceFailed
  occur after the quota charge, which is never refunded.

USAGE:
  The API layer maps kinds to HTTP statuses with errors.Is/errors.As:

    var qErr *report.QuotaExceededError
    if errors.As(err, &qErr) { ... 402 ... }

SEE ALSO:
  - pipeline.go: The only producer of these errors
  - api/handlers.go: Status mapping
*/
package report

import (
	"errors"
	"fmt"

	"github.com/fpx/insight-engine/credits"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidFocusArea is returned for a focus area outside the closed
	// enum. Rejected before any I/O.
	ErrInvalidFocusArea = errors.New("invalid focus area")

	// ErrQuotaExceeded is returned when the credit gate denies consumption.
	// No side effects occurred.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTenantNotFound is returned when the tenant does not exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrSubjectNotFound is returned when the student does not exist.
	ErrSubjectNotFound = errors.New("student not found")

	// ErrNoSourceDocuments is returned when zero documents exist for the
	// student. Fatal: a report needs source material. The quota charge has
	// already happened at this point and is not refunded.
	ErrNoSourceDocuments = errors.New("no documents found for this student")

	// ErrGenerationFailed is returned when the external text-generation
	// call errors or times out. Occurs after the quota charge.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrPersistenceFailed is returned when the generated report could not
	// be saved. Content was produced but is lost from the caller's view.
	ErrPersistenceFailed = errors.New("report persistence failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// QuotaExceededError carries the balance details the client needs to render
// a payment-required response.
type QuotaExceededError struct {
	Required  credits.Amount
	Available credits.Amount
	Reason    string
}

func (e *QuotaExceededError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("quota exceeded: %s credits required, %s available", e.Required, e.Available)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// GenerationError carries the upstream status of a failed generation call.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("AI generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return ErrGenerationFailed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true when the failure is attributable to the request
// rather than the system.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidFocusArea) ||
		errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrNoSourceDocuments) ||
		IsNotFound(err)
}

// IsNotFound returns true when a referenced tenant or student is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTenantNotFound) || errors.Is(err, ErrSubjectNotFound)
}
