/*
errors.go - Centralized error types for the policy domain

PURPOSE:
  All error types in one place. Handlers map them to HTTP statuses,
  the CLI prints them, bulk import records them per row.

ERROR CATEGORIES:
  1. Not found      - unknown state, metric, category, record or context
  2. Validation     - one or more field-level violations (collected, not first-wins)
  3. Integrity      - delete blocked by dependents, second open record, slug taken
  4. Store          - anything else bubbling up from database/sql

USAGE:
  var verr *policy.ValidationError
  if errors.As(err, &verr) {
      // verr.Details holds every violation
  }

  if policy.IsNotFound(err) { ... }

SEE ALSO:
  - api/handlers.go: writeServiceError maps these to statuses
*/
package policy

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrNotFound         = errors.New("not found")
	ErrStateNotFound    = fmt.Errorf("state %w", ErrNotFound)
	ErrMetricNotFound   = fmt.Errorf("metric %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrRecordNotFound   = fmt.Errorf("policy data %w", ErrNotFound)
	ErrContextNotFound  = fmt.Errorf("state context %w", ErrNotFound)

	// ErrValidation is wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrHasDependents is wrapped by DependentsError.
	ErrHasDependents = errors.New("has dependents")

	// ErrOpenRecordExists is returned when a write would leave two records
	// with a NULL end_date for the same state and metric.
	ErrOpenRecordExists = errors.New("a current record already exists for this state and metric")

	// ErrSlugTaken is the storage-level backstop for slug uniqueness.
	ErrSlugTaken = errors.New("slug must be unique")

	ErrUnknownDataType = errors.New("unknown data type")
)

// =============================================================================
// STRUCTURED ERRORS - Use with errors.As()
// =============================================================================

// ValidationError carries every violation found, in the order found.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Details, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// newValidationError returns nil when there is nothing to report, so callers
// can write `if err := newValidationError(errs); err != nil`.
func newValidationError(details []string) error {
	if len(details) == 0 {
		return nil
	}
	return &ValidationError{Details: details}
}

// DependentsError reports a delete refused because other rows still
// reference the target.
type DependentsError struct {
	Kind  string   // "category" or "metric"
	Count int      // number of blocking rows
	Names []string // blocking metric names (categories only)
}

func (e *DependentsError) Error() string {
	if e.Kind == "category" {
		return fmt.Sprintf("Cannot delete category. It has %d metrics.", e.Count)
	}
	return fmt.Sprintf("Cannot delete metric. It is used in %d policy data entries.", e.Count)
}

func (e *DependentsError) Unwrap() error {
	return ErrHasDependents
}

// =============================================================================
// HELPERS
// =============================================================================

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrHasDependents) ||
		errors.Is(err, ErrOpenRecordExists) ||
		errors.Is(err, ErrSlugTaken) ||
		errors.Is(err, ErrUnknownDataType) ||
		IsNotFound(err)
}
