/*
errors.go - Centralized error types for the scheduling engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The api package maps them to HTTP statuses; stores return the
  not-found and conflict sentinels directly.

ERROR CATEGORIES:
  1. Validation errors - a vacation period breaks a scheduling rule
  2. Store errors      - referenced records missing or constraint hits
  3. Composition       - nothing matched a timeline filter

USAGE:
  days, err := validator.ValidateNewPeriod(empID, start, end, existing)
  var budget *schedule.BudgetExceededError
  if errors.As(err, &budget) {
      // budget.Existing, budget.Requested, budget.Cap
  }

SEE ALSO:
  - validator.go: Produces the validation errors
  - api/handlers.go: HTTP status mapping
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a period ends before it starts.
	ErrInvalidRange = errors.New("invalid range: end date before start date")

	// ErrInvalidInput is returned for malformed or missing fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBudgetExceeded is returned when the employee's cumulative vacation
	// days would go over the annual cap.
	ErrBudgetExceeded = errors.New("vacation day budget exceeded")

	// ErrOverlapConflict is returned when a period intersects another period
	// of the same employee.
	ErrOverlapConflict = errors.New("vacation period overlaps an existing period")

	// ErrNotFound is the parent of every "record does not exist" error.
	ErrNotFound = errors.New("not found")

	ErrEmployeeNotFound = fmt.Errorf("employee %w", ErrNotFound)
	ErrPeriodNotFound   = fmt.Errorf("vacation period %w", ErrNotFound)
	ErrDayOffNotFound   = fmt.Errorf("day off %w", ErrNotFound)

	// ErrDuplicateDayOff is returned when an employee already has a day off
	// for the requested year.
	ErrDuplicateDayOff = errors.New("employee already has a day off for this year")

	// ErrEmployeeHasRecords is returned when deleting an employee that still
	// owns vacation periods or days off.
	ErrEmployeeHasRecords = errors.New("employee still has vacation periods or days off")

	// ErrNoTimelineData is returned when no entry survives the timeline filters.
	ErrNoTimelineData = errors.New("no timeline data for the given filters")

	// ErrProviderPartialFailure marks a single holiday that could not be
	// resolved. It is logged by the provider and never returned to callers.
	ErrProviderPartialFailure = errors.New("holiday lookup failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// BudgetExceededError carries the numbers a user needs to self-correct.
type BudgetExceededError struct {
	EmployeeID int64
	Existing   int
	Requested  int
	Cap        int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("employee already has %d vacation days; adding %d exceeds the %d day cap",
		e.Existing, e.Requested, e.Cap)
}

func (e *BudgetExceededError) Unwrap() error {
	return ErrBudgetExceeded
}

// Remaining returns how many days could still be scheduled.
func (e *BudgetExceededError) Remaining() int {
	if e.Existing >= e.Cap {
		return 0
	}
	return e.Cap - e.Existing
}

// OverlapError identifies the period that collides with the submission.
type OverlapError struct {
	EmployeeID int64
	Start      Date
	End        Date
	Conflict   VacationPeriod
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("period %s..%s overlaps existing period %d (%s..%s)",
		e.Start, e.End, e.Conflict.ID, e.Conflict.Start, e.Conflict.End)
}

func (e *OverlapError) Unwrap() error {
	return ErrOverlapConflict
}

// RangeError reports the offending dates of an inverted range.
type RangeError struct {
	Start Date
	End   Date
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("end date %s is before start date %s", e.End, e.Start)
}

func (e *RangeError) Unwrap() error {
	return ErrInvalidRange
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrBudgetExceeded) ||
		errors.Is(err, ErrOverlapConflict) ||
		errors.Is(err, ErrDuplicateDayOff) ||
		errors.Is(err, ErrEmployeeHasRecords)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error is a collision with stored state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrOverlapConflict) ||
		errors.Is(err, ErrDuplicateDayOff) ||
		errors.Is(err, ErrEmployeeHasRecords)
}
