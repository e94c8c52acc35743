/*
errors.go - Error types for the allocation engine

PURPOSE:
  All error kinds of the engine in one place. Callers match them with
  errors.Is; the HTTP layer maps them to status codes.

ERROR CATEGORIES:
  1. Entity errors     - duplicate or missing consultants/projects
  2. Validation errors - bad names, inverted ranges, malformed period ids
  3. State errors      - persisted dataset failed structural validation
  4. Persistence       - a save did not go through (memory state is kept)

SEE ALSO:
  - calendar/period.go: ErrInvalidRange, ErrInvalidPeriodID
  - api/handlers.go: status mapping
*/
package allocation

import (
	"errors"
	"fmt"

	"github.com/warp/allocation-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrDuplicateEntity is returned when adding a consultant or project
	// whose name already exists. Nothing is mutated.
	ErrDuplicateEntity = errors.New("duplicate entity")

	// ErrNotFound is returned when an operation requires a consultant or
	// project that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMalformedState is returned when a persisted dataset is missing
	// required collections. Callers regenerate from the seed.
	ErrMalformedState = errors.New("malformed persisted state")

	// ErrInvalidRange is returned when a start is after its end.
	ErrInvalidRange = calendar.ErrInvalidRange

	// ErrInvalidName is returned for empty consultant or project names.
	ErrInvalidName = errors.New("invalid name")

	// ErrSaveFailed wraps persistence failures. The in-memory dataset keeps
	// the change and stays dirty until a later save succeeds.
	ErrSaveFailed = errors.New("save failed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// EntityKind names what kind of entity an error refers to.
type EntityKind string

const (
	KindConsultant EntityKind = "consultant"
	KindProject    EntityKind = "project"
)

// DuplicateEntityError identifies the entity that already exists.
type DuplicateEntityError struct {
	Kind EntityKind
	Name string
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

func (e *DuplicateEntityError) Unwrap() error { return ErrDuplicateEntity }

// NotFoundError identifies the missing entity.
type NotFoundError struct {
	Kind EntityKind
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateEntity) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, calendar.ErrInvalidPeriodID) ||
		errors.Is(err, calendar.ErrUnknownPeriodType)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
