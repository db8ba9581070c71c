/*
errors.go - Centralized error types for the catalog

PURPOSE:
  Sentinel errors for store-level constraint violations, translated from
  driver errors by the store implementations, plus structured variants
  that carry the offending entity.

ERROR CATEGORIES:
  1. Not-found errors - lookups by id/code that matched nothing
  2. Integrity errors - unique and referential constraint violations

USAGE:
  if errors.Is(err, catalog.ErrDuplicateCode) {
      // show the "duplicate code" message, not the generic one
  }
*/
package catalog

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrWineNotFound is returned when a wine id or code matches nothing.
	ErrWineNotFound = errors.New("wine not found")

	// ErrReferenceNotFound is returned when a vocabulary row is missing.
	ErrReferenceNotFound = errors.New("reference not found")

	// ErrDuplicateCode is returned when a wine code is already taken.
	// Must stay distinguishable from generic integrity failures so the
	// presentation layer can show a specific message.
	ErrDuplicateCode = errors.New("duplicate wine code")

	// ErrWineInUse is returned when deleting a wine that still has stock
	// movements referencing it. The ledger's history wins.
	ErrWineInUse = errors.New("wine has stock movements")

	// ErrReferenceInUse is returned when deleting a colour or style that
	// wines still reference. Varietal deletion nulls instead.
	ErrReferenceInUse = errors.New("reference is in use")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// DuplicateCodeError reports which code collided.
type DuplicateCodeError struct {
	Code string
}

func (e *DuplicateCodeError) Error() string {
	return fmt.Sprintf("wine code %q already exists", e.Code)
}

func (e *DuplicateCodeError) Unwrap() error { return ErrDuplicateCode }

// WineInUseError reports how many movements block a wine deletion.
type WineInUseError struct {
	Wine      WineID
	Movements int
}

func (e *WineInUseError) Error() string {
	return fmt.Sprintf("wine %d has %d stock movements and cannot be deleted", e.Wine, e.Movements)
}

func (e *WineInUseError) Unwrap() error { return ErrWineInUse }

// IsNotFound reports whether err is one of the catalog not-found errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWineNotFound) || errors.Is(err, ErrReferenceNotFound)
}

// IsIntegrityError reports whether err is a constraint violation the user
// can act on (as opposed to an unexpected failure).
func IsIntegrityError(err error) bool {
	return errors.Is(err, ErrDuplicateCode) ||
		errors.Is(err, ErrWineInUse) ||
		errors.Is(err, ErrReferenceInUse)
}
