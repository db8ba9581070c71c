/*
errors.go - Centralized error types for the stock package

PURPOSE:
  Sentinels for ledger validation failures, the confirmable
  negative-stock condition, and partial batch commits.

ERROR CATEGORIES:
  1. Validation errors - malformed movements, rejected before the store
  2. Confirmable warnings - NegativeStockError: not a failure, a policy
     point the presentation layer resolves with the user
  3. Commit errors - PartialCommitError for best-effort batches

USAGE:
  var neg *stock.NegativeStockError
  if errors.As(err, &neg) {
      // ask the user, then retry with force=true
  }
*/
package stock

import (
	"errors"
	"fmt"

	"github.com/vinoteca/winestock/catalog"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidKind is returned for a kind outside {purchase, sale}.
	ErrInvalidKind = errors.New("invalid transaction kind")

	// ErrInvalidQuantity is returned for a non-positive quantity. The
	// ledger stores positive quantities only; sign comes from the kind.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrNegativePrice is returned for a negative movement price.
	ErrNegativePrice = errors.New("price must not be negative")

	// ErrMovementNotFound is returned when a movement id matches nothing.
	ErrMovementNotFound = errors.New("movement not found")

	// ErrNegativeStock is the sentinel under NegativeStockError.
	ErrNegativeStock = errors.New("resulting stock would be negative")

	// ErrEmptySession is returned when committing a session with no
	// staged lines.
	ErrEmptySession = errors.New("no staged lines to commit")

	// ErrLineNotFound is returned for an out-of-range staged line index.
	ErrLineNotFound = errors.New("staged line not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NegativeStockError reports that an operation would take a wine's
// (working or persisted) stock below zero. It is a confirmable warning:
// callers retry with force once the user accepts.
type NegativeStockError struct {
	Wine      catalog.WineID
	WineName  string
	Projected int
}

func (e *NegativeStockError) Error() string {
	return fmt.Sprintf("stock of %q would become %d", e.WineName, e.Projected)
}

func (e *NegativeStockError) Unwrap() error { return ErrNegativeStock }

// PartialCommitError reports a best-effort batch that failed midway.
// Lines before Committed are persisted and stay persisted; there is no
// cross-line rollback in best-effort mode.
type PartialCommitError struct {
	Committed int
	Total     int
	Cause     error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("committed %d of %d lines: %v", e.Committed, e.Total, e.Cause)
}

func (e *PartialCommitError) Unwrap() error { return e.Cause }

// IsConfirmable reports whether err only needs user confirmation to
// proceed, as opposed to being a hard failure.
func IsConfirmable(err error) bool {
	return errors.Is(err, ErrNegativeStock)
}
