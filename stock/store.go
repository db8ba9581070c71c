/*
store.go - Persistence interface for the stock ledger

PURPOSE:
  Defines what the ledger needs from storage. The store's one hard
  obligation beyond row CRUD: every movement mutation and its engine
  adjustment(s) commit in a single database transaction, so the cached
  wine quantity can never diverge from the movement history.

ADJUSTMENT CONTRACT:
  Implementations must derive quantity changes exclusively from
  engine.go (InsertAdjustment / DeleteAdjustment / UpdateAdjustments).
  Re-deriving the sign locally is how drift bugs happen.

IMPLEMENTATIONS:
  - store/sqlite: production store
  - store/memory: in-memory store for tests
*/
package stock

import (
	"context"

	"github.com/vinoteca/winestock/catalog"
)

// Store handles persistence of stock movements and the cached wine
// quantities they drive.
type Store interface {
	// InsertMovement persists a movement, assigns its ID, resolves the
	// wine name/code, and applies InsertAdjustment - atomically.
	// Returns catalog.ErrWineNotFound if the wine does not exist.
	InsertMovement(ctx context.Context, m *Movement) error

	// InsertMovements persists a batch in order. When atomic is true the
	// whole batch commits or nothing does; otherwise each movement
	// commits independently and the count of persisted movements is
	// returned alongside the first failure.
	InsertMovements(ctx context.Context, ms []*Movement, atomic bool) (int, error)

	// UpdateMovement replaces {wine, kind, quantity, price, at} of an
	// existing movement and applies UpdateAdjustments - atomically.
	UpdateMovement(ctx context.Context, m Movement) error

	// DeleteMovement removes a movement and applies DeleteAdjustment -
	// atomically.
	DeleteMovement(ctx context.Context, id MovementID) error

	// GetMovement returns one movement with resolved wine fields.
	GetMovement(ctx context.Context, id MovementID) (*Movement, error)

	// ListMovements returns movements newest-first, optionally narrowed
	// to one kind.
	ListMovements(ctx context.Context, kind *Kind) ([]Movement, error)

	// FilterMovements returns movements matching every active predicate
	// of f, newest-first.
	FilterMovements(ctx context.Context, f Filter) ([]Movement, error)

	// MovementsByWine returns one wine's movements newest-first.
	MovementsByWine(ctx context.Context, id catalog.WineID) ([]Movement, error)

	// WineQuantity returns the cached quantity for a wine.
	WineQuantity(ctx context.Context, id catalog.WineID) (int, error)

	// WineName returns the display name for a wine, or
	// catalog.ErrWineNotFound.
	WineName(ctx context.Context, id catalog.WineID) (string, error)
}
