/*
store.go - Persistence interface for the catalog

PURPOSE:
  Defines the interface between catalog logic and the database. The store
  owns constraint enforcement (unique code, restrict/nullify deletion
  rules) and must translate driver errors into the sentinels in errors.go.

CONSTRAINT CONTRACT:
  - Wine.Code is unique: InsertWine/UpdateWine return ErrDuplicateCode
  - DeleteWine returns ErrWineInUse while movements reference the wine
  - DeleteReference(colour|style) returns ErrReferenceInUse while wines
    reference the row; DeleteReference(varietal) nulls the reference on
    dependent wines instead
  - UpdateWine never touches Quantity; only the stock store adjusts it

IMPLEMENTATIONS:
  - store/sqlite: production store
  - store/memory: in-memory store for tests
*/
package catalog

import "context"

// Store handles persistence of wines, reference vocabularies and the
// shop settings singleton.
type Store interface {
	// InsertWine persists a new wine and assigns its ID.
	// Quantity always starts at zero regardless of the passed value.
	InsertWine(ctx context.Context, w *Wine) error

	// UpdateWine replaces the descriptive fields of an existing wine.
	// The cached Quantity is left untouched.
	UpdateWine(ctx context.Context, w *Wine) error

	// DeleteWine removes a wine with no movement history.
	DeleteWine(ctx context.Context, id WineID) error

	// GetWine returns a wine with resolved vocabulary names.
	GetWine(ctx context.Context, id WineID) (*Wine, error)

	// GetWineByCode looks a wine up by its unique external code.
	GetWineByCode(ctx context.Context, code string) (*Wine, error)

	// ListWines returns all wines ordered case-insensitively by name.
	ListWines(ctx context.Context) ([]Wine, error)

	// EnsureReference inserts a vocabulary row if no row with that name
	// exists yet, and returns the existing or new row. Idempotent; this
	// is the seeding primitive.
	EnsureReference(ctx context.Context, kind RefKind, name string) (Reference, error)

	// ListReferences returns one vocabulary ordered case-insensitively.
	ListReferences(ctx context.Context, kind RefKind) ([]Reference, error)

	// DeleteReference removes a vocabulary row, honouring the
	// restrict/nullify rules described in the package contract.
	DeleteReference(ctx context.Context, kind RefKind, id RefID) error

	// Shop returns the settings singleton, creating the default row on
	// first access.
	Shop(ctx context.Context) (*Shop, error)

	// SaveShop updates the settings singleton.
	SaveShop(ctx context.Context, s *Shop) error
}
