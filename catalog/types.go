/*
Package catalog manages the wine catalog and its reference data.

PURPOSE:
  Holds the entities a shop sells (wines) and the fixed vocabularies used
  to classify them (colour, style, varietal), plus the singleton shop
  settings record. The cached Quantity on each wine is owned by the stock
  engine; this package never changes it directly.

KEY CONCEPTS IN THIS FILE (types.go):
  - Wine: one sellable SKU with identity, classification, pricing and a
    derived stock quantity
  - Reference: a row in one of the three classification vocabularies
  - Shop: singleton settings record (name, logo path)

DESIGN PRINCIPLES:
  1. Precision: prices use decimal.Decimal, never float64
  2. Quantity is a cache: the stock ledger is the source of truth
  3. Classification by id: wines reference vocabulary rows, with resolved
     names denormalized onto the struct for display and export

SEE ALSO:
  - catalog.go: the Catalog service (validated CRUD)
  - errors.go: sentinel and structured errors
  - stock: movements and quantity reconciliation
*/
package catalog

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// MaxNameLength bounds every user-entered name field.
const MaxNameLength = 100

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WineID int64
type RefID int64

// RefKind selects one of the three classification vocabularies.
type RefKind string

const (
	RefColour   RefKind = "colour"
	RefStyle    RefKind = "style"
	RefVarietal RefKind = "varietal"
)

// Valid reports whether k names a known vocabulary.
func (k RefKind) Valid() bool {
	switch k {
	case RefColour, RefStyle, RefVarietal:
		return true
	}
	return false
}

// =============================================================================
// REFERENCE - One row of a classification vocabulary
// =============================================================================

type Reference struct {
	ID   RefID
	Name string
}

// =============================================================================
// WINE - One sellable SKU
// =============================================================================

type Wine struct {
	ID     WineID
	Code   string // unique external code
	Name   string
	Winery string

	VintageYear int
	Origin      string // optional

	ColourID   RefID
	StyleID    RefID
	VarietalID *RefID // optional, nulled when the varietal is deleted

	// Resolved vocabulary names, populated by store queries.
	Colour   string
	Style    string
	Varietal string // empty when VarietalID is nil

	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal

	// Quantity is the cached fold of all stock movements for this wine.
	// Only the stock engine writes it. May be negative.
	Quantity int

	MinStock    *int // optional alert threshold, never enforced
	PicturePath string
}

// OriginDisplay returns the origin or "N/A".
func (w *Wine) OriginDisplay() string {
	if w.Origin == "" {
		return "N/A"
	}
	return w.Origin
}

// VarietalDisplay returns the varietal name or "N/A".
func (w *Wine) VarietalDisplay() string {
	if w.VarietalID == nil || w.Varietal == "" {
		return "N/A"
	}
	return w.Varietal
}

// MinStockDisplay returns the threshold or "N/A".
func (w *Wine) MinStockDisplay() string {
	if w.MinStock == nil {
		return "N/A"
	}
	return strconv.Itoa(*w.MinStock)
}

// BelowMinStock reports whether quantity has dropped under the alert
// threshold. Wines without a threshold are never flagged.
func (w *Wine) BelowMinStock() bool {
	return w.MinStock != nil && w.Quantity < *w.MinStock
}

// =============================================================================
// SHOP - Singleton settings record
// =============================================================================

type Shop struct {
	ID       int64
	Name     string
	LogoPath string
}

// DefaultShopName seeds the singleton on first access.
const DefaultShopName = "WINE STOCK"
