/*
Package stock implements the stock ledger and quantity reconciliation.

PURPOSE:
  The ledger of stock movements (purchases and sales) is the source of
  truth for inventory. Each wine carries a cached quantity that must
  always equal the algebraic sum of its movements' signed effects; this
  package owns the arithmetic that keeps the two in sync across every
  mutation path: insert, update, and delete.

KEY CONCEPTS IN THIS FILE (types.go):
  - Kind: the closed purchase|sale enum, with the ONE shared sign rule
  - Movement: a ledger entry tying quantity and price to a wine
  - Filter: conjunctive movement query predicates

SIGN CONVENTION:
  purchase of q bottles contributes +q to stock, sale contributes -q.
  Kind.Effect is the only place this rule is written; every mutation path
  and both store implementations go through it.

SEE ALSO:
  - engine.go: reconciliation arithmetic
  - ledger.go: validated ledger operations
  - session.go: staging workflow and edit flow
*/
package stock

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vinoteca/winestock/catalog"
)

// =============================================================================
// KIND - Two-variant transaction classification
// =============================================================================

type Kind string

const (
	KindPurchase Kind = "purchase"
	KindSale     Kind = "sale"
)

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == KindPurchase || k == KindSale
}

// Effect returns the signed stock delta a movement of this kind and the
// given (positive) quantity applies to its wine. This is the single
// definition of the sign convention.
func (k Kind) Effect(quantity int) int {
	if k == KindPurchase {
		return quantity
	}
	return -quantity
}

// ParseKind normalizes user input ("Sale", " PURCHASE ") into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// =============================================================================
// MOVEMENT - One ledger entry
// =============================================================================

type MovementID int64

// Movement records a single purchase or sale affecting one wine.
// Quantity is always positive; the sign is implied by Kind. Price is
// captured at transaction time and never recomputed from the wine's
// current prices.
type Movement struct {
	ID     MovementID
	WineID catalog.WineID

	// Resolved for display and export; populated by store queries.
	WineName string
	WineCode string

	At       time.Time
	Kind     Kind
	Quantity int
	Price    decimal.Decimal
}

// Effect returns the signed delta this movement applies to its wine.
func (m Movement) Effect() int {
	return m.Kind.Effect(m.Quantity)
}

// Subtotal returns quantity x price.
func (m Movement) Subtotal() decimal.Decimal {
	return m.Price.Mul(decimal.NewFromInt(int64(m.Quantity)))
}

// =============================================================================
// FILTER - Conjunctive movement query
// =============================================================================

// Filter narrows a movement query. Every set predicate must match
// (AND); zero-valued predicates match everything.
type Filter struct {
	// Names matches movements whose wine name is in the set
	// (case-insensitive).
	Names []string

	// Codes matches movements whose wine code is in the set.
	Codes []string

	// Kind matches movements of exactly this kind.
	Kind *Kind

	// From and To bound the timestamp, both inclusive.
	From *time.Time
	To   *time.Time
}

// Match reports whether m satisfies every active predicate.
func (f Filter) Match(m Movement) bool {
	if len(f.Names) > 0 && !containsFold(f.Names, m.WineName) {
		return false
	}
	if len(f.Codes) > 0 && !containsFold(f.Codes, m.WineCode) {
		return false
	}
	if f.Kind != nil && m.Kind != *f.Kind {
		return false
	}
	if f.From != nil && m.At.Before(*f.From) {
		return false
	}
	if f.To != nil && m.At.After(*f.To) {
		return false
	}
	return true
}

// Empty reports whether no predicate is active.
func (f Filter) Empty() bool {
	return len(f.Names) == 0 && len(f.Codes) == 0 &&
		f.Kind == nil && f.From == nil && f.To == nil
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}
