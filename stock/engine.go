/*
engine.go - Quantity reconciliation arithmetic

PURPOSE:
  The single source of truth for how ledger mutations affect a wine's
  cached quantity. Insert, update, and delete all reduce to a short list
  of signed Adjustments computed here; the store applies them in the same
  database transaction as the row change.

WHY A SEPARATE ENGINE:
  The classic bug in cached-quantity designs is reconciling on insert
  only, letting edits and deletes drift the cache away from the ledger.
  Binding all three paths to one set of pure functions makes drift
  structurally impossible: a store that applies these adjustments cannot
  get a different answer than the fold over the movement history.

NO CLAMPING:
  Adjustments may drive a quantity negative. Negative stock is a valid,
  representable state (overselling, entries recorded out of order) and is
  a workflow-level warning, never an engine-level error.

SEE ALSO:
  - types.go: Kind.Effect, the sign convention
  - session.go: where the negative-stock confirm policy lives
*/
package stock

import "github.com/vinoteca/winestock/catalog"

// =============================================================================
// ADJUSTMENT - Signed change to one wine's cached quantity
// =============================================================================

type Adjustment struct {
	Wine  catalog.WineID
	Delta int
}

// InsertAdjustment returns the quantity change caused by inserting m.
func InsertAdjustment(m Movement) Adjustment {
	return Adjustment{Wine: m.WineID, Delta: m.Effect()}
}

// DeleteAdjustment returns the quantity change caused by deleting m:
// the exact inverse of its insert effect.
func DeleteAdjustment(m Movement) Adjustment {
	return Adjustment{Wine: m.WineID, Delta: -m.Effect()}
}

// UpdateAdjustments returns the quantity changes caused by replacing
// old with new. When the wine is unchanged this is one net adjustment;
// when the movement is reassigned to a different wine, the old wine gets
// the reversal and the new wine gets the application, as two independent
// adjustments that must never mix balances.
func UpdateAdjustments(old, updated Movement) []Adjustment {
	if old.WineID == updated.WineID {
		net := updated.Effect() - old.Effect()
		if net == 0 {
			return nil
		}
		return []Adjustment{{Wine: old.WineID, Delta: net}}
	}

	return []Adjustment{
		DeleteAdjustment(old),
		InsertAdjustment(updated),
	}
}

// FoldQuantity recomputes a quantity from scratch by summing movement
// effects. This is the invariant every cached quantity must satisfy;
// used by consistency audits and tests.
func FoldQuantity(movements []Movement) int {
	total := 0
	for _, m := range movements {
		total += m.Effect()
	}
	return total
}
