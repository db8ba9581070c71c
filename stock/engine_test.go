package stock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinoteca/winestock/catalog"
	"github.com/vinoteca/winestock/stock"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func purchase(wine catalog.WineID, qty int) stock.Movement {
	return stock.Movement{WineID: wine, Kind: stock.KindPurchase, Quantity: qty}
}

func sale(wine catalog.WineID, qty int) stock.Movement {
	return stock.Movement{WineID: wine, Kind: stock.KindSale, Quantity: qty}
}

// =============================================================================
// SIGN CONVENTION
// =============================================================================

func TestKindEffect_SignConvention(t *testing.T) {
	// GIVEN: The two transaction kinds
	// WHEN: Computing their signed effect
	// THEN: Purchases add, sales subtract

	assert.Equal(t, 6, stock.KindPurchase.Effect(6))
	assert.Equal(t, -6, stock.KindSale.Effect(6))
}

func TestParseKind_NormalizesInput(t *testing.T) {
	k, err := stock.ParseKind("  SALE ")
	require.NoError(t, err)
	assert.Equal(t, stock.KindSale, k)

	_, err = stock.ParseKind("refund")
	assert.ErrorIs(t, err, stock.ErrInvalidKind)
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

func TestInsertAdjustment(t *testing.T) {
	assert.Equal(t, stock.Adjustment{Wine: 1, Delta: 10}, stock.InsertAdjustment(purchase(1, 10)))
	assert.Equal(t, stock.Adjustment{Wine: 1, Delta: -4}, stock.InsertAdjustment(sale(1, 4)))
}

func TestDeleteAdjustment_IsInverseOfInsert(t *testing.T) {
	// GIVEN: Any movement
	// WHEN: Computing insert and delete adjustments
	// THEN: They cancel exactly

	for _, m := range []stock.Movement{purchase(1, 10), sale(2, 3)} {
		ins := stock.InsertAdjustment(m)
		del := stock.DeleteAdjustment(m)
		assert.Equal(t, ins.Wine, del.Wine)
		assert.Equal(t, 0, ins.Delta+del.Delta)
	}
}

func TestUpdateAdjustments_SameWine_NetDelta(t *testing.T) {
	// GIVEN: A purchase of 10 edited down to a purchase of 6
	// WHEN: Computing update adjustments
	// THEN: One net adjustment of -4

	adjs := stock.UpdateAdjustments(purchase(1, 10), purchase(1, 6))
	require.Len(t, adjs, 1)
	assert.Equal(t, stock.Adjustment{Wine: 1, Delta: -4}, adjs[0])
}

func TestUpdateAdjustments_KindFlip(t *testing.T) {
	// GIVEN: A purchase of 5 edited into a sale of 5 on the same wine
	// WHEN: Computing update adjustments
	// THEN: One net adjustment of -10 (remove +5, apply -5)

	adjs := stock.UpdateAdjustments(purchase(1, 5), sale(1, 5))
	require.Len(t, adjs, 1)
	assert.Equal(t, stock.Adjustment{Wine: 1, Delta: -10}, adjs[0])
}

func TestUpdateAdjustments_NoChange_Empty(t *testing.T) {
	adjs := stock.UpdateAdjustments(purchase(1, 5), purchase(1, 5))
	assert.Empty(t, adjs)
}

func TestUpdateAdjustments_Reassignment_TwoIndependentAdjustments(t *testing.T) {
	// GIVEN: A sale of 3 recorded against wine 1, actually belonging to wine 2
	// WHEN: Reassigning the movement
	// THEN: Wine 1 gets +3 back, wine 2 gets -3; balances never mix

	adjs := stock.UpdateAdjustments(sale(1, 3), sale(2, 3))
	require.Len(t, adjs, 2)
	assert.Equal(t, stock.Adjustment{Wine: 1, Delta: 3}, adjs[0])
	assert.Equal(t, stock.Adjustment{Wine: 2, Delta: -3}, adjs[1])
}

// =============================================================================
// FOLD
// =============================================================================

func TestFoldQuantity(t *testing.T) {
	ms := []stock.Movement{purchase(1, 12), sale(1, 5), sale(1, 9)}
	assert.Equal(t, -2, stock.FoldQuantity(ms))
	assert.Equal(t, 0, stock.FoldQuantity(nil))
}
