package stock_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinoteca/winestock/catalog"
	"github.com/vinoteca/winestock/stock"
	"github.com/vinoteca/winestock/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	return memory.New()
}

// addWine inserts a wine with the required classification rows.
func addWine(t *testing.T, st *memory.Store, code, name string) *catalog.Wine {
	t.Helper()
	ctx := context.Background()

	colour, err := st.EnsureReference(ctx, catalog.RefColour, "Red")
	require.NoError(t, err)
	style, err := st.EnsureReference(ctx, catalog.RefStyle, "Still")
	require.NoError(t, err)

	w := &catalog.Wine{
		Code:          code,
		Name:          name,
		Winery:        "Bodega Test",
		VintageYear:   2019,
		ColourID:      colour.ID,
		StyleID:       style.ID,
		PurchasePrice: decimal.NewFromFloat(8.50),
		SellingPrice:  decimal.NewFromFloat(14.00),
	}
	require.NoError(t, st.InsertWine(ctx, w))
	return w
}

func newTestLedger(t *testing.T) (*stock.Ledger, *memory.Store) {
	st := newTestStore(t)
	return stock.NewLedger(st, zerolog.Nop()), st
}

// =============================================================================
// INSERT - Reconciliation on the insert path
// =============================================================================

func TestLedgerInsert_AdjustsQuantity(t *testing.T) {
	// GIVEN: A wine with zero stock
	// WHEN: Recording a purchase of 12 and a sale of 5
	// THEN: The cached quantity follows each movement

	ctx := context.Background()
	ledger, st := newTestLedger(t)
	w := addWine(t, st, "MLB001", "Altos Malbec")

	m := purchase(w.ID, 12)
	require.NoError(t, ledger.Insert(ctx, &m))

	q, err := ledger.Quantity(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, q)

	s := sale(w.ID, 5)
	require.NoError(t, ledger.Insert(ctx, &s))

	q, err = ledger.Quantity(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, q)
}

func TestLedgerInsert_ResolvesWineAndStampsTime(t *testing.T) {
	ctx := context.Background()
	ledger, st := newTestLedger(t)
	w := addWine(t, st, "MLB001", "Altos Malbec")

	m := purchase(w.ID, 3)
	require.NoError(t, ledger.Insert(ctx, &m))

	assert.NotZero(t, m.ID)
	assert.Equal(t, "Altos Malbec", m.WineName)
	assert.Equal(t, "MLB001", m.WineCode)
	assert.False(t, m.At.IsZero())
}

func TestLedgerInsert_NegativeStockAllowed(t *testing.T) {
	// GIVEN: A wine with zero stock
	// WHEN: Recording a sale anyway
	// THEN: The ledger accepts it and the quantity goes negative

	ctx := context.Background()
	ledger, st := newTestLedger(t)
	w := addWine(t, st, "MLB001", "Altos Malbec")

	s := sale(w.ID, 4)
	require.NoError(t, ledger.Insert(ctx, &s))

	q, err := ledger.Quantity(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, -4, q)
}

func TestLedgerInsert_Validation(t *testing.T) {
	ctx := context.Background()
	ledger, st := newTestLedger(t)
	w := addWine(t, st, "MLB001", "Altos Malbec")

	bad := stock.Movement{WineID: w.ID, Kind: "refund", Quantity: 1}
	assert.ErrorIs(t, ledger.Insert(ctx, &bad), stock.ErrInvalidKind)

	zero := purchase(w.ID, 0)
	assert.ErrorIs(t, ledger.Insert(ctx, &zero), stock.ErrInvalidQuantity)

	neg := purchase(w.ID, 2)
	neg.Price = decimal.NewFromInt(-1)
	assert.ErrorIs(t, ledger.Insert(ctx, &neg), stock.ErrNegativePrice)
}

func TestLedgerInsert_UnknownWine(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	m := purchase(99, 1)
	assert.ErrorIs(t, ledger.Insert(ctx, &m), catalog.ErrWineNotFound)
}

// =============================================================================
// UPDATE - Reconciliation on the edit path
// =============================================================================

func TestLedgerUpdate_SameWine_NetsTheDifference(t *testing.T) {
	// GIVEN: A purchase of 10 (quantity 10)
	// WHEN: Editing it down to 6
	// THEN: Quantity becomes 6, matching the fold

	ctx := context.Background()
	ledger, st := newTestLedger(t)
	w := addWine(t, st, "MLB001", "Altos Malbec")

	m := purchase(w.ID, 10)
	require.NoError(t, ledger.Insert(ctx, &m))

	edited := m
	edited.Quantity = 6
	require.NoError(t, ledger.Update(ctx, edited))

	q, err := ledger.Quantity(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, q)
}

func TestLedgerUpdate_Reassignment_MovesEffectBetweenWines(t *testing.T) {
	// GIVEN: A sale of 3 recorded against the wrong wine
	// WHEN: Reassigning it to the right wine
	// THEN: The wrong wine gets its 3 back, the right one loses 3

	ctx := context.Background()
	ledger, st := newTestLedger(t)
	wrong := addWine(t, st, "MLB001", "Altos Malbec")
	right := addWine(t, st, "CAB002", "Reserva Cabernet")

	seed := purchase(wrong.ID, 10)
	require.NoError(t, ledger.Insert(ctx, &seed))
	seed2 := purchase(right.ID, 10)
	require.NoError(t, ledger.Insert(ctx, &seed2))

	s := sale(wrong.ID, 3)
	require.NoError(t, ledger.Insert(ctx, &s))

	edited := s
	edited.WineID = right.ID
	require.NoError(t, ledger.Update(ctx, edited))

	qWrong, err := ledger.Quantity(ctx, wrong.ID)
	require.NoError(t, err)
	qRight, err := ledger.Quantity(ctx, right.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, qWrong)
	assert.Equal(t, 7, qRight)
}

func TestLedgerUpdate_UnknownMovement(t *testing.T) {
	ctx := context.Background()
	ledger, st := newTestLedger(t)
	w := addWine(t, st, "MLB001", "Altos Malbec")

	ghost := purchase(w.ID, 1)
	ghost.ID = 404
	assert.ErrorIs(t, ledger.Update(ctx, ghost), stock.ErrMovementNotFound)
}

// =============================================================================
// DELETE - Reconciliation on the delete path
// =============================================================================

func TestLedgerDelete_ReversesEffect(t *testing.T) {
	// GIVEN: A purchase of 12 and a sale of 5 (quantity 7)
	// WHEN: Deleting the sale
	// THEN: Quantity returns to 12

	ctx := context.Background()
	ledger, st := newTestLedger(t)
	w := addWine(t, st, "MLB001", "Altos Malbec")

	p := purchase(w.ID, 12)
	require.NoError(t, ledger.Insert(ctx, &p))
	s := sale(w.ID, 5)
	require.NoError(t, ledger.Insert(ctx, &s))

	require.NoError(t, ledger.Delete(ctx, s.ID))

	q, err := ledger.Quantity(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, q)

	_, err = ledger.Movement(ctx, s.ID)
	assert.ErrorIs(t, err, stock.ErrMovementNotFound)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestLedgerMovements_NewestFirstAndKindFilter(t *testing.T) {
	ctx := context.Background()
	ledger, st := newTestLedger(t)
	w := addWine(t, st, "MLB001", "Altos Malbec")

	older := purchase(w.ID, 5)
	older.At = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.Insert(ctx, &older))

	newer := sale(w.ID, 2)
	newer.At = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.Insert(ctx, &newer))

	all, err := ledger.Movements(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)

	kind := stock.KindSale
	sales, err := ledger.Movements(ctx, &kind)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, newer.ID, sales[0].ID)
}

func TestLedgerFiltered_ConjunctivePredicates(t *testing.T) {
	// GIVEN: Movements across two wines and two days
	// WHEN: Filtering by name, kind and date range together
	// THEN: Only movements matching every predicate return

	ctx := context.Background()
	ledger, st := newTestLedger(t)
	malbec := addWine(t, st, "MLB001", "Altos Malbec")
	cab := addWine(t, st, "CAB002", "Reserva Cabernet")

	day1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	m1 := purchase(malbec.ID, 5)
	m1.At = day1
	require.NoError(t, ledger.Insert(ctx, &m1))
	m2 := sale(malbec.ID, 1)
	m2.At = day2
	require.NoError(t, ledger.Insert(ctx, &m2))
	m3 := sale(cab.ID, 1)
	m3.At = day2
	require.NoError(t, ledger.Insert(ctx, &m3))

	kind := stock.KindSale
	got, err := ledger.Filtered(ctx, stock.Filter{
		Names: []string{"altos malbec"}, // case-insensitive
		Kind:  &kind,
		From:  &day2,
		To:    &day2, // bounds inclusive
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, m2.ID, got[0].ID)
}

func TestLedgerFiltered_MixedOffsets(t *testing.T) {
	// GIVEN: Movements stamped in different UTC offsets
	// WHEN: Filtering with a UTC lower bound
	// THEN: Inclusion follows the instant, not the offset

	ctx := context.Background()
	ledger, st := newTestLedger(t)
	w := addWine(t, st, "MLB001", "Altos Malbec")

	lima := time.FixedZone("-05", -5*60*60)
	inRange := sale(w.ID, 1)
	inRange.At = time.Date(2026, 8, 25, 20, 0, 0, 0, lima) // 01:00Z next day
	require.NoError(t, ledger.Insert(ctx, &inRange))
	outOfRange := purchase(w.ID, 1)
	outOfRange.At = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.Insert(ctx, &outOfRange))

	from := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	got, err := ledger.Filtered(ctx, stock.Filter{From: &from})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inRange.ID, got[0].ID)
}

func TestLedgerFiltered_EmptyFilterReturnsAll(t *testing.T) {
	ctx := context.Background()
	ledger, st := newTestLedger(t)
	w := addWine(t, st, "MLB001", "Altos Malbec")

	m := purchase(w.ID, 5)
	require.NoError(t, ledger.Insert(ctx, &m))

	got, err := ledger.Filtered(ctx, stock.Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// =============================================================================
// CONSISTENCY AUDIT
// =============================================================================

func TestLedgerAudit_ConsistentAfterMixedMutations(t *testing.T) {
	// GIVEN: Inserts, an edit and a delete on one wine
	// WHEN: Auditing the cached quantity against the movement fold
	// THEN: They agree

	ctx := context.Background()
	ledger, st := newTestLedger(t)
	w := addWine(t, st, "MLB001", "Altos Malbec")

	p := purchase(w.ID, 12)
	require.NoError(t, ledger.Insert(ctx, &p))
	s := sale(w.ID, 5)
	require.NoError(t, ledger.Insert(ctx, &s))

	edited := s
	edited.Quantity = 2
	require.NoError(t, ledger.Update(ctx, edited))
	require.NoError(t, ledger.Delete(ctx, p.ID))

	res, err := ledger.Audit(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, res.Consistent())
	assert.Equal(t, -2, res.Cached)
}
