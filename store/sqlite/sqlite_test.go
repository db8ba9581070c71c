package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinoteca/winestock/catalog"
	"github.com/vinoteca/winestock/stock"
	"github.com/vinoteca/winestock/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedRefs(t *testing.T, st *sqlite.Store) (colour, style, varietal catalog.Reference) {
	t.Helper()
	ctx := context.Background()

	colour, err := st.EnsureReference(ctx, catalog.RefColour, "Red")
	require.NoError(t, err)
	style, err = st.EnsureReference(ctx, catalog.RefStyle, "Still")
	require.NoError(t, err)
	varietal, err = st.EnsureReference(ctx, catalog.RefVarietal, "Malbec")
	require.NoError(t, err)
	return colour, style, varietal
}

func insertWine(t *testing.T, st *sqlite.Store, code, name string) *catalog.Wine {
	t.Helper()
	colour, style, _ := seedRefs(t, st)

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
	require.NoError(t, st.InsertWine(context.Background(), w))
	return w
}

func insertMovement(t *testing.T, st *sqlite.Store, wine catalog.WineID, kind stock.Kind, qty int) *stock.Movement {
	t.Helper()
	m := &stock.Movement{WineID: wine, Kind: kind, Quantity: qty, Price: decimal.NewFromInt(10)}
	m.At = m.At.UTC()
	require.NoError(t, st.InsertMovement(context.Background(), m))
	return m
}

// =============================================================================
// WINE CONSTRAINTS
// =============================================================================

func TestSQLiteWine_RoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	w := insertWine(t, st, "MLB001", "Altos Malbec")

	got, err := st.GetWine(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Altos Malbec", got.Name)
	assert.Equal(t, "Red", got.Colour)
	assert.Equal(t, "Still", got.Style)
	assert.Equal(t, 0, got.Quantity)
	assert.True(t, got.PurchasePrice.Equal(decimal.NewFromFloat(8.50)))

	byCode, err := st.GetWineByCode(ctx, "MLB001")
	require.NoError(t, err)
	assert.Equal(t, w.ID, byCode.ID)
}

func TestSQLiteWine_DuplicateCode(t *testing.T) {
	// GIVEN: A wine with code MLB001
	// WHEN: Inserting another with the same code
	// THEN: The UNIQUE failure translates to DuplicateCodeError

	ctx := context.Background()
	st := newTestStore(t)
	insertWine(t, st, "MLB001", "Altos Malbec")

	colour, style, _ := seedRefs(t, st)
	dup := &catalog.Wine{
		Code: "MLB001", Name: "Other", Winery: "Other",
		ColourID: colour.ID, StyleID: style.ID,
		PurchasePrice: decimal.Zero, SellingPrice: decimal.Zero,
	}
	err := st.InsertWine(ctx, dup)

	var dce *catalog.DuplicateCodeError
	require.ErrorAs(t, err, &dce)
	assert.Equal(t, "MLB001", dce.Code)
}

func TestSQLiteWine_UpdateKeepsQuantity(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	w := insertWine(t, st, "MLB001", "Altos Malbec")
	insertMovement(t, st, w.ID, stock.KindPurchase, 12)

	w.Name = "Altos Malbec Reserva"
	require.NoError(t, st.UpdateWine(ctx, w))

	got, err := st.GetWine(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Altos Malbec Reserva", got.Name)
	assert.Equal(t, 12, got.Quantity)
}

func TestSQLiteWine_DeleteBlockedByMovements(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	w := insertWine(t, st, "MLB001", "Altos Malbec")
	m := insertMovement(t, st, w.ID, stock.KindPurchase, 1)

	err := st.DeleteWine(ctx, w.ID)
	var inUse *catalog.WineInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, 1, inUse.Movements)

	require.NoError(t, st.DeleteMovement(ctx, m.ID))
	require.NoError(t, st.DeleteWine(ctx, w.ID))
}

// =============================================================================
// REFERENCE CONSTRAINTS
// =============================================================================

func TestSQLiteReference_EnsureIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	first, err := st.EnsureReference(ctx, catalog.RefVarietal, "Pinot Noir")
	require.NoError(t, err)
	again, err := st.EnsureReference(ctx, catalog.RefVarietal, "pinot noir")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestSQLiteReference_ColourRestricted(t *testing.T) {
	// GIVEN: A wine classified with a colour
	// WHEN: Deleting that colour
	// THEN: The FK restriction surfaces as ErrReferenceInUse

	ctx := context.Background()
	st := newTestStore(t)
	w := insertWine(t, st, "MLB001", "Altos Malbec")

	err := st.DeleteReference(ctx, catalog.RefColour, w.ColourID)
	assert.ErrorIs(t, err, catalog.ErrReferenceInUse)
}

func TestSQLiteReference_VarietalSetNull(t *testing.T) {
	// GIVEN: A wine with a varietal
	// WHEN: Deleting the varietal
	// THEN: The wine's varietal clears instead of blocking

	ctx := context.Background()
	st := newTestStore(t)
	colour, style, varietal := seedRefs(t, st)

	w := &catalog.Wine{
		Code: "MLB001", Name: "Altos Malbec", Winery: "Bodega Test",
		ColourID: colour.ID, StyleID: style.ID, VarietalID: &varietal.ID,
		PurchasePrice: decimal.Zero, SellingPrice: decimal.Zero,
	}
	require.NoError(t, st.InsertWine(ctx, w))

	require.NoError(t, st.DeleteReference(ctx, catalog.RefVarietal, varietal.ID))

	got, err := st.GetWine(ctx, w.ID)
	require.NoError(t, err)
	assert.Nil(t, got.VarietalID)
}

func TestSQLiteReference_DeleteUnknown(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	err := st.DeleteReference(ctx, catalog.RefStyle, 404)
	assert.ErrorIs(t, err, catalog.ErrReferenceNotFound)
}

// =============================================================================
// MOVEMENT RECONCILIATION
// =============================================================================

func TestSQLiteMovement_InsertAdjustsQuantity(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	w := insertWine(t, st, "MLB001", "Altos Malbec")

	m := insertMovement(t, st, w.ID, stock.KindPurchase, 12)
	assert.Equal(t, "Altos Malbec", m.WineName)

	q, err := st.WineQuantity(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, q)

	insertMovement(t, st, w.ID, stock.KindSale, 5)
	q, err = st.WineQuantity(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, q)
}

func TestSQLiteMovement_InsertUnknownWine(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	m := &stock.Movement{WineID: 99, Kind: stock.KindSale, Quantity: 1, Price: decimal.Zero}
	err := st.InsertMovement(ctx, m)
	assert.ErrorIs(t, err, catalog.ErrWineNotFound)
}

func TestSQLiteMovement_UpdateAndDeleteReconcile(t *testing.T) {
	// GIVEN: A purchase of 10 (quantity 10)
	// WHEN: Editing it to a sale of 2, then deleting it
	// THEN: Quantity tracks each mutation exactly

	ctx := context.Background()
	st := newTestStore(t)
	w := insertWine(t, st, "MLB001", "Altos Malbec")

	m := insertMovement(t, st, w.ID, stock.KindPurchase, 10)

	edited := *m
	edited.Kind = stock.KindSale
	edited.Quantity = 2
	require.NoError(t, st.UpdateMovement(ctx, edited))

	q, err := st.WineQuantity(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, -2, q)

	require.NoError(t, st.DeleteMovement(ctx, m.ID))
	q, err = st.WineQuantity(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, q)
}

func TestSQLiteMovement_AtomicBatchRollsBack(t *testing.T) {
	// GIVEN: A batch whose second movement targets an unknown wine
	// WHEN: Inserting atomically
	// THEN: Nothing persists, not even the valid first movement

	ctx := context.Background()
	st := newTestStore(t)
	w := insertWine(t, st, "MLB001", "Altos Malbec")

	batch := []*stock.Movement{
		{WineID: w.ID, Kind: stock.KindPurchase, Quantity: 5, Price: decimal.Zero},
		{WineID: 99, Kind: stock.KindPurchase, Quantity: 5, Price: decimal.Zero},
	}
	n, err := st.InsertMovements(ctx, batch, true)
	assert.ErrorIs(t, err, catalog.ErrWineNotFound)
	assert.Zero(t, n)

	q, err := st.WineQuantity(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, q)

	ms, err := st.MovementsByWine(ctx, w.ID)
	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestSQLiteMovement_FilterAcrossOffsets(t *testing.T) {
	// GIVEN: Movements recorded with different UTC offsets
	// WHEN: Filtering and ordering by time
	// THEN: Bounds and order follow the instants, not the offset strings

	ctx := context.Background()
	st := newTestStore(t)
	w := insertWine(t, st, "MLB001", "Altos Malbec")

	lima := time.FixedZone("-05", -5*60*60)
	// 20:00-05:00 is 01:00Z the next day; recorded first so a wrong
	// ordering cannot hide behind the id tiebreak.
	late := &stock.Movement{
		WineID: w.ID, Kind: stock.KindSale, Quantity: 1, Price: decimal.Zero,
		At: time.Date(2026, 8, 25, 20, 0, 0, 0, lima),
	}
	require.NoError(t, st.InsertMovement(ctx, late))
	early := &stock.Movement{
		WineID: w.ID, Kind: stock.KindPurchase, Quantity: 1, Price: decimal.Zero,
		At: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.InsertMovement(ctx, early))

	from := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	ms, err := st.FilterMovements(ctx, stock.Filter{From: &from})
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, late.ID, ms[0].ID)
	assert.True(t, ms[0].At.Equal(late.At))

	all, err := st.ListMovements(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, late.ID, all[0].ID)
	assert.Equal(t, early.ID, all[1].ID)
}

func TestSQLiteMovement_BestEffortBatchKeepsPrefix(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	w := insertWine(t, st, "MLB001", "Altos Malbec")

	batch := []*stock.Movement{
		{WineID: w.ID, Kind: stock.KindPurchase, Quantity: 5, Price: decimal.Zero},
		{WineID: 99, Kind: stock.KindPurchase, Quantity: 5, Price: decimal.Zero},
	}
	n, err := st.InsertMovements(ctx, batch, false)
	assert.ErrorIs(t, err, catalog.ErrWineNotFound)
	assert.Equal(t, 1, n)

	q, err := st.WineQuantity(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, q)
}

// =============================================================================
// SHOP SINGLETON
// =============================================================================

func TestSQLiteShop_DefaultAndSave(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	s, err := st.Shop(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.DefaultShopName, s.Name)

	s.Name = "La Vinoteca"
	s.LogoPath = "/img/logo.png"
	require.NoError(t, st.SaveShop(ctx, s))

	again, err := st.Shop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "La Vinoteca", again.Name)
	assert.Equal(t, int64(1), again.ID)
}
