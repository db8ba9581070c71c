/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements catalog.Store and stock.Store on a single SQLite database.
  The schema carries the referential rules as real constraints (unique
  wine code, restrict on colour/style, set-null on varietal, restrict on
  wine deletion while movements exist) and the store translates driver
  errors into the domain sentinels.

RECONCILIATION GUARANTEE:
  Every movement mutation and its quantity adjustment(s) run in one
  database transaction. The adjustments themselves come from the stock
  engine (InsertAdjustment / DeleteAdjustment / UpdateAdjustments); this
  package never re-derives a sign.

KEY TABLES:
  wine:           catalog rows with the cached quantity
  stock_movement: the ledger
  colour, style, varietal: classification vocabularies
  shop:           single-row settings table (id is forced to 1)

WAL MODE:
  SQLite is opened with WAL and foreign keys enforced:
  - Multiple readers don't block
  - Single writer at a time
  - FK violations surface as driver errors we translate

USAGE:
  store, err := sqlite.New("./data/winestock.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - catalog/store.go, stock/store.go: interface definitions
  - store/memory: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/vinoteca/winestock/catalog"
	"github.com/vinoteca/winestock/stock"
)

// Store implements catalog.Store and stock.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Classification vocabularies
	CREATE TABLE IF NOT EXISTS colour (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL COLLATE NOCASE UNIQUE
	);
	CREATE TABLE IF NOT EXISTS style (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL COLLATE NOCASE UNIQUE
	);
	CREATE TABLE IF NOT EXISTS varietal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL COLLATE NOCASE UNIQUE
	);

	-- Wines (catalog + cached quantity)
	CREATE TABLE IF NOT EXISTS wine (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		winery TEXT NOT NULL,
		vintage_year INTEGER NOT NULL,
		origin TEXT NOT NULL DEFAULT '',
		colour_id INTEGER NOT NULL REFERENCES colour(id) ON DELETE RESTRICT,
		style_id INTEGER NOT NULL REFERENCES style(id) ON DELETE RESTRICT,
		varietal_id INTEGER REFERENCES varietal(id) ON DELETE SET NULL,
		purchase_price TEXT NOT NULL,
		selling_price TEXT NOT NULL,
		quantity INTEGER NOT NULL DEFAULT 0,
		min_stock INTEGER,
		picture_path TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_wine_name ON wine(name COLLATE NOCASE);

	-- Stock movements (the ledger)
	CREATE TABLE IF NOT EXISTS stock_movement (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		wine_id INTEGER NOT NULL REFERENCES wine(id) ON DELETE RESTRICT,
		at TEXT NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('purchase', 'sale')),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		price TEXT NOT NULL
	);

	-- Hot path: per-wine history for quantity audits and deletion checks
	CREATE INDEX IF NOT EXISTS idx_movement_wine ON stock_movement(wine_id);
	CREATE INDEX IF NOT EXISTS idx_movement_at ON stock_movement(at DESC);
	CREATE INDEX IF NOT EXISTS idx_movement_kind ON stock_movement(kind);

	-- Shop settings (single row, id forced to 1)
	CREATE TABLE IF NOT EXISTS shop (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		name TEXT NOT NULL,
		logo_path TEXT NOT NULL DEFAULT ''
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// refTable maps a vocabulary kind to its table name. Kinds are a closed
// enum, so this never builds SQL from user input.
func refTable(kind catalog.RefKind) (string, error) {
	switch kind {
	case catalog.RefColour:
		return "colour", nil
	case catalog.RefStyle:
		return "style", nil
	case catalog.RefVarietal:
		return "varietal", nil
	}
	return "", catalog.ErrReferenceNotFound
}

// =============================================================================
// CATALOG STORE - wines
// =============================================================================

const wineColumns = `
	w.id, w.code, w.name, w.winery, w.vintage_year, w.origin,
	w.colour_id, w.style_id, w.varietal_id,
	c.name, s.name, v.name,
	w.purchase_price, w.selling_price, w.quantity, w.min_stock, w.picture_path
`

const wineJoins = `
	FROM wine w
	JOIN colour c ON c.id = w.colour_id
	JOIN style s ON s.id = w.style_id
	LEFT JOIN varietal v ON v.id = w.varietal_id
`

// InsertWine persists a new wine. Quantity always starts at zero; only
// the stock side of this store ever changes it.
func (s *Store) InsertWine(ctx context.Context, w *catalog.Wine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO wine
		(code, name, winery, vintage_year, origin, colour_id, style_id, varietal_id,
		 purchase_price, selling_price, quantity, min_stock, picture_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		w.Code, w.Name, w.Winery, w.VintageYear, w.Origin,
		int64(w.ColourID), int64(w.StyleID), nullRefID(w.VarietalID),
		w.PurchasePrice.String(), w.SellingPrice.String(),
		nullInt(w.MinStock), w.PicturePath,
	)
	if err != nil {
		return translateWineError(err, w.Code)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read wine id: %w", err)
	}
	w.ID = catalog.WineID(id)
	w.Quantity = 0
	return nil
}

// UpdateWine replaces the descriptive fields. The quantity column is
// deliberately absent from the SET list.
func (s *Store) UpdateWine(ctx context.Context, w *catalog.Wine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE wine SET
			code = ?, name = ?, winery = ?, vintage_year = ?, origin = ?,
			colour_id = ?, style_id = ?, varietal_id = ?,
			purchase_price = ?, selling_price = ?, min_stock = ?, picture_path = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		w.Code, w.Name, w.Winery, w.VintageYear, w.Origin,
		int64(w.ColourID), int64(w.StyleID), nullRefID(w.VarietalID),
		w.PurchasePrice.String(), w.SellingPrice.String(),
		nullInt(w.MinStock), w.PicturePath,
		int64(w.ID),
	)
	if err != nil {
		return translateWineError(err, w.Code)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrWineNotFound
	}
	return nil
}

// DeleteWine removes a wine with no movement history. The movement
// count is checked first so the error can report it; the FK restricts
// as a backstop.
func (s *Store) DeleteWine(ctx context.Context, id catalog.WineID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM stock_movement WHERE wine_id = ?", int64(id),
	).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return &catalog.WineInUseError{Wine: id, Movements: count}
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM wine WHERE id = ?", int64(id))
	if err != nil {
		if isForeignKeyError(err) {
			return catalog.ErrWineInUse
		}
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrWineNotFound
	}
	return nil
}

// GetWine returns a wine with resolved vocabulary names.
func (s *Store) GetWine(ctx context.Context, id catalog.WineID) (*catalog.Wine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT"+wineColumns+wineJoins+"WHERE w.id = ?", int64(id))
	return scanWine(row)
}

// GetWineByCode looks a wine up by its unique external code.
func (s *Store) GetWineByCode(ctx context.Context, code string) (*catalog.Wine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT"+wineColumns+wineJoins+"WHERE w.code = ?", code)
	return scanWine(row)
}

// ListWines returns all wines ordered case-insensitively by name.
func (s *Store) ListWines(ctx context.Context) ([]catalog.Wine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT"+wineColumns+wineJoins+"ORDER BY w.name COLLATE NOCASE ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query wines: %w", err)
	}
	defer rows.Close()

	var wines []catalog.Wine
	for rows.Next() {
		w, err := scanWine(rows)
		if err != nil {
			return nil, err
		}
		wines = append(wines, *w)
	}
	return wines, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanWine(row scanner) (*catalog.Wine, error) {
	var (
		w              catalog.Wine
		varietalID     sql.NullInt64
		varietalName   sql.NullString
		purchase, sell string
		minStock       sql.NullInt64
	)

	err := row.Scan(
		&w.ID, &w.Code, &w.Name, &w.Winery, &w.VintageYear, &w.Origin,
		&w.ColourID, &w.StyleID, &varietalID,
		&w.Colour, &w.Style, &varietalName,
		&purchase, &sell, &w.Quantity, &minStock, &w.PicturePath,
	)
	if err == sql.ErrNoRows {
		return nil, catalog.ErrWineNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wine: %w", err)
	}

	if varietalID.Valid {
		id := catalog.RefID(varietalID.Int64)
		w.VarietalID = &id
		w.Varietal = varietalName.String
	}
	if minStock.Valid {
		ms := int(minStock.Int64)
		w.MinStock = &ms
	}
	w.PurchasePrice = mustDecimal(purchase)
	w.SellingPrice = mustDecimal(sell)
	return &w, nil
}

// =============================================================================
// CATALOG STORE - reference vocabularies
// =============================================================================

// EnsureReference inserts a vocabulary row if no row with that name
// exists yet. Idempotent under the NOCASE unique index.
func (s *Store) EnsureReference(ctx context.Context, kind catalog.RefKind, name string) (catalog.Reference, error) {
	table, err := refTable(kind)
	if err != nil {
		return catalog.Reference{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ref catalog.Reference
	err = s.db.QueryRowContext(ctx,
		"SELECT id, name FROM "+table+" WHERE name = ? COLLATE NOCASE", name,
	).Scan(&ref.ID, &ref.Name)
	if err == nil {
		return ref, nil
	}
	if err != sql.ErrNoRows {
		return catalog.Reference{}, err
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO "+table+" (name) VALUES (?)", name)
	if err != nil {
		return catalog.Reference{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return catalog.Reference{}, err
	}
	return catalog.Reference{ID: catalog.RefID(id), Name: name}, nil
}

// ListReferences returns one vocabulary ordered case-insensitively.
func (s *Store) ListReferences(ctx context.Context, kind catalog.RefKind) ([]catalog.Reference, error) {
	table, err := refTable(kind)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name FROM "+table+" ORDER BY name COLLATE NOCASE ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []catalog.Reference
	for rows.Next() {
		var r catalog.Reference
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// DeleteReference removes a vocabulary row. Colour and style restrict
// while wines reference them; the varietal FK nulls dependent wines
// instead, so its delete always goes through.
func (s *Store) DeleteReference(ctx context.Context, kind catalog.RefKind, id catalog.RefID) error {
	table, err := refTable(kind)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", int64(id))
	if err != nil {
		if isForeignKeyError(err) {
			return catalog.ErrReferenceInUse
		}
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrReferenceNotFound
	}
	return nil
}

// =============================================================================
// CATALOG STORE - shop singleton
// =============================================================================

// Shop returns the settings singleton, creating the default row on
// first access.
func (s *Store) Shop(ctx context.Context) (*catalog.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO shop (id, name) VALUES (1, ?)", catalog.DefaultShopName)
	if err != nil {
		return nil, err
	}

	var sh catalog.Shop
	err = s.db.QueryRowContext(ctx,
		"SELECT id, name, logo_path FROM shop WHERE id = 1",
	).Scan(&sh.ID, &sh.Name, &sh.LogoPath)
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// SaveShop updates the settings singleton.
func (s *Store) SaveShop(ctx context.Context, sh *catalog.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO shop (id, name, logo_path) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			logo_path = excluded.logo_path
	`
	_, err := s.db.ExecContext(ctx, query, sh.Name, sh.LogoPath)
	return err
}

// =============================================================================
// STOCK STORE - movements
// =============================================================================

const movementColumns = `
	m.id, m.wine_id, w.name, w.code, m.at, m.kind, m.quantity, m.price
`

const movementJoins = `
	FROM stock_movement m
	JOIN wine w ON w.id = m.wine_id
`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertMovement persists a movement and applies its quantity
// adjustment in one transaction.
func (s *Store) InsertMovement(ctx context.Context, m *stock.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.insertMovementTx(ctx, tx, m); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) insertMovementTx(ctx context.Context, tx *sql.Tx, m *stock.Movement) error {
	// Resolve the wine first: a missing wine is a domain error, not a
	// bare FK failure.
	err := tx.QueryRowContext(ctx,
		"SELECT name, code FROM wine WHERE id = ?", int64(m.WineID),
	).Scan(&m.WineName, &m.WineCode)
	if err == sql.ErrNoRows {
		return catalog.ErrWineNotFound
	}
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO stock_movement (wine_id, at, kind, quantity, price) VALUES (?, ?, ?, ?, ?)",
		int64(m.WineID), storeTime(m.At), string(m.Kind), m.Quantity, m.Price.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert movement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = stock.MovementID(id)

	return applyAdjustment(ctx, tx, stock.InsertAdjustment(*m))
}

// InsertMovements persists a batch in order. Atomic batches share one
// transaction; best-effort batches commit each movement independently
// and report how many made it.
func (s *Store) InsertMovements(ctx context.Context, ms []*stock.Movement, atomic bool) (int, error) {
	if atomic {
		s.mu.Lock()
		defer s.mu.Unlock()

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer tx.Rollback()

		for _, m := range ms {
			if err := s.insertMovementTx(ctx, tx, m); err != nil {
				return 0, err
			}
		}
		if err := tx.Commit(); err != nil {
			return 0, err
		}
		return len(ms), nil
	}

	for i, m := range ms {
		if err := s.InsertMovement(ctx, m); err != nil {
			return i, err
		}
	}
	return len(ms), nil
}

// UpdateMovement replaces an existing movement and applies the engine's
// update adjustments, all in one transaction.
func (s *Store) UpdateMovement(ctx context.Context, m stock.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := s.getMovementTx(ctx, tx, m.ID)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE stock_movement SET wine_id = ?, at = ?, kind = ?, quantity = ?, price = ? WHERE id = ?",
		int64(m.WineID), storeTime(m.At), string(m.Kind), m.Quantity, m.Price.String(),
		int64(m.ID),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return catalog.ErrWineNotFound
		}
		return fmt.Errorf("failed to update movement: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return stock.ErrMovementNotFound
	}

	for _, adj := range stock.UpdateAdjustments(*old, m) {
		if err := applyAdjustment(ctx, tx, adj); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteMovement removes a movement and reverses its effect, in one
// transaction.
func (s *Store) DeleteMovement(ctx context.Context, id stock.MovementID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := s.getMovementTx(ctx, tx, id)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM stock_movement WHERE id = ?", int64(id)); err != nil {
		return fmt.Errorf("failed to delete movement: %w", err)
	}

	if err := applyAdjustment(ctx, tx, stock.DeleteAdjustment(*old)); err != nil {
		return err
	}
	return tx.Commit()
}

// applyAdjustment shifts one cached quantity inside the caller's
// transaction.
func applyAdjustment(ctx context.Context, db execer, adj stock.Adjustment) error {
	res, err := db.ExecContext(ctx,
		"UPDATE wine SET quantity = quantity + ? WHERE id = ?",
		adj.Delta, int64(adj.Wine))
	if err != nil {
		return fmt.Errorf("failed to adjust quantity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return catalog.ErrWineNotFound
	}
	return nil
}

// GetMovement returns one movement with resolved wine fields.
func (s *Store) GetMovement(ctx context.Context, id stock.MovementID) (*stock.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT"+movementColumns+movementJoins+"WHERE m.id = ?", int64(id))
	return scanMovement(row)
}

func (s *Store) getMovementTx(ctx context.Context, tx *sql.Tx, id stock.MovementID) (*stock.Movement, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT"+movementColumns+movementJoins+"WHERE m.id = ?", int64(id))
	return scanMovement(row)
}

// ListMovements returns movements newest-first, optionally narrowed to
// one kind.
func (s *Store) ListMovements(ctx context.Context, kind *stock.Kind) ([]stock.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT" + movementColumns + movementJoins
	var args []any
	if kind != nil {
		query += "WHERE m.kind = ?"
		args = append(args, string(*kind))
	}
	query += " ORDER BY m.at DESC, m.id DESC"

	return s.queryMovements(ctx, query, args...)
}

// FilterMovements pushes the kind and time bounds into SQL and leaves
// the case-insensitive name/code set matching to the Filter itself, so
// the matching semantics live in exactly one place.
func (s *Store) FilterMovements(ctx context.Context, f stock.Filter) ([]stock.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT" + movementColumns + movementJoins
	var (
		conds []string
		args  []any
	)
	if f.Kind != nil {
		conds = append(conds, "m.kind = ?")
		args = append(args, string(*f.Kind))
	}
	if f.From != nil {
		conds = append(conds, "m.at >= ?")
		args = append(args, storeTime(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "m.at <= ?")
		args = append(args, storeTime(*f.To))
	}
	if len(conds) > 0 {
		query += "WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY m.at DESC, m.id DESC"

	ms, err := s.queryMovements(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var out []stock.Movement
	for _, m := range ms {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

// MovementsByWine returns one wine's movements newest-first.
func (s *Store) MovementsByWine(ctx context.Context, id catalog.WineID) ([]stock.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryMovements(ctx,
		"SELECT"+movementColumns+movementJoins+"WHERE m.wine_id = ? ORDER BY m.at DESC, m.id DESC",
		int64(id))
}

// WineQuantity returns the cached quantity for a wine.
func (s *Store) WineQuantity(ctx context.Context, id catalog.WineID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var q int
	err := s.db.QueryRowContext(ctx,
		"SELECT quantity FROM wine WHERE id = ?", int64(id),
	).Scan(&q)
	if err == sql.ErrNoRows {
		return 0, catalog.ErrWineNotFound
	}
	return q, err
}

// WineName returns the display name for a wine.
func (s *Store) WineName(ctx context.Context, id catalog.WineID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM wine WHERE id = ?", int64(id),
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", catalog.ErrWineNotFound
	}
	return name, err
}

func (s *Store) queryMovements(ctx context.Context, query string, args ...any) ([]stock.Movement, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	var ms []stock.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		ms = append(ms, *m)
	}
	return ms, rows.Err()
}

// storeTime renders a timestamp for the at column. Always UTC: the
// column is compared and ordered as text, and RFC3339 strings only sort
// chronologically when every row carries the same offset.
func storeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func scanMovement(row scanner) (*stock.Movement, error) {
	var (
		m         stock.Movement
		at, price string
		kind      string
	)

	err := row.Scan(&m.ID, &m.WineID, &m.WineName, &m.WineCode, &at, &kind, &m.Quantity, &price)
	if err == sql.ErrNoRows {
		return nil, stock.ErrMovementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan movement: %w", err)
	}

	m.At, _ = time.Parse(time.RFC3339, at)
	m.Kind = stock.Kind(kind)
	m.Price = mustDecimal(price)
	return &m, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"stock_movement", "wine", "colour", "style", "varietal", "shop"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullRefID(id *catalog.RefID) any {
	if id == nil {
		return nil
	}
	return int64(*id)
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// translateWineError maps driver constraint failures on the wine table
// to domain sentinels.
func translateWineError(err error, code string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, "wine.code") {
		return &catalog.DuplicateCodeError{Code: code}
	}
	if isForeignKeyError(err) {
		return catalog.ErrReferenceNotFound
	}
	return err
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
