/*
session.go - Transaction entry workflow

PURPOSE:
  A Session is the staging area for one transaction-entry sitting
  ("today's sales"): the user accumulates lines against a live working
  stock projection, gets a confirmable warning when a line would take a
  wine negative, and nothing touches the database until Commit.

WORKING STOCK:
  The projected quantity for a wine is derived on demand: the persisted
  quantity plus the effect of every staged line for that wine. Deriving
  rather than caching keeps the projection correct even when persisted
  quantities move under the session, as they do after a best-effort
  partial commit. Keyed by stable wine id, so two wines whose names
  differ only in case can never share a balance.

NEGATIVE-STOCK POLICY:
  The engine never blocks on negative stock; the workflow warns. Add and
  the edit flow return *NegativeStockError with the projected value; the
  presentation layer asks the user and retries with force=true. Declining
  leaves all state exactly as it was.

COMMIT ATOMICITY:
  Whether a multi-line commit is all-or-nothing or best-effort is an
  explicit configuration (CommitMode), not an accident of the storage
  layer. Best-effort partial failures keep the already-persisted prefix
  and report it via PartialCommitError.

SEE ALSO:
  - ledger.go: the single-movement write path Commit drives
  - errors.go: NegativeStockError, PartialCommitError
*/
package stock

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vinoteca/winestock/catalog"
)

// =============================================================================
// COMMIT MODE
// =============================================================================

// CommitMode selects the atomicity of a multi-line commit.
type CommitMode int

const (
	// CommitAtomic persists all staged lines in one database
	// transaction; a failure rolls everything back.
	CommitAtomic CommitMode = iota

	// CommitBestEffort persists lines independently in add order; a
	// mid-batch failure leaves earlier lines committed.
	CommitBestEffort
)

// =============================================================================
// LINE - One staged movement
// =============================================================================

// Line is a staged, not-yet-persisted movement. Price is captured when
// the line is added: selling price for sales, purchase price for
// purchases.
type Line struct {
	Wine     catalog.WineID
	WineName string
	WineCode string
	Kind     Kind
	Quantity int
	Price    decimal.Decimal
}

// Subtotal returns quantity x price.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// =============================================================================
// SESSION
// =============================================================================

type Session struct {
	ledger *Ledger
	kind   Kind
	mode   CommitMode
	lines  []Line
	log    zerolog.Logger
}

// NewSession starts an empty staging session for one transaction kind.
func NewSession(ledger *Ledger, kind Kind, mode CommitMode) (*Session, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	return &Session{
		ledger: ledger,
		kind:   kind,
		mode:   mode,
		log:    ledger.log.With().Str("component", "session").Str("kind", string(kind)).Logger(),
	}, nil
}

func (s *Session) Kind() Kind       { return s.kind }
func (s *Session) Mode() CommitMode { return s.mode }

// Lines returns a copy of the staged lines in add order.
func (s *Session) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Committable reports whether the session has anything to commit.
func (s *Session) Committable() bool { return len(s.lines) > 0 }

// Total sums the staged subtotals.
func (s *Session) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// WorkingStock returns the session's projected quantity for a wine:
// the persisted quantity plus the effect of every staged line.
func (s *Session) WorkingStock(ctx context.Context, id catalog.WineID) (int, error) {
	q, err := s.ledger.Quantity(ctx, id)
	if err != nil {
		return 0, err
	}
	for _, l := range s.lines {
		if l.Wine == id {
			q += l.Kind.Effect(l.Quantity)
		}
	}
	return q, nil
}

// Preview returns what the working stock would become if a line of the
// given quantity were added, without staging anything.
func (s *Session) Preview(ctx context.Context, wine *catalog.Wine, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, ErrInvalidQuantity
	}
	current, err := s.WorkingStock(ctx, wine.ID)
	if err != nil {
		return 0, err
	}
	return current + s.kind.Effect(quantity), nil
}

// Add stages a line. If the projected working stock is negative and
// force is false, the line is NOT staged and a *NegativeStockError is
// returned for the presentation layer to confirm; retrying with
// force=true accepts the negative projection.
func (s *Session) Add(ctx context.Context, wine *catalog.Wine, quantity int, force bool) (Line, error) {
	projected, err := s.Preview(ctx, wine, quantity)
	if err != nil {
		return Line{}, err
	}

	if projected < 0 && !force {
		return Line{}, &NegativeStockError{Wine: wine.ID, WineName: wine.Name, Projected: projected}
	}

	price := wine.PurchasePrice
	if s.kind == KindSale {
		price = wine.SellingPrice
	}

	line := Line{
		Wine:     wine.ID,
		WineName: wine.Name,
		WineCode: wine.Code,
		Kind:     s.kind,
		Quantity: quantity,
		Price:    price,
	}
	s.lines = append(s.lines, line)

	s.log.Debug().
		Int64("wine_id", int64(wine.ID)).
		Int("quantity", quantity).
		Int("working_stock", projected).
		Msg("line staged")
	return line, nil
}

// RemoveLine unstages the line at index (0-based, add order) and
// reverses its effect on the working stock.
func (s *Session) RemoveLine(index int) (Line, error) {
	if index < 0 || index >= len(s.lines) {
		return Line{}, ErrLineNotFound
	}

	line := s.lines[index]
	s.lines = append(s.lines[:index], s.lines[index+1:]...)

	s.log.Debug().Int("index", index).Msg("line removed")
	return line, nil
}

// Commit persists every staged line, in add order, as real movements.
// On success the session is cleared and working stock drops back to the
// freshly persisted values. In best-effort mode a mid-batch failure
// keeps the persisted prefix committed, drops those lines from the
// session, and reports a *PartialCommitError.
func (s *Session) Commit(ctx context.Context) ([]Movement, error) {
	if !s.Committable() {
		return nil, ErrEmptySession
	}

	ms := make([]*Movement, len(s.lines))
	for i, l := range s.lines {
		ms[i] = &Movement{
			WineID:   l.Wine,
			Kind:     l.Kind,
			Quantity: l.Quantity,
			Price:    l.Price,
		}
	}

	n, err := s.ledger.InsertBatch(ctx, ms, s.mode == CommitAtomic)
	if err != nil {
		if s.mode == CommitBestEffort && n > 0 {
			// The prefix is persisted for good; stop tracking it. The
			// surviving lines keep projecting over the fresh persisted
			// quantities because working stock is derived, not cached.
			s.lines = s.lines[n:]
			return nil, &PartialCommitError{Committed: n, Total: len(ms), Cause: err}
		}
		return nil, err
	}

	committed := make([]Movement, len(ms))
	for i, m := range ms {
		committed[i] = *m
	}

	s.lines = nil

	s.log.Info().Int("count", len(committed)).Msg("session committed")
	return committed, nil
}

// Abandon discards all staged lines with no persisted effect.
func (s *Session) Abandon() {
	s.lines = nil
}

// =============================================================================
// EDIT FLOW - Single-movement edit with the same confirm policy
// =============================================================================

// EditProposal is the replacement state for one persisted movement.
// Price and timestamp are preserved from the original: edits correct
// what happened, not what it cost or when.
type EditProposal struct {
	Wine     catalog.WineID
	Kind     Kind
	Quantity int
}

// PreviewEdit returns the projected quantity per affected wine if the
// proposal were applied. Reassignment reverses against the original
// wine and applies against the new one, never mixing the two balances.
func (l *Ledger) PreviewEdit(ctx context.Context, id MovementID, p EditProposal) (map[catalog.WineID]int, error) {
	old, err := l.Movement(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *old
	updated.WineID = p.Wine
	updated.Kind = p.Kind
	updated.Quantity = p.Quantity
	if err := validateMovement(&updated); err != nil {
		return nil, err
	}

	projected := make(map[catalog.WineID]int)
	for _, adj := range UpdateAdjustments(*old, updated) {
		current, err := l.Quantity(ctx, adj.Wine)
		if err != nil {
			return nil, err
		}
		projected[adj.Wine] = current + adj.Delta
	}
	return projected, nil
}

// EditMovement applies a proposal to one persisted movement. If any
// affected wine would project negative and force is false, nothing is
// written and a *NegativeStockError is returned to confirm.
func (l *Ledger) EditMovement(ctx context.Context, id MovementID, p EditProposal, force bool) (*Movement, error) {
	old, err := l.Movement(ctx, id)
	if err != nil {
		return nil, err
	}

	projected, err := l.PreviewEdit(ctx, id, p)
	if err != nil {
		return nil, err
	}

	if !force {
		for wine, q := range projected {
			if q < 0 {
				name := old.WineName
				if wine != old.WineID {
					// Reassignment: the negative projection is on the
					// new wine, whose name the movement does not carry.
					if name, err = l.store.WineName(ctx, wine); err != nil {
						return nil, err
					}
				}
				return nil, &NegativeStockError{Wine: wine, WineName: name, Projected: q}
			}
		}
	}

	updated := *old
	updated.WineID = p.Wine
	updated.Kind = p.Kind
	updated.Quantity = p.Quantity
	if err := l.Update(ctx, updated); err != nil {
		return nil, err
	}
	return l.Movement(ctx, id)
}
