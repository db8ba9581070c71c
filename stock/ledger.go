/*
ledger.go - Validated ledger operations

PURPOSE:
  The Ledger is the write path for stock movements. It validates every
  movement before it reaches the store (kind, positive quantity,
  non-negative price), defaults timestamps, and exposes the ordered and
  filtered query views the rest of the system reads.

WHAT THE LEDGER DOES NOT DO:
  Block on negative stock. The engine and the ledger accept any mutation
  that is structurally valid; the warn-and-confirm policy lives in the
  workflow layer (session.go), because it is a user decision, not a data
  rule.

CONSISTENCY AUDIT:
  Audit recomputes a wine's quantity from its full movement history and
  compares it to the cached value. In a correct system the two are always
  equal; the method exists so tests and admin tooling can prove it.

SEE ALSO:
  - engine.go: the adjustment arithmetic stores apply
  - session.go: staging workflow and the edit flow
*/
package stock

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vinoteca/winestock/catalog"
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewLedger creates a Ledger backed by the given store.
func NewLedger(store Store, log zerolog.Logger) *Ledger {
	return &Ledger{
		store: store,
		log:   log.With().Str("component", "ledger").Logger(),
		now:   time.Now,
	}
}

// validateMovement rejects structurally invalid movements before any
// store call. Quantity has no upper bound here; input caps are a UI
// concern.
func validateMovement(m *Movement) error {
	if !m.Kind.Valid() {
		return ErrInvalidKind
	}
	if m.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if m.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// stamp defaults the timestamp to now, truncated to whole seconds for
// clean display. Any explicit timestamp is kept as-is: movements may be
// recorded out of order.
func (l *Ledger) stamp(m *Movement) {
	if m.At.IsZero() {
		m.At = l.now().Truncate(time.Second)
	}
}

// =============================================================================
// MUTATIONS - Each triggers reconciliation synchronously in the store
// =============================================================================

// Insert validates and persists a new movement.
func (l *Ledger) Insert(ctx context.Context, m *Movement) error {
	if err := validateMovement(m); err != nil {
		return err
	}
	l.stamp(m)

	if err := l.store.InsertMovement(ctx, m); err != nil {
		return err
	}

	l.log.Info().
		Int64("movement_id", int64(m.ID)).
		Int64("wine_id", int64(m.WineID)).
		Str("kind", string(m.Kind)).
		Int("quantity", m.Quantity).
		Msg("movement inserted")
	return nil
}

// InsertBatch validates and persists movements in order, honouring the
// requested atomicity. Returns how many movements were persisted.
func (l *Ledger) InsertBatch(ctx context.Context, ms []*Movement, atomic bool) (int, error) {
	for _, m := range ms {
		if err := validateMovement(m); err != nil {
			return 0, err
		}
		l.stamp(m)
	}

	n, err := l.store.InsertMovements(ctx, ms, atomic)
	if err != nil {
		return n, err
	}

	l.log.Info().Int("count", n).Bool("atomic", atomic).Msg("movement batch inserted")
	return n, nil
}

// Update validates and applies a full replacement of an existing
// movement; the store reverses the old effect and applies the new one
// as a single logical operation.
func (l *Ledger) Update(ctx context.Context, m Movement) error {
	if err := validateMovement(&m); err != nil {
		return err
	}
	l.stamp(&m)

	if err := l.store.UpdateMovement(ctx, m); err != nil {
		return err
	}

	l.log.Info().Int64("movement_id", int64(m.ID)).Msg("movement updated")
	return nil
}

// Delete removes a movement, reversing its effect on the wine.
func (l *Ledger) Delete(ctx context.Context, id MovementID) error {
	if err := l.store.DeleteMovement(ctx, id); err != nil {
		return err
	}

	l.log.Info().Int64("movement_id", int64(id)).Msg("movement deleted")
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Movement returns one movement by id.
func (l *Ledger) Movement(ctx context.Context, id MovementID) (*Movement, error) {
	return l.store.GetMovement(ctx, id)
}

// Movements returns all movements newest-first, optionally narrowed to
// one kind.
func (l *Ledger) Movements(ctx context.Context, kind *Kind) ([]Movement, error) {
	return l.store.ListMovements(ctx, kind)
}

// Filtered returns movements matching every active predicate of f.
func (l *Ledger) Filtered(ctx context.Context, f Filter) ([]Movement, error) {
	if f.Empty() {
		return l.store.ListMovements(ctx, nil)
	}
	return l.store.FilterMovements(ctx, f)
}

// Quantity returns the cached quantity for a wine.
func (l *Ledger) Quantity(ctx context.Context, id catalog.WineID) (int, error) {
	return l.store.WineQuantity(ctx, id)
}

// =============================================================================
// CONSISTENCY AUDIT
// =============================================================================

// AuditResult compares a wine's cached quantity against the fold over
// its movement history.
type AuditResult struct {
	Wine       catalog.WineID
	Cached     int
	Recomputed int
}

// Consistent reports whether cache and ledger agree.
func (r AuditResult) Consistent() bool { return r.Cached == r.Recomputed }

// Audit recomputes one wine's quantity from its movements.
func (l *Ledger) Audit(ctx context.Context, id catalog.WineID) (AuditResult, error) {
	cached, err := l.store.WineQuantity(ctx, id)
	if err != nil {
		return AuditResult{}, err
	}

	ms, err := l.store.MovementsByWine(ctx, id)
	if err != nil {
		return AuditResult{}, err
	}

	res := AuditResult{Wine: id, Cached: cached, Recomputed: FoldQuantity(ms)}
	if !res.Consistent() {
		l.log.Error().
			Int64("wine_id", int64(id)).
			Int("cached", res.Cached).
			Int("recomputed", res.Recomputed).
			Msg("quantity cache inconsistent with ledger")
	}
	return res, nil
}
