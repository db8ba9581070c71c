/*
Package memory provides an in-memory implementation of the storage
interfaces, for tests and development.

PURPOSE:
  Implements catalog.Store and stock.Store without a database, while
  honouring the exact same constraint contract: unique wine codes,
  restrict/nullify deletion rules, and movement mutations that apply
  engine adjustments atomically with the row change.

FIDELITY:
  The point of this store is that domain tests run against the same
  semantics the SQLite store provides. Constraint violations return the
  same sentinels; atomic batches snapshot and roll back on failure.

SEE ALSO:
  - store/sqlite: the production implementation
  - stock/engine.go: the adjustment arithmetic both stores share
*/
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/vinoteca/winestock/catalog"
	"github.com/vinoteca/winestock/stock"
)

// Store holds all data in maps guarded by one RWMutex.
type Store struct {
	mu sync.RWMutex

	wines     map[catalog.WineID]*catalog.Wine
	refs      map[catalog.RefKind]map[catalog.RefID]catalog.Reference
	movements map[stock.MovementID]*stock.Movement
	shop      *catalog.Shop

	nextWine     catalog.WineID
	nextRef      catalog.RefID
	nextMovement stock.MovementID
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		wines: make(map[catalog.WineID]*catalog.Wine),
		refs: map[catalog.RefKind]map[catalog.RefID]catalog.Reference{
			catalog.RefColour:   {},
			catalog.RefStyle:    {},
			catalog.RefVarietal: {},
		},
		movements: make(map[stock.MovementID]*stock.Movement),
	}
}

// =============================================================================
// CATALOG STORE - wines
// =============================================================================

func (s *Store) InsertWine(_ context.Context, w *catalog.Wine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkWineRefsLocked(w); err != nil {
		return err
	}
	for _, other := range s.wines {
		if other.Code == w.Code {
			return &catalog.DuplicateCodeError{Code: w.Code}
		}
	}

	s.nextWine++
	w.ID = s.nextWine
	w.Quantity = 0

	stored := *w
	s.wines[w.ID] = &stored
	return nil
}

func (s *Store) UpdateWine(_ context.Context, w *catalog.Wine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.wines[w.ID]
	if !ok {
		return catalog.ErrWineNotFound
	}
	if err := s.checkWineRefsLocked(w); err != nil {
		return err
	}
	for id, other := range s.wines {
		if id != w.ID && other.Code == w.Code {
			return &catalog.DuplicateCodeError{Code: w.Code}
		}
	}

	stored := *w
	stored.Quantity = existing.Quantity // quantity belongs to the ledger
	s.wines[w.ID] = &stored
	return nil
}

func (s *Store) DeleteWine(_ context.Context, id catalog.WineID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wines[id]; !ok {
		return catalog.ErrWineNotFound
	}

	count := 0
	for _, m := range s.movements {
		if m.WineID == id {
			count++
		}
	}
	if count > 0 {
		return &catalog.WineInUseError{Wine: id, Movements: count}
	}

	delete(s.wines, id)
	return nil
}

func (s *Store) GetWine(_ context.Context, id catalog.WineID) (*catalog.Wine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getWineLocked(id)
}

func (s *Store) getWineLocked(id catalog.WineID) (*catalog.Wine, error) {
	w, ok := s.wines[id]
	if !ok {
		return nil, catalog.ErrWineNotFound
	}
	out := *w
	s.resolveLocked(&out)
	return &out, nil
}

func (s *Store) GetWineByCode(_ context.Context, code string) (*catalog.Wine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.wines {
		if w.Code == code {
			out := *w
			s.resolveLocked(&out)
			return &out, nil
		}
	}
	return nil, catalog.ErrWineNotFound
}

func (s *Store) ListWines(_ context.Context) ([]catalog.Wine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Wine, 0, len(s.wines))
	for _, w := range s.wines {
		cp := *w
		s.resolveLocked(&cp)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// checkWineRefsLocked validates the classification foreign keys.
func (s *Store) checkWineRefsLocked(w *catalog.Wine) error {
	if _, ok := s.refs[catalog.RefColour][w.ColourID]; !ok {
		return catalog.ErrReferenceNotFound
	}
	if _, ok := s.refs[catalog.RefStyle][w.StyleID]; !ok {
		return catalog.ErrReferenceNotFound
	}
	if w.VarietalID != nil {
		if _, ok := s.refs[catalog.RefVarietal][*w.VarietalID]; !ok {
			return catalog.ErrReferenceNotFound
		}
	}
	return nil
}

// resolveLocked fills the denormalized vocabulary names.
func (s *Store) resolveLocked(w *catalog.Wine) {
	w.Colour = s.refs[catalog.RefColour][w.ColourID].Name
	w.Style = s.refs[catalog.RefStyle][w.StyleID].Name
	w.Varietal = ""
	if w.VarietalID != nil {
		w.Varietal = s.refs[catalog.RefVarietal][*w.VarietalID].Name
	}
}

// =============================================================================
// CATALOG STORE - reference vocabularies
// =============================================================================

func (s *Store) EnsureReference(_ context.Context, kind catalog.RefKind, name string) (catalog.Reference, error) {
	if !kind.Valid() {
		return catalog.Reference{}, catalog.ErrReferenceNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.refs[kind] {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}

	s.nextRef++
	ref := catalog.Reference{ID: s.nextRef, Name: name}
	s.refs[kind][ref.ID] = ref
	return ref, nil
}

func (s *Store) ListReferences(_ context.Context, kind catalog.RefKind) ([]catalog.Reference, error) {
	if !kind.Valid() {
		return nil, catalog.ErrReferenceNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Reference, 0, len(s.refs[kind]))
	for _, r := range s.refs[kind] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *Store) DeleteReference(_ context.Context, kind catalog.RefKind, id catalog.RefID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.refs[kind][id]; !ok {
		return catalog.ErrReferenceNotFound
	}

	switch kind {
	case catalog.RefColour:
		for _, w := range s.wines {
			if w.ColourID == id {
				return catalog.ErrReferenceInUse
			}
		}
	case catalog.RefStyle:
		for _, w := range s.wines {
			if w.StyleID == id {
				return catalog.ErrReferenceInUse
			}
		}
	case catalog.RefVarietal:
		// Soft detach: dependent wines lose the reference.
		for _, w := range s.wines {
			if w.VarietalID != nil && *w.VarietalID == id {
				w.VarietalID = nil
			}
		}
	}

	delete(s.refs[kind], id)
	return nil
}

// =============================================================================
// CATALOG STORE - shop singleton
// =============================================================================

func (s *Store) Shop(_ context.Context) (*catalog.Shop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shop == nil {
		s.shop = &catalog.Shop{ID: 1, Name: catalog.DefaultShopName}
	}
	out := *s.shop
	return &out, nil
}

func (s *Store) SaveShop(_ context.Context, sh *catalog.Shop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sh
	cp.ID = 1
	s.shop = &cp
	return nil
}

// =============================================================================
// STOCK STORE - movements
// =============================================================================

func (s *Store) InsertMovement(_ context.Context, m *stock.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertMovementLocked(m)
}

func (s *Store) insertMovementLocked(m *stock.Movement) error {
	w, ok := s.wines[m.WineID]
	if !ok {
		return catalog.ErrWineNotFound
	}

	s.nextMovement++
	m.ID = s.nextMovement
	m.WineName = w.Name
	m.WineCode = w.Code

	stored := *m
	s.movements[m.ID] = &stored
	s.applyLocked(stock.InsertAdjustment(*m))
	return nil
}

func (s *Store) InsertMovements(_ context.Context, ms []*stock.Movement, atomic bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if atomic {
		snap := s.snapshotLocked()
		for _, m := range ms {
			if err := s.insertMovementLocked(m); err != nil {
				s.restoreLocked(snap)
				return 0, err
			}
		}
		return len(ms), nil
	}

	for i, m := range ms {
		if err := s.insertMovementLocked(m); err != nil {
			return i, err
		}
	}
	return len(ms), nil
}

func (s *Store) UpdateMovement(_ context.Context, m stock.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.movements[m.ID]
	if !ok {
		return stock.ErrMovementNotFound
	}
	w, ok := s.wines[m.WineID]
	if !ok {
		return catalog.ErrWineNotFound
	}

	for _, adj := range stock.UpdateAdjustments(*old, m) {
		s.applyLocked(adj)
	}

	m.WineName = w.Name
	m.WineCode = w.Code
	stored := m
	s.movements[m.ID] = &stored
	return nil
}

func (s *Store) DeleteMovement(_ context.Context, id stock.MovementID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.movements[id]
	if !ok {
		return stock.ErrMovementNotFound
	}

	s.applyLocked(stock.DeleteAdjustment(*old))
	delete(s.movements, id)
	return nil
}

func (s *Store) GetMovement(_ context.Context, id stock.MovementID) (*stock.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.movements[id]
	if !ok {
		return nil, stock.ErrMovementNotFound
	}
	out := *m
	return &out, nil
}

func (s *Store) ListMovements(_ context.Context, kind *stock.Kind) ([]stock.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []stock.Movement
	for _, m := range s.movements {
		if kind != nil && m.Kind != *kind {
			continue
		}
		out = append(out, *m)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) FilterMovements(_ context.Context, f stock.Filter) ([]stock.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []stock.Movement
	for _, m := range s.movements {
		if f.Match(*m) {
			out = append(out, *m)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) MovementsByWine(_ context.Context, id catalog.WineID) ([]stock.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []stock.Movement
	for _, m := range s.movements {
		if m.WineID == id {
			out = append(out, *m)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *Store) WineQuantity(_ context.Context, id catalog.WineID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wines[id]
	if !ok {
		return 0, catalog.ErrWineNotFound
	}
	return w.Quantity, nil
}

func (s *Store) WineName(_ context.Context, id catalog.WineID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wines[id]
	if !ok {
		return "", catalog.ErrWineNotFound
	}
	return w.Name, nil
}

// applyLocked adjusts one cached quantity. The wine's existence was
// checked by the caller.
func (s *Store) applyLocked(adj stock.Adjustment) {
	if w, ok := s.wines[adj.Wine]; ok {
		w.Quantity += adj.Delta
	}
}

func sortNewestFirst(ms []stock.Movement) {
	sort.Slice(ms, func(i, j int) bool {
		if !ms[i].At.Equal(ms[j].At) {
			return ms[i].At.After(ms[j].At)
		}
		return ms[i].ID > ms[j].ID
	})
}

// =============================================================================
// SNAPSHOT - For atomic batch rollback
// =============================================================================

type snapshot struct {
	movements    map[stock.MovementID]*stock.Movement
	quantities   map[catalog.WineID]int
	nextMovement stock.MovementID
}

func (s *Store) snapshotLocked() snapshot {
	ms := make(map[stock.MovementID]*stock.Movement, len(s.movements))
	for id, m := range s.movements {
		cp := *m
		ms[id] = &cp
	}
	qs := make(map[catalog.WineID]int, len(s.wines))
	for id, w := range s.wines {
		qs[id] = w.Quantity
	}
	return snapshot{movements: ms, quantities: qs, nextMovement: s.nextMovement}
}

func (s *Store) restoreLocked(snap snapshot) {
	s.movements = snap.movements
	s.nextMovement = snap.nextMovement
	for id, q := range snap.quantities {
		if w, ok := s.wines[id]; ok {
			w.Quantity = q
		}
	}
}
