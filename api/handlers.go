/*
handlers.go - HTTP API handlers for the wine stock system

PURPOSE:
  Exposes the catalog and the stock ledger via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Wines:
    GET    /api/wines                List the catalog
    GET    /api/wines/low-stock      Wines under their alert threshold
    POST   /api/wines                Create wine
    GET    /api/wines/{id}           Get wine details
    PUT    /api/wines/{id}           Update wine (quantity untouched)
    DELETE /api/wines/{id}           Delete wine (blocked while movements exist)
    GET    /api/wines/{id}/movements Wine movement history
    GET    /api/wines/{id}/audit     Cached-vs-recomputed quantity check

  References:
    GET    /api/references/{kind}        List colour|style|varietal
    POST   /api/references/{kind}        Add a vocabulary row
    DELETE /api/references/{kind}/{id}   Delete (restrict or detach)

  Movements:
    GET    /api/movements            Query the ledger (kind, name, code, from, to)
    GET    /api/movements/{id}       Get one movement
    PUT    /api/movements/{id}       Edit (wine/kind/quantity; confirmable)
    DELETE /api/movements/{id}       Delete and reverse its effect

  Sessions:
    POST   /api/sessions                     Start a staging session
    GET    /api/sessions/{id}                Session snapshot
    POST   /api/sessions/{id}/lines          Stage a line (confirmable)
    DELETE /api/sessions/{id}/lines/{index}  Unstage a line
    POST   /api/sessions/{id}/commit         Persist staged lines
    DELETE /api/sessions/{id}                Abandon

  Exports:
    GET    /api/export/wines.{csv|xlsx}
    GET    /api/export/movements.{csv|xlsx}

  Shop:
    GET    /api/shop
    PUT    /api/shop

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate code, in-use rows, negative stock to confirm)
  - 500: Internal errors
  Confirmable conditions set "confirm": true; clients resend with
  force=true after the user accepts.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vinoteca/winestock/catalog"
	"github.com/vinoteca/winestock/report"
	"github.com/vinoteca/winestock/stock"
	"github.com/vinoteca/winestock/validate"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Catalog *catalog.Catalog
	Ledger  *stock.Ledger

	log zerolog.Logger

	// Staging sessions live in process memory; they are scratch state
	// by design and vanish on restart.
	mu       sync.Mutex
	sessions map[string]*stock.Session
	nextID   int
}

// NewHandler creates a new handler over the domain services.
func NewHandler(c *catalog.Catalog, l *stock.Ledger, log zerolog.Logger) *Handler {
	return &Handler{
		Catalog:  c,
		Ledger:   l,
		log:      log.With().Str("component", "api").Logger(),
		sessions: make(map[string]*stock.Session),
	}
}

// =============================================================================
// WINE HANDLERS
// =============================================================================

// ListWines returns the full catalog.
func (h *Handler) ListWines(w http.ResponseWriter, r *http.Request) {
	wines, err := h.Catalog.Wines(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWineDTOs(wines))
}

// ListLowStock returns wines below their alert threshold.
func (h *Handler) ListLowStock(w http.ResponseWriter, r *http.Request) {
	wines, err := h.Catalog.LowStock(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWineDTOs(wines))
}

// GetWine returns a single wine.
func (h *Handler) GetWine(w http.ResponseWriter, r *http.Request) {
	id, ok := wineID(w, r)
	if !ok {
		return
	}

	wine, err := h.Catalog.Wine(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWineDTO(wine))
}

// CreateWine creates a new wine with zero stock.
func (h *Handler) CreateWine(w http.ResponseWriter, r *http.Request) {
	var req WineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	wine, err := h.Catalog.CreateWine(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWineDTO(wine))
}

// UpdateWine replaces a wine's descriptive fields.
func (h *Handler) UpdateWine(w http.ResponseWriter, r *http.Request) {
	id, ok := wineID(w, r)
	if !ok {
		return
	}

	var req WineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := req.toInput()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	wine, err := h.Catalog.UpdateWine(r.Context(), id, in)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWineDTO(wine))
}

// DeleteWine removes a wine without movement history.
func (h *Handler) DeleteWine(w http.ResponseWriter, r *http.Request) {
	id, ok := wineID(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.DeleteWine(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetWineMovements returns one wine's movement history.
func (h *Handler) GetWineMovements(w http.ResponseWriter, r *http.Request) {
	id, ok := wineID(w, r)
	if !ok {
		return
	}

	// Resolve the wine first so an unknown id is a 404, not an empty
	// list.
	wine, err := h.Catalog.Wine(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	ms, err := h.Ledger.Filtered(r.Context(), stock.Filter{Codes: []string{wine.Code}})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTOs(ms))
}

// AuditWine compares cached and recomputed quantities.
func (h *Handler) AuditWine(w http.ResponseWriter, r *http.Request) {
	id, ok := wineID(w, r)
	if !ok {
		return
	}

	res, err := h.Ledger.Audit(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuditDTO{
		WineID:     int64(res.Wine),
		Cached:     res.Cached,
		Recomputed: res.Recomputed,
		Consistent: res.Consistent(),
	})
}

// =============================================================================
// REFERENCE HANDLERS
// =============================================================================

// ListReferences returns one classification vocabulary.
func (h *Handler) ListReferences(w http.ResponseWriter, r *http.Request) {
	kind, ok := refKind(w, r)
	if !ok {
		return
	}

	refs, err := h.Catalog.References(r.Context(), kind)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReferenceDTOs(refs))
}

// AddReference adds a vocabulary row, idempotently by name.
func (h *Handler) AddReference(w http.ResponseWriter, r *http.Request) {
	kind, ok := refKind(w, r)
	if !ok {
		return
	}

	var req ReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ref, err := h.Catalog.AddReference(r.Context(), kind, req.Name)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ReferenceDTO{ID: int64(ref.ID), Name: ref.Name})
}

// DeleteReference removes a vocabulary row.
func (h *Handler) DeleteReference(w http.ResponseWriter, r *http.Request) {
	kind, ok := refKind(w, r)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid reference id", err)
		return
	}

	if err := h.Catalog.DeleteReference(r.Context(), kind, catalog.RefID(id)); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// MOVEMENT HANDLERS
// =============================================================================

// ListMovements queries the ledger with optional filters.
// Query params: kind, name (repeatable), code (repeatable), from, to
// (RFC3339 or YYYY-MM-DD).
func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	f := stock.Filter{
		Names: r.URL.Query()["name"],
		Codes: r.URL.Query()["code"],
	}

	if v := r.URL.Query().Get("kind"); v != "" {
		kind, err := stock.ParseKind(v)
		if err != nil {
			h.writeDomainError(w, err)
			return
		}
		f.Kind = &kind
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := parseTimeParam(v, false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'from' date", err)
			return
		}
		f.From = &t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := parseTimeParam(v, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'to' date", err)
			return
		}
		f.To = &t
	}

	ms, err := h.Ledger.Filtered(r.Context(), f)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTOs(ms))
}

// GetMovement returns one ledger entry.
func (h *Handler) GetMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := movementID(w, r)
	if !ok {
		return
	}

	m, err := h.Ledger.Movement(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTO(*m))
}

// EditMovement edits a persisted movement's wine, kind or quantity.
// Query param force=true accepts a negative projected quantity.
func (h *Handler) EditMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := movementID(w, r)
	if !ok {
		return
	}

	var req MovementEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	kind, err := stock.ParseKind(req.Kind)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	force := r.URL.Query().Get("force") == "true"
	m, err := h.Ledger.EditMovement(r.Context(), id, stock.EditProposal{
		Wine:     catalog.WineID(req.WineID),
		Kind:     kind,
		Quantity: req.Quantity,
	}, force)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMovementDTO(*m))
}

// DeleteMovement removes a ledger entry and reverses its effect.
func (h *Handler) DeleteMovement(w http.ResponseWriter, r *http.Request) {
	id, ok := movementID(w, r)
	if !ok {
		return
	}

	if err := h.Ledger.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// CreateSession starts a staging session for one transaction kind.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	kind, err := stock.ParseKind(req.Kind)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	mode := stock.CommitAtomic
	switch req.Mode {
	case "", "atomic":
	case "best_effort":
		mode = stock.CommitBestEffort
	default:
		writeError(w, http.StatusBadRequest, "Invalid mode (use atomic or best_effort)", nil)
		return
	}

	sess, err := stock.NewSession(h.Ledger, kind, mode)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.mu.Lock()
	h.nextID++
	id := fmt.Sprintf("s-%d", h.nextID)
	h.sessions[id] = sess
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, h.sessionDTO(id, sess))
}

// GetSession returns a session snapshot.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.sessionDTO(id, sess))
}

// AddLine stages one line against the session's working stock.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req AddLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	wine, err := h.Catalog.Wine(r.Context(), catalog.WineID(req.WineID))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if _, err := sess.Add(r.Context(), wine, req.Quantity, req.Force); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessionDTO(id, sess))
}

// RemoveLine unstages the line at the given index.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid line index", err)
		return
	}

	if _, err := sess.RemoveLine(index); err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessionDTO(id, sess))
}

// CommitSession persists every staged line.
func (h *Handler) CommitSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}

	committed, err := sess.Commit(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, CommitResultDTO{Committed: toMovementDTOs(committed)})
}

// AbandonSession discards a session with no persisted effect.
func (h *Handler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.session(w, r)
	if !ok {
		return
	}

	sess.Abandon()
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *stock.Session, bool) {
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	sess, ok := h.sessions[id]
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Session not found", nil)
		return "", nil, false
	}
	return id, sess, true
}

func (h *Handler) sessionDTO(id string, sess *stock.Session) SessionDTO {
	mode := "atomic"
	if sess.Mode() == stock.CommitBestEffort {
		mode = "best_effort"
	}
	return SessionDTO{
		ID:    id,
		Kind:  string(sess.Kind()),
		Mode:  mode,
		Lines: toLineDTOs(sess.Lines()),
		Total: sess.Total().StringFixed(2),
	}
}

// =============================================================================
// EXPORT HANDLERS
// =============================================================================

// ExportWinesCSV streams the wine list as a CSV download.
func (h *Handler) ExportWinesCSV(w http.ResponseWriter, r *http.Request) {
	wines, err := h.Catalog.Wines(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	setDownloadHeaders(w, "text/csv", report.FileName("wines", "csv", time.Now()))
	if err := report.WinesCSV(w, wines); err != nil {
		h.log.Error().Err(err).Msg("wine csv export failed")
	}
}

// ExportWinesXLSX streams the wine list as an XLSX download.
func (h *Handler) ExportWinesXLSX(w http.ResponseWriter, r *http.Request) {
	wines, err := h.Catalog.Wines(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	setDownloadHeaders(w, xlsxContentType, report.FileName("wines", "xlsx", time.Now()))
	if err := report.WinesXLSX(w, wines); err != nil {
		h.log.Error().Err(err).Msg("wine xlsx export failed")
	}
}

// ExportMovementsCSV streams the movement history as a CSV download.
func (h *Handler) ExportMovementsCSV(w http.ResponseWriter, r *http.Request) {
	ms, err := h.Ledger.Movements(r.Context(), nil)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	setDownloadHeaders(w, "text/csv", report.FileName("movements", "csv", time.Now()))
	if err := report.MovementsCSV(w, ms); err != nil {
		h.log.Error().Err(err).Msg("movement csv export failed")
	}
}

// ExportMovementsXLSX streams the movement history as an XLSX download.
func (h *Handler) ExportMovementsXLSX(w http.ResponseWriter, r *http.Request) {
	ms, err := h.Ledger.Movements(r.Context(), nil)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	setDownloadHeaders(w, xlsxContentType, report.FileName("movements", "xlsx", time.Now()))
	if err := report.MovementsXLSX(w, ms); err != nil {
		h.log.Error().Err(err).Msg("movement xlsx export failed")
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func setDownloadHeaders(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
}

// =============================================================================
// SHOP HANDLERS
// =============================================================================

// GetShop returns the shop settings.
func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	s, err := h.Catalog.Shop(r.Context())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ShopDTO{Name: s.Name, LogoPath: s.LogoPath})
}

// UpdateShop updates the shop settings.
func (h *Handler) UpdateShop(w http.ResponseWriter, r *http.Request) {
	var req ShopDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, err := h.Catalog.UpdateShop(r.Context(), req.Name, req.LogoPath)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ShopDTO{Name: s.Name, LogoPath: s.LogoPath})
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

func wineID(w http.ResponseWriter, r *http.Request) (catalog.WineID, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid wine id", err)
		return 0, false
	}
	return catalog.WineID(id), true
}

func movementID(w http.ResponseWriter, r *http.Request) (stock.MovementID, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid movement id", err)
		return 0, false
	}
	return stock.MovementID(id), true
}

func refKind(w http.ResponseWriter, r *http.Request) (catalog.RefKind, bool) {
	kind := catalog.RefKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid reference kind (use colour, style or varietal)", nil)
		return "", false
	}
	return kind, true
}

// parseTimeParam accepts RFC3339 or a bare date. A bare "to" date is
// pushed to the end of that day so the bound stays inclusive.
func parseTimeParam(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// writeDomainError maps domain errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var neg *stock.NegativeStockError
	if errors.As(err, &neg) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:   neg.Error(),
			Confirm: true,
			Details: map[string]any{
				"wine_id":   int64(neg.Wine),
				"projected": neg.Projected,
			},
		})
		return
	}

	var partial *stock.PartialCommitError
	if errors.As(err, &partial) {
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error: partial.Error(),
			Details: map[string]any{
				"committed": partial.Committed,
				"total":     partial.Total,
			},
		})
		return
	}

	switch {
	case errors.Is(err, validate.ErrValidation),
		errors.Is(err, stock.ErrInvalidKind),
		errors.Is(err, stock.ErrInvalidQuantity),
		errors.Is(err, stock.ErrNegativePrice),
		errors.Is(err, stock.ErrEmptySession),
		errors.Is(err, stock.ErrLineNotFound):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case catalog.IsNotFound(err), errors.Is(err, stock.ErrMovementNotFound):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case catalog.IsIntegrityError(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		h.log.Error().Err(err).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
