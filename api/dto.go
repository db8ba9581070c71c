/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Prices cross the wire as strings ("12.50"), never JSON numbers, so
  clients and server agree on exact decimal values.

SEE ALSO:
  - handlers.go: Uses these types
  - catalog, stock: the domain types these mirror
*/
package api

import (
	"time"

	"github.com/vinoteca/winestock/catalog"
	"github.com/vinoteca/winestock/stock"
	"github.com/vinoteca/winestock/validate"
)

// =============================================================================
// WINE TYPES
// =============================================================================

// WineDTO represents a wine in API responses.
type WineDTO struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Winery string `json:"winery"`

	VintageYear int    `json:"vintage_year"`
	Origin      string `json:"origin,omitempty"`

	Colour   string `json:"colour"`
	Style    string `json:"style"`
	Varietal string `json:"varietal,omitempty"`

	ColourID   int64  `json:"colour_id"`
	StyleID    int64  `json:"style_id"`
	VarietalID *int64 `json:"varietal_id,omitempty"`

	PurchasePrice string `json:"purchase_price"`
	SellingPrice  string `json:"selling_price"`

	Quantity    int    `json:"quantity"`
	MinStock    *int   `json:"min_stock,omitempty"`
	LowStock    bool   `json:"low_stock"`
	PicturePath string `json:"picture_path,omitempty"`
}

// WineRequest is the request body to create or update a wine.
// Prices are decimal strings.
type WineRequest struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Winery string `json:"winery"`

	VintageYear int    `json:"vintage_year"`
	Origin      string `json:"origin"`

	ColourID   int64  `json:"colour_id"`
	StyleID    int64  `json:"style_id"`
	VarietalID *int64 `json:"varietal_id"`

	PurchasePrice string `json:"purchase_price"`
	SellingPrice  string `json:"selling_price"`

	MinStock    *int   `json:"min_stock"`
	PicturePath string `json:"picture_path"`
}

// toInput parses the price strings and maps the request onto the
// catalog's input type; full field validation happens in the catalog.
func (r WineRequest) toInput() (catalog.WineInput, error) {
	purchase, err := validate.Price("purchase price", r.PurchasePrice)
	if err != nil {
		return catalog.WineInput{}, err
	}
	selling, err := validate.Price("selling price", r.SellingPrice)
	if err != nil {
		return catalog.WineInput{}, err
	}

	in := catalog.WineInput{
		Code:          r.Code,
		Name:          r.Name,
		Winery:        r.Winery,
		VintageYear:   r.VintageYear,
		Origin:        r.Origin,
		ColourID:      catalog.RefID(r.ColourID),
		StyleID:       catalog.RefID(r.StyleID),
		PurchasePrice: purchase,
		SellingPrice:  selling,
		MinStock:      r.MinStock,
		PicturePath:   r.PicturePath,
	}
	if r.VarietalID != nil {
		id := catalog.RefID(*r.VarietalID)
		in.VarietalID = &id
	}
	return in, nil
}

func toWineDTO(w *catalog.Wine) WineDTO {
	dto := WineDTO{
		ID:            int64(w.ID),
		Code:          w.Code,
		Name:          w.Name,
		Winery:        w.Winery,
		VintageYear:   w.VintageYear,
		Origin:        w.Origin,
		Colour:        w.Colour,
		Style:         w.Style,
		Varietal:      w.Varietal,
		ColourID:      int64(w.ColourID),
		StyleID:       int64(w.StyleID),
		PurchasePrice: w.PurchasePrice.StringFixed(2),
		SellingPrice:  w.SellingPrice.StringFixed(2),
		Quantity:      w.Quantity,
		MinStock:      w.MinStock,
		LowStock:      w.BelowMinStock(),
		PicturePath:   w.PicturePath,
	}
	if w.VarietalID != nil {
		id := int64(*w.VarietalID)
		dto.VarietalID = &id
	}
	return dto
}

func toWineDTOs(wines []catalog.Wine) []WineDTO {
	dtos := make([]WineDTO, len(wines))
	for i := range wines {
		dtos[i] = toWineDTO(&wines[i])
	}
	return dtos
}

// =============================================================================
// REFERENCE TYPES
// =============================================================================

// ReferenceDTO represents one classification vocabulary row.
type ReferenceDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ReferenceRequest is the request body to add a vocabulary row.
type ReferenceRequest struct {
	Name string `json:"name"`
}

func toReferenceDTOs(refs []catalog.Reference) []ReferenceDTO {
	dtos := make([]ReferenceDTO, len(refs))
	for i, r := range refs {
		dtos[i] = ReferenceDTO{ID: int64(r.ID), Name: r.Name}
	}
	return dtos
}

// =============================================================================
// MOVEMENT TYPES
// =============================================================================

// MovementDTO represents one ledger entry.
type MovementDTO struct {
	ID       int64  `json:"id"`
	WineID   int64  `json:"wine_id"`
	WineName string `json:"wine_name"`
	WineCode string `json:"wine_code"`
	At       string `json:"at"`
	Kind     string `json:"kind"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Subtotal string `json:"subtotal"`
}

// MovementEditRequest is the request body to edit a persisted movement.
// Price and timestamp are preserved server-side.
type MovementEditRequest struct {
	WineID   int64  `json:"wine_id"`
	Kind     string `json:"kind"`
	Quantity int    `json:"quantity"`
}

func toMovementDTO(m stock.Movement) MovementDTO {
	return MovementDTO{
		ID:       int64(m.ID),
		WineID:   int64(m.WineID),
		WineName: m.WineName,
		WineCode: m.WineCode,
		At:       m.At.Format(time.RFC3339),
		Kind:     string(m.Kind),
		Quantity: m.Quantity,
		Price:    m.Price.StringFixed(2),
		Subtotal: m.Subtotal().StringFixed(2),
	}
}

func toMovementDTOs(ms []stock.Movement) []MovementDTO {
	dtos := make([]MovementDTO, len(ms))
	for i, m := range ms {
		dtos[i] = toMovementDTO(m)
	}
	return dtos
}

// =============================================================================
// SESSION TYPES
// =============================================================================

// CreateSessionRequest starts a staging session.
type CreateSessionRequest struct {
	Kind string `json:"kind"`
	Mode string `json:"mode"` // "atomic" (default) or "best_effort"
}

// LineDTO is one staged line.
type LineDTO struct {
	WineID   int64  `json:"wine_id"`
	WineName string `json:"wine_name"`
	WineCode string `json:"wine_code"`
	Kind     string `json:"kind"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Subtotal string `json:"subtotal"`
}

// SessionDTO is a staging session snapshot.
type SessionDTO struct {
	ID    string    `json:"id"`
	Kind  string    `json:"kind"`
	Mode  string    `json:"mode"`
	Lines []LineDTO `json:"lines"`
	Total string    `json:"total"`
}

// AddLineRequest stages one line. Force accepts a negative working
// stock projection after the client confirmed it.
type AddLineRequest struct {
	WineID   int64 `json:"wine_id"`
	Quantity int   `json:"quantity"`
	Force    bool  `json:"force"`
}

// CommitResultDTO reports the outcome of a session commit.
type CommitResultDTO struct {
	Committed []MovementDTO `json:"committed"`
}

func toLineDTOs(lines []stock.Line) []LineDTO {
	dtos := make([]LineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = LineDTO{
			WineID:   int64(l.Wine),
			WineName: l.WineName,
			WineCode: l.WineCode,
			Kind:     string(l.Kind),
			Quantity: l.Quantity,
			Price:    l.Price.StringFixed(2),
			Subtotal: l.Subtotal().StringFixed(2),
		}
	}
	return dtos
}

// =============================================================================
// SHOP AND AUDIT TYPES
// =============================================================================

// ShopDTO is the shop settings record.
type ShopDTO struct {
	Name     string `json:"name"`
	LogoPath string `json:"logo_path,omitempty"`
}

// AuditDTO compares a wine's cached quantity with the recomputed one.
type AuditDTO struct {
	WineID     int64 `json:"wine_id"`
	Cached     int   `json:"cached"`
	Recomputed int   `json:"recomputed"`
	Consistent bool  `json:"consistent"`
}

// ErrorResponse is the standard error response. Confirm is set when the
// operation only needs user confirmation (resend with force=true).
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
	Confirm bool   `json:"confirm,omitempty"`
}
