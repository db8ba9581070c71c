/*
catalog.go - The Catalog service

PURPOSE:
  Validated create/read/update/delete over the catalog store. All user
  input passes the validation layer before any store call, so a mutation
  that reaches the database is already well-formed; whatever the store
  still rejects is a constraint violation (duplicate code, in-use row),
  surfaced as the sentinels in errors.go.

NON-RESPONSIBILITIES:
  Quantity. The catalog never computes or adjusts stock levels; it only
  reads the cached value the stock engine maintains.

SEE ALSO:
  - validate: field and struct validation
  - store.go: the persistence contract
*/
package catalog

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/vinoteca/winestock/validate"
)

// =============================================================================
// SERVICE
// =============================================================================

// Catalog wraps a Store with input validation and logging.
type Catalog struct {
	store Store
	log   zerolog.Logger
}

// New creates a Catalog backed by the given store.
func New(store Store, log zerolog.Logger) *Catalog {
	return &Catalog{store: store, log: log.With().Str("component", "catalog").Logger()}
}

// =============================================================================
// WINE INPUT
// =============================================================================

// WineInput carries the user-entered fields of a wine form.
type WineInput struct {
	Code   string `label:"code" validate:"required,min=2,max=100"`
	Name   string `label:"name" validate:"required,min=2,max=100"`
	Winery string `label:"winery" validate:"required,min=2,max=100"`

	VintageYear int    `label:"vintage year" validate:"gte=0,pastyear"`
	Origin      string `label:"origin" validate:"omitempty,max=100"`

	ColourID   RefID  `label:"colour" validate:"required"`
	StyleID    RefID  `label:"style" validate:"required"`
	VarietalID *RefID `label:"varietal"`

	PurchasePrice decimal.Decimal `label:"purchase price" validate:"gte=0"`
	SellingPrice  decimal.Decimal `label:"selling price" validate:"gte=0"`

	MinStock    *int   `label:"minimum stock" validate:"omitempty,gte=0"`
	PicturePath string `label:"picture"`
}

func (in *WineInput) apply(w *Wine) {
	w.Code = strings.TrimSpace(in.Code)
	w.Name = strings.TrimSpace(in.Name)
	w.Winery = strings.TrimSpace(in.Winery)
	w.VintageYear = in.VintageYear
	w.Origin = title(strings.TrimSpace(in.Origin))
	w.ColourID = in.ColourID
	w.StyleID = in.StyleID
	w.VarietalID = in.VarietalID
	w.PurchasePrice = in.PurchasePrice.Round(2)
	w.SellingPrice = in.SellingPrice.Round(2)
	w.MinStock = in.MinStock
	w.PicturePath = in.PicturePath
}

// =============================================================================
// WINE OPERATIONS
// =============================================================================

// CreateWine validates the input and persists a new wine with zero stock.
func (c *Catalog) CreateWine(ctx context.Context, in WineInput) (*Wine, error) {
	if err := validate.Struct(&in); err != nil {
		return nil, err
	}

	w := &Wine{}
	in.apply(w)
	if err := c.store.InsertWine(ctx, w); err != nil {
		return nil, err
	}

	c.log.Info().Int64("wine_id", int64(w.ID)).Str("code", w.Code).Msg("wine created")
	return c.store.GetWine(ctx, w.ID)
}

// UpdateWine validates the input and replaces the descriptive fields of
// an existing wine. Quantity is untouched.
func (c *Catalog) UpdateWine(ctx context.Context, id WineID, in WineInput) (*Wine, error) {
	if err := validate.Struct(&in); err != nil {
		return nil, err
	}

	w, err := c.store.GetWine(ctx, id)
	if err != nil {
		return nil, err
	}

	in.apply(w)
	if err := c.store.UpdateWine(ctx, w); err != nil {
		return nil, err
	}

	c.log.Info().Int64("wine_id", int64(id)).Msg("wine updated")
	return c.store.GetWine(ctx, id)
}

// DeleteWine removes a wine. Fails with ErrWineInUse while any stock
// movement references it; history always wins over deletion.
func (c *Catalog) DeleteWine(ctx context.Context, id WineID) error {
	if err := c.store.DeleteWine(ctx, id); err != nil {
		return err
	}
	c.log.Info().Int64("wine_id", int64(id)).Msg("wine deleted")
	return nil
}

// Wine returns one wine by id.
func (c *Catalog) Wine(ctx context.Context, id WineID) (*Wine, error) {
	return c.store.GetWine(ctx, id)
}

// WineByCode returns one wine by its unique code.
func (c *Catalog) WineByCode(ctx context.Context, code string) (*Wine, error) {
	return c.store.GetWineByCode(ctx, strings.TrimSpace(code))
}

// Wines returns the full catalog ordered by name.
func (c *Catalog) Wines(ctx context.Context) ([]Wine, error) {
	return c.store.ListWines(ctx)
}

// LowStock returns the wines whose quantity sits below their alert
// threshold. Wines without a threshold never appear.
func (c *Catalog) LowStock(ctx context.Context) ([]Wine, error) {
	wines, err := c.store.ListWines(ctx)
	if err != nil {
		return nil, err
	}

	var low []Wine
	for _, w := range wines {
		if w.BelowMinStock() {
			low = append(low, w)
		}
	}
	return low, nil
}

// =============================================================================
// REFERENCE VOCABULARIES
// =============================================================================

// AddReference inserts a vocabulary row if absent and returns it.
func (c *Catalog) AddReference(ctx context.Context, kind RefKind, name string) (Reference, error) {
	cleaned, err := validate.String(string(kind), name)
	if err != nil {
		return Reference{}, err
	}
	return c.store.EnsureReference(ctx, kind, title(cleaned))
}

// References lists one vocabulary.
func (c *Catalog) References(ctx context.Context, kind RefKind) ([]Reference, error) {
	return c.store.ListReferences(ctx, kind)
}

// DeleteReference removes a vocabulary row. Colours and styles are
// restricted while in use; varietals detach from dependent wines.
func (c *Catalog) DeleteReference(ctx context.Context, kind RefKind, id RefID) error {
	return c.store.DeleteReference(ctx, kind, id)
}

// Default vocabularies, seeded on startup.
var (
	defaultColours   = []string{"Red", "White", "Rosé"}
	defaultStyles    = []string{"Still", "Sparkling", "Fortified", "Dessert"}
	defaultVarietals = []string{
		"Malbec", "Cabernet Sauvignon", "Merlot", "Tempranillo",
		"Chardonnay", "Sauvignon Blanc", "Riesling", "Garnacha",
	}
)

// Seed idempotently ensures the default vocabulary rows exist.
func (c *Catalog) Seed(ctx context.Context) error {
	for kind, names := range map[RefKind][]string{
		RefColour:   defaultColours,
		RefStyle:    defaultStyles,
		RefVarietal: defaultVarietals,
	} {
		for _, name := range names {
			if _, err := c.store.EnsureReference(ctx, kind, name); err != nil {
				return err
			}
		}
	}
	c.log.Info().Msg("reference vocabularies seeded")
	return nil
}

// =============================================================================
// SHOP SETTINGS
// =============================================================================

// Shop returns the settings singleton.
func (c *Catalog) Shop(ctx context.Context) (*Shop, error) {
	return c.store.Shop(ctx)
}

// UpdateShop validates and saves the shop name and logo path.
func (c *Catalog) UpdateShop(ctx context.Context, name, logoPath string) (*Shop, error) {
	cleaned, err := validate.String("shop name", name)
	if err != nil {
		return nil, err
	}

	s, err := c.store.Shop(ctx)
	if err != nil {
		return nil, err
	}

	s.Name = cleaned
	s.LogoPath = strings.TrimSpace(logoPath)
	if err := c.store.SaveShop(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// title uppercases the first letter of each word (origin and vocabulary
// names are stored title-cased, as entered names vary wildly).
func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
