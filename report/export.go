/*
Package report renders catalog and ledger data into downloadable files.

PURPOSE:
  Tabular exports of the wine list and the movement history, as CSV for
  plain tooling and as XLSX for spreadsheet users. Exports are
  presentation only: they read resolved domain values and never touch
  storage directly.

FORMATS:
  - CSV via encoding/csv, one header row then one row per record
  - XLSX via excelize, same layout on Sheet1, with a totals row on
    movement exports

SEE ALSO:
  - catalog: wine rows and their display helpers
  - stock: movements and subtotals
*/
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/vinoteca/winestock/catalog"
	"github.com/vinoteca/winestock/stock"
)

const sheetName = "Sheet1"

// timeLayout is the display format for movement timestamps.
const timeLayout = "2006-01-02 15:04:05"

// =============================================================================
// COLUMN LAYOUTS
// =============================================================================

var wineHeader = []string{
	"Code", "Name", "Winery", "Vintage", "Origin",
	"Colour", "Style", "Varietal",
	"Purchase Price", "Selling Price", "Quantity", "Min Stock",
}

func wineRow(w catalog.Wine) []string {
	return []string{
		w.Code,
		w.Name,
		w.Winery,
		strconv.Itoa(w.VintageYear),
		w.OriginDisplay(),
		w.Colour,
		w.Style,
		w.VarietalDisplay(),
		w.PurchasePrice.StringFixed(2),
		w.SellingPrice.StringFixed(2),
		strconv.Itoa(w.Quantity),
		w.MinStockDisplay(),
	}
}

var movementHeader = []string{
	"Date", "Code", "Wine", "Kind", "Quantity", "Unit Price", "Subtotal",
}

func movementRow(m stock.Movement) []string {
	return []string{
		m.At.Format(timeLayout),
		m.WineCode,
		m.WineName,
		string(m.Kind),
		strconv.Itoa(m.Quantity),
		m.Price.StringFixed(2),
		m.Subtotal().StringFixed(2),
	}
}

// =============================================================================
// CSV
// =============================================================================

// WinesCSV writes the wine list as CSV.
func WinesCSV(w io.Writer, wines []catalog.Wine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(wineHeader); err != nil {
		return err
	}
	for _, wine := range wines {
		if err := cw.Write(wineRow(wine)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MovementsCSV writes movement history as CSV, with a trailing total
// row summing the subtotals.
func MovementsCSV(w io.Writer, ms []stock.Movement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(movementHeader); err != nil {
		return err
	}
	for _, m := range ms {
		if err := cw.Write(movementRow(m)); err != nil {
			return err
		}
	}
	if err := cw.Write(totalRow(ms)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func totalRow(ms []stock.Movement) []string {
	total := decimal.Zero
	for _, m := range ms {
		total = total.Add(m.Subtotal())
	}
	return []string{"", "", "", "", "", "Total", total.StringFixed(2)}
}

// =============================================================================
// XLSX
// =============================================================================

// WinesXLSX writes the wine list as an XLSX workbook.
func WinesXLSX(w io.Writer, wines []catalog.Wine) error {
	rows := make([][]string, 0, len(wines)+1)
	rows = append(rows, wineHeader)
	for _, wine := range wines {
		rows = append(rows, wineRow(wine))
	}
	return writeXLSX(w, rows)
}

// MovementsXLSX writes movement history as an XLSX workbook with a
// trailing total row.
func MovementsXLSX(w io.Writer, ms []stock.Movement) error {
	rows := make([][]string, 0, len(ms)+2)
	rows = append(rows, movementHeader)
	for _, m := range ms {
		rows = append(rows, movementRow(m))
	}
	rows = append(rows, totalRow(ms))
	return writeXLSX(w, rows)
}

func writeXLSX(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// FileName builds a timestamped download name like
// "wines-2026-08-25.csv".
func FileName(prefix, ext string, at time.Time) string {
	return fmt.Sprintf("%s-%s.%s", prefix, at.Format("2006-01-02"), ext)
}
