// Package export serializes the full transaction log for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"wealthflow/internal/core"
)

type Format string

const (
	FormatCSV    Format = "csv"
	FormatXLSX   Format = "xlsx"
	FormatSheets Format = "sheets"
)

// DefaultBaseName is the download name without extension.
const DefaultBaseName = "WealthFlow_Export"

// SheetName is the worksheet used in XLSX workbooks.
const SheetName = "Transactions"

// Header lists the exported columns in order.
var Header = []string{"id", "amount", "category", "type"}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX, FormatSheets:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Filename joins base and the format's extension. Sheets has no file.
func Filename(base string, f Format) string {
	if base == "" {
		base = DefaultBaseName
	}
	return base + "." + string(f)
}

func ContentType(f Format) string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Rows renders each transaction as strings in Header order.
func Rows(log []core.Transaction) [][]string {
	out := make([][]string, 0, len(log))
	for _, t := range log {
		out = append(out, []string{t.ID.String(), t.Amount.String(), t.Category, string(t.Type)})
	}
	return out
}

// WriteCSV writes a header row followed by one row per transaction.
func WriteCSV(w io.Writer, log []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(Rows(log)); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook with the same columns as WriteCSV.
// Amounts are stored as numbers so spreadsheet formulas work on them.
func WriteXLSX(w io.Writer, log []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, t := range log {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{t.ID.String(), t.Amount.InexactFloat64(), t.Category, string(t.Type)}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Write dispatches to the file writer for f.
func Write(w io.Writer, f Format, log []core.Transaction) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, log)
	case FormatXLSX:
		return WriteXLSX(w, log)
	default:
		return fmt.Errorf("format %q has no file representation", f)
	}
}
