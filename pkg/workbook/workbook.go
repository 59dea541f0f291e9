// Package workbook decodes the input spreadsheet into typed rows the row
// parser can consume. It is the external collaborator the core depends on
// for spreadsheet access (§1): a multi-sheet document read into memory,
// yielding one testcase.Row per row per sheet (header and control rows
// included).
package workbook

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/rv-nath/satyanaash/pkg/testcase"
)

// Workbook wraps an open spreadsheet document.
type Workbook struct {
	f *excelize.File
}

// Open reads path into memory and returns a Workbook ready for sheet/row
// access.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("workbook: opening %s: %w", path, err)
	}
	return &Workbook{f: f}, nil
}

// Close releases the underlying file handle.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// Sheets returns every sheet name in the document, in declaration order.
func (w *Workbook) Sheets() []string {
	return w.f.GetSheetList()
}

// Rows returns every row of sheet as a testcase.Row, in order. A row
// shorter than 12 columns is padded so column accessors never index out
// of range.
func (w *Workbook) Rows(sheet string) ([]testcase.Row, error) {
	raw, err := w.f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("workbook: reading sheet %s: %w", sheet, err)
	}
	rows := make([]testcase.Row, len(raw))
	for i, cells := range raw {
		rows[i] = sheetRow(padTo(cells, 12))
	}
	return rows, nil
}

func padTo(cells []string, n int) []string {
	if len(cells) >= n {
		return cells
	}
	padded := make([]string, n)
	copy(padded, cells)
	return padded
}

// sheetRow adapts a decoded spreadsheet row to testcase.Row. An empty
// cell is treated as absent, mirroring calamine's Data::Empty — this
// collapses "blank cell" and "cell holds an empty string" into the same
// not-present signal, which is harmless since every column that tolerates
// absence also tolerates an empty string.
type sheetRow []string

func (r sheetRow) String(col int) (string, bool) {
	if col >= len(r) || r[col] == "" {
		return "", false
	}
	return r[col], true
}

func (r sheetRow) Float(col int) (float64, bool) {
	s, ok := r.String(col)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FirstCell returns column A's raw text for group-header detection,
// tolerating a short or empty row.
func FirstCell(row testcase.Row) string {
	s, _ := row.String(0)
	return s
}
