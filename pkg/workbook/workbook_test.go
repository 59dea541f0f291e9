package workbook

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := "Sheet1"
	f.SetSheetName(f.GetSheetList()[0], sheet)
	rows := [][]any{
		{"header"},
		{"Group: alpha"},
		{1, "ping", "up", "GET /h", "200", "/health", "GET", "", "", "", "", "true"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "fixture.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestOpenAndReadRows(t *testing.T) {
	path := writeFixture(t)
	wb, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer wb.Close()

	sheets := wb.Sheets()
	if len(sheets) != 1 || sheets[0] != "Sheet1" {
		t.Fatalf("sheets = %v", sheets)
	}

	rows, err := wb.Rows("Sheet1")
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if FirstCell(rows[1]) != "Group: alpha" {
		t.Errorf("expected group header row, got %q", FirstCell(rows[1]))
	}
	id, ok := rows[2].Float(0)
	if !ok || id != 1 {
		t.Errorf("expected id 1, got %v (ok=%v)", id, ok)
	}
	name, ok := rows[2].String(1)
	if !ok || name != "ping" {
		t.Errorf("expected name ping, got %q", name)
	}
}
