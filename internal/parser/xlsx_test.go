package parser

import (
	"context"
	"testing"

	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestParseSpreadsheet(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"", "", ""},
		{"SKU ", "Product Name", "Qty"},
		{"AB-101-RED", "Silk Blouse", 12},
		{"", "", ""},
		{"AB-202-BLU", "Linen Pant", 4},
	})

	p := NewXLSXParser(testLogger(t))
	wb, err := p.ParseSpreadsheet(context.Background(), data)
	if err != nil {
		t.Fatalf("ParseSpreadsheet: %v", err)
	}
	if len(wb.Sheets) != 1 {
		t.Fatalf("got %d sheets, want 1", len(wb.Sheets))
	}

	sheet := wb.Sheets[0]
	wantHeaders := []string{"SKU", "Product Name", "Qty"}
	if len(sheet.Headers) != len(wantHeaders) {
		t.Fatalf("headers = %v, want %v", sheet.Headers, wantHeaders)
	}
	for i, h := range wantHeaders {
		if sheet.Headers[i] != h {
			t.Errorf("header[%d] = %q, want %q", i, sheet.Headers[i], h)
		}
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("got %d rows, want 2 (empty rows skipped)", len(sheet.Rows))
	}
	if sheet.Rows[0][0] != "AB-101-RED" || sheet.Rows[1][0] != "AB-202-BLU" {
		t.Errorf("unexpected rows: %v", sheet.Rows)
	}
}

func TestParseSpreadsheetEmptySheetDropped(t *testing.T) {
	f := excelize.NewFile()
	buf, err := f.WriteToBuffer()
	f.Close()
	if err != nil {
		t.Fatal(err)
	}

	p := NewXLSXParser(testLogger(t))
	wb, err := p.ParseSpreadsheet(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("ParseSpreadsheet: %v", err)
	}
	if len(wb.Sheets) != 0 {
		t.Errorf("got %d sheets, want 0", len(wb.Sheets))
	}
}

func TestParseSpreadsheetInvalidData(t *testing.T) {
	p := NewXLSXParser(testLogger(t))
	if _, err := p.ParseSpreadsheet(context.Background(), []byte("not a workbook")); err == nil {
		t.Error("expected error for invalid data")
	}
}
