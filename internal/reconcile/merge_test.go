package reconcile

import (
	"testing"

	"github.com/google/uuid"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/pipeline"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatal(err)
	}
	return log
}

func TestMergeCatalogFirstSheetWins(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	sheets := []SheetProducts{
		{DocumentID: first, Products: []pipeline.StructuredProduct{
			{SKU: "AB-101", ProductName: "From First"},
		}},
		{DocumentID: second, Products: []pipeline.StructuredProduct{
			{SKU: "AB-101", ProductName: "From Second"},
			{SKU: "AB-202", ProductName: "Only Second"},
		}},
	}

	c := MergeCatalog(sheets, testLogger(t))
	if c.Len() != 2 {
		t.Fatalf("catalog size %d, want 2", c.Len())
	}

	entry, ok := c.Lookup("AB-101", "")
	if !ok || entry.Product.ProductName != "From First" {
		t.Errorf("collision should keep the first line sheet, got %+v", entry.Product)
	}
	if entry.LineSheetID != first {
		t.Errorf("matched document = %s, want %s", entry.LineSheetID, first)
	}
	if len(c.LineSheetIDs) != 2 {
		t.Errorf("LineSheetIDs = %v, want both documents", c.LineSheetIDs)
	}
}

func TestCatalogLookupBaseSKUFallback(t *testing.T) {
	docID := uuid.New()
	c := MergeCatalog([]SheetProducts{
		{DocumentID: docID, Products: []pipeline.StructuredProduct{{SKU: "AB-101", ProductName: "Base"}}},
	}, testLogger(t))

	if _, ok := c.Lookup("AB-101-RED", ""); ok {
		t.Error("full SKU should not match without fallback")
	}
	entry, ok := c.Lookup("AB-101-RED", "AB-101")
	if !ok || entry.Product.ProductName != "Base" {
		t.Errorf("base SKU fallback failed, got %+v ok=%v", entry.Product, ok)
	}
}

func TestMergeCatalogSkipsBlankSKUs(t *testing.T) {
	c := MergeCatalog([]SheetProducts{
		{DocumentID: uuid.New(), Products: []pipeline.StructuredProduct{{SKU: "  "}, {SKU: "AB-1"}}},
	}, testLogger(t))
	if c.Len() != 1 {
		t.Errorf("catalog size %d, want 1", c.Len())
	}
}

func TestCatalogLookupCaseInsensitive(t *testing.T) {
	c := MergeCatalog([]SheetProducts{
		{DocumentID: uuid.New(), Products: []pipeline.StructuredProduct{{SKU: "ab-101"}}},
	}, testLogger(t))
	if _, ok := c.Lookup("AB-101", ""); !ok {
		t.Error("lookup should be case insensitive")
	}
}
