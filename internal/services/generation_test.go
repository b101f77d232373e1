package services

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/reconcile"
)

func TestItemToRow(t *testing.T) {
	collectionID := uuid.New()
	runID := uuid.New()
	matched := uuid.New()
	wholesale := 120.0

	row, err := itemToRow(reconcile.Item{
		SKU:            "AB-101-RED",
		BaseSKU:        "AB-101",
		ColorName:      "Red",
		ColorCode:      "RED",
		ProductName:    "Silk Blouse",
		Category:       "Tops",
		Subcategory:    "Blouses",
		Sizes:          map[string]int{"S": 30, "M": 30},
		Quantity:       30,
		WholesalePrice: &wholesale,
		Materials:      []string{"silk"},
		ContentHash:    reconcile.ContentHash("AB-101-RED", "RED"),
		Enriched:       true,
		SourceDocuments: reconcile.SourceDocuments{
			PurchaseOrderID:    uuid.New(),
			LineSheetIDs:       []uuid.UUID{matched},
			MatchedLineSheetID: &matched,
		},
	}, collectionID, runID)
	if err != nil {
		t.Fatalf("itemToRow: %v", err)
	}

	if row.CollectionID != collectionID {
		t.Errorf("collection id = %s", row.CollectionID)
	}
	if row.GenerationRunID == nil || *row.GenerationRunID != runID {
		t.Error("generation run id not tagged")
	}
	if row.ContentHash != reconcile.ContentHash("AB-101-RED", "RED") {
		t.Error("content hash not carried")
	}

	var sizes map[string]int
	if err := json.Unmarshal(row.Sizes, &sizes); err != nil || sizes["S"] != 30 {
		t.Errorf("sizes json wrong: %s (%v)", row.Sizes, err)
	}
	var sources reconcile.SourceDocuments
	if err := json.Unmarshal(row.SourceDocuments, &sources); err != nil {
		t.Fatalf("source documents json: %v", err)
	}
	if sources.MatchedLineSheetID == nil || *sources.MatchedLineSheetID != matched {
		t.Error("matched line sheet id lost")
	}
}

func TestItemToRowNilSlices(t *testing.T) {
	row, err := itemToRow(reconcile.Item{
		SKU:          "ZZ-999",
		ContentHash:  reconcile.ContentHash("ZZ-999", ""),
		ManualReview: true,
	}, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("itemToRow: %v", err)
	}
	// Nil slices persist as [] so API consumers never see null.
	if string(row.Materials) != "[]" || string(row.Images) != "[]" {
		t.Errorf("materials=%s images=%s, want []", row.Materials, row.Images)
	}
	if !row.ManualReview || row.Enriched {
		t.Error("review flags lost")
	}
}
