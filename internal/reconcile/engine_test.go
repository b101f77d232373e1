package reconcile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/parser"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/pipeline"
)

type fakeCompleter struct {
	fn func(system, user, schemaName string) (map[string]interface{}, error)
}

func (f *fakeCompleter) GenerateJSON(_ context.Context, system, user, schemaName string, _ map[string]interface{}, _ float64) (map[string]interface{}, error) {
	return f.fn(system, user, schemaName)
}

func columnLLM() pipeline.JSONCompleter {
	return &fakeCompleter{fn: func(_, _, schemaName string) (map[string]interface{}, error) {
		return map[string]interface{}{
			"sku": 0.0, "color": 1.0, "size": 2.0, "quantity": 3.0,
		}, nil
	}}
}

type fakeSource struct {
	poID   uuid.UUID
	sheet  parser.Sheet
	poErr  error
	sheets []SheetProducts
	lsErr  error
}

func (s *fakeSource) PurchaseOrder(context.Context) (uuid.UUID, parser.Sheet, error) {
	return s.poID, s.sheet, s.poErr
}

func (s *fakeSource) LineSheets(context.Context) ([]SheetProducts, error) {
	return s.sheets, s.lsErr
}

type memStore struct {
	byHash     map[string]Item
	insertErr  error
	deleted    bool
	insertions int
}

func newMemStore() *memStore {
	return &memStore{byHash: map[string]Item{}}
}

func (s *memStore) ExistsByHash(_ context.Context, hash string) (bool, error) {
	_, ok := s.byHash[hash]
	return ok, nil
}

func (s *memStore) Insert(_ context.Context, item Item) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.byHash[item.ContentHash] = item
	s.insertions++
	return nil
}

func (s *memStore) DeleteCreated(context.Context) error {
	s.deleted = true
	s.byHash = map[string]Item{}
	return nil
}

func testSource() *fakeSource {
	lineSheetID := uuid.New()
	return &fakeSource{
		poID: uuid.New(),
		sheet: parser.Sheet{
			Name:    "PO",
			Headers: []string{"SKU", "Color", "Size", "Qty"},
			Rows: [][]string{
				{"AB-101-RED", "Red", "S-XL", "30"},
				{"AB-202-BLU", "", "M", "12"},
				{"", "Green", "L", "5"},
				{"ZZ-999-GRN", "Green", "ONE SIZE", "8"},
			},
		},
		sheets: []SheetProducts{{
			DocumentID: lineSheetID,
			Products: []pipeline.StructuredProduct{
				{
					SKU: "AB-101", ProductName: "Silk Blouse",
					Category: "Tops", Subcategory: "Blouses",
					WholesalePrice: ptr(120.0), RRP: ptr(290.0), Currency: "USD",
					Materials: []string{"silk"},
					Images:    []string{"https://cdn.test/blouse.jpg"},
				},
				{
					SKU: "AB-202-BLU", ProductName: "Linen Pant",
					Colors: []pipeline.ProductColor{{ColorName: "Cobalt Blue", ColorCode: "BLU"}},
				},
			},
		}},
	}
}

func ptr(v float64) *float64 { return &v }

func TestEngineRun(t *testing.T) {
	source := testSource()
	store := newMemStore()
	engine := NewEngine(columnLLM(), testLogger(t))

	result, err := engine.Run(context.Background(), source, store, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Stats.ItemsCreated != 3 {
		t.Errorf("items_created = %d, want 3", result.Stats.ItemsCreated)
	}
	if result.Stats.RowsSkipped != 1 {
		t.Errorf("rows_skipped = %d, want 1 (empty SKU row)", result.Stats.RowsSkipped)
	}

	byHash := map[string]Item{}
	for _, it := range result.Items {
		byHash[it.ContentHash] = it
	}

	enriched := byHash[ContentHash("AB-101-RED", "RED")]
	if !enriched.Enriched || enriched.ManualReview {
		t.Errorf("base-SKU match should enrich: %+v", enriched)
	}
	if enriched.ProductName != "Silk Blouse" || *enriched.WholesalePrice != 120 {
		t.Errorf("catalog fields not carried: %+v", enriched)
	}
	if enriched.SourceDocuments.MatchedLineSheetID == nil {
		t.Error("matched line sheet id not recorded")
	}
	wantSizes := map[string]int{"S": 30, "M": 30, "L": 30, "XL": 30}
	for k, v := range wantSizes {
		if enriched.Sizes[k] != v {
			t.Errorf("sizes[%s] = %d, want %d", k, enriched.Sizes[k], v)
		}
	}

	// PO color cell empty, but the catalog knows code BLU.
	fullMatch := byHash[ContentHash("AB-202-BLU", "BLU")]
	if !fullMatch.Enriched || fullMatch.ColorName != "Cobalt Blue" {
		t.Errorf("full-SKU match wrong: %+v", fullMatch)
	}

	miss := byHash[ContentHash("ZZ-999-GRN", "GRN")]
	if miss.Enriched || !miss.ManualReview {
		t.Errorf("unmatched SKU should need review: %+v", miss)
	}
	if miss.Sizes["ONE SIZE"] != 8 {
		t.Errorf("degenerate size map wrong: %v", miss.Sizes)
	}
}

func TestEngineIdempotent(t *testing.T) {
	source := testSource()
	store := newMemStore()
	engine := NewEngine(columnLLM(), testLogger(t))

	first, err := engine.Run(context.Background(), source, store, nil)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := engine.Run(context.Background(), source, store, nil)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if second.Stats.ItemsCreated != 0 {
		t.Errorf("second run created %d items, want 0", second.Stats.ItemsCreated)
	}
	if second.Stats.ItemsSkipped != first.Stats.ItemsCreated {
		t.Errorf("second run skipped %d, want %d", second.Stats.ItemsSkipped, first.Stats.ItemsCreated)
	}
}

func TestEngineNoSKUColumn(t *testing.T) {
	llm := &fakeCompleter{fn: func(_, _, _ string) (map[string]interface{}, error) {
		return map[string]interface{}{"sku": -1.0, "color": -1.0, "size": -1.0, "quantity": -1.0}, nil
	}}
	engine := NewEngine(llm, testLogger(t))

	_, err := engine.Run(context.Background(), testSource(), newMemStore(), nil)
	if err == nil || !strings.Contains(err.Error(), "SKU column") {
		t.Fatalf("err = %v, want SKU column failure", err)
	}
}

func TestEngineNoPurchaseOrder(t *testing.T) {
	source := testSource()
	source.poErr = ErrNoPurchaseOrder
	engine := NewEngine(columnLLM(), testLogger(t))

	_, err := engine.Run(context.Background(), source, newMemStore(), nil)
	if !errors.Is(err, ErrNoPurchaseOrder) {
		t.Fatalf("err = %v, want ErrNoPurchaseOrder", err)
	}
}

func TestEngineEmptyCatalog(t *testing.T) {
	source := testSource()
	source.sheets = []SheetProducts{{DocumentID: uuid.New()}}
	engine := NewEngine(columnLLM(), testLogger(t))

	_, err := engine.Run(context.Background(), source, newMemStore(), nil)
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("err = %v, want ErrEmptyCatalog", err)
	}
}

func TestEngineCancellationCleansUp(t *testing.T) {
	source := testSource()
	store := newMemStore()
	engine := NewEngine(columnLLM(), testLogger(t))

	polls := 0
	cancelled := func(context.Context) (bool, error) {
		polls++
		// Let column identification through, then flag cancellation.
		return polls > 1, nil
	}

	_, err := engine.Run(context.Background(), source, store, cancelled)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}
	if !store.deleted {
		t.Error("partially created items not cleaned up")
	}
	if len(store.byHash) != 0 {
		t.Errorf("store still holds %d items after cleanup", len(store.byHash))
	}
}

func TestEngineInsertFailureAborts(t *testing.T) {
	source := testSource()
	store := newMemStore()
	store.insertErr = errors.New("unique violation")
	engine := NewEngine(columnLLM(), testLogger(t))

	if _, err := engine.Run(context.Background(), source, store, nil); err == nil {
		t.Fatal("expected insert failure to abort the run")
	}
}
