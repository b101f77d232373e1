package pipeline

import (
	"reflect"
	"testing"
)

func price(v float64) *float64 { return &v }

func TestDedupeProductsFirstWins(t *testing.T) {
	products := []StructuredProduct{
		{SKU: "A", Colors: []ProductColor{{ColorCode: "1"}}, WholesalePrice: price(1)},
		{SKU: "A", Colors: []ProductColor{{ColorCode: "1"}}, WholesalePrice: price(2)},
	}
	got := DedupeProducts(products)
	if len(got) != 1 {
		t.Fatalf("got %d products, want 1", len(got))
	}
	if *got[0].WholesalePrice != 1 {
		t.Errorf("kept price %v, want the first occurrence", *got[0].WholesalePrice)
	}
}

func TestDedupeProductsColorCodeOrderInsensitive(t *testing.T) {
	products := []StructuredProduct{
		{SKU: "A", Colors: []ProductColor{{ColorCode: "RED"}, {ColorCode: "BLU"}}},
		{SKU: "A", Colors: []ProductColor{{ColorCode: "BLU"}, {ColorCode: "RED"}}},
		{SKU: "A", Colors: []ProductColor{{ColorCode: "RED"}}},
	}
	got := DedupeProducts(products)
	if len(got) != 2 {
		t.Fatalf("got %d products, want 2 (same codes in different order collapse)", len(got))
	}
}

func TestDedupeProductsIdempotent(t *testing.T) {
	products := []StructuredProduct{
		{SKU: "A", Colors: []ProductColor{{ColorCode: "1"}}},
		{SKU: "B", Colors: []ProductColor{{ColorCode: "1"}}},
		{SKU: "A", Colors: []ProductColor{{ColorCode: "2"}}},
		{SKU: "A", Colors: []ProductColor{{ColorCode: "1"}}},
	}
	once := DedupeProducts(products)
	twice := DedupeProducts(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("dedup not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestDedupeProductsPreservesOrder(t *testing.T) {
	products := []StructuredProduct{
		{SKU: "C"}, {SKU: "A"}, {SKU: "B"}, {SKU: "A"},
	}
	got := DedupeProducts(products)
	want := []string{"C", "A", "B"}
	if len(got) != len(want) {
		t.Fatalf("got %d products, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].SKU != w {
			t.Errorf("position %d: got %s, want %s", i, got[i].SKU, w)
		}
	}
}
