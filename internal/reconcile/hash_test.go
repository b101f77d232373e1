package reconcile

import "testing"

func TestContentHashStable(t *testing.T) {
	a := ContentHash("X1-RED", "RED")
	b := ContentHash("X1-RED", "RED")
	if a != b {
		t.Errorf("hash not stable: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("hash length %d, want 64 hex chars", len(a))
	}
}

func TestContentHashCaseAndSpaceInsensitive(t *testing.T) {
	if ContentHash(" x1-red ", "red") != ContentHash("X1-RED", "RED") {
		t.Error("hash should normalize case and whitespace")
	}
}

func TestContentHashDiscriminates(t *testing.T) {
	if ContentHash("X1-RED", "RED") == ContentHash("X1-RED", "BLU") {
		t.Error("different color codes must hash differently")
	}
	if ContentHash("X1-RED", "RED") == ContentHash("X2-RED", "RED") {
		t.Error("different SKUs must hash differently")
	}
	// Concatenation ambiguity: (AB, C) vs (A, BC).
	if ContentHash("AB", "C") == ContentHash("A", "BC") {
		t.Error("hash must separate sku and color code")
	}
}
