package reconcile

import (
	"reflect"
	"testing"
)

func TestParseSizes(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		quantity int
		want     map[string]int
	}{
		{
			name: "range token", raw: "S-XL", quantity: 30,
			want: map[string]int{"S": 30, "M": 30, "L": 30, "XL": 30},
		},
		{
			name: "full range", raw: "XXS-XXXL", quantity: 5,
			want: map[string]int{"XXS": 5, "XS": 5, "S": 5, "M": 5, "L": 5, "XL": 5, "XXL": 5, "XXXL": 5},
		},
		{
			name: "single size range degenerate", raw: "M-M", quantity: 2,
			want: map[string]int{"M": 2},
		},
		{
			name: "comma separated", raw: "S, M, L", quantity: 10,
			want: map[string]int{"S": 10, "M": 10, "L": 10},
		},
		{
			name: "slash separated", raw: "XS/S/M", quantity: 4,
			want: map[string]int{"XS": 4, "S": 4, "M": 4},
		},
		{
			name: "unrecognized token", raw: "ONE SIZE", quantity: 30,
			want: map[string]int{"ONE SIZE": 30},
		},
		{
			name: "numeric size", raw: "38", quantity: 7,
			want: map[string]int{"38": 7},
		},
		{
			name: "reversed range falls through", raw: "XL-S", quantity: 3,
			want: map[string]int{"XL-S": 3},
		},
		{
			name: "empty cell", raw: "", quantity: 9,
			want: map[string]int{"One Size": 9},
		},
		{
			name: "lowercase range", raw: "s-xl", quantity: 1,
			want: map[string]int{"S": 1, "M": 1, "L": 1, "XL": 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSizes(tt.raw, tt.quantity)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSizes(%q, %d) = %v, want %v", tt.raw, tt.quantity, got, tt.want)
			}
		})
	}
}

func TestSplitSKU(t *testing.T) {
	tests := []struct {
		sku       string
		base      string
		colorCode string
	}{
		{"AB-101-RED", "AB-101", "RED"},
		{"AB-101", "AB", "101"},
		{"AB101", "AB101", ""},
		{"-RED", "-RED", ""},
		{" AB-101-RED ", "AB-101", "RED"},
	}
	for _, tt := range tests {
		base, code := SplitSKU(tt.sku)
		if base != tt.base || code != tt.colorCode {
			t.Errorf("SplitSKU(%q) = (%q, %q), want (%q, %q)", tt.sku, base, code, tt.base, tt.colorCode)
		}
	}
}
