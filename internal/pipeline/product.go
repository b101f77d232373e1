package pipeline

import (
	"sort"
	"strings"
)

type ProductColor struct {
	ColorName string `json:"color_name"`
	ColorCode string `json:"color_code"`
}

// StructuredProduct is the extraction artifact accumulated across chunks
// and persisted wholesale on the owning document.
type StructuredProduct struct {
	SKU            string         `json:"sku"`
	ProductName    string         `json:"product_name"`
	Category       string         `json:"category"`
	Subcategory    string         `json:"subcategory"`
	Colors         []ProductColor `json:"colors"`
	WholesalePrice *float64       `json:"wholesale_price"`
	RRP            *float64       `json:"rrp"`
	Currency       string         `json:"currency"`
	Origin         string         `json:"origin"`
	Materials      []string       `json:"materials"`
	Images         []string       `json:"images"`
}

// DedupKey identifies a product by SKU plus its sorted color codes. Two
// chunk extractions of the same product collapse to one record.
func (p StructuredProduct) DedupKey() string {
	codes := make([]string, 0, len(p.Colors))
	for _, c := range p.Colors {
		codes = append(codes, strings.ToUpper(strings.TrimSpace(c.ColorCode)))
	}
	sort.Strings(codes)
	return strings.ToUpper(strings.TrimSpace(p.SKU)) + "|" + strings.Join(codes, ",")
}

// DedupeProducts collapses duplicates keyed by (sku, sorted color codes),
// keeping the first occurrence. Output order follows first appearance.
func DedupeProducts(products []StructuredProduct) []StructuredProduct {
	seen := make(map[string]bool, len(products))
	out := make([]StructuredProduct, 0, len(products))
	for _, p := range products {
		key := p.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
