package reconcile

import (
	"strings"
)

// sizeVocabulary is the fixed ordered run used to expand range tokens.
var sizeVocabulary = []string{"XXS", "XS", "S", "M", "L", "XL", "XXL", "XXXL"}

func sizeIndex(token string) int {
	for i, s := range sizeVocabulary {
		if s == token {
			return i
		}
	}
	return -1
}

// ParseSizes turns a raw size cell into a size → quantity map. Three
// strategies, in order: a recognized range token ("S-XL") expanded over
// the size vocabulary, comma or slash separated discrete sizes, else the
// raw string as a single size. The quantity applies to every resulting
// size key.
func ParseSizes(raw string, quantity int) map[string]int {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return map[string]int{"One Size": quantity}
	}

	if lo, hi, ok := parseRange(token); ok {
		out := make(map[string]int, hi-lo+1)
		for _, s := range sizeVocabulary[lo : hi+1] {
			out[s] = quantity
		}
		return out
	}

	if strings.ContainsAny(token, ",/") {
		out := map[string]int{}
		for _, part := range strings.FieldsFunc(token, func(r rune) bool { return r == ',' || r == '/' }) {
			part = strings.TrimSpace(part)
			if part != "" {
				out[part] = quantity
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	return map[string]int{token: quantity}
}

func parseRange(token string) (lo, hi int, ok bool) {
	parts := strings.Split(token, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo = sizeIndex(strings.TrimSpace(parts[0]))
	hi = sizeIndex(strings.TrimSpace(parts[1]))
	if lo < 0 || hi < 0 || lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// SplitSKU separates a full SKU into base and color code at the last
// hyphen. SKUs without a hyphen have no color code.
func SplitSKU(sku string) (baseSKU, colorCode string) {
	sku = strings.TrimSpace(sku)
	if i := strings.LastIndex(sku, "-"); i > 0 {
		return sku[:i], sku[i+1:]
	}
	return sku, ""
}
