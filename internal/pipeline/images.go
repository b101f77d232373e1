package pipeline

import (
	"math"
	"strings"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/parser"
)

const (
	// DefaultMinImageSize excludes color swatches and logos from product
	// matching. Some flows relax this to 50.
	DefaultMinImageSize = 150
	RelaxedMinImageSize = 50
)

// FilterImages drops images narrower or shorter than minSize pixels.
func FilterImages(images []parser.ExtractedImage, minSize float64) []parser.ExtractedImage {
	if minSize <= 0 {
		minSize = DefaultMinImageSize
	}
	out := make([]parser.ExtractedImage, 0, len(images))
	for _, img := range images {
		if img.Width < minSize || img.Height < minSize {
			continue
		}
		out = append(out, img)
	}
	return out
}

// MatchImages pairs each product with the nearest candidate image on the
// page where the product's SKU appears, as an index into candidates. The
// SKU is located by substring scan over the text blocks, first match wins.
// Products whose SKU is not found, or whose page has no candidates, are
// absent from the result. Two products may share the same nearest image.
// Matching is pure geometry; uploading what matched is the caller's job.
func MatchImages(products []StructuredProduct, blocks []parser.TextBlock, candidates []parser.ExtractedImage) map[int]int {
	matches := make(map[int]int)
	for i := range products {
		sku := strings.TrimSpace(products[i].SKU)
		if sku == "" {
			continue
		}
		block, ok := findSKUBlock(blocks, sku)
		if !ok {
			continue
		}
		if ci, ok := nearestCandidate(block, candidates); ok {
			matches[i] = ci
		}
	}
	return matches
}

func findSKUBlock(blocks []parser.TextBlock, sku string) (parser.TextBlock, bool) {
	needle := strings.ToUpper(sku)
	for _, b := range blocks {
		if strings.Contains(strings.ToUpper(b.Text), needle) {
			return b, true
		}
	}
	return parser.TextBlock{}, false
}

// nearestCandidate finds the same-page candidate with the smallest
// Euclidean center distance; ties keep the first minimum encountered.
func nearestCandidate(block parser.TextBlock, candidates []parser.ExtractedImage) (int, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i, img := range candidates {
		if img.PageNumber != block.PageNumber {
			continue
		}
		dx := img.Center.X - block.Center.X
		dy := img.Center.Y - block.Center.Y
		dist := math.Sqrt(dx*dx + dy*dy)
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best, best >= 0
}
