package pipeline

import (
	"testing"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/parser"
)

func img(page int, cx, cy, w, h float64) parser.ExtractedImage {
	return parser.ExtractedImage{
		PageNumber: page,
		Center:     parser.Point{X: cx, Y: cy},
		Width:      w,
		Height:     h,
	}
}

func TestFilterImagesThreshold(t *testing.T) {
	images := []parser.ExtractedImage{
		img(1, 0, 0, 149, 200),
		img(1, 0, 0, 150, 150),
		img(1, 0, 0, 200, 149),
		img(1, 0, 0, 600, 800),
	}
	got := FilterImages(images, 150)
	if len(got) != 2 {
		t.Fatalf("got %d images, want 2", len(got))
	}
	for _, i := range got {
		if i.Width < 150 || i.Height < 150 {
			t.Errorf("undersized image survived filter: %vx%v", i.Width, i.Height)
		}
	}
}

func TestFilterImagesRelaxedThreshold(t *testing.T) {
	images := []parser.ExtractedImage{img(1, 0, 0, 60, 60), img(1, 0, 0, 40, 60)}
	if got := FilterImages(images, RelaxedMinImageSize); len(got) != 1 {
		t.Fatalf("got %d images at 50px threshold, want 1", len(got))
	}
}

func TestMatchImagesNearestOnSamePage(t *testing.T) {
	blocks := []parser.TextBlock{
		{PageNumber: 1, Text: "AB-101 Silk Blouse", Center: parser.Point{X: 0, Y: 0}},
	}
	candidates := []parser.ExtractedImage{
		img(1, 100, 100, 300, 300),
		img(1, 10, 0, 300, 300),
		img(1, -10, 0, 300, 300),
		img(2, 1, 0, 300, 300),
	}
	products := []StructuredProduct{{SKU: "AB-101"}}

	matches := MatchImages(products, blocks, candidates)
	ci, ok := matches[0]
	if !ok {
		t.Fatal("product 0 should have a match")
	}
	// Equidistant candidates resolve to the first one encountered.
	if ci != 1 {
		t.Errorf("matched candidate %d, want 1", ci)
	}
}

func TestMatchImagesSKUNotFound(t *testing.T) {
	blocks := []parser.TextBlock{{PageNumber: 1, Text: "unrelated text", Center: parser.Point{}}}
	candidates := []parser.ExtractedImage{img(1, 0, 0, 300, 300)}

	matches := MatchImages([]StructuredProduct{{SKU: "ZZ-999"}}, blocks, candidates)
	if _, ok := matches[0]; ok {
		t.Errorf("product without a located SKU should not match, got %v", matches)
	}
}

func TestMatchImagesNoCandidatesOnPage(t *testing.T) {
	blocks := []parser.TextBlock{{PageNumber: 3, Text: "AB-101", Center: parser.Point{}}}
	candidates := []parser.ExtractedImage{img(1, 0, 0, 300, 300)}

	matches := MatchImages([]StructuredProduct{{SKU: "AB-101"}}, blocks, candidates)
	if _, ok := matches[0]; ok {
		t.Errorf("no same-page candidates should mean no match, got %v", matches)
	}
}

func TestMatchImagesSharedNearest(t *testing.T) {
	blocks := []parser.TextBlock{
		{PageNumber: 1, Text: "AB-101", Center: parser.Point{X: 0, Y: 0}},
		{PageNumber: 1, Text: "AB-202", Center: parser.Point{X: 20, Y: 0}},
	}
	candidates := []parser.ExtractedImage{img(1, 10, 0, 300, 300)}
	products := []StructuredProduct{{SKU: "AB-101"}, {SKU: "AB-202"}}

	matches := MatchImages(products, blocks, candidates)
	for i := range products {
		if ci, ok := matches[i]; !ok || ci != 0 {
			t.Errorf("product %d: got %v, want candidate 0", i, matches)
		}
	}
}
