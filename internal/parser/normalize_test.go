package parser

import (
	"strings"
	"testing"
)

func TestNormalizeTextCollapsesWhitespace(t *testing.T) {
	pages := []string{"Silk   Blouse\t\tSS26\n\n\n\nWholesale  $120"}
	got := NormalizeText(pages)
	want := "Silk Blouse SS26\n\nWholesale $120"
	if got != want {
		t.Fatalf("NormalizeText() = %q, want %q", got, want)
	}
}

func TestNormalizeTextStripsRepeatedHeaders(t *testing.T) {
	pages := []string{
		"ACME APPAREL SS26\nSilk Blouse AB-101\n1",
		"ACME APPAREL SS26\nLinen Pant AB-202\n2",
		"ACME APPAREL SS26\nWool Coat AB-303\n3",
		"ACME APPAREL SS26\nKnit Dress AB-404\n4",
	}
	got := NormalizeText(pages)
	if strings.Contains(got, "ACME APPAREL") {
		t.Errorf("repeated header not stripped:\n%s", got)
	}
	for _, sku := range []string{"AB-101", "AB-202", "AB-303", "AB-404"} {
		if !strings.Contains(got, sku) {
			t.Errorf("content line %s lost", sku)
		}
	}
	if strings.Contains(got, "\n1\n") || strings.HasSuffix(got, "\n4") {
		t.Errorf("page numbers not stripped:\n%s", got)
	}
}

func TestNormalizeTextKeepsRepeatsOnShortDocuments(t *testing.T) {
	pages := []string{
		"ACME APPAREL\nSilk Blouse",
		"ACME APPAREL\nLinen Pant",
	}
	got := NormalizeText(pages)
	if !strings.Contains(got, "ACME APPAREL") {
		t.Errorf("two-page document should keep repeated lines:\n%s", got)
	}
}

func TestNormalizeTextEmpty(t *testing.T) {
	if got := NormalizeText(nil); got != "" {
		t.Errorf("NormalizeText(nil) = %q, want empty", got)
	}
}
