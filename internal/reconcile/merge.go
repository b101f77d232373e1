package reconcile

import (
	"strings"

	"github.com/google/uuid"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/pipeline"
)

// CatalogEntry is one line-sheet product plus the document it came from.
type CatalogEntry struct {
	Product     pipeline.StructuredProduct
	LineSheetID uuid.UUID
}

// Catalog is the merged SKU lookup across all of a collection's line
// sheets.
type Catalog struct {
	bySKU        map[string]CatalogEntry
	LineSheetIDs []uuid.UUID
}

// MergeCatalog folds each line sheet's products into one SKU → product
// map. On SKU collision the earlier line sheet wins; collisions are
// logged, never fatal.
func MergeCatalog(sheets []SheetProducts, log *logger.Logger) *Catalog {
	c := &Catalog{bySKU: map[string]CatalogEntry{}}
	for _, sheet := range sheets {
		c.LineSheetIDs = append(c.LineSheetIDs, sheet.DocumentID)
		for _, p := range sheet.Products {
			key := skuKey(p.SKU)
			if key == "" {
				continue
			}
			if prior, exists := c.bySKU[key]; exists {
				log.Warn("Duplicate SKU across line sheets, keeping first",
					"sku", p.SKU,
					"kept_document_id", prior.LineSheetID,
					"dropped_document_id", sheet.DocumentID,
				)
				continue
			}
			c.bySKU[key] = CatalogEntry{Product: p, LineSheetID: sheet.DocumentID}
		}
	}
	return c
}

// SheetProducts is the extraction output of one line-sheet document.
type SheetProducts struct {
	DocumentID uuid.UUID
	Products   []pipeline.StructuredProduct
}

// Lookup resolves a full SKU, falling back to the base SKU.
func (c *Catalog) Lookup(sku, baseSKU string) (CatalogEntry, bool) {
	if e, ok := c.bySKU[skuKey(sku)]; ok {
		return e, true
	}
	if baseSKU != "" && baseSKU != sku {
		if e, ok := c.bySKU[skuKey(baseSKU)]; ok {
			return e, true
		}
	}
	return CatalogEntry{}, false
}

func (c *Catalog) Len() int {
	return len(c.bySKU)
}

func skuKey(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
