package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/parser"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/pipeline"
)

var (
	ErrNoPurchaseOrder = errors.New("no purchase order document found")
	ErrNoLineSheets    = errors.New("no line sheet documents found")
	ErrEmptyCatalog    = errors.New("no structured products found in line sheets")
	ErrCancelled       = errors.New("generation cancelled")
)

// cancelCheckEvery bounds how many rows are built between cancellation
// polls.
const cancelCheckEvery = 25

// PurchaseOrderLine is one parsed PO row.
type PurchaseOrderLine struct {
	SKU       string
	BaseSKU   string
	Color     string
	ColorCode string
	Sizes     map[string]int
	Quantity  int
}

// SourceDocuments records provenance on a final item.
type SourceDocuments struct {
	PurchaseOrderID    uuid.UUID   `json:"purchase_order_id"`
	LineSheetIDs       []uuid.UUID `json:"line_sheet_ids"`
	MatchedLineSheetID *uuid.UUID  `json:"matched_line_sheet_id"`
}

// Item is the sellable record produced by reconciliation: PO order data
// joined with catalog data when a SKU match exists.
type Item struct {
	SKU             string
	BaseSKU         string
	ColorName       string
	ColorCode       string
	ProductName     string
	Category        string
	Subcategory     string
	Sizes           map[string]int
	Quantity        int
	WholesalePrice  *float64
	RRP             *float64
	Currency        string
	Origin          string
	Materials       []string
	Images          []string
	ContentHash     string
	Enriched        bool
	ManualReview    bool
	SourceDocuments SourceDocuments
}

type Stats struct {
	ItemsCreated int `json:"items_created"`
	ItemsSkipped int `json:"items_skipped"`
	RowsSkipped  int `json:"rows_skipped"`
}

type Result struct {
	Items []Item
	Stats Stats
}

// Source supplies the documents being reconciled.
type Source interface {
	// PurchaseOrder returns the collection's PO sheet. ErrNoPurchaseOrder
	// when none exists; when several exist the first by creation order is
	// used.
	PurchaseOrder(ctx context.Context) (uuid.UUID, parser.Sheet, error)
	// LineSheets returns every line-sheet document's extracted products,
	// in creation order. ErrNoLineSheets when none exist.
	LineSheets(ctx context.Context) ([]SheetProducts, error)
}

// ItemStore persists final items with hash-based duplicate suppression.
type ItemStore interface {
	ExistsByHash(ctx context.Context, contentHash string) (bool, error)
	Insert(ctx context.Context, item Item) error
	// DeleteCreated removes every item inserted by this run, for
	// cancellation cleanup.
	DeleteCreated(ctx context.Context) error
}

// CancelCheck polls the out-of-band cancellation flag. Checks happen
// between steps and periodically between rows; an in-flight LLM call
// completes before the flag is observed.
type CancelCheck func(ctx context.Context) (bool, error)

// Engine runs purchase-order reconciliation for one collection. Unlike
// document extraction, every step is load-bearing: any failure aborts the
// whole run.
type Engine struct {
	llm pipeline.JSONCompleter
	log *logger.Logger
}

func NewEngine(llm pipeline.JSONCompleter, log *logger.Logger) *Engine {
	return &Engine{llm: llm, log: log.With("component", "ReconcileEngine")}
}

func (e *Engine) Run(ctx context.Context, source Source, store ItemStore, cancelled CancelCheck) (*Result, error) {
	poID, sheet, err := source.PurchaseOrder(ctx)
	if err != nil {
		return nil, err
	}

	mapping, err := IdentifyColumns(ctx, e.llm, sheet)
	if err != nil {
		return nil, err
	}
	e.log.Debug("Identified purchase order columns",
		"sku", mapping.SKU, "color", mapping.Color, "size", mapping.Size, "quantity", mapping.Quantity,
	)

	if err := e.checkCancelled(ctx, store, cancelled); err != nil {
		return nil, err
	}

	lines, rowsSkipped := e.parseRows(sheet, mapping)
	if len(lines) == 0 {
		return nil, fmt.Errorf("purchase order has no usable rows (%d skipped)", rowsSkipped)
	}

	sheets, err := source.LineSheets(ctx)
	if err != nil {
		return nil, err
	}
	catalog := MergeCatalog(sheets, e.log)
	if catalog.Len() == 0 {
		return nil, ErrEmptyCatalog
	}

	if err := e.checkCancelled(ctx, store, cancelled); err != nil {
		return nil, err
	}

	result := &Result{Stats: Stats{RowsSkipped: rowsSkipped}}
	for i, line := range lines {
		if i%cancelCheckEvery == 0 {
			if err := e.checkCancelled(ctx, store, cancelled); err != nil {
				return nil, err
			}
		}

		item := e.buildItem(line, catalog, poID)
		exists, err := store.ExistsByHash(ctx, item.ContentHash)
		if err != nil {
			return nil, fmt.Errorf("check item hash: %w", err)
		}
		if exists {
			result.Stats.ItemsSkipped++
			continue
		}
		if err := store.Insert(ctx, item); err != nil {
			return nil, fmt.Errorf("insert item %s: %w", item.SKU, err)
		}
		result.Stats.ItemsCreated++
		result.Items = append(result.Items, item)
	}

	e.log.Info("Reconciliation complete",
		"items_created", result.Stats.ItemsCreated,
		"items_skipped", result.Stats.ItemsSkipped,
		"rows_skipped", result.Stats.RowsSkipped,
	)
	return result, nil
}

func (e *Engine) checkCancelled(ctx context.Context, store ItemStore, cancelled CancelCheck) error {
	if cancelled == nil {
		return ctx.Err()
	}
	stop, err := cancelled(ctx)
	if err != nil {
		return fmt.Errorf("poll cancellation: %w", err)
	}
	if !stop {
		return nil
	}
	if err := store.DeleteCreated(ctx); err != nil {
		e.log.Error("Cleanup after cancellation failed", "error", err)
		return fmt.Errorf("%w (cleanup failed: %v)", ErrCancelled, err)
	}
	return ErrCancelled
}

func (e *Engine) parseRows(sheet parser.Sheet, mapping ColumnMapping) ([]PurchaseOrderLine, int) {
	var lines []PurchaseOrderLine
	skipped := 0
	for i, row := range sheet.Rows {
		sku := cell(row, mapping.SKU)
		if sku == "" {
			e.log.Warn("Skipping purchase order row without SKU", "row", i+1)
			skipped++
			continue
		}
		base, colorCode := SplitSKU(sku)
		quantity := parseQuantity(cell(row, mapping.Quantity))
		lines = append(lines, PurchaseOrderLine{
			SKU:       sku,
			BaseSKU:   base,
			Color:     cell(row, mapping.Color),
			ColorCode: colorCode,
			Sizes:     ParseSizes(cell(row, mapping.Size), quantity),
			Quantity:  quantity,
		})
	}
	return lines, skipped
}

func (e *Engine) buildItem(line PurchaseOrderLine, catalog *Catalog, poID uuid.UUID) Item {
	item := Item{
		SKU:          line.SKU,
		BaseSKU:      line.BaseSKU,
		ColorName:    line.Color,
		ColorCode:    line.ColorCode,
		Sizes:        line.Sizes,
		Quantity:     line.Quantity,
		ContentHash:  ContentHash(line.SKU, line.ColorCode),
		ManualReview: true,
		SourceDocuments: SourceDocuments{
			PurchaseOrderID: poID,
			LineSheetIDs:    catalog.LineSheetIDs,
		},
	}

	entry, ok := catalog.Lookup(line.SKU, line.BaseSKU)
	if !ok {
		e.log.Warn("No catalog match for purchase order SKU, flagging for review", "sku", line.SKU)
		return item
	}

	p := entry.Product
	item.Enriched = true
	item.ManualReview = false
	item.ProductName = p.ProductName
	item.Category = p.Category
	item.Subcategory = p.Subcategory
	item.WholesalePrice = p.WholesalePrice
	item.RRP = p.RRP
	item.Currency = p.Currency
	item.Origin = p.Origin
	item.Materials = p.Materials
	item.Images = p.Images
	matched := entry.LineSheetID
	item.SourceDocuments.MatchedLineSheetID = &matched

	if item.ColorName == "" {
		if c, ok := colorForCode(p.Colors, line.ColorCode); ok {
			item.ColorName = c
		}
	}
	return item
}

func colorForCode(colors []pipeline.ProductColor, code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range colors {
		if strings.ToUpper(strings.TrimSpace(c.ColorCode)) == code {
			return c.ColorName, true
		}
	}
	return "", false
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f)
	}
	return 0
}
