package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/parser"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/pipeline"
)

// ColumnMapping holds 0-based column indices into a purchase-order sheet.
// SKU is required; the rest are -1 when absent.
type ColumnMapping struct {
	SKU      int `json:"sku"`
	Color    int `json:"color"`
	Size     int `json:"size"`
	Quantity int `json:"quantity"`
}

const columnSystemPrompt = `You map purchase-order spreadsheet columns. ` +
	`Given the header row and sample rows, return the 0-based index of the ` +
	`column holding each field, or -1 when no column holds it. The SKU ` +
	`column is the one with style or article numbers.`

var columnSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"sku":      map[string]interface{}{"type": "integer"},
		"color":    map[string]interface{}{"type": "integer"},
		"size":     map[string]interface{}{"type": "integer"},
		"quantity": map[string]interface{}{"type": "integer"},
	},
	"required":             []string{"sku", "color", "size", "quantity"},
	"additionalProperties": false,
}

// IdentifyColumns asks the LLM to map the sheet's columns from its headers
// and up to 5 sample rows. An unidentifiable SKU column is a hard error.
func IdentifyColumns(ctx context.Context, llm pipeline.JSONCompleter, sheet parser.Sheet) (ColumnMapping, error) {
	samples := sheet.Rows
	if len(samples) > 5 {
		samples = samples[:5]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Headers: %s\n\nSample rows:\n", strings.Join(sheet.Headers, " | "))
	for _, row := range samples {
		fmt.Fprintf(&sb, "%s\n", strings.Join(row, " | "))
	}

	raw, err := llm.GenerateJSON(ctx, columnSystemPrompt, sb.String(), "column_mapping", columnSchema, 0)
	if err != nil {
		return ColumnMapping{}, fmt.Errorf("identify columns: %w", err)
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return ColumnMapping{}, err
	}
	var mapping ColumnMapping
	if err := json.Unmarshal(b, &mapping); err != nil {
		return ColumnMapping{}, fmt.Errorf("decode column mapping: %w", err)
	}

	if mapping.SKU < 0 || mapping.SKU >= len(sheet.Headers) {
		return ColumnMapping{}, fmt.Errorf("no SKU column identified in headers %v", sheet.Headers)
	}
	for _, idx := range []*int{&mapping.Color, &mapping.Size, &mapping.Quantity} {
		if *idx >= len(sheet.Headers) {
			*idx = -1
		}
	}
	return mapping, nil
}
