package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
)

type XLSXParser struct {
	log *logger.Logger
}

func NewXLSXParser(log *logger.Logger) *XLSXParser {
	return &XLSXParser{log: log.With("parser", "XLSXParser")}
}

func (p *XLSXParser) ParseSpreadsheet(ctx context.Context, data []byte) (*ParsedWorkbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	wb := &ParsedWorkbook{}
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheet := sheetFromRows(name, rows)
		if sheet != nil {
			wb.Sheets = append(wb.Sheets, *sheet)
		}
	}

	if p.log != nil {
		p.log.Debug("Parsed workbook", "sheets", len(wb.Sheets))
	}
	return wb, nil
}

// sheetFromRows takes the first non-empty row as the header and trims fully
// empty trailing cells and rows. Returns nil for sheets with no data rows.
func sheetFromRows(name string, rows [][]string) *Sheet {
	headerIdx := -1
	for i, row := range rows {
		if !rowEmpty(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil
	}

	headers := make([]string, len(rows[headerIdx]))
	for i, h := range rows[headerIdx] {
		headers[i] = strings.TrimSpace(h)
	}

	var dataRows [][]string
	for _, row := range rows[headerIdx+1:] {
		if rowEmpty(row) {
			continue
		}
		trimmed := make([]string, len(headers))
		for i := range headers {
			if i < len(row) {
				trimmed[i] = strings.TrimSpace(row[i])
			}
		}
		dataRows = append(dataRows, trimmed)
	}
	if len(dataRows) == 0 {
		return nil
	}

	return &Sheet{Name: name, Headers: headers, Rows: dataRows}
}

func rowEmpty(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
