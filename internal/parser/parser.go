package parser

import (
	"context"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
)

// Point is a page coordinate in PDF user space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned bounding box (x0,y0 lower-left, x1,y1 upper-right).
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

func (r Rect) Center() Point {
	return Point{X: (r.X0 + r.X1) / 2, Y: (r.Y0 + r.Y1) / 2}
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// TextBlock is one positioned line of text on a PDF page. Blocks exist only
// for the duration of a parse; they feed image matching and are never
// persisted.
type TextBlock struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	BBox       Rect   `json:"bbox"`
	Center     Point  `json:"center"`
}

// ExtractedImage is an embedded image found on a PDF page, with its placement
// on the page and the raw bytes. Only images matched to a product are ever
// uploaded; the rest are discarded after matching.
type ExtractedImage struct {
	PageNumber int     `json:"page_number"`
	BBox       Rect    `json:"bbox"`
	Center     Point   `json:"center"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Format     string  `json:"format"`
	SizeBytes  int     `json:"size_bytes"`
	Data       []byte  `json:"-"`
}

// ParsedDocument is the full output of a PDF parse: normalized plain text
// plus the spatial artifacts used for image matching.
type ParsedDocument struct {
	Text       string
	TextBlocks []TextBlock
	Images     []ExtractedImage
	Warnings   []string
}

type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

type ParsedWorkbook struct {
	Sheets []Sheet
}

// DocumentParser turns raw uploaded bytes into the pipeline's inputs.
type DocumentParser interface {
	ParsePDF(ctx context.Context, data []byte) (*ParsedDocument, error)
	ParseSpreadsheet(ctx context.Context, data []byte) (*ParsedWorkbook, error)
}

type documentParser struct {
	pdf  *PDFParser
	xlsx *XLSXParser
}

// NewDocumentParser wires the production PDF and workbook parsers behind
// the DocumentParser seam.
func NewDocumentParser(log *logger.Logger) DocumentParser {
	return &documentParser{pdf: NewPDFParser(log), xlsx: NewXLSXParser(log)}
}

func (p *documentParser) ParsePDF(ctx context.Context, data []byte) (*ParsedDocument, error) {
	return p.pdf.ParsePDF(ctx, data)
}

func (p *documentParser) ParseSpreadsheet(ctx context.Context, data []byte) (*ParsedWorkbook, error) {
	return p.xlsx.ParseSpreadsheet(ctx, data)
}
