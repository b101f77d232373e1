package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	pdf "github.com/ledongthuc/pdf"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
)

// lineYTolerance groups glyphs into the same text line when their baselines
// are within this many points.
const lineYTolerance = 2.0

type PDFParser struct {
	log *logger.Logger
}

func NewPDFParser(log *logger.Logger) *PDFParser {
	return &PDFParser{log: log.With("parser", "PDFParser")}
}

func (p *PDFParser) ParsePDF(ctx context.Context, data []byte) (*ParsedDocument, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	doc := &ParsedDocument{}
	var pageTexts []string

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("page %d: plain text failed: %v", i, err))
		} else {
			pageTexts = append(pageTexts, text)
		}

		blocks := textBlocksFromPage(i, page)
		doc.TextBlocks = append(doc.TextBlocks, blocks...)

		images, warns := imagesFromPage(i, page)
		doc.Images = append(doc.Images, images...)
		doc.Warnings = append(doc.Warnings, warns...)
	}

	doc.Text = NormalizeText(pageTexts)

	if p.log != nil {
		p.log.Debug("Parsed PDF",
			"pages", r.NumPage(),
			"text_len", len(doc.Text),
			"text_blocks", len(doc.TextBlocks),
			"images", len(doc.Images),
			"warnings", len(doc.Warnings),
		)
	}
	return doc, nil
}

// textBlocksFromPage groups positioned glyph runs into per-line blocks.
func textBlocksFromPage(pageNum int, page pdf.Page) []TextBlock {
	content := page.Content()
	if len(content.Text) == 0 {
		return nil
	}

	texts := make([]pdf.Text, len(content.Text))
	copy(texts, content.Text)
	sort.SliceStable(texts, func(a, b int) bool {
		if math.Abs(texts[a].Y-texts[b].Y) > lineYTolerance {
			return texts[a].Y > texts[b].Y
		}
		return texts[a].X < texts[b].X
	})

	var blocks []TextBlock
	var line []pdf.Text
	flush := func() {
		if len(line) == 0 {
			return
		}
		blocks = append(blocks, blockFromLine(pageNum, line))
		line = nil
	}
	for _, t := range texts {
		if len(line) > 0 && math.Abs(t.Y-line[0].Y) > lineYTolerance {
			flush()
		}
		line = append(line, t)
	}
	flush()

	out := blocks[:0]
	for _, b := range blocks {
		if strings.TrimSpace(b.Text) != "" {
			out = append(out, b)
		}
	}
	return out
}

func blockFromLine(pageNum int, line []pdf.Text) TextBlock {
	var sb strings.Builder
	x0 := math.Inf(1)
	x1 := math.Inf(-1)
	y0 := math.Inf(1)
	y1 := math.Inf(-1)

	prevEnd := math.Inf(-1)
	for _, t := range line {
		// Insert a space on visible horizontal gaps between runs.
		if prevEnd > math.Inf(-1) && t.X-prevEnd > t.FontSize*0.3 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.S)
		prevEnd = t.X + t.W

		x0 = math.Min(x0, t.X)
		x1 = math.Max(x1, t.X+t.W)
		y0 = math.Min(y0, t.Y)
		y1 = math.Max(y1, t.Y+t.FontSize)
	}

	bbox := Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
	return TextBlock{
		PageNumber: pageNum,
		Text:       sb.String(),
		BBox:       bbox,
		Center:     bbox.Center(),
	}
}

// imagePlacement is one image draw recovered from the page content stream:
// a `cm` transform followed by an XObject `Do` names where the image lands.
type imagePlacement struct {
	name string
	bbox Rect
}

func imagesFromPage(pageNum int, page pdf.Page) ([]ExtractedImage, []string) {
	var warnings []string

	xobjects := page.V.Key("Resources").Key("XObject")
	if xobjects.Kind() != pdf.Dict {
		return nil, nil
	}

	placements := placementsFromContent(page)
	placementByName := map[string][]Rect{}
	for _, pl := range placements {
		placementByName[pl.name] = append(placementByName[pl.name], pl.bbox)
	}

	var images []ExtractedImage
	for _, name := range xobjects.Keys() {
		obj := xobjects.Key(name)
		if obj.Key("Subtype").Name() != "Image" {
			continue
		}
		width := float64(obj.Key("Width").Int64())
		height := float64(obj.Key("Height").Int64())
		format := imageFormat(obj)

		data, err := readImageStream(obj, format)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d image %s: %v", pageNum, name, err))
		}

		rects := placementByName[name]
		if len(rects) == 0 {
			// Not drawn on this page (unused resource); still useless for matching.
			continue
		}
		for _, bbox := range rects {
			images = append(images, ExtractedImage{
				PageNumber: pageNum,
				BBox:       bbox,
				Center:     bbox.Center(),
				Width:      width,
				Height:     height,
				Format:     format,
				SizeBytes:  len(data),
				Data:       data,
			})
		}
	}
	return images, warnings
}

func imageFormat(obj pdf.Value) string {
	filter := obj.Key("Filter")
	switch filter.Kind() {
	case pdf.Name:
		if filter.Name() == "DCTDecode" {
			return "jpeg"
		}
	case pdf.Array:
		for i := 0; i < filter.Len(); i++ {
			if filter.Index(i).Name() == "DCTDecode" {
				return "jpeg"
			}
		}
	}
	return ""
}

// readImageStream pulls the embedded image bytes. Non-JPEG encodings are
// skipped: PDF product photography is DCT-encoded in practice, and the
// matcher only needs geometry when bytes are unavailable.
func readImageStream(obj pdf.Value, format string) (data []byte, err error) {
	if format != "jpeg" {
		return nil, fmt.Errorf("unsupported image encoding")
	}
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("read image stream: %v", r)
		}
	}()
	data, err = io.ReadAll(obj.Reader())
	if err != nil {
		return nil, fmt.Errorf("read image stream: %w", err)
	}
	return data, nil
}

// placementsFromContent scans the content stream for
// `a b c d e f cm ... /Name Do` sequences and converts each draw's current
// transform into a page-space bounding box. Only the simple (untracked
// nesting) case is handled, which covers line-sheet layouts.
func placementsFromContent(page pdf.Page) []imagePlacement {
	raw := contentStreamBytes(page)
	if len(raw) == 0 {
		return nil
	}

	fields := strings.Fields(string(raw))
	var placements []imagePlacement
	var last [6]float64
	haveCM := false

	for i, f := range fields {
		switch f {
		case "cm":
			if i >= 6 {
				ok := true
				var m [6]float64
				for j := 0; j < 6; j++ {
					v, err := strconv.ParseFloat(fields[i-6+j], 64)
					if err != nil {
						ok = false
						break
					}
					m[j] = v
				}
				if ok {
					last = m
					haveCM = true
				}
			}
		case "Do":
			if !haveCM || i == 0 {
				continue
			}
			name := fields[i-1]
			if !strings.HasPrefix(name, "/") {
				continue
			}
			// Unit image square transformed by [a b c d e f]:
			// corners (e,f) and (a+c+e, b+d+f).
			x0, y0 := last[4], last[5]
			x1, y1 := last[0]+last[2]+last[4], last[1]+last[3]+last[5]
			bbox := Rect{
				X0: math.Min(x0, x1),
				Y0: math.Min(y0, y1),
				X1: math.Max(x0, x1),
				Y1: math.Max(y0, y1),
			}
			placements = append(placements, imagePlacement{
				name: strings.TrimPrefix(name, "/"),
				bbox: bbox,
			})
		}
	}
	return placements
}

func contentStreamBytes(page pdf.Page) []byte {
	defer func() { _ = recover() }()

	contents := page.V.Key("Contents")
	var out []byte
	appendStream := func(v pdf.Value) {
		if v.Kind() != pdf.Stream {
			return
		}
		b, err := io.ReadAll(v.Reader())
		if err == nil {
			out = append(out, b...)
			out = append(out, '\n')
		}
	}
	switch contents.Kind() {
	case pdf.Stream:
		appendStream(contents)
	case pdf.Array:
		for i := 0; i < contents.Len(); i++ {
			appendStream(contents.Index(i))
		}
	}
	return out
}
