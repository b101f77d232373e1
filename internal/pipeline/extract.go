package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/parser"
)

// Store persists extraction output on the owning document. Writes are
// wholesale overwrites of single fields, never incremental patches.
type Store interface {
	SaveCategories(ctx context.Context, categories []Category) error
	SaveProducts(ctx context.Context, products []StructuredProduct) error
}

// ImageUploader pushes extracted image bytes to object storage and
// returns one URL per input image, empty string where an upload failed.
type ImageUploader interface {
	UploadAll(ctx context.Context, images []parser.ExtractedImage) ([]string, error)
}

type ExtractorConfig struct {
	ChunkSize    int
	ChunkOverlap int
	MinImageSize float64
}

func (c ExtractorConfig) withDefaults() ExtractorConfig {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap <= 0 {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.MinImageSize <= 0 {
		c.MinImageSize = DefaultMinImageSize
	}
	return c
}

// Extractor runs the chunk/extract/dedupe/match pipeline for one parsed
// line sheet. One Extractor is safe for concurrent runs; all per-run state
// lives on the stack.
type Extractor struct {
	llm        JSONCompleter
	categories *CategoryGenerator
	store      Store
	uploader   ImageUploader
	cfg        ExtractorConfig
	log        *logger.Logger
}

func NewExtractor(llm JSONCompleter, categories *CategoryGenerator, store Store, uploader ImageUploader, cfg ExtractorConfig, log *logger.Logger) *Extractor {
	return &Extractor{
		llm:        llm,
		categories: categories,
		store:      store,
		uploader:   uploader,
		cfg:        cfg.withDefaults(),
		log:        log.With("component", "Extractor"),
	}
}

// Run extracts structured products from a parsed document. Partial results
// are persisted after every chunk so a poller sees them mid-run. A single
// chunk failing contributes zero products; any other failure aborts.
func (e *Extractor) Run(ctx context.Context, doc *parser.ParsedDocument, tracker *Tracker) ([]StructuredProduct, []Category, error) {
	tracker.Emit(Progress{Phase: PhaseExtractingImages, Message: fmt.Sprintf("Found %d embedded images", len(doc.Images))})
	tracker.Emit(Progress{Phase: PhaseExtractingTextPositions, Message: fmt.Sprintf("Located %d text blocks", len(doc.TextBlocks))})

	tracker.Emit(Progress{Phase: PhaseFilteringImages, Message: "Filtering product images"})
	candidates := FilterImages(doc.Images, e.cfg.MinImageSize)

	tracker.Emit(Progress{Phase: PhaseGeneratingCategories, Message: "Generating category taxonomy"})
	categories := e.categories.Generate(ctx, doc.Text)
	if err := e.store.SaveCategories(ctx, categories); err != nil {
		return nil, nil, fmt.Errorf("save categories: %w", err)
	}

	chunks := SplitText(doc.Text, e.cfg.ChunkSize, e.cfg.ChunkOverlap)
	var accumulated []StructuredProduct
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		products, err := e.extractChunk(ctx, chunk, categories)
		if err != nil {
			e.log.Warn("Chunk extraction failed, skipping",
				"chunk", chunk.Index,
				"total_chunks", len(chunks),
				"error", err,
			)
		} else {
			accumulated = append(accumulated, products...)
		}

		if err := e.store.SaveProducts(ctx, accumulated); err != nil {
			return nil, nil, fmt.Errorf("save products after chunk %d: %w", chunk.Index, err)
		}
		tracker.Emit(Progress{
			Phase:         PhaseExtractingProducts,
			Message:       fmt.Sprintf("Extracted chunk %d of %d", chunk.Index+1, len(chunks)),
			CurrentChunk:  chunk.Index + 1,
			TotalChunks:   len(chunks),
			ProductsSoFar: len(accumulated),
		})
	}

	final := DedupeProducts(accumulated)

	tracker.Emit(Progress{Phase: PhaseMatchingImages, Message: "Matching product images"})
	matched, err := e.matchImages(ctx, final, doc.TextBlocks, candidates)
	if err != nil {
		e.log.Warn("Image matching failed, keeping products without images", "error", err)
	} else {
		final = matched
	}

	if err := e.store.SaveProducts(ctx, final); err != nil {
		return nil, nil, fmt.Errorf("save final products: %w", err)
	}

	e.log.Info("Extraction complete",
		"chunks", len(chunks),
		"products", len(final),
		"candidate_images", len(candidates),
	)
	return final, categories, nil
}

// matchImages pairs products with candidates first, then uploads only the
// candidates that matched. Unmatched candidates never reach storage.
func (e *Extractor) matchImages(ctx context.Context, products []StructuredProduct, blocks []parser.TextBlock, candidates []parser.ExtractedImage) ([]StructuredProduct, error) {
	if len(candidates) == 0 || len(blocks) == 0 {
		return products, nil
	}
	matches := MatchImages(products, blocks, candidates)
	if len(matches) == 0 {
		return products, nil
	}

	seen := make(map[int]bool)
	var order []int
	for _, ci := range matches {
		if !seen[ci] {
			seen[ci] = true
			order = append(order, ci)
		}
	}
	sort.Ints(order)

	toUpload := make([]parser.ExtractedImage, len(order))
	urlIdx := make(map[int]int, len(order))
	for pos, ci := range order {
		toUpload[pos] = candidates[ci]
		urlIdx[ci] = pos
	}

	urls, err := e.uploader.UploadAll(ctx, toUpload)
	if err != nil {
		return nil, fmt.Errorf("upload matched images: %w", err)
	}

	out := make([]StructuredProduct, len(products))
	copy(out, products)
	for pi, ci := range matches {
		if url := urls[urlIdx[ci]]; url != "" {
			out[pi].Images = []string{url}
		}
	}
	return out, nil
}

const extractionSystemPrompt = `You extract structured product data from ` +
	`fashion line sheets. Return every distinct product in the given text ` +
	`exactly once. Use null for fields the text does not state. Assign each ` +
	`product a category and subcategory from the provided taxonomy.`

var extractionSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"products": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sku":          map[string]interface{}{"type": "string"},
					"product_name": map[string]interface{}{"type": "string"},
					"category":     map[string]interface{}{"type": "string"},
					"subcategory":  map[string]interface{}{"type": "string"},
					"colors": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"color_name": map[string]interface{}{"type": "string"},
								"color_code": map[string]interface{}{"type": "string"},
							},
							"required":             []string{"color_name", "color_code"},
							"additionalProperties": false,
						},
					},
					"wholesale_price": map[string]interface{}{"type": []string{"number", "null"}},
					"rrp":             map[string]interface{}{"type": []string{"number", "null"}},
					"currency":        map[string]interface{}{"type": "string"},
					"origin":          map[string]interface{}{"type": "string"},
					"materials": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "string"},
					},
				},
				"required": []string{
					"sku", "product_name", "category", "subcategory", "colors",
					"wholesale_price", "rrp", "currency", "origin", "materials",
				},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"products"},
	"additionalProperties": false,
}

func (e *Extractor) extractChunk(ctx context.Context, chunk Chunk, categories []Category) ([]StructuredProduct, error) {
	user := fmt.Sprintf("Category taxonomy:\n%s\nLine sheet text:\n\n%s", CategoryPromptList(categories), chunk.Text)
	raw, err := e.llm.GenerateJSON(ctx, extractionSystemPrompt, user, "product_extraction", extractionSchema, 0)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Products []StructuredProduct `json:"products"`
	}
	if err := json.Unmarshal(b, &parsed); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return parsed.Products, nil
}
