package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
)

// JSONCompleter produces a schema-constrained JSON completion. Implemented
// by the OpenAI client; faked in tests.
type JSONCompleter interface {
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]interface{}, temperature float64) (map[string]interface{}, error)
}

type Subcategory struct {
	Name string `json:"name"`
}

type Category struct {
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// FallbackCategories is the taxonomy used when generation fails. Category
// generation must never block the rest of the pipeline.
func FallbackCategories() []Category {
	return []Category{
		{Name: "Tops", Subcategories: []Subcategory{{Name: "Shirts"}, {Name: "Blouses"}, {Name: "Knitwear"}}},
		{Name: "Bottoms", Subcategories: []Subcategory{{Name: "Pants"}, {Name: "Skirts"}, {Name: "Shorts"}}},
		{Name: "Dresses", Subcategories: []Subcategory{{Name: "Day Dresses"}, {Name: "Evening Dresses"}}},
	}
}

type CategoryGenerator struct {
	llm JSONCompleter
	log *logger.Logger
}

func NewCategoryGenerator(llm JSONCompleter, log *logger.Logger) *CategoryGenerator {
	return &CategoryGenerator{llm: llm, log: log.With("component", "CategoryGenerator")}
}

const categorySystemPrompt = `You are a fashion merchandising assistant. ` +
	`Given the full text of a brand line sheet, produce a category taxonomy ` +
	`for its products: 3 to 8 top-level categories, each with 2 to 6 ` +
	`subcategories. Prefer category labels that appear verbatim in the ` +
	`document; invent generic ones only where the document has none.`

var categorySchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"categories": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{"type": "string"},
					"subcategories": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"name": map[string]interface{}{"type": "string"},
							},
							"required":             []string{"name"},
							"additionalProperties": false,
						},
					},
				},
				"required":             []string{"name", "subcategories"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []string{"categories"},
	"additionalProperties": false,
}

// Generate runs one completion over the entire document text. On any
// failure it logs and returns the fallback taxonomy.
func (g *CategoryGenerator) Generate(ctx context.Context, fullText string) []Category {
	user := "Line sheet text:\n\n" + fullText
	raw, err := g.llm.GenerateJSON(ctx, categorySystemPrompt, user, "category_taxonomy", categorySchema, 0.1)
	if err != nil {
		g.log.Warn("Category generation failed, using fallback taxonomy", "error", err)
		return FallbackCategories()
	}

	cats, err := categoriesFromResponse(raw)
	if err != nil {
		g.log.Warn("Category response malformed, using fallback taxonomy", "error", err)
		return FallbackCategories()
	}
	g.log.Info("Generated categories", "count", len(cats))
	return cats
}

func categoriesFromResponse(raw map[string]interface{}) ([]Category, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Categories []Category `json:"categories"`
	}
	if err := json.Unmarshal(b, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Categories) == 0 {
		return nil, fmt.Errorf("no categories in response")
	}
	return parsed.Categories, nil
}

// CategoryPromptList renders the taxonomy the way the extraction prompt
// references it: one "Category: sub, sub" line per category.
func CategoryPromptList(cats []Category) string {
	var sb strings.Builder
	for _, c := range cats {
		sb.WriteString(c.Name)
		if len(c.Subcategories) > 0 {
			sb.WriteString(": ")
			for i, s := range c.Subcategories {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(s.Name)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
