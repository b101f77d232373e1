package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
)

type fakeCompleter struct {
	fn    func(system, user, schemaName string, temperature float64) (map[string]interface{}, error)
	calls int
}

func (f *fakeCompleter) GenerateJSON(_ context.Context, system, user, schemaName string, _ map[string]interface{}, temperature float64) (map[string]interface{}, error) {
	f.calls++
	return f.fn(system, user, schemaName, temperature)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatal(err)
	}
	return log
}

func TestCategoryGeneratorParsesResponse(t *testing.T) {
	llm := &fakeCompleter{fn: func(_, user, _ string, temperature float64) (map[string]interface{}, error) {
		if temperature != 0.1 {
			t.Errorf("temperature = %v, want 0.1", temperature)
		}
		if !strings.Contains(user, "Outerwear AB-303") {
			t.Error("full document text not in prompt")
		}
		return map[string]interface{}{
			"categories": []interface{}{
				map[string]interface{}{
					"name": "Outerwear",
					"subcategories": []interface{}{
						map[string]interface{}{"name": "Coats"},
						map[string]interface{}{"name": "Jackets"},
					},
				},
			},
		}, nil
	}}

	g := NewCategoryGenerator(llm, testLogger(t))
	got := g.Generate(context.Background(), "Outerwear AB-303 Wool Coat")
	if len(got) != 1 || got[0].Name != "Outerwear" || len(got[0].Subcategories) != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestCategoryGeneratorFallbackOnError(t *testing.T) {
	llm := &fakeCompleter{fn: func(_, _, _ string, _ float64) (map[string]interface{}, error) {
		return nil, errors.New("rate limited")
	}}

	g := NewCategoryGenerator(llm, testLogger(t))
	got := g.Generate(context.Background(), "some text")
	want := FallbackCategories()
	if len(got) != len(want) || got[0].Name != "Tops" {
		t.Fatalf("got %+v, want fallback taxonomy", got)
	}
}

func TestCategoryGeneratorFallbackOnEmptyResponse(t *testing.T) {
	llm := &fakeCompleter{fn: func(_, _, _ string, _ float64) (map[string]interface{}, error) {
		return map[string]interface{}{"categories": []interface{}{}}, nil
	}}

	g := NewCategoryGenerator(llm, testLogger(t))
	if got := g.Generate(context.Background(), "x"); got[0].Name != "Tops" {
		t.Fatalf("got %+v, want fallback taxonomy", got)
	}
}

func TestCategoryPromptList(t *testing.T) {
	cats := []Category{
		{Name: "Tops", Subcategories: []Subcategory{{Name: "Shirts"}, {Name: "Knitwear"}}},
		{Name: "Accessories"},
	}
	got := CategoryPromptList(cats)
	want := "Tops: Shirts, Knitwear\nAccessories\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
