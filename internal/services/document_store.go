package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/pipeline"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/repos"
)

// documentExtractionStore implements pipeline.Store for one document.
// Products land on the document row, categories on the parent collection,
// each as a wholesale JSONB overwrite.
type documentExtractionStore struct {
	documentRepo   repos.DocumentRepo
	collectionRepo repos.CollectionRepo
	collectionID   uuid.UUID
	documentID     uuid.UUID
}

func (s *documentExtractionStore) SaveProducts(ctx context.Context, products []pipeline.StructuredProduct) error {
	if products == nil {
		products = []pipeline.StructuredProduct{}
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode products: %w", err)
	}
	return s.documentRepo.UpdateFields(ctx, nil, s.documentID, map[string]interface{}{
		"structured_products": datatypes.JSON(raw),
	})
}

func (s *documentExtractionStore) SaveCategories(ctx context.Context, categories []pipeline.Category) error {
	raw, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	return s.collectionRepo.UpdateFields(ctx, nil, s.collectionID, map[string]interface{}{
		"categories": datatypes.JSON(raw),
	})
}
