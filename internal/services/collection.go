package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/pipeline"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/repos"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
)

type CollectionService interface {
	Create(ctx context.Context, brandID uuid.UUID, name, season string) (*types.Collection, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Collection, error)
	ListByBrand(ctx context.Context, brandID uuid.UUID) ([]*types.Collection, error)
	Categories(ctx context.Context, id uuid.UUID) ([]pipeline.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type collectionService struct {
	log            *logger.Logger
	collectionRepo repos.CollectionRepo
}

func NewCollectionService(log *logger.Logger, collectionRepo repos.CollectionRepo) CollectionService {
	return &collectionService{
		log:            log.With("service", "CollectionService"),
		collectionRepo: collectionRepo,
	}
}

func (s *collectionService) Create(ctx context.Context, brandID uuid.UUID, name, season string) (*types.Collection, error) {
	if name == "" {
		return nil, fmt.Errorf("collection name required")
	}
	collections, err := s.collectionRepo.Create(ctx, nil, []*types.Collection{{
		ID:      uuid.New(),
		BrandID: brandID,
		Name:    name,
		Season:  season,
		Status:  types.CollectionStatusActive,
	}})
	if err != nil {
		return nil, err
	}
	s.log.Info("Created collection", "collection_id", collections[0].ID, "brand_id", brandID)
	return collections[0], nil
}

func (s *collectionService) Get(ctx context.Context, id uuid.UUID) (*types.Collection, error) {
	collections, err := s.collectionRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(collections) == 0 {
		return nil, ErrNotFound
	}
	return collections[0], nil
}

func (s *collectionService) ListByBrand(ctx context.Context, brandID uuid.UUID) ([]*types.Collection, error) {
	return s.collectionRepo.GetByBrandID(ctx, nil, brandID)
}

func (s *collectionService) Categories(ctx context.Context, id uuid.UUID) ([]pipeline.Category, error) {
	collection, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(collection.Categories) == 0 {
		return nil, nil
	}
	var categories []pipeline.Category
	if err := json.Unmarshal(collection.Categories, &categories); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return categories, nil
}

func (s *collectionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.collectionRepo.SoftDeleteByIDs(ctx, nil, []uuid.UUID{id})
}
