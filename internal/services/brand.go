package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/repos"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
)

type BrandService interface {
	Create(ctx context.Context, name string) (*types.Brand, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Brand, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type brandService struct {
	log       *logger.Logger
	brandRepo repos.BrandRepo
}

func NewBrandService(log *logger.Logger, brandRepo repos.BrandRepo) BrandService {
	return &brandService{
		log:       log.With("service", "BrandService"),
		brandRepo: brandRepo,
	}
}

func (s *brandService) Create(ctx context.Context, name string) (*types.Brand, error) {
	if name == "" {
		return nil, fmt.Errorf("brand name required")
	}
	brands, err := s.brandRepo.Create(ctx, nil, []*types.Brand{{ID: uuid.New(), Name: name}})
	if err != nil {
		return nil, err
	}
	s.log.Info("Created brand", "brand_id", brands[0].ID, "name", name)
	return brands[0], nil
}

func (s *brandService) Get(ctx context.Context, id uuid.UUID) (*types.Brand, error) {
	brands, err := s.brandRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(brands) == 0 {
		return nil, ErrNotFound
	}
	return brands[0], nil
}

func (s *brandService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.brandRepo.SoftDeleteByIDs(ctx, nil, []uuid.UUID{id})
}
