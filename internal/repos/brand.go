package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
)

type BrandRepo interface {
	Create(ctx context.Context, tx *gorm.DB, brands []*types.Brand) ([]*types.Brand, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Brand, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type brandRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrandRepo(db *gorm.DB, baseLog *logger.Logger) BrandRepo {
	return &brandRepo{db: db, log: baseLog.With("repo", "BrandRepo")}
}

func (r *brandRepo) Create(ctx context.Context, tx *gorm.DB, brands []*types.Brand) ([]*types.Brand, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(brands) == 0 {
		return []*types.Brand{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *brandRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Brand, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Brand
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *brandRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Brand{}).Error
}
