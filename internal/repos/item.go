package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
)

type ItemRepo interface {
	Create(ctx context.Context, tx *gorm.DB, items []*types.Item) ([]*types.Item, error)
	GetByCollectionID(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID) ([]*types.Item, error)
	GetByContentHash(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID, contentHash string) (*types.Item, error)
	FullDeleteByGenerationRunID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (int64, error)
}

type itemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItemRepo(db *gorm.DB, baseLog *logger.Logger) ItemRepo {
	return &itemRepo{db: db, log: baseLog.With("repo", "ItemRepo")}
}

func (r *itemRepo) Create(ctx context.Context, tx *gorm.DB, items []*types.Item) ([]*types.Item, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(items) == 0 {
		return []*types.Item{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepo) GetByCollectionID(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID) ([]*types.Item, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Item
	if collectionID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *itemRepo) GetByContentHash(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID, contentHash string) (*types.Item, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if collectionID == uuid.Nil || contentHash == "" {
		return nil, nil
	}
	var item types.Item
	err := transaction.WithContext(ctx).
		Where("collection_id = ? AND content_hash = ?", collectionID, contentHash).
		First(&item).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FullDeleteByGenerationRunID hard-deletes items created by one generation
// run. Used by cancellation cleanup so an aborted run leaves no half set.
func (r *itemRepo) FullDeleteByGenerationRunID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if runID == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(ctx).
		Unscoped().
		Where("generation_run_id = ?", runID).
		Delete(&types.Item{})
	return res.RowsAffected, res.Error
}
