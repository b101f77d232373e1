package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
)

type CollectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, collections []*types.Collection) ([]*types.Collection, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Collection, error)
	GetByBrandID(ctx context.Context, tx *gorm.DB, brandID uuid.UUID) ([]*types.Collection, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	// SetStatusIf flips status only when the current value matches expected.
	// Returns false without error when another writer got there first; the
	// processing guard on item generation is built on this.
	SetStatusIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected, next string) (bool, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type collectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollectionRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRepo {
	return &collectionRepo{db: db, log: baseLog.With("repo", "CollectionRepo")}
}

func (r *collectionRepo) Create(ctx context.Context, tx *gorm.DB, collections []*types.Collection) ([]*types.Collection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(collections) == 0 {
		return []*types.Collection{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}

func (r *collectionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Collection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Collection
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

func (r *collectionRepo) GetByBrandID(ctx context.Context, tx *gorm.DB, brandID uuid.UUID) ([]*types.Collection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Collection
	if brandID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *collectionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Collection{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *collectionRepo) SetStatusIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, expected, next string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, errors.New("missing collection id")
	}
	res := transaction.WithContext(ctx).
		Model(&types.Collection{}).
		Where("id = ? AND status = ?", id, expected).
		Update("status", next)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *collectionRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Collection{}).Error
}
