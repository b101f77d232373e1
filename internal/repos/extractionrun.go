package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
)

type ExtractionRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, runs []*types.ExtractionRun) ([]*types.ExtractionRun, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ExtractionRun, error)
	GetLatestByCollectionID(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID, kind string) (*types.ExtractionRun, error)
	GetLatestByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) (*types.ExtractionRun, error)
	HasActiveForTarget(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID, documentID *uuid.UUID, kind string) (bool, error)
	ClaimNextRunnable(ctx context.Context, tx *gorm.DB, maxAttempts int, retryDelay time.Duration, staleRunning time.Duration) (*types.ExtractionRun, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	IsCancelRequested(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	RequestCancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type extractionRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewExtractionRunRepo(db *gorm.DB, baseLog *logger.Logger) ExtractionRunRepo {
	return &extractionRunRepo{db: db, log: baseLog.With("repo", "ExtractionRunRepo")}
}

func (r *extractionRunRepo) Create(ctx context.Context, tx *gorm.DB, runs []*types.ExtractionRun) ([]*types.ExtractionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(runs) == 0 {
		return []*types.ExtractionRun{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *extractionRunRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.ExtractionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ExtractionRun
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

func (r *extractionRunRepo) GetLatestByCollectionID(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID, kind string) (*types.ExtractionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if collectionID == uuid.Nil {
		return nil, nil
	}
	q := transaction.WithContext(ctx).Where("collection_id = ?", collectionID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var run types.ExtractionRun
	err := q.Order("created_at DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *extractionRunRepo) GetLatestByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) (*types.ExtractionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if documentID == uuid.Nil {
		return nil, nil
	}
	var run types.ExtractionRun
	err := transaction.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *extractionRunRepo) HasActiveForTarget(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID, documentID *uuid.UUID, kind string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).
		Model(&types.ExtractionRun{}).
		Where("collection_id = ? AND kind = ? AND status IN ?", collectionID, kind, []string{types.RunStatusQueued, types.RunStatusRunning})
	if documentID != nil {
		q = q.Where("document_id = ?", *documentID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *extractionRunRepo) ClaimNextRunnable(
	ctx context.Context,
	tx *gorm.DB,
	maxAttempts int,
	retryDelay time.Duration,
	staleRunning time.Duration,
) (*types.ExtractionRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	now := time.Now()
	retryCutoff := now.Add(-retryDelay)
	staleCutoff := now.Add(-staleRunning)

	var claimed *types.ExtractionRun

	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var run types.ExtractionRun

		q := txx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(`
        (
          status = ?
          OR (
            status = ?
            AND attempts < ?
            AND (last_error_at IS NULL OR last_error_at < ?)
          )
          OR (
            status = ?
            AND heartbeat_at IS NOT NULL
            AND heartbeat_at < ?
          )
        )
      `, types.RunStatusQueued, types.RunStatusFailed, maxAttempts, retryCutoff, types.RunStatusRunning, staleCutoff).
			Order("created_at ASC")

		qErr := q.First(&run).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}

		uErr := txx.Model(&types.ExtractionRun{}).
			Where("id = ?", run.ID).
			Updates(map[string]interface{}{
				"status":       types.RunStatusRunning,
				"attempts":     gorm.Expr("attempts + 1"),
				"locked_at":    now,
				"heartbeat_at": now,
				"updated_at":   now,
			}).Error
		if uErr != nil {
			return uErr
		}

		claimed = &run
		return nil
	})

	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *extractionRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.ExtractionRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *extractionRunRepo) Heartbeat(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.UpdateFields(ctx, tx, id, map[string]interface{}{
		"heartbeat_at": time.Now(),
	})
}

func (r *extractionRunRepo) IsCancelRequested(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	var run types.ExtractionRun
	err := transaction.WithContext(ctx).
		Select("cancel_requested").
		Where("id = ?", id).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return run.CancelRequested, nil
}

func (r *extractionRunRepo) RequestCancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.UpdateFields(ctx, tx, id, map[string]interface{}{
		"cancel_requested": true,
		"updated_at":       time.Now(),
	})
}
