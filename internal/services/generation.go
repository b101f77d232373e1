package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/clients/gcp"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/clients/redis"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/parser"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/pipeline"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/reconcile"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/repos"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/utils"
)

const (
	defaultWorkerCount = 2
	workerPollInterval = 2 * time.Second
	heartbeatInterval  = 15 * time.Second
	runMaxAttempts     = 3
	runRetryDelay      = 30 * time.Second
	runStaleRunning    = 5 * time.Minute
)

type GenerationService interface {
	// EnqueueGeneration queues an item-generation run for the collection.
	// ErrConflict when one is already queued or running.
	EnqueueGeneration(ctx context.Context, brandID, collectionID uuid.UUID) (*types.ExtractionRun, error)
	// Cancel flags the collection's active generation run. Cancellation is
	// cooperative: the engine observes the flag between steps.
	Cancel(ctx context.Context, collectionID uuid.UUID) (*types.ExtractionRun, error)
	Status(ctx context.Context, collectionID uuid.UUID) (*types.ExtractionRun, error)
	Items(ctx context.Context, collectionID uuid.UUID) ([]*types.Item, error)

	// StartWorkers launches the background pool. Workers drain both run
	// kinds until ctx is cancelled; Wait blocks until they exit.
	StartWorkers(ctx context.Context)
	Wait()
}

type generationService struct {
	log            *logger.Logger
	runRepo        repos.ExtractionRunRepo
	collectionRepo repos.CollectionRepo
	documentRepo   repos.DocumentRepo
	itemRepo       repos.ItemRepo
	bucket         gcp.BucketService
	bus            redis.ProgressBus
	docParser      parser.DocumentParser
	llm            OpenAIClient
	documents      DocumentService

	workerCount int
	wg          sync.WaitGroup
}

func NewGenerationService(
	log *logger.Logger,
	runRepo repos.ExtractionRunRepo,
	collectionRepo repos.CollectionRepo,
	documentRepo repos.DocumentRepo,
	itemRepo repos.ItemRepo,
	bucket gcp.BucketService,
	bus redis.ProgressBus,
	docParser parser.DocumentParser,
	llm OpenAIClient,
	documents DocumentService,
) GenerationService {
	return &generationService{
		log:            log.With("service", "GenerationService"),
		runRepo:        runRepo,
		collectionRepo: collectionRepo,
		documentRepo:   documentRepo,
		itemRepo:       itemRepo,
		bucket:         bucket,
		bus:            bus,
		docParser:      docParser,
		llm:            llm,
		documents:      documents,
		workerCount:    utils.GetEnvAsInt("GENERATION_WORKERS", defaultWorkerCount, nil),
	}
}

func (s *generationService) EnqueueGeneration(ctx context.Context, brandID, collectionID uuid.UUID) (*types.ExtractionRun, error) {
	active, err := s.runRepo.HasActiveForTarget(ctx, nil, collectionID, nil, types.RunKindItemGeneration)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrConflict
	}

	flipped, err := s.collectionRepo.SetStatusIf(ctx, nil, collectionID, types.CollectionStatusActive, types.CollectionStatusGenerating)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, ErrConflict
	}

	runs, err := s.runRepo.Create(ctx, nil, []*types.ExtractionRun{{
		ID:           uuid.New(),
		BrandID:      brandID,
		CollectionID: collectionID,
		Kind:         types.RunKindItemGeneration,
		Status:       types.RunStatusQueued,
		Stage:        "queued",
	}})
	if err != nil {
		// Release the guard so the collection is not stuck in generating.
		_, _ = s.collectionRepo.SetStatusIf(ctx, nil, collectionID, types.CollectionStatusGenerating, types.CollectionStatusActive)
		return nil, err
	}

	s.log.Info("Enqueued item generation", "run_id", runs[0].ID, "collection_id", collectionID)
	return runs[0], nil
}

func (s *generationService) Cancel(ctx context.Context, collectionID uuid.UUID) (*types.ExtractionRun, error) {
	run, err := s.runRepo.GetLatestByCollectionID(ctx, nil, collectionID, types.RunKindItemGeneration)
	if err != nil {
		return nil, err
	}
	if run == nil || (run.Status != types.RunStatusQueued && run.Status != types.RunStatusRunning) {
		return nil, ErrNotFound
	}

	if err := s.runRepo.RequestCancel(ctx, nil, run.ID); err != nil {
		return nil, err
	}
	_, _ = s.collectionRepo.SetStatusIf(ctx, nil, collectionID, types.CollectionStatusGenerating, types.CollectionStatusCancelling)

	s.log.Info("Requested generation cancel", "run_id", run.ID, "collection_id", collectionID)
	return run, nil
}

func (s *generationService) Status(ctx context.Context, collectionID uuid.UUID) (*types.ExtractionRun, error) {
	run, err := s.runRepo.GetLatestByCollectionID(ctx, nil, collectionID, types.RunKindItemGeneration)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, ErrNotFound
	}
	return run, nil
}

func (s *generationService) Items(ctx context.Context, collectionID uuid.UUID) ([]*types.Item, error) {
	return s.itemRepo.GetByCollectionID(ctx, nil, collectionID)
}

func (s *generationService) StartWorkers(ctx context.Context) {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.workerLoop(ctx, i)
	}
	s.log.Info("Started generation workers", "count", s.workerCount)
}

func (s *generationService) Wait() {
	s.wg.Wait()
}

func (s *generationService) workerLoop(ctx context.Context, id int) {
	defer s.wg.Done()
	log := s.log.With("worker", id)

	ticker := time.NewTicker(workerPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		run, err := s.runRepo.ClaimNextRunnable(ctx, nil, runMaxAttempts, runRetryDelay, runStaleRunning)
		if err != nil {
			log.Error("Failed to claim run", "error", err)
			continue
		}
		if run == nil {
			continue
		}

		log.Info("Claimed run", "run_id", run.ID, "kind", run.Kind)
		s.processRun(ctx, log, run)
	}
}

func (s *generationService) processRun(ctx context.Context, log *logger.Logger, run *types.ExtractionRun) {
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go s.heartbeat(hbCtx, run.ID)

	var err error
	switch run.Kind {
	case types.RunKindDocumentExtraction:
		err = s.documents.RunExtraction(ctx, run)
	case types.RunKindItemGeneration:
		err = s.runGeneration(ctx, run)
	default:
		err = fmt.Errorf("unknown run kind %q", run.Kind)
	}

	now := time.Now()
	switch {
	case err == nil:
		_ = s.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
			"status":   types.RunStatusSucceeded,
			"stage":    "done",
			"progress": 100,
			"error":    "",
		})
	case errors.Is(err, reconcile.ErrCancelled):
		log.Info("Run cancelled", "run_id", run.ID)
		_ = s.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
			"status": types.RunStatusCancelled,
			"stage":  "cancelled",
			"error":  "",
		})
	default:
		log.Error("Run failed", "run_id", run.ID, "error", err)
		_ = s.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
			"status":        types.RunStatusFailed,
			"error":         err.Error(),
			"last_error_at": now,
		})
	}

	if run.Kind == types.RunKindItemGeneration {
		// Whatever the outcome, the collection must not stay locked.
		_, _ = s.collectionRepo.SetStatusIf(ctx, nil, run.CollectionID, types.CollectionStatusGenerating, types.CollectionStatusActive)
		_, _ = s.collectionRepo.SetStatusIf(ctx, nil, run.CollectionID, types.CollectionStatusCancelling, types.CollectionStatusActive)
	}
}

func (s *generationService) heartbeat(ctx context.Context, runID uuid.UUID) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.runRepo.Heartbeat(ctx, nil, runID); err != nil && ctx.Err() == nil {
				s.log.Warn("Heartbeat failed", "run_id", runID, "error", err)
			}
		}
	}
}

func (s *generationService) runGeneration(ctx context.Context, run *types.ExtractionRun) error {
	_ = s.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
		"stage":   "reconciling",
		"message": "Reconciling purchase order against line sheets",
	})

	engine := reconcile.NewEngine(s.llm, s.log)
	source := &collectionSource{
		svc:          s,
		collectionID: run.CollectionID,
	}
	store := &runItemStore{
		itemRepo:     s.itemRepo,
		collectionID: run.CollectionID,
		runID:        run.ID,
	}
	cancelled := func(ctx context.Context) (bool, error) {
		return s.runRepo.IsCancelRequested(ctx, nil, run.ID)
	}

	result, err := engine.Run(ctx, source, store, cancelled)
	if err != nil {
		return err
	}

	stats, mErr := json.Marshal(result.Stats)
	if mErr != nil {
		return mErr
	}
	if err := s.runRepo.UpdateFields(ctx, nil, run.ID, map[string]interface{}{
		"result":  datatypes.JSON(stats),
		"message": fmt.Sprintf("Created %d items, skipped %d duplicates", result.Stats.ItemsCreated, result.Stats.ItemsSkipped),
	}); err != nil {
		return err
	}

	if err := s.bus.Publish(ctx, redis.ProgressMessage{
		BrandID:      run.BrandID,
		CollectionID: run.CollectionID,
		RunID:        run.ID,
		Event:        "generation_complete",
		Data:         stats,
	}); err != nil {
		s.log.Warn("Failed to publish generation result", "run_id", run.ID, "error", err)
	}
	return nil
}

// collectionSource adapts the repos and bucket into the engine's Source.
type collectionSource struct {
	svc          *generationService
	collectionID uuid.UUID
}

func (cs *collectionSource) PurchaseOrder(ctx context.Context) (uuid.UUID, parser.Sheet, error) {
	docs, err := cs.svc.documentRepo.GetByCollectionIDAndType(ctx, nil, cs.collectionID, types.DocumentTypePurchaseOrder)
	if err != nil {
		return uuid.Nil, parser.Sheet{}, err
	}
	if len(docs) == 0 {
		return uuid.Nil, parser.Sheet{}, reconcile.ErrNoPurchaseOrder
	}
	doc := docs[0]

	data, err := cs.svc.downloadDocument(ctx, doc.StorageKey)
	if err != nil {
		return uuid.Nil, parser.Sheet{}, fmt.Errorf("download purchase order: %w", err)
	}
	wb, err := cs.svc.docParser.ParseSpreadsheet(ctx, data)
	if err != nil {
		return uuid.Nil, parser.Sheet{}, fmt.Errorf("parse purchase order: %w", err)
	}
	if len(wb.Sheets) == 0 {
		return uuid.Nil, parser.Sheet{}, fmt.Errorf("purchase order workbook has no data")
	}
	return doc.ID, wb.Sheets[0], nil
}

func (cs *collectionSource) LineSheets(ctx context.Context) ([]reconcile.SheetProducts, error) {
	docs, err := cs.svc.documentRepo.GetByCollectionIDAndType(ctx, nil, cs.collectionID, types.DocumentTypeLineSheet)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, reconcile.ErrNoLineSheets
	}

	out := make([]reconcile.SheetProducts, 0, len(docs))
	for _, doc := range docs {
		sp := reconcile.SheetProducts{DocumentID: doc.ID}
		if len(doc.StructuredProducts) > 0 {
			var products []pipeline.StructuredProduct
			if err := json.Unmarshal(doc.StructuredProducts, &products); err != nil {
				return nil, fmt.Errorf("decode products for document %s: %w", doc.ID, err)
			}
			sp.Products = products
		}
		out = append(out, sp)
	}
	return out, nil
}

func (s *generationService) downloadDocument(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.bucket.DownloadFile(ctx, gcp.BucketCategoryDocument, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// runItemStore adapts ItemRepo into the engine's ItemStore, tagging every
// insert with the run id so cancellation cleanup can find them.
type runItemStore struct {
	itemRepo     repos.ItemRepo
	collectionID uuid.UUID
	runID        uuid.UUID
}

func (rs *runItemStore) ExistsByHash(ctx context.Context, contentHash string) (bool, error) {
	item, err := rs.itemRepo.GetByContentHash(ctx, nil, rs.collectionID, contentHash)
	if err != nil {
		return false, err
	}
	return item != nil, nil
}

func (rs *runItemStore) Insert(ctx context.Context, item reconcile.Item) error {
	row, err := itemToRow(item, rs.collectionID, rs.runID)
	if err != nil {
		return err
	}
	_, err = rs.itemRepo.Create(ctx, nil, []*types.Item{row})
	return err
}

func (rs *runItemStore) DeleteCreated(ctx context.Context) error {
	_, err := rs.itemRepo.FullDeleteByGenerationRunID(ctx, nil, rs.runID)
	return err
}

func itemToRow(item reconcile.Item, collectionID, runID uuid.UUID) (*types.Item, error) {
	sizes, err := json.Marshal(item.Sizes)
	if err != nil {
		return nil, err
	}
	materials, err := json.Marshal(orEmpty(item.Materials))
	if err != nil {
		return nil, err
	}
	images, err := json.Marshal(orEmpty(item.Images))
	if err != nil {
		return nil, err
	}
	sources, err := json.Marshal(item.SourceDocuments)
	if err != nil {
		return nil, err
	}

	return &types.Item{
		ID:              uuid.New(),
		CollectionID:    collectionID,
		ContentHash:     item.ContentHash,
		SKU:             item.SKU,
		BaseSKU:         item.BaseSKU,
		ColorName:       item.ColorName,
		ColorCode:       item.ColorCode,
		ProductName:     item.ProductName,
		Category:        item.Category,
		Subcategory:     item.Subcategory,
		Sizes:           datatypes.JSON(sizes),
		Quantity:        item.Quantity,
		WholesalePrice:  item.WholesalePrice,
		RRP:             item.RRP,
		Currency:        item.Currency,
		Origin:          item.Origin,
		Materials:       datatypes.JSON(materials),
		Images:          datatypes.JSON(images),
		Enriched:        item.Enriched,
		ManualReview:    item.ManualReview,
		SourceDocuments: datatypes.JSON(sources),
		GenerationRunID: &runID,
	}, nil
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
