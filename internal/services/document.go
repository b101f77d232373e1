package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/clients/gcp"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/clients/redis"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/parser"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/pipeline"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/repos"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
)

type UploadInput struct {
	CollectionID uuid.UUID
	Type         string
	Filename     string
	MimeType     string
	Data         []byte
}

// DocumentProgress is the polling surface for one document's extraction.
type DocumentProgress struct {
	DocumentID uuid.UUID          `json:"document_id"`
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	Progress   *pipeline.Progress `json:"progress,omitempty"`
}

type DocumentService interface {
	Upload(ctx context.Context, in UploadInput) (*types.Document, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Document, error)
	ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]*types.Document, error)
	Progress(ctx context.Context, id uuid.UUID) (*DocumentProgress, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// EnqueueProcess queues a background extraction run for the document.
	// ErrConflict when one is already queued or running.
	EnqueueProcess(ctx context.Context, brandID, documentID uuid.UUID) (*types.ExtractionRun, error)
	// RunExtraction is the worker-side entrypoint for a claimed run.
	RunExtraction(ctx context.Context, run *types.ExtractionRun) error
}

type documentService struct {
	log            *logger.Logger
	documentRepo   repos.DocumentRepo
	collectionRepo repos.CollectionRepo
	runRepo        repos.ExtractionRunRepo
	bucket         gcp.BucketService
	bus            redis.ProgressBus
	parser         parser.DocumentParser
	llm            OpenAIClient
}

func NewDocumentService(
	log *logger.Logger,
	documentRepo repos.DocumentRepo,
	collectionRepo repos.CollectionRepo,
	runRepo repos.ExtractionRunRepo,
	bucket gcp.BucketService,
	bus redis.ProgressBus,
	docParser parser.DocumentParser,
	llm OpenAIClient,
) DocumentService {
	return &documentService{
		log:            log.With("service", "DocumentService"),
		documentRepo:   documentRepo,
		collectionRepo: collectionRepo,
		runRepo:        runRepo,
		bucket:         bucket,
		bus:            bus,
		parser:         docParser,
		llm:            llm,
	}
}

func (s *documentService) Upload(ctx context.Context, in UploadInput) (*types.Document, error) {
	if in.Type != types.DocumentTypeLineSheet && in.Type != types.DocumentTypePurchaseOrder {
		return nil, fmt.Errorf("unknown document type %q", in.Type)
	}
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	collections, err := s.collectionRepo.GetByIDs(ctx, nil, []uuid.UUID{in.CollectionID})
	if err != nil {
		return nil, err
	}
	if len(collections) == 0 {
		return nil, ErrNotFound
	}

	docID := uuid.New()
	key := fmt.Sprintf("collections/%s/documents/%s/%s", in.CollectionID, docID, in.Filename)
	if err := s.bucket.UploadFile(ctx, gcp.BucketCategoryDocument, key, bytes.NewReader(in.Data)); err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	docs, err := s.documentRepo.Create(ctx, nil, []*types.Document{{
		ID:           docID,
		CollectionID: in.CollectionID,
		Type:         in.Type,
		OriginalName: in.Filename,
		MimeType:     in.MimeType,
		SizeBytes:    int64(len(in.Data)),
		StorageKey:   key,
		FileURL:      s.bucket.GetPublicURL(gcp.BucketCategoryDocument, key),
		Status:       types.DocumentStatusUploaded,
	}})
	if err != nil {
		return nil, err
	}

	s.log.Info("Uploaded document",
		"document_id", docID,
		"collection_id", in.CollectionID,
		"type", in.Type,
		"size_bytes", len(in.Data),
	)
	return docs[0], nil
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*types.Document, error) {
	docs, err := s.documentRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

func (s *documentService) ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]*types.Document, error) {
	return s.documentRepo.GetByCollectionID(ctx, nil, collectionID)
}

func (s *documentService) Progress(ctx context.Context, id uuid.UUID) (*DocumentProgress, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	out := &DocumentProgress{DocumentID: doc.ID, Status: doc.Status, Error: doc.Error}
	if len(doc.ExtractionProgress) > 0 {
		var p pipeline.Progress
		if err := json.Unmarshal(doc.ExtractionProgress, &p); err == nil {
			out.Progress = &p
		}
	}
	return out, nil
}

func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bucket.DeleteFile(ctx, gcp.BucketCategoryDocument, doc.StorageKey); err != nil {
		s.log.Warn("Failed to delete stored file", "storage_key", doc.StorageKey, "error", err)
	}
	return s.documentRepo.SoftDeleteByIDs(ctx, nil, []uuid.UUID{id})
}

func (s *documentService) EnqueueProcess(ctx context.Context, brandID, documentID uuid.UUID) (*types.ExtractionRun, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	active, err := s.runRepo.HasActiveForTarget(ctx, nil, doc.CollectionID, &documentID, types.RunKindDocumentExtraction)
	if err != nil {
		return nil, err
	}
	if active || doc.Status == types.DocumentStatusProcessing {
		return nil, ErrConflict
	}

	runs, err := s.runRepo.Create(ctx, nil, []*types.ExtractionRun{{
		ID:           uuid.New(),
		BrandID:      brandID,
		CollectionID: doc.CollectionID,
		DocumentID:   &documentID,
		Kind:         types.RunKindDocumentExtraction,
		Status:       types.RunStatusQueued,
		Stage:        "queued",
	}})
	if err != nil {
		return nil, err
	}
	s.log.Info("Enqueued document extraction", "run_id", runs[0].ID, "document_id", documentID)
	return runs[0], nil
}

// RunExtraction processes one claimed extraction run. Enrichment is best
// effort: a failure marks the document failed but never propagates an
// error that would requeue the file upload itself.
func (s *documentService) RunExtraction(ctx context.Context, run *types.ExtractionRun) error {
	if run.DocumentID == nil {
		return fmt.Errorf("extraction run %s has no document", run.ID)
	}
	doc, err := s.Get(ctx, *run.DocumentID)
	if err != nil {
		return err
	}

	claimed, err := s.documentRepo.MarkProcessing(ctx, nil, doc.ID)
	if err != nil {
		return err
	}
	if !claimed {
		s.log.Warn("Document already processing, skipping run", "document_id", doc.ID, "run_id", run.ID)
		return ErrConflict
	}

	if err := s.extract(ctx, run, doc); err != nil {
		s.log.Error("Document extraction failed",
			"document_id", doc.ID,
			"run_id", run.ID,
			"error", err,
		)
		_ = s.documentRepo.UpdateFields(ctx, nil, doc.ID, map[string]interface{}{
			"status":              types.DocumentStatusFailed,
			"error":               err.Error(),
			"extraction_progress": nil,
		})
		return err
	}

	return s.documentRepo.UpdateFields(ctx, nil, doc.ID, map[string]interface{}{
		"status":              types.DocumentStatusProcessed,
		"error":               "",
		"extraction_progress": nil,
	})
}

func (s *documentService) extract(ctx context.Context, run *types.ExtractionRun, doc *types.Document) error {
	data, err := s.download(ctx, doc.StorageKey)
	if err != nil {
		return fmt.Errorf("download document: %w", err)
	}

	switch doc.Type {
	case types.DocumentTypePurchaseOrder:
		// POs are parsed lazily at reconciliation time; processing only
		// validates the workbook opens.
		if _, err := s.parser.ParseSpreadsheet(ctx, data); err != nil {
			return fmt.Errorf("parse spreadsheet: %w", err)
		}
		return nil
	case types.DocumentTypeLineSheet:
		return s.extractLineSheet(ctx, run, doc, data)
	default:
		return fmt.Errorf("unknown document type %q", doc.Type)
	}
}

func (s *documentService) extractLineSheet(ctx context.Context, run *types.ExtractionRun, doc *types.Document, data []byte) error {
	parsed, err := s.parser.ParsePDF(ctx, data)
	if err != nil {
		return fmt.Errorf("parse pdf: %w", err)
	}
	for _, w := range parsed.Warnings {
		s.log.Warn("Parser warning", "document_id", doc.ID, "warning", w)
	}

	tracker := pipeline.NewTracker(64)
	done := make(chan struct{})
	go s.persistProgress(run, doc, tracker, done)

	store := &documentExtractionStore{
		documentRepo:   s.documentRepo,
		collectionRepo: s.collectionRepo,
		collectionID:   doc.CollectionID,
		documentID:     doc.ID,
	}
	uploader := newDocumentImageUploader(s.log, s.bucket, doc.CollectionID, doc.ID)
	extractor := pipeline.NewExtractor(s.llm, pipeline.NewCategoryGenerator(s.llm, s.log), store, uploader, pipeline.ExtractorConfig{}, s.log)

	_, _, err = extractor.Run(ctx, parsed, tracker)
	tracker.Close()
	<-done
	return err
}

// persistProgress drains tracker events, writing each snapshot to the
// document row and fanning it out on the progress bus. Runs until the
// tracker closes.
func (s *documentService) persistProgress(run *types.ExtractionRun, doc *types.Document, tracker *pipeline.Tracker, done chan<- struct{}) {
	defer close(done)

	// Progress writes outlive a cancelled run context just long enough to
	// record the final state.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for p := range tracker.Events() {
		raw, err := json.Marshal(p)
		if err != nil {
			continue
		}
		if err := s.documentRepo.UpdateFields(ctx, nil, doc.ID, map[string]interface{}{
			"extraction_progress": datatypes.JSON(raw),
		}); err != nil {
			s.log.Warn("Failed to persist progress", "document_id", doc.ID, "error", err)
		}
		if err := s.bus.Publish(ctx, redis.ProgressMessage{
			BrandID:      run.BrandID,
			CollectionID: doc.CollectionID,
			DocumentID:   doc.ID,
			RunID:        run.ID,
			Event:        string(p.Phase),
			Data:         raw,
		}); err != nil {
			s.log.Warn("Failed to publish progress", "document_id", doc.ID, "error", err)
		}
	}
}

func (s *documentService) download(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.bucket.DownloadFile(ctx, gcp.BucketCategoryDocument, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
