package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/clients/gcp"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/logger"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/parser"
)

const imageUploadConcurrency = 4

// documentImageUploader implements pipeline.ImageUploader for one
// document's extraction run. A single image failing to upload yields an
// empty URL at its index, never an error for the batch.
type documentImageUploader struct {
	log          *logger.Logger
	bucket       gcp.BucketService
	collectionID uuid.UUID
	documentID   uuid.UUID
}

func newDocumentImageUploader(log *logger.Logger, bucket gcp.BucketService, collectionID, documentID uuid.UUID) *documentImageUploader {
	return &documentImageUploader{
		log:          log.With("service", "DocumentImageUploader", "document_id", documentID),
		bucket:       bucket,
		collectionID: collectionID,
		documentID:   documentID,
	}
}

func (u *documentImageUploader) UploadAll(ctx context.Context, images []parser.ExtractedImage) ([]string, error) {
	urls := make([]string, len(images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageUploadConcurrency)
	for i := range images {
		g.Go(func() error {
			img := images[i]
			if len(img.Data) == 0 {
				return nil
			}
			ext := img.Format
			if ext == "" {
				ext = "bin"
			}
			key := fmt.Sprintf("collections/%s/documents/%s/images/p%d-%d.%s",
				u.collectionID, u.documentID, img.PageNumber, i, ext)
			if err := u.bucket.UploadFile(gctx, gcp.BucketCategoryImage, key, bytes.NewReader(img.Data)); err != nil {
				u.log.Warn("Image upload failed, product will carry no image",
					"key", key,
					"error", err,
				)
				return nil
			}
			urls[i] = u.bucket.GetPublicURL(gcp.BucketCategoryImage, key)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}
