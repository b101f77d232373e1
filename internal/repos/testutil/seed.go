package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
)

func SeedBrand(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Brand {
	tb.Helper()
	b := &types.Brand{
		ID:     uuid.New(),
		Name:   name,
		Status: "active",
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed brand: %v", err)
	}
	return b
}

func SeedCollection(tb testing.TB, ctx context.Context, tx *gorm.DB, brandID uuid.UUID) *types.Collection {
	tb.Helper()
	c := &types.Collection{
		ID:      uuid.New(),
		BrandID: brandID,
		Name:    "SS26",
		Season:  "Spring/Summer 2026",
		Status:  types.CollectionStatusActive,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed collection: %v", err)
	}
	return c
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, collectionID uuid.UUID, docType string) *types.Document {
	tb.Helper()
	d := &types.Document{
		ID:           uuid.New(),
		CollectionID: collectionID,
		Type:         docType,
		OriginalName: "doc.pdf",
		StorageKey:   "collections/" + collectionID.String() + "/documents/" + uuid.NewString() + "/doc.pdf",
		Status:       types.DocumentStatusUploaded,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }
