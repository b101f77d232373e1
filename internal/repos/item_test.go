package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/repos/testutil"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
)

func seedItem(t *testing.T, collectionID uuid.UUID, hash string, runID *uuid.UUID) *types.Item {
	t.Helper()
	return &types.Item{
		ID:              uuid.New(),
		CollectionID:    collectionID,
		ContentHash:     hash,
		SKU:             "A123-BLK",
		BaseSKU:         "A123",
		ColorCode:       "BLK",
		ProductName:     "Wool Coat",
		Quantity:        6,
		Sizes:           datatypes.JSON([]byte(`{"M":3,"L":3}`)),
		Materials:       datatypes.JSON([]byte(`[]`)),
		Images:          datatypes.JSON([]byte(`[]`)),
		SourceDocuments: datatypes.JSON([]byte(`{}`)),
		GenerationRunID: runID,
	}
}

func TestItemRepoContentHashLookup(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewItemRepo(db, testutil.Logger(t))
	ctx := context.Background()

	brand := testutil.SeedBrand(t, ctx, tx, "Acme Studio")
	col := testutil.SeedCollection(t, ctx, tx, brand.ID)

	missing, err := repo.GetByContentHash(ctx, tx, col.ID, "deadbeef")
	if err != nil {
		t.Fatalf("GetByContentHash missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for absent hash, got %+v", missing)
	}

	item := seedItem(t, col.ID, "deadbeef", nil)
	if _, err := repo.Create(ctx, tx, []*types.Item{item}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByContentHash(ctx, tx, col.ID, "deadbeef")
	if err != nil {
		t.Fatalf("GetByContentHash: %v", err)
	}
	if got == nil || got.ID != item.ID {
		t.Fatalf("expected seeded item back, got %+v", got)
	}

	// Same hash is fine in a different collection.
	other := testutil.SeedCollection(t, ctx, tx, brand.ID)
	elsewhere, err := repo.GetByContentHash(ctx, tx, other.ID, "deadbeef")
	if err != nil {
		t.Fatalf("GetByContentHash other collection: %v", err)
	}
	if elsewhere != nil {
		t.Fatalf("expected hash scoped per collection, got %+v", elsewhere)
	}
}

func TestItemRepoUniqueHashPerCollection(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewItemRepo(db, testutil.Logger(t))
	ctx := context.Background()

	brand := testutil.SeedBrand(t, ctx, tx, "Acme Studio")
	col := testutil.SeedCollection(t, ctx, tx, brand.ID)

	if _, err := repo.Create(ctx, tx, []*types.Item{seedItem(t, col.ID, "cafe01", nil)}); err != nil {
		t.Fatalf("Create first: %v", err)
	}
	if _, err := repo.Create(ctx, tx, []*types.Item{seedItem(t, col.ID, "cafe01", nil)}); err == nil {
		t.Fatalf("expected duplicate (collection_id, content_hash) insert to fail")
	}
}

func TestItemRepoFullDeleteByGenerationRunID(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewItemRepo(db, testutil.Logger(t))
	ctx := context.Background()

	brand := testutil.SeedBrand(t, ctx, tx, "Acme Studio")
	col := testutil.SeedCollection(t, ctx, tx, brand.ID)

	runID := uuid.New()
	otherRun := uuid.New()
	if _, err := repo.Create(ctx, tx, []*types.Item{
		seedItem(t, col.ID, "hash-a", testutil.PtrUUID(runID)),
		seedItem(t, col.ID, "hash-b", testutil.PtrUUID(runID)),
		seedItem(t, col.ID, "hash-c", testutil.PtrUUID(otherRun)),
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	deleted, err := repo.FullDeleteByGenerationRunID(ctx, tx, runID)
	if err != nil {
		t.Fatalf("FullDeleteByGenerationRunID: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}

	remaining, err := repo.GetByCollectionID(ctx, tx, col.ID)
	if err != nil {
		t.Fatalf("GetByCollectionID: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ContentHash != "hash-c" {
		t.Fatalf("expected only the other run's item to survive, got %+v", remaining)
	}

	// Hard delete: the hash must be reusable by the next run.
	gone, err := repo.GetByContentHash(ctx, tx, col.ID, "hash-a")
	if err != nil {
		t.Fatalf("GetByContentHash after delete: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected hash-a to be fully gone, got %+v", gone)
	}
	if _, err := repo.Create(ctx, tx, []*types.Item{seedItem(t, col.ID, "hash-a", nil)}); err != nil {
		t.Fatalf("reinsert after hard delete: %v", err)
	}
}
