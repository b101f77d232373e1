package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/AdamJosephKalimi/linesheet-backend/internal/repos/testutil"
	"github.com/AdamJosephKalimi/linesheet-backend/internal/types"
)

func TestCollectionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewCollectionRepo(db, testutil.Logger(t))
	ctx := context.Background()

	brand := testutil.SeedBrand(t, ctx, tx, "Acme Studio")

	created, err := repo.Create(ctx, tx, []*types.Collection{{
		ID:      uuid.New(),
		BrandID: brand.ID,
		Name:    "SS26",
		Season:  "Spring/Summer 2026",
		Status:  types.CollectionStatusActive,
	}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	col := created[0]

	byBrand, err := repo.GetByBrandID(ctx, tx, brand.ID)
	if err != nil {
		t.Fatalf("GetByBrandID: %v", err)
	}
	if len(byBrand) != 1 || byBrand[0].ID != col.ID {
		t.Fatalf("unexpected brand listing: %+v", byBrand)
	}

	cats := datatypes.JSON([]byte(`[{"name":"Tops","subcategories":["T-Shirts"]}]`))
	if err := repo.UpdateFields(ctx, tx, col.ID, map[string]interface{}{
		"categories": cats,
	}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetByIDs(ctx, tx, []uuid.UUID{col.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 1 || len(got[0].Categories) == 0 {
		t.Fatalf("expected categories to persist, got %+v", got)
	}
}

func TestCollectionRepoSetStatusIf(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewCollectionRepo(db, testutil.Logger(t))
	ctx := context.Background()

	brand := testutil.SeedBrand(t, ctx, tx, "Acme Studio")
	col := testutil.SeedCollection(t, ctx, tx, brand.ID)

	ok, err := repo.SetStatusIf(ctx, tx, col.ID, types.CollectionStatusActive, types.CollectionStatusGenerating)
	if err != nil {
		t.Fatalf("SetStatusIf: %v", err)
	}
	if !ok {
		t.Fatalf("expected first transition active->generating to win")
	}

	// The guard: a second caller expecting "active" must lose.
	ok, err = repo.SetStatusIf(ctx, tx, col.ID, types.CollectionStatusActive, types.CollectionStatusGenerating)
	if err != nil {
		t.Fatalf("SetStatusIf second: %v", err)
	}
	if ok {
		t.Fatalf("expected second transition to be rejected")
	}

	ok, err = repo.SetStatusIf(ctx, tx, col.ID, types.CollectionStatusGenerating, types.CollectionStatusActive)
	if err != nil {
		t.Fatalf("SetStatusIf release: %v", err)
	}
	if !ok {
		t.Fatalf("expected generating->active release to succeed")
	}
}
