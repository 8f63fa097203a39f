package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/mlfoundry/catalog-backend/internal/domain"
)

func SeedCollection(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Collection {
	tb.Helper()
	c := &types.Collection{
		ID:   uuid.New(),
		Name: name,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed collection: %v", err)
	}
	return c
}

func SeedDatasetAsset(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) (*types.Entity, *types.Dataset) {
	tb.Helper()
	e := &types.Entity{
		ID:          uuid.New(),
		Name:        name,
		EntityType:  types.EntityTypeDataset,
		AssetOrigin: "test",
		Metadata:    datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed entity: %v", err)
	}
	d := &types.Dataset{
		EntityID: e.ID,
		DataPath: "s3://assets/" + name,
		Format:   "parquet",
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed dataset: %v", err)
	}
	return e, d
}

func SeedTrainedModelAsset(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) (*types.Entity, *types.TrainedModel) {
	tb.Helper()
	e := &types.Entity{
		ID:          uuid.New(),
		Name:        name,
		EntityType:  types.EntityTypeTrainedModel,
		AssetOrigin: "test",
		Metadata:    datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed entity: %v", err)
	}
	m := &types.TrainedModel{
		EntityID:  e.ID,
		ModelPath: "s3://models/" + name,
		Framework: "pytorch",
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed trained model: %v", err)
	}
	return e, m
}

func SeedTaskAsset(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) (*types.Entity, *types.Task) {
	tb.Helper()
	e := &types.Entity{
		ID:          uuid.New(),
		Name:        name,
		EntityType:  types.EntityTypeTask,
		AssetOrigin: "test",
		Metadata:    datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed entity: %v", err)
	}
	t := &types.Task{
		EntityID: e.ID,
		Workflow: datatypes.JSON([]byte(`{"steps": []}`)),
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return e, t
}

// SeedLedger creates a ledger row with an explicit synthetic xact id, for
// revision-read tests that build history by hand.
func SeedLedger(tb testing.TB, ctx context.Context, tx *gorm.DB, xactID int64) *types.LedgerTransaction {
	tb.Helper()
	l := &types.LedgerTransaction{XactID: xactID}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed ledger transaction: %v", err)
	}
	return l
}

func SeedEntityRevision(tb testing.TB, ctx context.Context, tx *gorm.DB, entityID uuid.UUID, txID int64, op types.OperationType) *types.EntityRevision {
	tb.Helper()
	r := &types.EntityRevision{
		EntityID:      entityID,
		TransactionID: txID,
		Name:          "rev",
		EntityType:    types.EntityTypeDataset,
		Metadata:      datatypes.JSON([]byte(`{}`)),
		OperationType: op,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed entity revision: %v", err)
	}
	return r
}

func SeedDatasetRevision(tb testing.TB, ctx context.Context, tx *gorm.DB, entityID uuid.UUID, txID int64, dataPath string) *types.DatasetRevision {
	tb.Helper()
	r := &types.DatasetRevision{
		EntityID:      entityID,
		TransactionID: txID,
		DataPath:      dataPath,
		Format:        "parquet",
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed dataset revision: %v", err)
	}
	return r
}

func SeedVersionHash(tb testing.TB, ctx context.Context, tx *gorm.DB, entityID uuid.UUID, txID int64, contentHash string) *types.EntityVersionHash {
	tb.Helper()
	h := &types.EntityVersionHash{
		ID:            uuid.New(),
		EntityID:      entityID,
		TransactionID: txID,
		ContentHash:   contentHash,
	}
	if err := tx.WithContext(ctx).Create(h).Error; err != nil {
		tb.Fatalf("seed version hash: %v", err)
	}
	return h
}
