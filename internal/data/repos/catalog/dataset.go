package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mlfoundry/catalog-backend/internal/domain"
	"github.com/mlfoundry/catalog-backend/internal/platform/logger"
)

type DatasetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, datasets []*types.Dataset) ([]*types.Dataset, error)
	Save(ctx context.Context, tx *gorm.DB, dataset *types.Dataset) error
	GetByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.Dataset, error)
}

type datasetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDatasetRepo(db *gorm.DB, baseLog *logger.Logger) DatasetRepo {
	repoLog := baseLog.With("repo", "DatasetRepo")
	return &datasetRepo{db: db, log: repoLog}
}

func (dr *datasetRepo) Create(ctx context.Context, tx *gorm.DB, datasets []*types.Dataset) ([]*types.Dataset, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	if len(datasets) == 0 {
		return []*types.Dataset{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&datasets).Error; err != nil {
		return nil, err
	}

	return datasets, nil
}

func (dr *datasetRepo) Save(ctx context.Context, tx *gorm.DB, dataset *types.Dataset) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	return transaction.WithContext(ctx).Save(dataset).Error
}

func (dr *datasetRepo) GetByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.Dataset, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var results []*types.Dataset
	if err := transaction.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}
