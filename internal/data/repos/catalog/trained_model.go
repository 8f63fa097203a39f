package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mlfoundry/catalog-backend/internal/domain"
	"github.com/mlfoundry/catalog-backend/internal/platform/logger"
)

type TrainedModelRepo interface {
	Create(ctx context.Context, tx *gorm.DB, models []*types.TrainedModel) ([]*types.TrainedModel, error)
	Save(ctx context.Context, tx *gorm.DB, model *types.TrainedModel) error
	GetByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.TrainedModel, error)
}

type trainedModelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrainedModelRepo(db *gorm.DB, baseLog *logger.Logger) TrainedModelRepo {
	repoLog := baseLog.With("repo", "TrainedModelRepo")
	return &trainedModelRepo{db: db, log: repoLog}
}

func (mr *trainedModelRepo) Create(ctx context.Context, tx *gorm.DB, models []*types.TrainedModel) ([]*types.TrainedModel, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	if len(models) == 0 {
		return []*types.TrainedModel{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&models).Error; err != nil {
		return nil, err
	}

	return models, nil
}

func (mr *trainedModelRepo) Save(ctx context.Context, tx *gorm.DB, model *types.TrainedModel) error {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	return transaction.WithContext(ctx).Save(model).Error
}

func (mr *trainedModelRepo) GetByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.TrainedModel, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}

	var results []*types.TrainedModel
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
