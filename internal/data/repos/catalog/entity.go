package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mlfoundry/catalog-backend/internal/domain"
	"github.com/mlfoundry/catalog-backend/internal/platform/logger"
)

type EntityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entities []*types.Entity) ([]*types.Entity, error)
	Save(ctx context.Context, tx *gorm.DB, entity *types.Entity) error
	GetByID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.Entity, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, entityIDs []uuid.UUID) ([]*types.Entity, error)
	GetByTagName(ctx context.Context, tx *gorm.DB, tagName string) ([]*types.Entity, error)
}

type entityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntityRepo(db *gorm.DB, baseLog *logger.Logger) EntityRepo {
	repoLog := baseLog.With("repo", "EntityRepo")
	return &entityRepo{db: db, log: repoLog}
}

func (er *entityRepo) Create(ctx context.Context, tx *gorm.DB, entities []*types.Entity) ([]*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	if len(entities) == 0 {
		return []*types.Entity{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&entities).Error; err != nil {
		return nil, err
	}

	return entities, nil
}

func (er *entityRepo) Save(ctx context.Context, tx *gorm.DB, entity *types.Entity) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	return transaction.WithContext(ctx).Save(entity).Error
}

func (er *entityRepo) GetByID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var results []*types.Entity
	if err := transaction.WithContext(ctx).
		Where("id = ?", entityID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (er *entityRepo) GetByIDs(ctx context.Context, tx *gorm.DB, entityIDs []uuid.UUID) ([]*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var results []*types.Entity
	if len(entityIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", entityIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *entityRepo) GetByTagName(ctx context.Context, tx *gorm.DB, tagName string) ([]*types.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var results []*types.Entity
	if err := transaction.WithContext(ctx).
		Joins("JOIN entity_version_tags ON entity_version_tags.entity_id = entities.id").
		Where("entity_version_tags.tag_name = ?", tagName).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
