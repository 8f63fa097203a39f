package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mlfoundry/catalog-backend/internal/domain"
	"github.com/mlfoundry/catalog-backend/internal/platform/logger"
)

type CollectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, collections []*types.Collection) ([]*types.Collection, error)
	GetByID(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID) (*types.Collection, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Collection, error)
}

type collectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollectionRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRepo {
	repoLog := baseLog.With("repo", "CollectionRepo")
	return &collectionRepo{db: db, log: repoLog}
}

func (cr *collectionRepo) Create(ctx context.Context, tx *gorm.DB, collections []*types.Collection) ([]*types.Collection, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	if len(collections) == 0 {
		return []*types.Collection{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&collections).Error; err != nil {
		return nil, err
	}

	return collections, nil
}

func (cr *collectionRepo) GetByID(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID) (*types.Collection, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Collection
	if err := transaction.WithContext(ctx).
		Where("id = ?", collectionID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (cr *collectionRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*types.Collection, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var results []*types.Collection
	if err := transaction.WithContext(ctx).
		Where("name = ?", name).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}
