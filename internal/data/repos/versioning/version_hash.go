package versioning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/mlfoundry/catalog-backend/internal/domain"
	"github.com/mlfoundry/catalog-backend/internal/platform/logger"
)

type VersionHashRepo interface {
	Create(ctx context.Context, tx *gorm.DB, hashes []*types.EntityVersionHash) ([]*types.EntityVersionHash, error)
	GetByID(ctx context.Context, tx *gorm.DB, hashID uuid.UUID) (*types.EntityVersionHash, error)
	FindByContentHash(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, contentHash string) (*types.EntityVersionHash, error)
	FindByTransactionID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64) (*types.EntityVersionHash, error)
	ListByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, forUpdate bool) ([]*types.EntityVersionHash, error)
	AddTag(ctx context.Context, tx *gorm.DB, tag *types.EntityVersionTag) error
	FindTag(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, tagName string) (*types.EntityVersionTag, error)
	ListTagsByVersionHashIDs(ctx context.Context, tx *gorm.DB, hashIDs []uuid.UUID) ([]*types.EntityVersionTag, error)
}

type versionHashRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVersionHashRepo(db *gorm.DB, baseLog *logger.Logger) VersionHashRepo {
	repoLog := baseLog.With("repo", "VersionHashRepo")
	return &versionHashRepo{db: db, log: repoLog}
}

func (vr *versionHashRepo) Create(ctx context.Context, tx *gorm.DB, hashes []*types.EntityVersionHash) ([]*types.EntityVersionHash, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	if len(hashes) == 0 {
		return []*types.EntityVersionHash{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&hashes).Error; err != nil {
		return nil, err
	}

	return hashes, nil
}

func (vr *versionHashRepo) GetByID(ctx context.Context, tx *gorm.DB, hashID uuid.UUID) (*types.EntityVersionHash, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var results []*types.EntityVersionHash
	if err := transaction.WithContext(ctx).
		Where("id = ?", hashID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (vr *versionHashRepo) FindByContentHash(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, contentHash string) (*types.EntityVersionHash, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var results []*types.EntityVersionHash
	if err := transaction.WithContext(ctx).
		Where("entity_id = ? AND content_hash = ?", entityID, contentHash).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (vr *versionHashRepo) FindByTransactionID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64) (*types.EntityVersionHash, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var results []*types.EntityVersionHash
	if err := transaction.WithContext(ctx).
		Where("entity_id = ? AND transaction_id = ?", entityID, transactionID).
		Order("created_at DESC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (vr *versionHashRepo) ListByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, forUpdate bool) ([]*types.EntityVersionHash, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	query := transaction.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("transaction_id ASC")
	if forUpdate {
		query = query.Clauses(lockForUpdate())
	}

	var results []*types.EntityVersionHash
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (vr *versionHashRepo) AddTag(ctx context.Context, tx *gorm.DB, tag *types.EntityVersionTag) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	return transaction.WithContext(ctx).Create(tag).Error
}

func (vr *versionHashRepo) FindTag(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, tagName string) (*types.EntityVersionTag, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var results []*types.EntityVersionTag
	if err := transaction.WithContext(ctx).
		Where("entity_id = ? AND tag_name = ?", entityID, tagName).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (vr *versionHashRepo) ListTagsByVersionHashIDs(ctx context.Context, tx *gorm.DB, hashIDs []uuid.UUID) ([]*types.EntityVersionTag, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}

	var results []*types.EntityVersionTag
	if len(hashIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("version_hash_id IN ?", hashIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
