package versioning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/mlfoundry/catalog-backend/internal/domain"
	"github.com/mlfoundry/catalog-backend/internal/platform/logger"
)

func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// RevisionRepo reads the raw change-tracking tables: the transaction
// ledger and the per-kind revision snapshots. All writes to those tables
// go through the substrate callbacks, never through this repo.
type RevisionRepo interface {
	CountByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (int64, error)
	CountUpTo(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64) (int64, error)
	ListPageDesc(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, offset, limit int) ([]*types.EntityRevision, error)
	GetByTransactionID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64) (*types.EntityRevision, error)
	TransactionIDAt(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, index int64) (int64, bool, error)
	LatestTransactionID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (int64, bool, error)
	GetDatasetRevision(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64) (*types.DatasetRevision, error)
	GetTrainedModelRevision(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64) (*types.TrainedModelRevision, error)
	GetTaskRevision(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64) (*types.TaskRevision, error)
	ListDatasetRevisionsByTransactionIDs(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionIDs []int64) ([]*types.DatasetRevision, error)
	ListTrainedModelRevisionsByTransactionIDs(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionIDs []int64) ([]*types.TrainedModelRevision, error)
	ListTaskRevisionsByTransactionIDs(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionIDs []int64) ([]*types.TaskRevision, error)
	GetLedgerByIDs(ctx context.Context, tx *gorm.DB, transactionIDs []int64) ([]*types.LedgerTransaction, error)
}

type revisionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRevisionRepo(db *gorm.DB, baseLog *logger.Logger) RevisionRepo {
	repoLog := baseLog.With("repo", "RevisionRepo")
	return &revisionRepo{db: db, log: repoLog}
}

func (rr *revisionRepo) CountByEntityID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.EntityRevision{}).
		Where("entity_id = ?", entityID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (rr *revisionRepo) CountUpTo(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.EntityRevision{}).
		Where("entity_id = ? AND transaction_id <= ?", entityID, transactionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (rr *revisionRepo) ListPageDesc(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, offset, limit int) ([]*types.EntityRevision, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.EntityRevision
	if err := transaction.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("transaction_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *revisionRepo) GetByTransactionID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64) (*types.EntityRevision, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.EntityRevision
	if err := transaction.WithContext(ctx).
		Where("entity_id = ? AND transaction_id = ?", entityID, transactionID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// TransactionIDAt returns the ledger transaction id of the index-th raw
// revision in ascending transaction order, index counted from zero.
func (rr *revisionRepo) TransactionIDAt(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, index int64) (int64, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.EntityRevision
	if err := transaction.WithContext(ctx).
		Select("transaction_id").
		Where("entity_id = ?", entityID).
		Order("transaction_id ASC").
		Offset(int(index)).
		Limit(1).
		Find(&results).Error; err != nil {
		return 0, false, err
	}
	if len(results) == 0 {
		return 0, false, nil
	}
	return results[0].TransactionID, true, nil
}

func (rr *revisionRepo) LatestTransactionID(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) (int64, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.EntityRevision
	if err := transaction.WithContext(ctx).
		Select("transaction_id").
		Where("entity_id = ?", entityID).
		Order("transaction_id DESC").
		Limit(1).
		Find(&results).Error; err != nil {
		return 0, false, err
	}
	if len(results) == 0 {
		return 0, false, nil
	}
	return results[0].TransactionID, true, nil
}

func (rr *revisionRepo) GetDatasetRevision(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64) (*types.DatasetRevision, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.DatasetRevision
	if err := transaction.WithContext(ctx).
		Where("entity_id = ? AND transaction_id = ?", entityID, transactionID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (rr *revisionRepo) GetTrainedModelRevision(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64) (*types.TrainedModelRevision, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.TrainedModelRevision
	if err := transaction.WithContext(ctx).
		Where("entity_id = ? AND transaction_id = ?", entityID, transactionID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (rr *revisionRepo) GetTaskRevision(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionID int64) (*types.TaskRevision, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.TaskRevision
	if err := transaction.WithContext(ctx).
		Where("entity_id = ? AND transaction_id = ?", entityID, transactionID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (rr *revisionRepo) ListDatasetRevisionsByTransactionIDs(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionIDs []int64) ([]*types.DatasetRevision, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.DatasetRevision
	if len(transactionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("entity_id = ? AND transaction_id IN ?", entityID, transactionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *revisionRepo) ListTrainedModelRevisionsByTransactionIDs(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionIDs []int64) ([]*types.TrainedModelRevision, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.TrainedModelRevision
	if len(transactionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("entity_id = ? AND transaction_id IN ?", entityID, transactionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *revisionRepo) ListTaskRevisionsByTransactionIDs(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, transactionIDs []int64) ([]*types.TaskRevision, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.TaskRevision
	if len(transactionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("entity_id = ? AND transaction_id IN ?", entityID, transactionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *revisionRepo) GetLedgerByIDs(ctx context.Context, tx *gorm.DB, transactionIDs []int64) ([]*types.LedgerTransaction, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.LedgerTransaction
	if len(transactionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", transactionIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
