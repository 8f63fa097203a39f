package versioning

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mlfoundry/catalog-backend/internal/domain"
	"github.com/mlfoundry/catalog-backend/internal/platform/logger"
)

// Substrate is the change-tracking layer: a gorm plugin that snapshots
// every insert, update and delete of a tracked catalog row into the
// revision tables, grouped by database transaction.
//
// One ledger row is issued per database transaction, keyed on
// txid_current(), so several writes in the same transaction share a
// single ledger transaction id. For each touched entity the substrate
// keeps BOTH snapshot halves per ledger transaction: the base
// entity_revisions row and the kind-specific subtype revision row.
type Substrate struct {
	log *logger.Logger
}

func NewSubstrate(baseLog *logger.Logger) *Substrate {
	return &Substrate{log: baseLog.With("component", "substrate")}
}

func (s *Substrate) Name() string { return "versioning:substrate" }

func (s *Substrate) Initialize(db *gorm.DB) error {
	if err := db.Callback().Create().After("gorm:create").
		Register("versioning:after_create", s.afterCreate); err != nil {
		return fmt.Errorf("register create callback: %w", err)
	}
	if err := db.Callback().Update().After("gorm:update").
		Register("versioning:after_update", s.afterUpdate); err != nil {
		return fmt.Errorf("register update callback: %w", err)
	}
	if err := db.Callback().Delete().Before("gorm:delete").
		Register("versioning:before_delete", s.beforeDelete); err != nil {
		return fmt.Errorf("register delete callback: %w", err)
	}
	return nil
}

func (s *Substrate) afterCreate(db *gorm.DB) { s.dispatch(db, domain.OperationInsert) }
func (s *Substrate) afterUpdate(db *gorm.DB) { s.dispatch(db, domain.OperationUpdate) }

func (s *Substrate) beforeDelete(db *gorm.DB) { s.dispatch(db, domain.OperationDelete) }

// dispatch walks the statement destination and captures every tracked
// record it finds. Revision and ledger models are not tracked, so the
// substrate's own writes never re-enter here.
func (s *Substrate) dispatch(db *gorm.DB, op domain.OperationType) {
	if db.Error != nil || db.Statement == nil || db.Statement.Schema == nil {
		return
	}

	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			s.captureValue(db, rv.Index(i), op)
		}
	case reflect.Struct, reflect.Ptr:
		s.captureValue(db, rv, op)
	}
}

func (s *Substrate) captureValue(db *gorm.DB, rv reflect.Value, op domain.OperationType) {
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct || !rv.CanAddr() {
		return
	}

	var err error
	switch rec := rv.Addr().Interface().(type) {
	case *domain.Entity:
		err = s.captureEntity(db, rec, op)
	case *domain.Dataset:
		err = s.captureDataset(db, rec, op)
	case *domain.TrainedModel:
		err = s.captureTrainedModel(db, rec, op)
	case *domain.Task:
		err = s.captureTask(db, rec, op)
	}
	if err != nil {
		s.log.Error("capture revision", "error", err)
		_ = db.AddError(fmt.Errorf("versioning substrate: %w", err))
	}
}

// session returns a clean handle on the same connection and transaction
// as the statement being captured, with the statement state cleared so
// the substrate's own queries do not inherit its clauses.
func (s *Substrate) session(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true, SkipHooks: true})
}

// ensureLedger returns the ledger transaction id for the current database
// transaction, creating the ledger row on first use.
func (s *Substrate) ensureLedger(tx *gorm.DB) (int64, error) {
	var xactID int64
	if err := tx.Raw("SELECT txid_current()").Scan(&xactID).Error; err != nil {
		return 0, fmt.Errorf("read txid_current: %w", err)
	}

	var existing []domain.LedgerTransaction
	if err := tx.Where("xact_id = ?", xactID).Limit(1).Find(&existing).Error; err != nil {
		return 0, fmt.Errorf("look up ledger row: %w", err)
	}
	if len(existing) > 0 {
		return existing[0].ID, nil
	}

	row := domain.LedgerTransaction{XactID: xactID}
	if err := tx.Create(&row).Error; err != nil {
		return 0, fmt.Errorf("create ledger row: %w", err)
	}
	return row.ID, nil
}

// CurrentTransactionID reports the ledger transaction id already issued
// for the calling database transaction, if any.
func (s *Substrate) CurrentTransactionID(tx *gorm.DB) (int64, bool, error) {
	var rows []domain.LedgerTransaction
	if err := tx.
		Where("xact_id = txid_current()").
		Limit(1).
		Find(&rows).Error; err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	return rows[0].ID, true, nil
}

func (s *Substrate) captureEntity(db *gorm.DB, entity *domain.Entity, op domain.OperationType) error {
	if entity.ID == uuid.Nil {
		return nil
	}
	tx := s.session(db)
	txID, err := s.ensureLedger(tx)
	if err != nil {
		return err
	}
	if err := s.upsertBaseRevision(tx, entity, txID, op); err != nil {
		return err
	}
	return s.ensureSubtypeHalf(tx, entity.ID, entity.EntityType, txID)
}

func (s *Substrate) captureDataset(db *gorm.DB, dataset *domain.Dataset, op domain.OperationType) error {
	if dataset.EntityID == uuid.Nil {
		return nil
	}
	tx := s.session(db)
	txID, err := s.ensureLedger(tx)
	if err != nil {
		return err
	}
	if err := s.upsertDatasetRevision(tx, dataset, txID); err != nil {
		return err
	}
	return s.ensureBaseHalf(tx, dataset.EntityID, txID, op)
}

func (s *Substrate) captureTrainedModel(db *gorm.DB, model *domain.TrainedModel, op domain.OperationType) error {
	if model.EntityID == uuid.Nil {
		return nil
	}
	tx := s.session(db)
	txID, err := s.ensureLedger(tx)
	if err != nil {
		return err
	}
	if err := s.upsertTrainedModelRevision(tx, model, txID); err != nil {
		return err
	}
	return s.ensureBaseHalf(tx, model.EntityID, txID, op)
}

func (s *Substrate) captureTask(db *gorm.DB, task *domain.Task, op domain.OperationType) error {
	if task.EntityID == uuid.Nil {
		return nil
	}
	tx := s.session(db)
	txID, err := s.ensureLedger(tx)
	if err != nil {
		return err
	}
	if err := s.upsertTaskRevision(tx, task, txID); err != nil {
		return err
	}
	return s.ensureBaseHalf(tx, task.EntityID, txID, op)
}

// ensureBaseHalf backfills the entity_revisions half when a subtype row
// was touched but the base row was not, e.g. an update that only changed
// dataset columns. The snapshot is taken from the live entity row.
func (s *Substrate) ensureBaseHalf(tx *gorm.DB, entityID uuid.UUID, txID int64, op domain.OperationType) error {
	var existing []domain.EntityRevision
	if err := tx.
		Where("entity_id = ? AND transaction_id = ?", entityID, txID).
		Limit(1).
		Find(&existing).Error; err != nil {
		return fmt.Errorf("look up base revision: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	var live []domain.Entity
	if err := tx.Where("id = ?", entityID).Limit(1).Find(&live).Error; err != nil {
		return fmt.Errorf("load live entity: %w", err)
	}
	if len(live) == 0 {
		return nil
	}
	return s.upsertBaseRevision(tx, &live[0], txID, op)
}

// ensureSubtypeHalf backfills the subtype revision half when the base row
// was touched first. If the live subtype row does not exist yet (entity
// created ahead of its subtype in the same transaction), the subtype's
// own create callback fills it in.
func (s *Substrate) ensureSubtypeHalf(tx *gorm.DB, entityID uuid.UUID, kind string, txID int64) error {
	switch kind {
	case domain.EntityTypeDataset:
		var live []domain.Dataset
		if err := tx.Where("entity_id = ?", entityID).Limit(1).Find(&live).Error; err != nil {
			return fmt.Errorf("load live dataset: %w", err)
		}
		if len(live) == 0 {
			return nil
		}
		return s.upsertDatasetRevision(tx, &live[0], txID)
	case domain.EntityTypeTrainedModel:
		var live []domain.TrainedModel
		if err := tx.Where("entity_id = ?", entityID).Limit(1).Find(&live).Error; err != nil {
			return fmt.Errorf("load live trained model: %w", err)
		}
		if len(live) == 0 {
			return nil
		}
		return s.upsertTrainedModelRevision(tx, &live[0], txID)
	case domain.EntityTypeTask:
		var live []domain.Task
		if err := tx.Where("entity_id = ?", entityID).Limit(1).Find(&live).Error; err != nil {
			return fmt.Errorf("load live task: %w", err)
		}
		if len(live) == 0 {
			return nil
		}
		return s.upsertTaskRevision(tx, &live[0], txID)
	default:
		return nil
	}
}

// upsertBaseRevision writes the (entity, transaction) base snapshot. On a
// second write within the same transaction the field columns are
// refreshed but the first operation type is kept, so a row inserted and
// then updated in one transaction still reads as an insert.
func (s *Substrate) upsertBaseRevision(tx *gorm.DB, entity *domain.Entity, txID int64, op domain.OperationType) error {
	var existing []domain.EntityRevision
	if err := tx.
		Where("entity_id = ? AND transaction_id = ?", entity.ID, txID).
		Limit(1).
		Find(&existing).Error; err != nil {
		return fmt.Errorf("look up base revision: %w", err)
	}

	if len(existing) > 0 {
		rev := existing[0]
		rev.Name = entity.Name
		rev.EntityType = entity.EntityType
		rev.AssetOrigin = entity.AssetOrigin
		rev.IsPrivate = entity.IsPrivate
		rev.Metadata = entity.Metadata
		rev.CollectionID = entity.CollectionID
		if op == domain.OperationDelete {
			rev.OperationType = op
		}
		if err := tx.Save(&rev).Error; err != nil {
			return fmt.Errorf("refresh base revision: %w", err)
		}
		return nil
	}

	rev := domain.EntityRevision{
		EntityID:      entity.ID,
		TransactionID: txID,
		Name:          entity.Name,
		EntityType:    entity.EntityType,
		AssetOrigin:   entity.AssetOrigin,
		IsPrivate:     entity.IsPrivate,
		Metadata:      entity.Metadata,
		CollectionID:  entity.CollectionID,
		OperationType: op,
	}
	if err := tx.Create(&rev).Error; err != nil {
		return fmt.Errorf("create base revision: %w", err)
	}
	return nil
}

func (s *Substrate) upsertDatasetRevision(tx *gorm.DB, dataset *domain.Dataset, txID int64) error {
	var existing []domain.DatasetRevision
	if err := tx.
		Where("entity_id = ? AND transaction_id = ?", dataset.EntityID, txID).
		Limit(1).
		Find(&existing).Error; err != nil {
		return fmt.Errorf("look up dataset revision: %w", err)
	}

	rev := domain.DatasetRevision{
		EntityID:        dataset.EntityID,
		TransactionID:   txID,
		DataPath:        dataset.DataPath,
		Format:          dataset.Format,
		MetadataVersion: dataset.MetadataVersion,
		DatasetMetadata: dataset.DatasetMetadata,
		LongDescription: dataset.LongDescription,
		PreviewType:     dataset.PreviewType,
	}
	if len(existing) > 0 {
		if err := tx.Save(&rev).Error; err != nil {
			return fmt.Errorf("refresh dataset revision: %w", err)
		}
		return nil
	}
	if err := tx.Create(&rev).Error; err != nil {
		return fmt.Errorf("create dataset revision: %w", err)
	}
	return nil
}

func (s *Substrate) upsertTrainedModelRevision(tx *gorm.DB, model *domain.TrainedModel, txID int64) error {
	var existing []domain.TrainedModelRevision
	if err := tx.
		Where("entity_id = ? AND transaction_id = ?", model.EntityID, txID).
		Limit(1).
		Find(&existing).Error; err != nil {
		return fmt.Errorf("look up trained model revision: %w", err)
	}

	rev := domain.TrainedModelRevision{
		EntityID:        model.EntityID,
		TransactionID:   txID,
		ModelPath:       model.ModelPath,
		Framework:       model.Framework,
		MetadataVersion: model.MetadataVersion,
		ModelMetadata:   model.ModelMetadata,
		LongDescription: model.LongDescription,
		ModelAttributes: model.ModelAttributes,
	}
	if len(existing) > 0 {
		if err := tx.Save(&rev).Error; err != nil {
			return fmt.Errorf("refresh trained model revision: %w", err)
		}
		return nil
	}
	if err := tx.Create(&rev).Error; err != nil {
		return fmt.Errorf("create trained model revision: %w", err)
	}
	return nil
}

func (s *Substrate) upsertTaskRevision(tx *gorm.DB, task *domain.Task, txID int64) error {
	var existing []domain.TaskRevision
	if err := tx.
		Where("entity_id = ? AND transaction_id = ?", task.EntityID, txID).
		Limit(1).
		Find(&existing).Error; err != nil {
		return fmt.Errorf("look up task revision: %w", err)
	}

	rev := domain.TaskRevision{
		EntityID:       task.EntityID,
		TransactionID:  txID,
		Workflow:       task.Workflow,
		Version:        task.Version,
		Description:    task.Description,
		HasFileUploads: task.HasFileUploads,
	}
	if len(existing) > 0 {
		if err := tx.Save(&rev).Error; err != nil {
			return fmt.Errorf("refresh task revision: %w", err)
		}
		return nil
	}
	if err := tx.Create(&rev).Error; err != nil {
		return fmt.Errorf("create task revision: %w", err)
	}
	return nil
}
