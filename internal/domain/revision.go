package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OperationType records which kind of mutation produced a revision row.
type OperationType int16

const (
	OperationInsert OperationType = 0
	OperationUpdate OperationType = 1
	OperationDelete OperationType = 2
)

func (o OperationType) String() string {
	switch o {
	case OperationInsert:
		return "insert"
	case OperationUpdate:
		return "update"
	case OperationDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// LedgerTransaction is one row per committed database transaction that
// mutated a tracked entity. IDs are issued by a sequence and are strictly
// increasing; XactID ties the row to the Postgres transaction that created
// it so later statements in the same transaction reuse it.
type LedgerTransaction struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	XactID   int64     `gorm:"column:xact_id;not null;index" json:"xact_id"`
	IssuedAt time.Time `gorm:"column:issued_at;not null;default:now()" json:"issued_at"`
}

func (LedgerTransaction) TableName() string { return "transactions" }

// EntityRevision is the full-column snapshot of an entity's base row as of
// one ledger transaction. Together with its paired subtype revision it forms
// one raw-history entry.
type EntityRevision struct {
	EntityID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"entity_id"`
	TransactionID int64     `gorm:"column:transaction_id;primaryKey;autoIncrement:false" json:"transaction_id"`

	Name         string         `gorm:"column:name;not null" json:"name"`
	EntityType   string         `gorm:"column:entity_type;not null" json:"entity_type"`
	AssetOrigin  string         `gorm:"column:asset_origin" json:"asset_origin,omitempty"`
	IsPrivate    bool           `gorm:"column:is_private;not null;default:false" json:"is_private"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CollectionID *uuid.UUID     `gorm:"type:uuid" json:"collection_id,omitempty"`

	OperationType OperationType `gorm:"column:operation_type;not null" json:"operation_type"`
}

func (EntityRevision) TableName() string { return "entity_revisions" }

// DatasetRevision is the paired dataset-table snapshot for one transaction.
type DatasetRevision struct {
	EntityID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"entity_id"`
	TransactionID int64     `gorm:"column:transaction_id;primaryKey;autoIncrement:false" json:"transaction_id"`

	DataPath        string         `gorm:"column:data_path;not null" json:"data_path"`
	Format          string         `gorm:"column:format;not null" json:"format"`
	MetadataVersion string         `gorm:"column:metadata_version" json:"metadata_version,omitempty"`
	DatasetMetadata datatypes.JSON `gorm:"column:dataset_metadata;type:jsonb" json:"dataset_metadata,omitempty"`
	LongDescription string         `gorm:"column:long_description;type:text" json:"long_description,omitempty"`
	PreviewType     string         `gorm:"column:preview_type" json:"preview_type,omitempty"`
}

func (DatasetRevision) TableName() string { return "dataset_revisions" }

// TrainedModelRevision is the paired trained-model snapshot.
type TrainedModelRevision struct {
	EntityID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"entity_id"`
	TransactionID int64     `gorm:"column:transaction_id;primaryKey;autoIncrement:false" json:"transaction_id"`

	ModelPath       string         `gorm:"column:model_path;not null" json:"model_path"`
	Framework       string         `gorm:"column:framework" json:"framework,omitempty"`
	MetadataVersion string         `gorm:"column:metadata_version" json:"metadata_version,omitempty"`
	ModelMetadata   datatypes.JSON `gorm:"column:model_metadata;type:jsonb" json:"model_metadata,omitempty"`
	LongDescription string         `gorm:"column:long_description;type:text" json:"long_description,omitempty"`
	ModelAttributes datatypes.JSON `gorm:"column:model_attributes;type:jsonb" json:"model_attributes,omitempty"`
}

func (TrainedModelRevision) TableName() string { return "trained_model_revisions" }

// TaskRevision is the paired task snapshot.
type TaskRevision struct {
	EntityID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"entity_id"`
	TransactionID int64     `gorm:"column:transaction_id;primaryKey;autoIncrement:false" json:"transaction_id"`

	Workflow       datatypes.JSON `gorm:"column:workflow;type:jsonb;not null" json:"workflow"`
	Version        string         `gorm:"column:version" json:"version,omitempty"`
	Description    string         `gorm:"column:description;type:text" json:"description,omitempty"`
	HasFileUploads bool           `gorm:"column:has_file_uploads;not null;default:false" json:"has_file_uploads"`
}

func (TaskRevision) TableName() string { return "task_revisions" }
