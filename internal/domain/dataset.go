package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Dataset holds the kind-specific half of a dataset entity.
type Dataset struct {
	EntityID uuid.UUID `gorm:"type:uuid;primaryKey" json:"entity_id"`
	Entity   *Entity   `gorm:"constraint:OnDelete:CASCADE;foreignKey:EntityID;references:ID" json:"entity,omitempty"`

	DataPath        string         `gorm:"column:data_path;not null" json:"data_path"`
	Format          string         `gorm:"column:format;not null" json:"format"`
	MetadataVersion string         `gorm:"column:metadata_version" json:"metadata_version,omitempty"`
	DatasetMetadata datatypes.JSON `gorm:"column:dataset_metadata;type:jsonb" json:"dataset_metadata,omitempty"`
	LongDescription string         `gorm:"column:long_description;type:text" json:"long_description,omitempty"`

	// PreviewType describes the externally stored preview blob; the blob
	// itself lives in object storage and is not versioned here.
	PreviewType string `gorm:"column:preview_type" json:"preview_type,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Dataset) TableName() string { return "datasets" }
