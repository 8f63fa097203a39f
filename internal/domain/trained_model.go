package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TrainedModel holds the kind-specific half of a trained-model entity.
type TrainedModel struct {
	EntityID uuid.UUID `gorm:"type:uuid;primaryKey" json:"entity_id"`
	Entity   *Entity   `gorm:"constraint:OnDelete:CASCADE;foreignKey:EntityID;references:ID" json:"entity,omitempty"`

	ModelPath       string         `gorm:"column:model_path;not null" json:"model_path"`
	Framework       string         `gorm:"column:framework" json:"framework,omitempty"`
	MetadataVersion string         `gorm:"column:metadata_version" json:"metadata_version,omitempty"`
	ModelMetadata   datatypes.JSON `gorm:"column:model_metadata;type:jsonb" json:"model_metadata,omitempty"`
	LongDescription string         `gorm:"column:long_description;type:text" json:"long_description,omitempty"`
	ModelAttributes datatypes.JSON `gorm:"column:model_attributes;type:jsonb" json:"model_attributes,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TrainedModel) TableName() string { return "trained_models" }
