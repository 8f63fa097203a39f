package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Task holds the kind-specific half of a workflow-task entity.
type Task struct {
	EntityID uuid.UUID `gorm:"type:uuid;primaryKey" json:"entity_id"`
	Entity   *Entity   `gorm:"constraint:OnDelete:CASCADE;foreignKey:EntityID;references:ID" json:"entity,omitempty"`

	Workflow       datatypes.JSON `gorm:"column:workflow;type:jsonb;not null" json:"workflow"`
	Version        string         `gorm:"column:version" json:"version,omitempty"`
	Description    string         `gorm:"column:description;type:text" json:"description,omitempty"`
	HasFileUploads bool           `gorm:"column:has_file_uploads;not null;default:false" json:"has_file_uploads"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Task) TableName() string { return "tasks" }
