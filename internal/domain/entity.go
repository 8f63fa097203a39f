package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Entity kinds. The discriminator selects which subtype table carries the
// kind-specific half of the record.
const (
	EntityTypeDataset      = "dataset"
	EntityTypeTrainedModel = "trained_model"
	EntityTypeTask         = "task"
)

// Entity is the shared base row of every catalog asset. Each entity has
// exactly one subtype row (Dataset, TrainedModel or Task) keyed by EntityID.
type Entity struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name         string         `gorm:"column:name;not null;index" json:"name"`
	EntityType   string         `gorm:"column:entity_type;not null;index" json:"entity_type"`
	AssetOrigin  string         `gorm:"column:asset_origin" json:"asset_origin,omitempty"`
	IsPrivate    bool           `gorm:"column:is_private;not null;default:false" json:"is_private"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CollectionID *uuid.UUID     `gorm:"type:uuid;index" json:"collection_id,omitempty"`
	Collection   *Collection    `gorm:"foreignKey:CollectionID;references:ID" json:"collection,omitempty"`

	// CurrentVersionHash mirrors the hash of the most recent checkpoint.
	// Advisory only; the version store is authoritative.
	CurrentVersionHash string `gorm:"column:current_version_hash;type:varchar(64);index" json:"current_version_hash,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Entity) TableName() string { return "entities" }
