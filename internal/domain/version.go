package domain

import (
	"time"

	"github.com/google/uuid"
)

// EntityVersionHash anchors one distinct content value of an entity to the
// ledger transaction that first produced it. At most one row exists per
// (entity_id, content_hash); the anchor never moves when identical content
// recurs in a later transaction.
type EntityVersionHash struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EntityID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_version_hash_entity_content" json:"entity_id"`
	TransactionID int64     `gorm:"column:transaction_id;not null;index" json:"transaction_id"`
	ContentHash   string    `gorm:"column:content_hash;type:varchar(64);not null;uniqueIndex:idx_version_hash_entity_content" json:"content_hash"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`

	Tags []EntityVersionTag `gorm:"foreignKey:VersionHashID;references:ID" json:"tags,omitempty"`
}

func (EntityVersionHash) TableName() string { return "entity_version_hashes" }

// EntityVersionTag is a human-readable label on one version-hash row.
// EntityID is denormalized from the hash row so the per-entity tag-name
// uniqueness invariant can be enforced by the database.
type EntityVersionTag struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VersionHashID uuid.UUID `gorm:"type:uuid;not null;index" json:"version_hash_id"`
	EntityID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_version_tag_entity_name" json:"entity_id"`
	TagName       string    `gorm:"column:tag_name;not null;uniqueIndex:idx_version_tag_entity_name" json:"tag_name"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (EntityVersionTag) TableName() string { return "entity_version_tags" }
