package domain

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a logical grouping of entities. Bookkeeping only: the
// owning collection never participates in content hashing.
type Collection struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Collection) TableName() string { return "collections" }
