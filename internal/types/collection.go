package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Collection statuses. "generating" guards against concurrent item
// generation runs on the same collection; "cancelling" is the polled
// cancellation flag for an active run.
const (
	CollectionStatusActive     = "active"
	CollectionStatusGenerating = "generating"
	CollectionStatusCancelling = "cancelling"
)

type Collection struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BrandID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"brand_id"`
	Brand      *Brand         `gorm:"constraint:OnDelete:CASCADE;foreignKey:BrandID;references:ID" json:"brand,omitempty"`
	Name       string         `gorm:"column:name;not null" json:"name"`
	Season     string         `gorm:"column:season" json:"season"`
	Categories datatypes.JSON `gorm:"column:categories;type:jsonb" json:"categories"`
	Status     string         `gorm:"column:status;not null;default:'active';index" json:"status"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Collection) TableName() string { return "collection" }
