package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Item is a final sellable record produced by reconciling a purchase order
// row against the merged line-sheet catalog. ContentHash is a pure function
// of (sku, color_code); the engine looks items up by hash before insert so
// reruns over unchanged inputs skip instead of duplicating.
type Item struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CollectionID uuid.UUID   `gorm:"type:uuid;not null;index:idx_item_collection_hash,unique" json:"collection_id"`
	Collection   *Collection `gorm:"constraint:OnDelete:CASCADE;foreignKey:CollectionID;references:ID" json:"collection,omitempty"`
	ContentHash  string      `gorm:"column:content_hash;not null;index:idx_item_collection_hash,unique" json:"content_hash"`

	SKU         string `gorm:"column:sku;not null" json:"sku"`
	BaseSKU     string `gorm:"column:base_sku" json:"base_sku"`
	ColorName   string `gorm:"column:color_name" json:"color_name"`
	ColorCode   string `gorm:"column:color_code" json:"color_code"`
	ProductName string `gorm:"column:product_name" json:"product_name"`
	Category    string `gorm:"column:category" json:"category"`
	Subcategory string `gorm:"column:subcategory" json:"subcategory"`

	Sizes          datatypes.JSON `gorm:"column:sizes;type:jsonb" json:"sizes"`
	Quantity       int            `gorm:"column:quantity;not null;default:0" json:"quantity"`
	WholesalePrice *float64       `gorm:"column:wholesale_price" json:"wholesale_price,omitempty"`
	RRP            *float64       `gorm:"column:rrp" json:"rrp,omitempty"`
	Currency       string         `gorm:"column:currency" json:"currency"`
	Origin         string         `gorm:"column:origin" json:"origin"`
	Materials      datatypes.JSON `gorm:"column:materials;type:jsonb" json:"materials"`
	Images         datatypes.JSON `gorm:"column:images;type:jsonb" json:"images"`

	Enriched        bool           `gorm:"column:enriched;not null;default:false" json:"enriched"`
	ManualReview    bool           `gorm:"column:manual_review;not null;default:false" json:"manual_review"`
	SourceDocuments datatypes.JSON `gorm:"column:source_documents;type:jsonb" json:"source_documents"`
	GenerationRunID *uuid.UUID     `gorm:"column:generation_run_id;type:uuid;index" json:"generation_run_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Item) TableName() string { return "item" }
