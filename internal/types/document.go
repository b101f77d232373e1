package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DocumentTypeLineSheet     = "line_sheet"
	DocumentTypePurchaseOrder = "purchase_order"
)

const (
	DocumentStatusUploaded   = "uploaded"
	DocumentStatusProcessing = "processing"
	DocumentStatusProcessed  = "processed"
	DocumentStatusFailed     = "failed"
)

// Document is an uploaded line sheet or purchase order. StructuredProducts
// and ExtractionProgress are JSONB fields overwritten wholesale per
// extraction run; ExtractionProgress is SQL NULL outside an active run.
type Document struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	CollectionID uuid.UUID   `gorm:"type:uuid;not null;index" json:"collection_id"`
	Collection   *Collection `gorm:"constraint:OnDelete:CASCADE;foreignKey:CollectionID;references:ID" json:"collection,omitempty"`
	Type         string      `gorm:"column:type;not null;index" json:"type"`
	OriginalName string      `gorm:"column:original_name;not null" json:"original_name"`
	MimeType     string      `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes    int64       `gorm:"column:size_bytes" json:"size_bytes"`
	StorageKey   string      `gorm:"column:storage_key;not null" json:"storage_key"`
	FileURL      string      `gorm:"column:file_url" json:"file_url"`
	Status       string      `gorm:"column:status;not null;default:'uploaded';index" json:"status"`
	Error        string      `gorm:"column:error" json:"error,omitempty"`

	StructuredProducts datatypes.JSON `gorm:"column:structured_products;type:jsonb" json:"structured_products"`
	ExtractionProgress datatypes.JSON `gorm:"column:extraction_progress;type:jsonb" json:"extraction_progress"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Document) TableName() string { return "document" }
