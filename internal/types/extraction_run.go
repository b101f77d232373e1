package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RunKindDocumentExtraction = "document_extraction"
	RunKindItemGeneration     = "item_generation"
)

const (
	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// ExtractionRun is both the background job queue row (claimed with
// SKIP LOCKED by the worker pool) and the polled status record clients
// read for generation progress. CancelRequested is checked cooperatively
// between phases; in-flight LLM calls finish before it is observed.
type ExtractionRun struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BrandID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"brand_id"`
	CollectionID uuid.UUID  `gorm:"type:uuid;not null;index" json:"collection_id"`
	DocumentID   *uuid.UUID `gorm:"type:uuid;index" json:"document_id,omitempty"`

	Kind            string         `gorm:"column:kind;not null;index" json:"kind"`
	Status          string         `gorm:"column:status;not null;index" json:"status"`
	Stage           string         `gorm:"column:stage;not null" json:"stage"`
	Progress        int            `gorm:"column:progress;not null;default:0" json:"progress"`
	Message         string         `gorm:"column:message" json:"message"`
	Attempts        int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	Error           string         `gorm:"column:error" json:"error,omitempty"`
	CancelRequested bool           `gorm:"column:cancel_requested;not null;default:false" json:"cancel_requested"`
	Result          datatypes.JSON `gorm:"column:result;type:jsonb" json:"result"`

	LastErrorAt *time.Time `gorm:"column:last_error_at" json:"last_error_at,omitempty"`
	LockedAt    *time.Time `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	HeartbeatAt *time.Time `gorm:"column:heartbeat_at;index" json:"heartbeat_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ExtractionRun) TableName() string { return "extraction_run" }
