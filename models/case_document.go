package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Well-known document categories
const (
	DocumentCategoryCorrespondence = "correspondence"
	DocumentCategoryEvidence       = "evidence"
	DocumentCategoryExpertise      = "expertise"
	DocumentCategoryDecision       = "decision"
	DocumentCategoryInvoice        = "invoice"
	DocumentCategoryReport         = "report"
	DocumentCategoryOther          = "other"
)

// CaseDocument represents a file owned by a case.
// Its bytes live under StorageKey, which is never shared with another row.
type CaseDocument struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	// File metadata
	FileName         string `gorm:"not null" json:"file_name"`
	FileOriginalName string `gorm:"not null" json:"file_original_name"`
	StorageKey       string `gorm:"not null;uniqueIndex" json:"-"` // Not exposed in JSON for security
	FileSize         int64  `gorm:"not null" json:"file_size"`
	MimeType         string `json:"mime_type,omitempty"`
	Checksum         string `gorm:"size:64" json:"checksum"`

	// Document metadata
	Category    string  `gorm:"size:40;not null;default:other" json:"category"`
	Description *string `gorm:"type:text" json:"description,omitempty"`

	// Provenance when the document was produced from a message attachment.
	// Not a foreign key: the attachment may be deleted afterwards.
	SourceAttachmentID *string `gorm:"type:uuid;index" json:"source_attachment_id,omitempty"`
	SourceMessageID    *string `gorm:"type:uuid" json:"source_message_id,omitempty"`

	UploadedBy *string `json:"uploaded_by,omitempty"`

	SortOrder int `gorm:"not null;default:0" json:"sort_order"`
}

// BeforeCreate hook to generate UUID
func (d *CaseDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Category == "" {
		d.Category = DocumentCategoryOther
	}
	return nil
}

// TableName specifies the table name for CaseDocument model
func (CaseDocument) TableName() string {
	return "case_documents"
}

// GetDownloadURL returns a safe download URL for this document
func (d *CaseDocument) GetDownloadURL() string {
	return "/api/cases/" + d.CaseID + "/documents/" + d.ID + "/download"
}
