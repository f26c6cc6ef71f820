package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types
const (
	NotificationTypeCorrespondenceAssigned = "CORRESPONDENCE_ASSIGNED"
	NotificationTypeDocumentAdded          = "DOCUMENT_ADDED"
	NotificationTypeCleanupFailed          = "CLEANUP_FAILED"
)

type Notification struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Targeting: a case feed, optionally narrowed to one handler
	CaseID    *string `gorm:"type:uuid;index" json:"case_id,omitempty"`
	HandlerID *string `gorm:"size:64;index" json:"handler_id,omitempty"`

	// Context
	MessageID  *string `gorm:"type:uuid" json:"message_id,omitempty"`
	DocumentID *string `gorm:"type:uuid" json:"document_id,omitempty"`

	// Content
	Type    string `gorm:"not null" json:"type"`
	Title   string `gorm:"not null" json:"title"`
	Message string `gorm:"type:text" json:"message"`
	LinkURL string `json:"link_url,omitempty"` // e.g., "/api/cases/{case_id}"

	// Read tracking
	ReadAt *time.Time `json:"read_at,omitempty"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
