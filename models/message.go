package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message directions
const (
	MessageDirectionInbound  = "inbound"
	MessageDirectionOutbound = "outbound"
)

// Message statuses
const (
	MessageStatusDraft    = "draft"
	MessageStatusSent     = "sent"
	MessageStatusReceived = "received"
	MessageStatusFailed   = "failed"
)

// Message flags accepted by flag updates
const (
	MessageFlagRead      = "read"
	MessageFlagImportant = "important"
	MessageFlagStarred   = "starred"
	MessageFlagArchived  = "archived"
)

// Message is a correspondence record. It is never owned by a case;
// the link to cases is the Assignments edge set.
type Message struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Direction string `gorm:"size:10;not null;index" json:"direction"`
	Status    string `gorm:"size:10;not null;index" json:"status"`

	ExternalMessageID *string `gorm:"size:255;index" json:"external_message_id,omitempty"` // RFC 5322 Message-ID
	Subject           string  `json:"subject"`
	FromAddress       string  `gorm:"size:255" json:"from_address"`
	ToAddresses       string  `gorm:"type:text" json:"to_addresses"` // comma separated
	CcAddresses       string  `gorm:"type:text" json:"cc_addresses,omitempty"`
	BodyText          string  `gorm:"type:text" json:"body_text,omitempty"`
	BodyHTML          string  `gorm:"type:text" json:"body_html,omitempty"`

	// Flags
	IsRead      bool `gorm:"not null;default:false" json:"is_read"`
	IsImportant bool `gorm:"not null;default:false" json:"is_important"`
	IsStarred   bool `gorm:"not null;default:false" json:"is_starred"`
	IsArchived  bool `gorm:"not null;default:false" json:"is_archived"`

	// Listing timestamp: received time for inbound, sent or last edit time for outbound
	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"`

	Attachments []Attachment        `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
	Assignments []MessageAssignment `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"assignments,omitempty"`
}

// BeforeCreate hook to generate UUID and listing timestamp
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.OccurredAt.IsZero() {
		m.OccurredAt = time.Now()
	}
	return nil
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// CaseIDs returns the assignment set as case identities
func (m *Message) CaseIDs() []string {
	ids := make([]string, 0, len(m.Assignments))
	for _, a := range m.Assignments {
		ids = append(ids, a.CaseID)
	}
	return ids
}

// IsAssigned reports whether the message is linked to at least one case
func (m *Message) IsAssigned() bool {
	return len(m.Assignments) > 0
}

// IsValidMessageFlag checks if the flag name is known
func IsValidMessageFlag(flag string) bool {
	switch flag {
	case MessageFlagRead, MessageFlagImportant, MessageFlagStarred, MessageFlagArchived:
		return true
	}
	return false
}

// MessageFlagColumn maps a flag name to its column
func MessageFlagColumn(flag string) string {
	switch flag {
	case MessageFlagRead:
		return "is_read"
	case MessageFlagImportant:
		return "is_important"
	case MessageFlagStarred:
		return "is_starred"
	case MessageFlagArchived:
		return "is_archived"
	}
	return ""
}

// IsValidMessageState checks the direction/status combination a message may be created with
func IsValidMessageState(direction, status string) bool {
	switch direction {
	case MessageDirectionInbound:
		return status == MessageStatusReceived
	case MessageDirectionOutbound:
		return status == MessageStatusDraft || status == MessageStatusSent || status == MessageStatusFailed
	}
	return false
}

// CanTransitionMessageStatus checks an outbound status change
func CanTransitionMessageStatus(from, to string) bool {
	switch from {
	case MessageStatusDraft:
		return to == MessageStatusSent || to == MessageStatusFailed
	case MessageStatusFailed:
		return to == MessageStatusDraft || to == MessageStatusSent
	}
	return false
}

// Attachment is a file embedded in a message. Its bytes are immutable once stored.
type Attachment struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	MessageID string `gorm:"type:uuid;not null;index" json:"message_id"`

	FileName   string `gorm:"size:255;not null" json:"file_name"`
	MimeType   string `gorm:"size:100" json:"mime_type"`
	FileSize   int64  `gorm:"not null" json:"file_size"`
	StorageKey string `gorm:"not null;uniqueIndex" json:"-"`
	Checksum   string `gorm:"size:64" json:"checksum"`
}

// BeforeCreate hook to generate UUID
func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// BeforeUpdate keeps attachments immutable
func (a *Attachment) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrInvalidData
}

// TableName returns the table name for Attachment
func (Attachment) TableName() string {
	return "message_attachments"
}

// MessageAssignment is the many-to-many edge between a message and a case
type MessageAssignment struct {
	MessageID string    `gorm:"type:uuid;primaryKey" json:"message_id"`
	CaseID    string    `gorm:"type:uuid;primaryKey;index" json:"case_id"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy *string   `json:"created_by,omitempty"`

	Case *Case `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for MessageAssignment
func (MessageAssignment) TableName() string {
	return "message_assignments"
}
