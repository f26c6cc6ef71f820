package models

import (
	"encoding/json"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction represents the type of operation performed
type AuditAction string

const (
	AuditActionCreate        AuditAction = "CREATE"
	AuditActionUpdate        AuditAction = "UPDATE"
	AuditActionDelete        AuditAction = "DELETE"
	AuditActionDownload      AuditAction = "DOWNLOAD"       // Document or attachment downloaded
	AuditActionAssign        AuditAction = "ASSIGN"         // Message linked to cases
	AuditActionUnassign      AuditAction = "UNASSIGN"       // Message unlinked from a case
	AuditActionTransfer      AuditAction = "TRANSFER"       // Attachment copied or moved into a case
	AuditActionCleanupFailed AuditAction = "CLEANUP_FAILED" // Source left behind after a move, needs manual follow-up
)

// AuditLog represents an immutable record of a data operation
type AuditLog struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_audit_created_at" json:"created_at"`

	// Actor identification, as supplied by the calling layer
	ActorID   *string `gorm:"size:64;index:idx_audit_actor" json:"actor_id,omitempty"`
	ActorName string  `json:"actor_name"` // Denormalized for historical accuracy

	// Owning case, when the resource lives inside one
	CaseID *string `gorm:"type:uuid;index:idx_audit_case" json:"case_id,omitempty"`

	// Target resource
	ResourceType string `gorm:"not null;index:idx_audit_resource" json:"resource_type"` // e.g., "Case", "Message"
	ResourceID   string `gorm:"type:uuid;not null;index:idx_audit_resource" json:"resource_id"`
	ResourceName string `json:"resource_name,omitempty"` // Human-readable identifier (e.g., claim number)

	// Operation details
	Action      AuditAction `gorm:"not null;index:idx_audit_action" json:"action"`
	Description string      `gorm:"type:text" json:"description,omitempty"` // Human-readable summary

	// Change tracking (for UPDATE operations)
	OldValues string `gorm:"type:text" json:"old_values,omitempty"` // JSON encoded
	NewValues string `gorm:"type:text" json:"new_values,omitempty"` // JSON encoded

	// Request metadata (optional)
	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// AuditChange represents a single field change
type AuditChange struct {
	Field string      `json:"field"`
	Old   interface{} `json:"old"`
	New   interface{} `json:"new"`
}

// Changes diffs the stored JSON snapshots, sorted by field name.
// A field present on one side only shows up with a nil counterpart.
func (a *AuditLog) Changes() []AuditChange {
	before := decodeSnapshot(a.OldValues)
	after := decodeSnapshot(a.NewValues)

	var changes []AuditChange
	for field, old := range before {
		if n, ok := after[field]; !ok || !reflect.DeepEqual(old, n) {
			changes = append(changes, AuditChange{Field: field, Old: old, New: after[field]})
		}
	}
	for field, n := range after {
		if _, ok := before[field]; !ok {
			changes = append(changes, AuditChange{Field: field, New: n})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

func decodeSnapshot(raw string) map[string]interface{} {
	out := map[string]interface{}{}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &out)
	}
	return out
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// Audit rows are append-only
func (a *AuditLog) BeforeUpdate(tx *gorm.DB) error {
	return gorm.ErrInvalidData
}

func (a *AuditLog) BeforeDelete(tx *gorm.DB) error {
	return gorm.ErrInvalidData
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
