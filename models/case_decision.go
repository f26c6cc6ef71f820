package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Decision outcomes
const (
	DecisionOutcomeAccepted = "ACCEPTED"
	DecisionOutcomePartial  = "PARTIAL"
	DecisionOutcomeRejected = "REJECTED"
)

// Decision records the insurer's ruling on a case
type Decision struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	Outcome       string     `gorm:"size:20" json:"outcome"`
	Amount        int64      `gorm:"not null;default:0" json:"amount"`
	Justification string     `gorm:"type:text" json:"justification"`
	DecidedBy     *string    `json:"decided_by,omitempty"`

	SortOrder int `gorm:"not null;default:0" json:"sort_order"`
}

// BeforeCreate hook to generate UUID
func (d *Decision) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Decision model
func (Decision) TableName() string {
	return "case_decisions"
}

// Appeal is a challenge against a decision
type Appeal struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	FiledAt    *time.Time `json:"filed_at,omitempty"`
	FiledBy    *string    `json:"filed_by,omitempty"`
	Reason     string     `gorm:"type:text" json:"reason"`
	Resolution *string    `gorm:"type:text" json:"resolution,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	SortOrder int `gorm:"not null;default:0" json:"sort_order"`
}

// BeforeCreate hook to generate UUID
func (a *Appeal) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Appeal model
func (Appeal) TableName() string {
	return "case_appeals"
}
