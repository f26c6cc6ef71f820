package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Well-known case status values. Status is stored as a free-form string and
// no transition rules are enforced, so any other value is accepted as well.
const (
	CaseStatusNew       = "NEW"
	CaseStatusOpen      = "OPEN"
	CaseStatusInReview  = "IN_REVIEW"
	CaseStatusDecided   = "DECIDED"
	CaseStatusAppealed  = "APPEALED"
	CaseStatusSettled   = "SETTLED"
	CaseStatusClosed    = "CLOSED"
	CaseStatusWithdrawn = "WITHDRAWN"
)

// Case represents an insurance claim (loss event) and owns every child collection below it.
type Case struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Optimistic concurrency token, incremented by every full upsert
	Version int `gorm:"not null;default:1" json:"version"`

	// Identification
	ClaimNumber  string  `gorm:"size:40;uniqueIndex" json:"claim_number"`
	Title        *string `json:"title,omitempty"`
	PolicyNumber *string `gorm:"size:60;index" json:"policy_number,omitempty"`

	// Reference dictionary codes, resolved by the caller
	RiskTypeCode *string `gorm:"size:40" json:"risk_type_code,omitempty"`
	BranchCode   *string `gorm:"size:40" json:"branch_code,omitempty"`
	ClientCode   *string `gorm:"size:40;index" json:"client_code,omitempty"`
	HandlerID    *string `gorm:"size:64;index" json:"handler_id,omitempty"`
	HandlerEmail *string `json:"handler_email,omitempty"`

	Status string `gorm:"not null;default:NEW;index" json:"status"`

	// Loss event
	EventDate     *time.Time `json:"event_date,omitempty"`
	ReportedAt    *time.Time `json:"reported_at,omitempty"`
	EventLocation *string    `json:"event_location,omitempty"`
	Description   string     `gorm:"type:text" json:"description"`

	// Amounts in minor currency units
	ClaimedAmount int64  `gorm:"not null;default:0" json:"claimed_amount"`
	ReserveAmount int64  `gorm:"not null;default:0" json:"reserve_amount"`
	Currency      string `gorm:"size:3;not null;default:EUR" json:"currency"`

	// Owned collections
	Participants []Participant `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"participants"`
	Damages      []Damage      `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"damages"`
	Decisions    []Decision    `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"decisions"`
	Appeals      []Appeal      `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"appeals"`
	ClientClaims []ClientClaim `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"client_claims"`
	Recourses    []Recourse    `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"recourses"`
	Settlements  []Settlement  `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"settlements"`
	Notes        []CaseNote    `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"notes"`
	Documents    []CaseDocument `gorm:"foreignKey:CaseID;constraint:OnDelete:CASCADE" json:"documents"`
}

// BeforeCreate hook to generate UUID and default status
func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = CaseStatusNew
	}
	if c.Version == 0 {
		c.Version = 1
	}
	return nil
}

// TableName specifies the table name for Case model
func (Case) TableName() string {
	return "cases"
}

// IsClosed checks if the case carries one of the terminal well-known statuses
func (c *Case) IsClosed() bool {
	return c.Status == CaseStatusClosed || c.Status == CaseStatusWithdrawn
}

// DisplayTitle returns the title or falls back to the claim number
func (c *Case) DisplayTitle() string {
	if c.Title != nil && *c.Title != "" {
		return *c.Title
	}
	return c.ClaimNumber
}
