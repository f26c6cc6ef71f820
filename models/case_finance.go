package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientClaim is an amount the policy holder asks the insurer to pay
type ClientClaim struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	Amount      int64      `gorm:"not null;default:0" json:"amount"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"size:20" json:"status"`

	SortOrder int `gorm:"not null;default:0" json:"sort_order"`
}

// BeforeCreate hook to generate UUID
func (cc *ClientClaim) BeforeCreate(tx *gorm.DB) error {
	if cc.ID == "" {
		cc.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for ClientClaim model
func (ClientClaim) TableName() string {
	return "case_client_claims"
}

// Recourse is a recovery action against a liable third party
type Recourse struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	AgainstParty    string     `gorm:"not null" json:"against_party"`
	FiledAt         *time.Time `json:"filed_at,omitempty"`
	Amount          int64      `gorm:"not null;default:0" json:"amount"`
	RecoveredAmount int64      `gorm:"not null;default:0" json:"recovered_amount"`
	Status          string     `gorm:"size:20" json:"status"`

	SortOrder int `gorm:"not null;default:0" json:"sort_order"`
}

// BeforeCreate hook to generate UUID
func (r *Recourse) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Recourse model
func (Recourse) TableName() string {
	return "case_recourses"
}

// Settlement is a payment made to close out part of a claim
type Settlement struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	SettledAt *time.Time `json:"settled_at,omitempty"`
	Amount    int64      `gorm:"not null;default:0" json:"amount"`
	Payee     string     `json:"payee"`
	Method    string     `gorm:"size:20" json:"method"` // e.g. TRANSFER, CHEQUE
	Reference *string    `json:"reference,omitempty"`

	SortOrder int `gorm:"not null;default:0" json:"sort_order"`
}

// BeforeCreate hook to generate UUID
func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Settlement model
func (Settlement) TableName() string {
	return "case_settlements"
}
