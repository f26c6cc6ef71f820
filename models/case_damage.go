package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Damage kinds
const (
	DamageKindVehicle  = "VEHICLE"
	DamageKindProperty = "PROPERTY"
	DamageKindBodily   = "BODILY"
	DamageKindOther    = "OTHER"
)

// Damage is a single loss item recorded on a case
type Damage struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	Kind            string  `gorm:"size:20;not null;default:OTHER" json:"kind"`
	Description     string  `gorm:"type:text" json:"description"`
	EstimatedAmount int64   `gorm:"not null;default:0" json:"estimated_amount"`
	AssessedAmount  *int64  `json:"assessed_amount,omitempty"`
	AssessorName    *string `json:"assessor_name,omitempty"`

	SortOrder int `gorm:"not null;default:0" json:"sort_order"`
}

// BeforeCreate hook to generate UUID
func (d *Damage) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Damage model
func (Damage) TableName() string {
	return "case_damages"
}
