package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CaseNote struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	Author string `json:"author"`
	Body   string `gorm:"type:text" json:"body"`

	SortOrder int `gorm:"not null;default:0" json:"sort_order"`
}

// BeforeCreate hook to generate UUID
func (n *CaseNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}

func (CaseNote) TableName() string {
	return "case_notes"
}
