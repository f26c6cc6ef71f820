package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Participant roles
const (
	ParticipantRoleInjured     = "INJURED"
	ParticipantRolePerpetrator = "PERPETRATOR"
	ParticipantRoleOther       = "OTHER"
)

// Driver roles
const (
	DriverRoleDriver  = "DRIVER"
	DriverRoleOwner   = "OWNER"
	DriverRoleCoOwner = "CO_OWNER"
)

// Participant is a person or entity involved in a case
type Participant struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CaseID string `gorm:"type:uuid;not null;index" json:"case_id"`

	Role string `gorm:"size:20;not null" json:"role"`

	Name         string  `gorm:"not null" json:"name"`
	Address      *string `json:"address,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	NationalID   *string `gorm:"size:40" json:"national_id,omitempty"`
	InsurerName  *string `json:"insurer_name,omitempty"`
	PolicyNumber *string `gorm:"size:60" json:"policy_number,omitempty"`

	// Vehicle
	VehiclePlate *string `gorm:"size:20" json:"vehicle_plate,omitempty"`
	VehicleMake  *string `json:"vehicle_make,omitempty"`
	VehicleModel *string `json:"vehicle_model,omitempty"`

	SortOrder int `gorm:"not null;default:0" json:"sort_order"`

	Drivers []Driver `gorm:"foreignKey:ParticipantID;constraint:OnDelete:CASCADE" json:"drivers"`
}

// BeforeCreate hook to generate UUID
func (p *Participant) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Participant model
func (Participant) TableName() string {
	return "case_participants"
}

// Driver is a person associated with a participant's vehicle
type Driver struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ParticipantID string `gorm:"type:uuid;not null;index" json:"participant_id"`

	Role string `gorm:"size:20;not null" json:"role"`

	Name          string  `gorm:"not null" json:"name"`
	LicenseNumber *string `gorm:"size:40" json:"license_number,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Address       *string `json:"address,omitempty"`

	SortOrder int `gorm:"not null;default:0" json:"sort_order"`
}

// BeforeCreate hook to generate UUID
func (d *Driver) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Driver model
func (Driver) TableName() string {
	return "case_drivers"
}

// IsValidParticipantRole checks if the participant role is valid
func IsValidParticipantRole(role string) bool {
	return role == ParticipantRoleInjured || role == ParticipantRolePerpetrator || role == ParticipantRoleOther
}

// IsValidDriverRole checks if the driver role is valid
func IsValidDriverRole(role string) bool {
	return role == DriverRoleDriver || role == DriverRoleOwner || role == DriverRoleCoOwner
}
