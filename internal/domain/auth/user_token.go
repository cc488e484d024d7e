package auth

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultSlot is the only credential slot a single-user companion uses.
const DefaultSlot = "default"

// StoredCredential is the one piece of state that outlives the process: the bearer credential and
// the principal it last resolved to.
type StoredCredential struct {
	Slot        string         `gorm:"primaryKey;column:slot" json:"slot"`
	AccessToken string         `gorm:"not null;column:access_token" json:"access_token"`
	Principal   datatypes.JSON `gorm:"column:principal" json:"principal,omitempty"`
	SavedAt     time.Time      `gorm:"not null;column:saved_at" json:"saved_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (StoredCredential) TableName() string { return "stored_credential" }
