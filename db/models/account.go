package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account is a payment channel attached to an individual (bank account,
// mobile wallet, ...). Data holds the mechanism-specific fields; the
// delivery mechanism declares which of them are required. Invalid or
// duplicate accounts raise system-generated grievance tickets during merge
// instead of failing the batch.
type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	IndividualID uuid.UUID `gorm:"type:uuid;not null;index" json:"individual_id"`

	DeliveryMechanismID uuid.UUID          `gorm:"type:uuid;not null;index" json:"delivery_mechanism_id"`
	DeliveryMechanism   *DeliveryMechanism `gorm:"foreignKey:DeliveryMechanismID" json:"delivery_mechanism,omitempty"`

	Data datatypes.JSONMap `json:"data"`

	// UniqueKey is the normalized concatenation of the mechanism's unique
	// fields; two active accounts with the same key within one program are
	// duplicates.
	UniqueKey string `gorm:"index" json:"unique_key"`

	RdiMergeStatus MergeStatus `gorm:"type:varchar(10);default:'PENDING';index" json:"rdi_merge_status"`
	Active         bool        `gorm:"default:true" json:"active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
