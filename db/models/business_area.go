package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BusinessArea is the country-office level unit that owns programs,
// imports and grievance tickets.
type BusinessArea struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Name string    `gorm:"not null" json:"name"`
	Slug string    `gorm:"uniqueIndex;not null" json:"slug"`
	Code string    `gorm:"uniqueIndex;not null" json:"code"`

	Active bool `gorm:"default:true" json:"active"`

	// ScreenBeneficiary gates sanction-list screening. Both this flag and the
	// import-level flag must be set for screening to run during merge.
	ScreenBeneficiary bool `gorm:"default:false" json:"screen_beneficiary"`

	// PostponeDeduplication skips biographic deduplication entirely during
	// merge, so no adjudication tickets are created for this business area.
	PostponeDeduplication bool `gorm:"default:false" json:"postpone_deduplication"`

	// Minimum similarity score for an ambiguous cross-population match to be
	// raised as needs-adjudication.
	DeduplicationPossibleDuplicateScore float64 `gorm:"default:6.0" json:"deduplication_possible_duplicate_score"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ba *BusinessArea) BeforeCreate(tx *gorm.DB) (err error) {
	if ba.ID == uuid.Nil {
		ba.ID = uuid.New()
	}
	return
}

type ProgramStatus string

const (
	DraftProgram    ProgramStatus = "DRAFT"
	ActiveProgram   ProgramStatus = "ACTIVE"
	FinishedProgram ProgramStatus = "FINISHED"
)

// Program is a single assistance program within a business area. Households
// and individuals are registered per program; representations of the same
// real-world entity across programs are linked through collections.
type Program struct {
	ID             uuid.UUID     `gorm:"type:uuid;primary_key;" json:"id"`
	Name           string        `gorm:"not null" json:"name"`
	BusinessAreaID uuid.UUID     `gorm:"type:uuid;not null;index" json:"business_area_id"`
	BusinessArea   *BusinessArea `gorm:"foreignKey:BusinessAreaID" json:"business_area,omitempty"`
	Status         ProgramStatus `gorm:"type:varchar(20);default:'DRAFT'" json:"status"`

	// BiometricDeduplicationEnabled turns on the synchronous biometric dedup
	// step during merge for imports into this program.
	BiometricDeduplicationEnabled bool `gorm:"default:false" json:"biometric_deduplication_enabled"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Program) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
