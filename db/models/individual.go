package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Sex string

const (
	MaleSex   Sex = "MALE"
	FemaleSex Sex = "FEMALE"
)

type DeduplicationStatus string

const (
	NotProcessedDeduplication      DeduplicationStatus = "NOT_PROCESSED"
	UniqueDeduplication            DeduplicationStatus = "UNIQUE"
	DuplicateDeduplication         DeduplicationStatus = "DUPLICATE"
	NeedsAdjudicationDeduplication DeduplicationStatus = "NEEDS_ADJUDICATION"
	PostponedDeduplication         DeduplicationStatus = "POSTPONE"
)

// IndividualCollection groups the per-program representations of the same
// real-world person, matched by unicef_id within a business area.
type IndividualCollection struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	UnicefID       string    `gorm:"not null;index" json:"unicef_id"`
	BusinessAreaID uuid.UUID `gorm:"type:uuid;not null;index" json:"business_area_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ic *IndividualCollection) BeforeCreate(tx *gorm.DB) (err error) {
	if ic.ID == uuid.Nil {
		ic.ID = uuid.New()
	}
	return
}

// Individual holds both pending and merged rows on one table, distinguished
// by RdiMergeStatus. HouseholdID is nullable for non-beneficiary collectors.
type Individual struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	UnicefID string    `gorm:"index" json:"unicef_id"`

	BusinessAreaID           uuid.UUID               `gorm:"type:uuid;not null;index" json:"business_area_id"`
	ProgramID                uuid.UUID               `gorm:"type:uuid;not null;index" json:"program_id"`
	RegistrationDataImportID uuid.UUID               `gorm:"type:uuid;not null;index" json:"registration_data_import_id"`
	RegistrationDataImport   *RegistrationDataImport `gorm:"foreignKey:RegistrationDataImportID" json:"registration_data_import,omitempty"`

	RdiMergeStatus MergeStatus           `gorm:"type:varchar(10);default:'PENDING';index" json:"rdi_merge_status"`
	CollectionID   *uuid.UUID            `gorm:"type:uuid;index" json:"collection_id"`
	Collection     *IndividualCollection `gorm:"foreignKey:CollectionID" json:"collection,omitempty"`

	HouseholdID *uuid.UUID `gorm:"type:uuid;index" json:"household_id"`
	Household   *Household `gorm:"foreignKey:HouseholdID" json:"household,omitempty"`

	FullName     string     `gorm:"not null" json:"full_name"`
	GivenName    string     `json:"given_name"`
	FamilyName   string     `json:"family_name"`
	BirthDate    *time.Time `json:"birth_date"`
	Sex          Sex        `gorm:"type:varchar(10)" json:"sex"`
	PhoneNumber  string     `json:"phone_number"`
	Relationship string     `json:"relationship"` // HEAD, SON_DAUGHTER, WIFE_HUSBAND, NON_BENEFICIARY...

	DeduplicationBatchStatus        DeduplicationStatus `gorm:"type:varchar(25);default:'NOT_PROCESSED'" json:"deduplication_batch_status"`
	DeduplicationGoldenRecordStatus DeduplicationStatus `gorm:"type:varchar(25);default:'NOT_PROCESSED'" json:"deduplication_golden_record_status"`

	// Raw similarity results kept for the adjudication UI.
	DeduplicationBatchResults        datatypes.JSON `json:"deduplication_batch_results"`
	DeduplicationGoldenRecordResults datatypes.JSON `json:"deduplication_golden_record_results"`

	PhotoPath string `json:"photo_path"` // used by the biometric engine

	Duplicate bool `gorm:"default:false" json:"duplicate"`
	Withdrawn bool `gorm:"default:false" json:"withdrawn"`

	Documents []Document `gorm:"foreignKey:IndividualID" json:"documents,omitempty"`
	Accounts  []Account  `gorm:"foreignKey:IndividualID" json:"accounts,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (i *Individual) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
