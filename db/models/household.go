package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MergeStatus string

const (
	PendingMergeStatus MergeStatus = "PENDING"
	MergedMergeStatus  MergeStatus = "MERGED"
)

// HouseholdCollection groups the per-program representations of the same
// real-world household, matched by unicef_id within a business area.
type HouseholdCollection struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	UnicefID       string    `gorm:"not null;index" json:"unicef_id"`
	BusinessAreaID uuid.UUID `gorm:"type:uuid;not null;index" json:"business_area_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (hc *HouseholdCollection) BeforeCreate(tx *gorm.DB) (err error) {
	if hc.ID == uuid.Nil {
		hc.ID = uuid.New()
	}
	return
}

// Household holds both pending (staged by an import) and merged (canonical)
// rows on one table, distinguished by RdiMergeStatus. Repositories expose
// explicit FindPending/FindActive filters instead of default scopes.
type Household struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	UnicefID string    `gorm:"index" json:"unicef_id"`

	BusinessAreaID           uuid.UUID               `gorm:"type:uuid;not null;index" json:"business_area_id"`
	ProgramID                uuid.UUID               `gorm:"type:uuid;not null;index" json:"program_id"`
	RegistrationDataImportID uuid.UUID               `gorm:"type:uuid;not null;index" json:"registration_data_import_id"`
	RegistrationDataImport   *RegistrationDataImport `gorm:"foreignKey:RegistrationDataImportID" json:"registration_data_import,omitempty"`

	RdiMergeStatus MergeStatus          `gorm:"type:varchar(10);default:'PENDING';index" json:"rdi_merge_status"`
	CollectionID   *uuid.UUID           `gorm:"type:uuid;index" json:"collection_id"`
	Collection     *HouseholdCollection `gorm:"foreignKey:CollectionID" json:"collection,omitempty"`

	HeadOfHouseholdID *uuid.UUID `gorm:"type:uuid" json:"head_of_household_id"`

	Address     string `json:"address"`
	CountryCode string `gorm:"type:varchar(3)" json:"country_code"`

	// Aggregate population counts, recomputed during merge.
	Size                int `gorm:"default:0" json:"size"`
	FemaleChildrenCount int `gorm:"default:0" json:"female_children_count"`
	MaleChildrenCount   int `gorm:"default:0" json:"male_children_count"`
	FemaleAdultsCount   int `gorm:"default:0" json:"female_adults_count"`
	MaleAdultsCount     int `gorm:"default:0" json:"male_adults_count"`
	ChildrenCount       int `gorm:"default:0" json:"children_count"`

	Withdrawn bool `gorm:"default:false" json:"withdrawn"`

	Individuals []Individual `gorm:"foreignKey:HouseholdID" json:"individuals,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (h *Household) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return
}

type HouseholdRole string

const (
	HeadRole           HouseholdRole = "HEAD"
	PrimaryRole        HouseholdRole = "PRIMARY"
	AlternateRole      HouseholdRole = "ALTERNATE"
	NonBeneficiaryRole HouseholdRole = "NON_BENEFICIARY"
)

// IndividualRoleInHousehold records collector roles. An individual with only
// the NON_BENEFICIARY role may exist without a household of their own.
type IndividualRoleInHousehold struct {
	ID           uuid.UUID     `gorm:"type:uuid;primary_key;" json:"id"`
	HouseholdID  uuid.UUID     `gorm:"type:uuid;not null;index" json:"household_id"`
	IndividualID uuid.UUID     `gorm:"type:uuid;not null;index" json:"individual_id"`
	Role         HouseholdRole `gorm:"type:varchar(20);not null" json:"role"`

	RdiMergeStatus MergeStatus `gorm:"type:varchar(10);default:'PENDING';index" json:"rdi_merge_status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *IndividualRoleInHousehold) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
