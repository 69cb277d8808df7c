package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ImportStatus string

const (
	LoadingImport             ImportStatus = "LOADING"
	ImportingImport           ImportStatus = "IMPORTING"
	InReviewImport            ImportStatus = "IN_REVIEW"
	DeduplicationImport       ImportStatus = "DEDUPLICATION"
	DeduplicationFailedImport ImportStatus = "DEDUPLICATION_FAILED"
	MergeScheduledImport      ImportStatus = "MERGE_SCHEDULED"
	MergingImport             ImportStatus = "MERGING"
	MergedImport              ImportStatus = "MERGED"
	MergeErrorImport          ImportStatus = "MERGE_ERROR"
	ImportErrorImport         ImportStatus = "IMPORT_ERROR"
	RefusedImport             ImportStatus = "REFUSED_IMPORT"
)

type ImportDataSource string

const (
	XlsDataSource                     ImportDataSource = "XLS"
	KoboDataSource                    ImportDataSource = "KOBO"
	ApiDataSource                     ImportDataSource = "API"
	ProgramPopulationImportDataSource ImportDataSource = "PROGRAM_POPULATION"
)

// RegistrationDataImport is one import batch. It owns a set of pending
// households and individuals until the merge promotes them to the canonical
// population or an erase removes them.
type RegistrationDataImport struct {
	ID     uuid.UUID    `gorm:"type:uuid;primary_key;" json:"id"`
	Name   string       `gorm:"not null" json:"name"`
	Status ImportStatus `gorm:"type:varchar(30);default:'LOADING';index" json:"status"`

	BusinessAreaID uuid.UUID     `gorm:"type:uuid;not null;index" json:"business_area_id"`
	BusinessArea   *BusinessArea `gorm:"foreignKey:BusinessAreaID" json:"business_area,omitempty"`
	ProgramID      uuid.UUID     `gorm:"type:uuid;not null;index" json:"program_id"`
	Program        *Program      `gorm:"foreignKey:ProgramID" json:"program,omitempty"`

	DataSource   ImportDataSource `gorm:"type:varchar(30);not null" json:"data_source"`
	ImportedByID *uuid.UUID       `gorm:"type:uuid" json:"imported_by_id"`

	NumberOfHouseholds  int `gorm:"default:0" json:"number_of_households"`
	NumberOfIndividuals int `gorm:"default:0" json:"number_of_individuals"`

	// Deduplication statistics, updated at the end of a successful merge.
	BatchDuplicates                int `gorm:"default:0" json:"batch_duplicates"`
	BatchUnique                    int `gorm:"default:0" json:"batch_unique"`
	GoldenRecordPossibleDuplicates int `gorm:"default:0" json:"golden_record_possible_duplicates"`
	GoldenRecordUnique             int `gorm:"default:0" json:"golden_record_unique"`
	BiometricDuplicates            int `gorm:"default:0" json:"biometric_duplicates"`

	// ScreenBeneficiary requests sanction-list screening for this batch; it
	// only takes effect when the business area also enables screening.
	ScreenBeneficiary bool `gorm:"default:false" json:"screen_beneficiary"`

	Erased       bool   `gorm:"default:false" json:"erased"`
	ErrorMessage string `json:"error_message"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (rdi *RegistrationDataImport) BeforeCreate(tx *gorm.DB) (err error) {
	if rdi.ID == uuid.Nil {
		rdi.ID = uuid.New()
	}
	return
}

// CanBeMerged reports whether a merge may be scheduled or executed from the
// current status.
func (rdi *RegistrationDataImport) CanBeMerged() bool {
	switch rdi.Status {
	case InReviewImport, DeduplicationImport, MergeScheduledImport:
		return true
	default:
		return false
	}
}

// CanBeErased reports whether the import is in one of the error states from
// which a hard-delete of its data is permitted.
func (rdi *RegistrationDataImport) CanBeErased() bool {
	switch rdi.Status {
	case MergeErrorImport, DeduplicationFailedImport, ImportErrorImport:
		return true
	default:
		return false
	}
}

// CanBeRefused reports whether the import can still be refused by a reviewer.
func (rdi *RegistrationDataImport) CanBeRefused() bool {
	return rdi.Status == InReviewImport
}
