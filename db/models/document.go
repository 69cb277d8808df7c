package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentType string

const (
	NationalIDDocument       DocumentType = "NATIONAL_ID"
	BirthCertificateDocument DocumentType = "BIRTH_CERTIFICATE"
	PassportDocument         DocumentType = "PASSPORT"
	DriversLicenseDocument   DocumentType = "DRIVERS_LICENSE"
	TaxIDDocument            DocumentType = "TAX_ID"
	OtherDocument            DocumentType = "OTHER"
)

type DocumentStatus string

const (
	PendingDocumentStatus           DocumentStatus = "PENDING"
	ValidDocumentStatus             DocumentStatus = "VALID"
	NeedInvestigationDocumentStatus DocumentStatus = "NEED_INVESTIGATION"
	InvalidDocumentStatus           DocumentStatus = "INVALID"
)

// Document is an identity document attached to an individual. Matching
// document numbers are a strong signal for batch deduplication.
type Document struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	IndividualID uuid.UUID `gorm:"type:uuid;not null;index" json:"individual_id"`

	Type           DocumentType   `gorm:"type:varchar(30);not null" json:"type"`
	DocumentNumber string         `gorm:"not null;index" json:"document_number"`
	CountryCode    string         `gorm:"type:varchar(3)" json:"country_code"`
	Status         DocumentStatus `gorm:"type:varchar(30);default:'PENDING'" json:"status"`

	RdiMergeStatus MergeStatus `gorm:"type:varchar(10);default:'PENDING';index" json:"rdi_merge_status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}
