package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

//
// ENUM DEFINITIONS
//

type PaymentPlanStatus string

const (
	OpenPaymentPlan       PaymentPlanStatus = "OPEN"
	LockedPaymentPlan     PaymentPlanStatus = "LOCKED"
	InApprovalPaymentPlan PaymentPlanStatus = "IN_APPROVAL"
	ApprovedPaymentPlan   PaymentPlanStatus = "APPROVED"
	OngoingPaymentPlan    PaymentPlanStatus = "ONGOING"
	ReconciledPaymentPlan PaymentPlanStatus = "RECONCILED"
)

// Background action sub-states for async spreadsheet / rule-engine steps.
type BackgroundActionStatus string

const (
	NoBackgroundAction              BackgroundActionStatus = ""
	XlsxExportingBackgroundAction   BackgroundActionStatus = "XLSX_EXPORTING"
	XlsxExportErrorBackgroundAction BackgroundActionStatus = "XLSX_EXPORT_ERROR"
	RuleEngineRunBackgroundAction   BackgroundActionStatus = "RULE_ENGINE_RUN"
	RuleEngineErrorBackgroundAction BackgroundActionStatus = "RULE_ENGINE_ERROR"
)

type CommunicationChannel string

const (
	ApiCommunicationChannel  CommunicationChannel = "API"
	SftpCommunicationChannel CommunicationChannel = "SFTP"
	XlsxCommunicationChannel CommunicationChannel = "XLSX"
)

//
// DELIVERY MECHANISMS & FSPs
//

// DeliveryMechanism is a way of getting money to a beneficiary (cash,
// transfer, voucher, mobile money, ...). RequiredFields lists the account
// data fields an individual must provide to be payable through it;
// UniqueFields are the subset that must be unique per program.
type DeliveryMechanism struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Code string    `gorm:"uniqueIndex;not null" json:"code"`
	Name string    `gorm:"not null" json:"name"`

	RequiredFields datatypes.JSONSlice[string] `json:"required_fields"`
	UniqueFields   datatypes.JSONSlice[string] `json:"unique_fields"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (dm *DeliveryMechanism) BeforeCreate(tx *gorm.DB) (err error) {
	if dm.ID == uuid.Nil {
		dm.ID = uuid.New()
	}
	return
}

// FinancialServiceProvider delivers payments over a set of supported
// delivery mechanisms. DistributionLimit is a USD cap per payment plan;
// nil means unlimited.
type FinancialServiceProvider struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	Name         string    `gorm:"uniqueIndex;not null" json:"name"`
	VendorNumber string    `gorm:"uniqueIndex;not null" json:"vendor_number"`

	CommunicationChannel CommunicationChannel `gorm:"type:varchar(10);default:'XLSX'" json:"communication_channel"`
	DistributionLimit    *decimal.Decimal     `gorm:"type:decimal(15,2)" json:"distribution_limit"`

	DeliveryMechanisms []DeliveryMechanism `gorm:"many2many:fsp_delivery_mechanisms;" json:"delivery_mechanisms"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	CreatedBy string    `json:"created_by"`
}

func (fsp *FinancialServiceProvider) BeforeCreate(tx *gorm.DB) (err error) {
	if fsp.ID == uuid.Nil {
		fsp.ID = uuid.New()
	}
	return
}

// SupportsMechanism reports whether the FSP advertises support for the
// given delivery mechanism code. DeliveryMechanisms must be preloaded.
func (fsp *FinancialServiceProvider) SupportsMechanism(code string) bool {
	for _, dm := range fsp.DeliveryMechanisms {
		if dm.Code == code {
			return true
		}
	}
	return false
}

//
// PAYMENT PLANS
//

// PaymentPlan is the disbursement workflow over a set of already-merged
// households. Delivery mechanisms are chosen on a LOCKED plan, then exactly
// one FSP is assigned per mechanism.
type PaymentPlan struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	UnicefID string    `gorm:"uniqueIndex" json:"unicef_id"`

	BusinessAreaID uuid.UUID `gorm:"type:uuid;not null;index" json:"business_area_id"`
	ProgramID      uuid.UUID `gorm:"type:uuid;not null;index" json:"program_id"`

	Status                 PaymentPlanStatus      `gorm:"type:varchar(20);default:'OPEN';index" json:"status"`
	BackgroundActionStatus BackgroundActionStatus `gorm:"type:varchar(30);default:''" json:"background_action_status"`

	Currency                 string          `gorm:"type:varchar(4);default:'USD'" json:"currency"`
	TotalHouseholdsCount     int             `gorm:"default:0" json:"total_households_count"`
	TotalIndividualsCount    int             `gorm:"default:0" json:"total_individuals_count"`
	TotalEntitledQuantityUSD decimal.Decimal `gorm:"type:decimal(15,2);default:0" json:"total_entitled_quantity_usd"`

	DispersionStartDate *time.Time `json:"dispersion_start_date"`
	DispersionEndDate   *time.Time `json:"dispersion_end_date"`

	Households         []Household                       `gorm:"many2many:payment_plan_households;" json:"households,omitempty"`
	DeliveryMechanisms []DeliveryMechanismPerPaymentPlan `gorm:"foreignKey:PaymentPlanID" json:"delivery_mechanisms,omitempty"`

	CreatedByID *uuid.UUID `gorm:"type:uuid" json:"created_by_id"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (pp *PaymentPlan) BeforeCreate(tx *gorm.DB) (err error) {
	if pp.ID == uuid.Nil {
		pp.ID = uuid.New()
	}
	return
}

// DeliveryMechanismPerPaymentPlan is one chosen mechanism on a plan. Order
// is the 1-based position in the chosen list; the FSP reference stays nil
// until the assignment step.
type DeliveryMechanismPerPaymentPlan struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	PaymentPlanID uuid.UUID `gorm:"type:uuid;not null;index" json:"payment_plan_id"`

	DeliveryMechanismID uuid.UUID          `gorm:"type:uuid;not null" json:"delivery_mechanism_id"`
	DeliveryMechanism   *DeliveryMechanism `gorm:"foreignKey:DeliveryMechanismID" json:"delivery_mechanism,omitempty"`

	FinancialServiceProviderID *uuid.UUID                `gorm:"type:uuid" json:"financial_service_provider_id"`
	FinancialServiceProvider   *FinancialServiceProvider `gorm:"foreignKey:FinancialServiceProviderID" json:"financial_service_provider,omitempty"`

	Order int `gorm:"not null" json:"order"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (d *DeliveryMechanismPerPaymentPlan) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}
