package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TicketCategory string

const (
	DataChangeCategory          TicketCategory = "DATA_CHANGE"
	SensitiveGrievanceCategory  TicketCategory = "SENSITIVE_GRIEVANCE"
	GrievanceComplaintCategory  TicketCategory = "GRIEVANCE_COMPLAINT"
	NeedsAdjudicationCategory   TicketCategory = "NEEDS_ADJUDICATION"
	SystemFlaggingCategory      TicketCategory = "SYSTEM_FLAGGING"
	PaymentVerificationCategory TicketCategory = "PAYMENT_VERIFICATION"
	PositiveFeedbackCategory    TicketCategory = "POSITIVE_FEEDBACK"
	NegativeFeedbackCategory    TicketCategory = "NEGATIVE_FEEDBACK"
	ReferralCategory            TicketCategory = "REFERRAL"
)

type TicketIssueType string

const (
	// DATA_CHANGE issue types
	HouseholdDataUpdateIssueType  TicketIssueType = "HOUSEHOLD_DATA_CHANGE_DATA_UPDATE"
	IndividualDataUpdateIssueType TicketIssueType = "INDIVIDUAL_DATA_CHANGE_DATA_UPDATE"
	AddIndividualIssueType        TicketIssueType = "ADD_INDIVIDUAL"
	DeleteIndividualIssueType     TicketIssueType = "DELETE_INDIVIDUAL"
	DeleteHouseholdIssueType      TicketIssueType = "DELETE_HOUSEHOLD"

	// SENSITIVE_GRIEVANCE issue types
	DataBreachIssueType                TicketIssueType = "DATA_BREACH"
	BriberyCorruptionKickbackIssueType TicketIssueType = "BRIBERY_CORRUPTION_KICKBACK"
	FraudForgeryIssueType              TicketIssueType = "FRAUD_FORGERY"
	FraudMisuseIssueType               TicketIssueType = "FRAUD_MISUSE"
	HarassmentIssueType                TicketIssueType = "HARASSMENT"
	InappropriateStaffConductIssueType TicketIssueType = "INAPPROPRIATE_STAFF_CONDUCT"
	UnauthorizedUseIssueType           TicketIssueType = "UNAUTHORIZED_USE"
	ConflictOfInterestIssueType        TicketIssueType = "CONFLICT_OF_INTEREST"
	GrossMismanagementIssueType        TicketIssueType = "GROSS_MISMANAGEMENT"
	PersonalDisputesIssueType          TicketIssueType = "PERSONAL_DISPUTES"
	SexualHarassmentIssueType          TicketIssueType = "SEXUAL_HARASSMENT_AND_EXPLOITATION"
	MiscellaneousIssueType             TicketIssueType = "MISCELLANEOUS"

	// GRIEVANCE_COMPLAINT issue types
	PaymentComplaintIssueType      TicketIssueType = "PAYMENT_COMPLAINT"
	FspComplaintIssueType          TicketIssueType = "FSP_COMPLAINT"
	RegistrationComplaintIssueType TicketIssueType = "REGISTRATION_COMPLAINT"
	PartnerComplaintIssueType      TicketIssueType = "PARTNER_COMPLAINT"
	OtherComplaintIssueType        TicketIssueType = "OTHER_COMPLAINT"
)

type TicketStatus string

const (
	NewTicket         TicketStatus = "NEW"
	AssignedTicket    TicketStatus = "ASSIGNED"
	InProgressTicket  TicketStatus = "IN_PROGRESS"
	OnHoldTicket      TicketStatus = "ON_HOLD"
	ForApprovalTicket TicketStatus = "FOR_APPROVAL"
	ClosedTicket      TicketStatus = "CLOSED"
)

// GrievanceTicket is the base record of every grievance. The pair
// (Category, IssueType) determines which exactly-one details row exists;
// BeforeSave rejects inconsistent pairs.
type GrievanceTicket struct {
	ID uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`

	Category  TicketCategory   `gorm:"type:varchar(30);not null;index" json:"category"`
	IssueType *TicketIssueType `gorm:"type:varchar(50)" json:"issue_type"`
	Status    TicketStatus     `gorm:"type:varchar(20);default:'NEW';index" json:"status"`

	Description string `json:"description"`

	BusinessAreaID uuid.UUID  `gorm:"type:uuid;not null;index" json:"business_area_id"`
	ProgramID      *uuid.UUID `gorm:"type:uuid;index" json:"program_id"`

	// Set on tickets synthesized during a merge so that an erase can find them.
	RegistrationDataImportID *uuid.UUID `gorm:"type:uuid;index" json:"registration_data_import_id"`

	AssignedToID *uuid.UUID `gorm:"type:uuid" json:"assigned_to_id"`

	// Machine-readable payload for system-generated tickets, e.g. the
	// missing/duplicate account fields.
	Extras datatypes.JSON `json:"extras"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *GrievanceTicket) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

// BeforeSave enforces the category/issue-type invariant on every write.
func (t *GrievanceTicket) BeforeSave(tx *gorm.DB) error {
	return ValidateTicketIssueType(t.Category, t.IssueType)
}

//
// DETAILS SUB-RECORDS (exactly one per ticket, selected by category/issue type)
//

// NeedsAdjudicationTicketDetails lists the golden-record individual and the
// set of possible duplicates found by deduplication.
type NeedsAdjudicationTicketDetails struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`

	GoldenRecordIndividualID uuid.UUID   `gorm:"type:uuid;not null" json:"golden_record_individual_id"`
	GoldenRecordIndividual   *Individual `gorm:"foreignKey:GoldenRecordIndividualID" json:"golden_record_individual,omitempty"`

	PossibleDuplicates []PossibleDuplicate `gorm:"foreignKey:DetailsID" json:"possible_duplicates"`

	SelectedIndividualID *uuid.UUID `gorm:"type:uuid" json:"selected_individual_id"`
	IsBiometric          bool       `gorm:"default:false" json:"is_biometric"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *NeedsAdjudicationTicketDetails) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

// PossibleDuplicate is one candidate match on an adjudication ticket.
type PossibleDuplicate struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	DetailsID    uuid.UUID `gorm:"type:uuid;not null;index" json:"details_id"`
	IndividualID uuid.UUID `gorm:"type:uuid;not null" json:"individual_id"`
	Score        float64   `json:"score"`
}

func (d *PossibleDuplicate) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

// SystemFlaggingTicketDetails records a sanction-list hit.
type SystemFlaggingTicketDetails struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`

	GoldenRecordIndividualID uuid.UUID      `gorm:"type:uuid;not null" json:"golden_record_individual_id"`
	SanctionListIndividual   datatypes.JSON `json:"sanction_list_individual"`
	Approved                 bool           `gorm:"default:false" json:"approved"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *SystemFlaggingTicketDetails) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

type HouseholdDataUpdateTicketDetails struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`

	HouseholdID   *uuid.UUID     `gorm:"type:uuid" json:"household_id"`
	HouseholdData datatypes.JSON `json:"household_data"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *HouseholdDataUpdateTicketDetails) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

type IndividualDataUpdateTicketDetails struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`

	IndividualID   *uuid.UUID     `gorm:"type:uuid" json:"individual_id"`
	IndividualData datatypes.JSON `json:"individual_data"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *IndividualDataUpdateTicketDetails) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

type AddIndividualTicketDetails struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`

	HouseholdID    *uuid.UUID     `gorm:"type:uuid" json:"household_id"`
	IndividualData datatypes.JSON `json:"individual_data"`
	Approved       bool           `gorm:"default:false" json:"approved"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *AddIndividualTicketDetails) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

type DeleteIndividualTicketDetails struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`

	IndividualID     *uuid.UUID     `gorm:"type:uuid" json:"individual_id"`
	RoleReassignData datatypes.JSON `json:"role_reassign_data"`
	Approved         bool           `gorm:"default:false" json:"approved"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *DeleteIndividualTicketDetails) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

type DeleteHouseholdTicketDetails struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`

	HouseholdID *uuid.UUID `gorm:"type:uuid" json:"household_id"`
	Approved    bool       `gorm:"default:false" json:"approved"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *DeleteHouseholdTicketDetails) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

type SensitiveTicketDetails struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`

	HouseholdID  *uuid.UUID `gorm:"type:uuid" json:"household_id"`
	IndividualID *uuid.UUID `gorm:"type:uuid" json:"individual_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *SensitiveTicketDetails) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

type ComplaintTicketDetails struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`

	HouseholdID  *uuid.UUID `gorm:"type:uuid" json:"household_id"`
	IndividualID *uuid.UUID `gorm:"type:uuid" json:"individual_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *ComplaintTicketDetails) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}

type ReferralTicketDetails struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"ticket_id"`

	HouseholdID  *uuid.UUID `gorm:"type:uuid" json:"household_id"`
	IndividualID *uuid.UUID `gorm:"type:uuid" json:"individual_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *ReferralTicketDetails) BeforeCreate(tx *gorm.DB) (err error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return
}
