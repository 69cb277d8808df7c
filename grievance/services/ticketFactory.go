package services

import (
	"encoding/json"
	"fmt"

	"hope-backend/config"
	"hope-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TicketFactory turns deduplication results and per-record data problems
// into typed grievance tickets with their details sub-records. Every ticket
// it creates carries the import id so an erase can find and remove it.
type TicketFactory struct {
	DB *gorm.DB
}

func NewTicketFactory(db *gorm.DB) *TicketFactory {
	return &TicketFactory{DB: db}
}

func (f *TicketFactory) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return f.DB
}

// PossibleDuplicateRef is one duplicate candidate on an adjudication ticket.
type PossibleDuplicateRef struct {
	IndividualID uuid.UUID
	Score        float64
}

// NeedsAdjudicationParams describes an ambiguous match found by
// deduplication: the golden-record individual plus the candidate set.
type NeedsAdjudicationParams struct {
	BusinessAreaID           uuid.UUID
	ProgramID                uuid.UUID
	RegistrationDataImportID uuid.UUID
	GoldenRecordIndividualID uuid.UUID
	PossibleDuplicates       []PossibleDuplicateRef
	IsBiometric              bool
	Description              string
}

func (f *TicketFactory) CreateNeedsAdjudicationTicket(tx *gorm.DB, params NeedsAdjudicationParams) (*models.GrievanceTicket, error) {
	conn := f.conn(tx)

	ticket := models.GrievanceTicket{
		Category:                 models.NeedsAdjudicationCategory,
		Status:                   models.NewTicket,
		Description:              params.Description,
		BusinessAreaID:           params.BusinessAreaID,
		ProgramID:                &params.ProgramID,
		RegistrationDataImportID: &params.RegistrationDataImportID,
		CreatedBy:                "system",
	}
	if err := conn.Create(&ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create adjudication ticket: %w", err)
	}

	details := models.NeedsAdjudicationTicketDetails{
		TicketID:                 ticket.ID,
		GoldenRecordIndividualID: params.GoldenRecordIndividualID,
		IsBiometric:              params.IsBiometric,
	}
	if err := conn.Create(&details).Error; err != nil {
		return nil, fmt.Errorf("failed to create adjudication details: %w", err)
	}

	for _, dup := range params.PossibleDuplicates {
		possible := models.PossibleDuplicate{
			DetailsID:    details.ID,
			IndividualID: dup.IndividualID,
			Score:        dup.Score,
		}
		if err := conn.Create(&possible).Error; err != nil {
			return nil, fmt.Errorf("failed to create possible duplicate: %w", err)
		}
	}

	config.Logger.Info("Created needs-adjudication ticket",
		zap.String("ticketID", ticket.ID.String()),
		zap.String("goldenRecord", params.GoldenRecordIndividualID.String()),
		zap.Int("possibleDuplicates", len(params.PossibleDuplicates)))
	return &ticket, nil
}

// SystemFlaggingParams describes a sanction-list hit.
type SystemFlaggingParams struct {
	BusinessAreaID           uuid.UUID
	ProgramID                uuid.UUID
	RegistrationDataImportID uuid.UUID
	IndividualID             uuid.UUID
	SanctionListRecord       json.RawMessage
	Description              string
}

func (f *TicketFactory) CreateSystemFlaggingTicket(tx *gorm.DB, params SystemFlaggingParams) (*models.GrievanceTicket, error) {
	conn := f.conn(tx)

	ticket := models.GrievanceTicket{
		Category:                 models.SystemFlaggingCategory,
		Status:                   models.NewTicket,
		Description:              params.Description,
		BusinessAreaID:           params.BusinessAreaID,
		ProgramID:                &params.ProgramID,
		RegistrationDataImportID: &params.RegistrationDataImportID,
		CreatedBy:                "system",
	}
	if err := conn.Create(&ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create system flagging ticket: %w", err)
	}

	details := models.SystemFlaggingTicketDetails{
		TicketID:                 ticket.ID,
		GoldenRecordIndividualID: params.IndividualID,
		SanctionListIndividual:   []byte(params.SanctionListRecord),
	}
	if err := conn.Create(&details).Error; err != nil {
		return nil, fmt.Errorf("failed to create system flagging details: %w", err)
	}

	return &ticket, nil
}

// AccountDataIssueParams describes invalid or duplicate payment-channel data
// found during merge. The issues map is stored machine-readably on the
// ticket so the follow-up data change can be automated.
type AccountDataIssueParams struct {
	BusinessAreaID           uuid.UUID
	ProgramID                uuid.UUID
	RegistrationDataImportID uuid.UUID
	IndividualID             uuid.UUID
	Issues                   map[string]interface{}
	Description              string
}

func (f *TicketFactory) CreateAccountDataTicket(tx *gorm.DB, params AccountDataIssueParams) (*models.GrievanceTicket, error) {
	conn := f.conn(tx)

	extras, err := json.Marshal(params.Issues)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account issues: %w", err)
	}

	issueType := models.IndividualDataUpdateIssueType
	ticket := models.GrievanceTicket{
		Category:                 models.DataChangeCategory,
		IssueType:                &issueType,
		Status:                   models.NewTicket,
		Description:              params.Description,
		BusinessAreaID:           params.BusinessAreaID,
		ProgramID:                &params.ProgramID,
		RegistrationDataImportID: &params.RegistrationDataImportID,
		Extras:                   extras,
		CreatedBy:                "system",
	}
	if err := conn.Create(&ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to create account data ticket: %w", err)
	}

	individualID := params.IndividualID
	details := models.IndividualDataUpdateTicketDetails{
		TicketID:       ticket.ID,
		IndividualID:   &individualID,
		IndividualData: extras,
	}
	if err := conn.Create(&details).Error; err != nil {
		return nil, fmt.Errorf("failed to create data update details: %w", err)
	}

	config.Logger.Info("Created account data ticket",
		zap.String("ticketID", ticket.ID.String()),
		zap.String("individualID", params.IndividualID.String()))
	return &ticket, nil
}
