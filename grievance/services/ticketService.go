package services

import (
	"fmt"

	"hope-backend/config"
	"hope-backend/db/models"
	search_repositories "hope-backend/search/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateTicketParams is a user-submitted grievance.
type CreateTicketParams struct {
	Category       models.TicketCategory
	IssueType      *models.TicketIssueType
	Description    string
	BusinessAreaID uuid.UUID
	ProgramID      *uuid.UUID
	HouseholdID    *uuid.UUID
	IndividualID   *uuid.UUID
	Extras         datatypes.JSON
	CreatedBy      string
}

// TicketService creates user-submitted tickets with the details row their
// category/issue-type pair selects, and keeps the quick-search index in sync.
type TicketService struct {
	DB     *gorm.DB
	Search search_repositories.TicketSearchRepository
}

func NewTicketService(db *gorm.DB, search search_repositories.TicketSearchRepository) *TicketService {
	return &TicketService{DB: db, Search: search}
}

// CreateTicket validates the category/issue-type pair, writes the ticket and
// its details row in one transaction, then indexes it for quick search.
func (s *TicketService) CreateTicket(params CreateTicketParams) (*models.GrievanceTicket, error) {
	relation, err := models.ResolveTicketDetailsRelation(params.Category, params.IssueType)
	if err != nil {
		return nil, err
	}

	ticket := models.GrievanceTicket{
		Category:       params.Category,
		IssueType:      params.IssueType,
		Status:         models.NewTicket,
		Description:    params.Description,
		BusinessAreaID: params.BusinessAreaID,
		ProgramID:      params.ProgramID,
		Extras:         params.Extras,
		CreatedBy:      params.CreatedBy,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ticket).Error; err != nil {
			return fmt.Errorf("failed to create grievance ticket: %w", err)
		}
		return createDetailsRow(tx, relation, ticket.ID, params)
	})
	if err != nil {
		return nil, err
	}

	if err := s.Search.IndexTicket(ticket); err != nil {
		config.Logger.Warn("Failed to index grievance ticket for quick search",
			zap.Error(err), zap.String("ticketID", ticket.ID.String()))
	}

	config.Logger.Info("Created grievance ticket",
		zap.String("ticketID", ticket.ID.String()),
		zap.String("category", string(ticket.Category)))
	return &ticket, nil
}

// createDetailsRow writes the exactly-one details record selected by the
// resolved relation. An empty relation means the category carries none.
func createDetailsRow(tx *gorm.DB, relation string, ticketID uuid.UUID, params CreateTicketParams) error {
	var details interface{}

	switch relation {
	case "":
		return nil
	case "household_data_update_ticket_details":
		details = &models.HouseholdDataUpdateTicketDetails{TicketID: ticketID, HouseholdID: params.HouseholdID, HouseholdData: params.Extras}
	case "individual_data_update_ticket_details":
		details = &models.IndividualDataUpdateTicketDetails{TicketID: ticketID, IndividualID: params.IndividualID, IndividualData: params.Extras}
	case "add_individual_ticket_details":
		details = &models.AddIndividualTicketDetails{TicketID: ticketID, HouseholdID: params.HouseholdID, IndividualData: params.Extras}
	case "delete_individual_ticket_details":
		details = &models.DeleteIndividualTicketDetails{TicketID: ticketID, IndividualID: params.IndividualID}
	case "delete_household_ticket_details":
		details = &models.DeleteHouseholdTicketDetails{TicketID: ticketID, HouseholdID: params.HouseholdID}
	case "sensitive_ticket_details":
		details = &models.SensitiveTicketDetails{TicketID: ticketID, HouseholdID: params.HouseholdID, IndividualID: params.IndividualID}
	case "complaint_ticket_details":
		details = &models.ComplaintTicketDetails{TicketID: ticketID, HouseholdID: params.HouseholdID, IndividualID: params.IndividualID}
	case "referral_ticket_details":
		details = &models.ReferralTicketDetails{TicketID: ticketID, HouseholdID: params.HouseholdID, IndividualID: params.IndividualID}
	case "needs_adjudication_ticket_details", "system_flagging_ticket_details":
		// System categories are only ever created by the merge pipeline.
		return fmt.Errorf("category %s tickets are system-generated", params.Category)
	default:
		return fmt.Errorf("no details model for relation %s", relation)
	}

	if err := tx.Create(details).Error; err != nil {
		return fmt.Errorf("failed to create %s: %w", relation, err)
	}
	return nil
}
