package controllers

import (
	"hope-backend/config"
	"hope-backend/db/models"
	"hope-backend/grievance/repositories"
	"hope-backend/grievance/services"
	search_repositories "hope-backend/search/repositories"
	"hope-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type GrievanceController struct {
	TicketRepo    repositories.GrievanceRepository
	TicketService *services.TicketService
	SearchRepo    search_repositories.TicketSearchRepository
	DB            *gorm.DB
}

func (gc *GrievanceController) GetFilteredTicketsController(c *fiber.Ctx) error {
	pageSize, page, offset, err := utils.ParsePagination(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	filters := make(map[string]string)
	for _, key := range []string{"category", "status", "business_area_id", "program_id", "registration_data_import_id"} {
		if value := utils.CleanQueryParam(c.Query(key)); value != "" {
			filters[key] = value
		}
	}

	tickets, total, err := gc.TicketRepo.GetFilteredTickets(pageSize, offset, filters)
	if err != nil {
		config.Logger.Error("Failed to fetch grievance tickets", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch tickets"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": tickets,
		"meta": utils.PaginationMeta(page, pageSize, total),
	})
}

func (gc *GrievanceController) GetTicketController(c *fiber.Ctx) error {
	ticketID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ticket id"})
	}

	ticket, err := gc.TicketRepo.GetTicketByID(nil, ticketID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Ticket not found"})
	}

	response := fiber.Map{"data": ticket}
	if details := gc.loadDetails(ticket); details != nil {
		response["details"] = details
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

// loadDetails fetches the details row the ticket's category selects. Missing
// or detail-less categories simply yield no details key.
func (gc *GrievanceController) loadDetails(ticket *models.GrievanceTicket) interface{} {
	relation, err := models.ResolveTicketDetailsRelation(ticket.Category, ticket.IssueType)
	if err != nil || relation == "" {
		return nil
	}

	var details interface{}
	switch relation {
	case "needs_adjudication_ticket_details":
		row := models.NeedsAdjudicationTicketDetails{}
		if gc.DB.Preload("PossibleDuplicates").First(&row, "ticket_id = ?", ticket.ID).Error != nil {
			return nil
		}
		details = row
	case "system_flagging_ticket_details":
		row := models.SystemFlaggingTicketDetails{}
		if gc.DB.First(&row, "ticket_id = ?", ticket.ID).Error != nil {
			return nil
		}
		details = row
	case "household_data_update_ticket_details":
		row := models.HouseholdDataUpdateTicketDetails{}
		if gc.DB.First(&row, "ticket_id = ?", ticket.ID).Error != nil {
			return nil
		}
		details = row
	case "individual_data_update_ticket_details":
		row := models.IndividualDataUpdateTicketDetails{}
		if gc.DB.First(&row, "ticket_id = ?", ticket.ID).Error != nil {
			return nil
		}
		details = row
	case "add_individual_ticket_details":
		row := models.AddIndividualTicketDetails{}
		if gc.DB.First(&row, "ticket_id = ?", ticket.ID).Error != nil {
			return nil
		}
		details = row
	case "delete_individual_ticket_details":
		row := models.DeleteIndividualTicketDetails{}
		if gc.DB.First(&row, "ticket_id = ?", ticket.ID).Error != nil {
			return nil
		}
		details = row
	case "delete_household_ticket_details":
		row := models.DeleteHouseholdTicketDetails{}
		if gc.DB.First(&row, "ticket_id = ?", ticket.ID).Error != nil {
			return nil
		}
		details = row
	case "sensitive_ticket_details":
		row := models.SensitiveTicketDetails{}
		if gc.DB.First(&row, "ticket_id = ?", ticket.ID).Error != nil {
			return nil
		}
		details = row
	case "complaint_ticket_details":
		row := models.ComplaintTicketDetails{}
		if gc.DB.First(&row, "ticket_id = ?", ticket.ID).Error != nil {
			return nil
		}
		details = row
	case "referral_ticket_details":
		row := models.ReferralTicketDetails{}
		if gc.DB.First(&row, "ticket_id = ?", ticket.ID).Error != nil {
			return nil
		}
		details = row
	}
	return details
}

type createTicketRequest struct {
	Category       string         `json:"category"`
	IssueType      string         `json:"issue_type"`
	Description    string         `json:"description"`
	BusinessAreaID string         `json:"business_area_id"`
	ProgramID      string         `json:"program_id"`
	HouseholdID    string         `json:"household_id"`
	IndividualID   string         `json:"individual_id"`
	Extras         datatypes.JSON `json:"extras"`
	CreatedBy      string         `json:"created_by"`
}

func (gc *GrievanceController) CreateTicketController(c *fiber.Ctx) error {
	var body createTicketRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	businessAreaID, err := uuid.Parse(body.BusinessAreaID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid business_area_id"})
	}

	params := services.CreateTicketParams{
		Category:       models.TicketCategory(body.Category),
		Description:    body.Description,
		BusinessAreaID: businessAreaID,
		Extras:         body.Extras,
		CreatedBy:      body.CreatedBy,
	}
	if body.IssueType != "" {
		it := models.TicketIssueType(body.IssueType)
		params.IssueType = &it
	}
	if body.ProgramID != "" {
		programID, err := uuid.Parse(body.ProgramID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid program_id"})
		}
		params.ProgramID = &programID
	}
	if body.HouseholdID != "" {
		householdID, err := uuid.Parse(body.HouseholdID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid household_id"})
		}
		params.HouseholdID = &householdID
	}
	if body.IndividualID != "" {
		individualID, err := uuid.Parse(body.IndividualID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid individual_id"})
		}
		params.IndividualID = &individualID
	}

	ticket, err := gc.TicketService.CreateTicket(params)
	if err != nil {
		config.Logger.Warn("Ticket creation rejected", zap.Error(err))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticket})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (gc *GrievanceController) UpdateTicketStatusController(c *fiber.Ctx) error {
	ticketID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid ticket id"})
	}

	var body updateStatusRequest
	if err := c.BodyParser(&body); err != nil || body.Status == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := gc.TicketRepo.UpdateStatus(nil, ticketID, models.TicketStatus(body.Status)); err != nil {
		config.Logger.Error("Failed to update ticket status", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update ticket status"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Ticket status updated"})
}

func (gc *GrievanceController) QuickSearchController(c *fiber.Ctx) error {
	query := utils.CleanQueryParam(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing q parameter"})
	}
	size := c.QueryInt("size", 20)
	if size <= 0 {
		size = 20
	}

	hits, err := gc.SearchRepo.SearchTickets(query, size)
	if err != nil {
		config.Logger.Error("Ticket quick search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Search failed"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": hits})
}
