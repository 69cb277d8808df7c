package controllers

import (
	"strings"

	"hope-backend/config"
	"hope-backend/payments/repositories"
	"hope-backend/payments/services"
	"hope-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PaymentPlanController struct {
	PlanRepo          repositories.PaymentPlanRepository
	AssignmentService *services.FspAssignmentService
	ExportService     *services.EntitlementExportService
	DB                *gorm.DB
}

func (pc *PaymentPlanController) GetFilteredPlansController(c *fiber.Ctx) error {
	pageSize, page, offset, err := utils.ParsePagination(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	filters := make(map[string]string)
	if status := utils.CleanQueryParam(c.Query("status")); status != "" {
		filters["status"] = status
	}
	if programID := utils.CleanQueryParam(c.Query("program_id")); programID != "" {
		filters["program_id"] = programID
	}
	if businessAreaID := utils.CleanQueryParam(c.Query("business_area_id")); businessAreaID != "" {
		filters["business_area_id"] = businessAreaID
	}

	plans, total, err := pc.PlanRepo.GetFilteredPlans(pageSize, offset, filters)
	if err != nil {
		config.Logger.Error("Failed to fetch payment plans", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch payment plans"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": plans,
		"meta": utils.PaginationMeta(page, pageSize, total),
	})
}

func (pc *PaymentPlanController) GetPlanController(c *fiber.Ctx) error {
	planID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment plan id"})
	}

	plan, err := pc.PlanRepo.GetByID(nil, planID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Payment plan not found"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": plan})
}

type chooseMechanismsRequest struct {
	MechanismCodes []string `json:"mechanism_codes"`
}

func (pc *PaymentPlanController) ChooseDeliveryMechanismsController(c *fiber.Ctx) error {
	planID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment plan id"})
	}

	var body chooseMechanismsRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := pc.AssignmentService.ChooseDeliveryMechanisms(nil, planID, body.MechanismCodes); err != nil {
		config.Logger.Warn("Delivery mechanism choice rejected",
			zap.Error(err), zap.String("planID", planID.String()))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Delivery mechanisms updated"})
}

type assignFSPsRequest struct {
	// delivery mechanism id -> financial service provider id
	Assignments map[string]string `json:"assignments"`
}

func (pc *PaymentPlanController) AssignFSPsController(c *fiber.Ctx) error {
	planID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment plan id"})
	}

	var body assignFSPsRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	assignments := make(map[uuid.UUID]uuid.UUID, len(body.Assignments))
	for mechanism, fsp := range body.Assignments {
		mechanismID, err := uuid.Parse(mechanism)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid delivery mechanism id"})
		}
		fspID, err := uuid.Parse(fsp)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid financial service provider id"})
		}
		assignments[mechanismID] = fspID
	}

	if err := pc.AssignmentService.AssignFSPs(nil, planID, assignments); err != nil {
		config.Logger.Warn("FSP assignment rejected",
			zap.Error(err), zap.String("planID", planID.String()))
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "FSPs assigned"})
}

func (pc *PaymentPlanController) AvailableFSPsController(c *fiber.Ctx) error {
	raw := utils.CleanQueryParam(c.Query("mechanisms"))
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing mechanisms parameter"})
	}
	codes := strings.Split(raw, ",")

	choices, err := pc.AssignmentService.AvailableFSPsForMechanisms(nil, codes)
	if err != nil {
		config.Logger.Error("Failed to list available FSPs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list available FSPs"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": choices})
}

func (pc *PaymentPlanController) ExportEntitlementsController(c *fiber.Ctx) error {
	planID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payment plan id"})
	}

	buffer, err := pc.ExportService.ExportXlsx(planID)
	if err != nil {
		config.Logger.Error("Failed to export entitlements",
			zap.Error(err), zap.String("planID", planID.String()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to export entitlements"})
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="entitlements-`+planID.String()+`.xlsx"`)
	return c.Status(fiber.StatusOK).Send(buffer.Bytes())
}
