package controllers

import (
	"hope-backend/config"
	"hope-backend/households/repositories"
	"hope-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HouseholdController struct {
	HouseholdRepo  repositories.HouseholdRepository
	IndividualRepo repositories.IndividualRepository
	DB             *gorm.DB
}

// GetActiveHouseholdsController lists the canonical (merged, not withdrawn)
// households of one program.
func (hc *HouseholdController) GetActiveHouseholdsController(c *fiber.Ctx) error {
	programID, err := uuid.Parse(c.Query("program_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or missing program_id"})
	}
	pageSize, page, offset, err := utils.ParsePagination(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	households, total, err := hc.HouseholdRepo.FindActive(nil, programID, pageSize, offset)
	if err != nil {
		config.Logger.Error("Failed to fetch active households", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch households"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": households,
		"meta": utils.PaginationMeta(page, pageSize, total),
	})
}

// GetActiveIndividualsController lists the canonical (merged, not withdrawn,
// not duplicate) individuals of one program.
func (hc *HouseholdController) GetActiveIndividualsController(c *fiber.Ctx) error {
	programID, err := uuid.Parse(c.Query("program_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or missing program_id"})
	}
	pageSize, page, offset, err := utils.ParsePagination(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	individuals, total, err := hc.IndividualRepo.FindActive(nil, programID, pageSize, offset)
	if err != nil {
		config.Logger.Error("Failed to fetch active individuals", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch individuals"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": individuals,
		"meta": utils.PaginationMeta(page, pageSize, total),
	})
}
