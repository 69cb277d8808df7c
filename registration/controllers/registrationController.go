package controllers

import (
	"hope-backend/config"
	"hope-backend/db/models"
	"hope-backend/registration/repositories"
	"hope-backend/registration/services"
	"hope-backend/tasks"
	"hope-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegistrationController struct {
	ImportRepo   repositories.RegistrationRepository
	EraseService *services.EraseService
	Queue        tasks.Queue
	DB           *gorm.DB
}

func (rc *RegistrationController) GetFilteredImportsController(c *fiber.Ctx) error {
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

	imports, total, err := rc.ImportRepo.GetFilteredImports(pageSize, offset, filters)
	if err != nil {
		config.Logger.Error("Failed to fetch filtered imports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch imports"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": imports,
		"meta": utils.PaginationMeta(page, pageSize, total),
	})
}

func (rc *RegistrationController) GetImportController(c *fiber.Ctx) error {
	importID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid import id"})
	}

	rdi, err := rc.ImportRepo.GetByID(nil, importID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Import not found"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": rdi})
}

// ScheduleMergeController approves an in-review import for merging: the
// status moves to MERGE_SCHEDULED and the merge runs on the worker.
func (rc *RegistrationController) ScheduleMergeController(c *fiber.Ctx) error {
	importID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid import id"})
	}

	rdi, err := rc.ImportRepo.GetByID(nil, importID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Import not found"})
	}
	if !rdi.CanBeMerged() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Import cannot be merged from status " + string(rdi.Status),
		})
	}

	task, err := tasks.NewMergeImportTask(importID)
	if err != nil {
		config.Logger.Error("Failed to build merge task", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to schedule merge"})
	}
	job, err := rc.Queue.Enqueue(c.Context(), task)
	if err != nil {
		config.Logger.Error("Failed to enqueue merge task", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to schedule merge"})
	}

	if err := rc.ImportRepo.UpdateStatus(nil, importID, models.MergeScheduledImport); err != nil {
		config.Logger.Error("Failed to mark import merge-scheduled", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to schedule merge"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Merge scheduled",
		"job":     job,
	})
}

// ScheduleDeduplicationController re-runs deduplication for a pending import.
func (rc *RegistrationController) ScheduleDeduplicationController(c *fiber.Ctx) error {
	importID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid import id"})
	}

	rdi, err := rc.ImportRepo.GetByID(nil, importID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Import not found"})
	}
	switch rdi.Status {
	case models.InReviewImport, models.DeduplicationFailedImport:
	default:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Import cannot be deduplicated from status " + string(rdi.Status),
		})
	}

	task, err := tasks.NewDeduplicateImportTask(importID)
	if err != nil {
		config.Logger.Error("Failed to build deduplicate task", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to schedule deduplication"})
	}
	job, err := rc.Queue.Enqueue(c.Context(), task)
	if err != nil {
		config.Logger.Error("Failed to enqueue deduplicate task", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to schedule deduplication"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Deduplication scheduled",
		"job":     job,
	})
}

func (rc *RegistrationController) EraseImportController(c *fiber.Ctx) error {
	importID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid import id"})
	}

	if err := rc.EraseService.Erase(c.Context(), importID); err != nil {
		config.Logger.Error("Failed to erase import", zap.Error(err), zap.String("importID", importID.String()))
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Import erased"})
}

func (rc *RegistrationController) RefuseImportController(c *fiber.Ctx) error {
	importID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid import id"})
	}

	if err := rc.EraseService.Refuse(c.Context(), importID); err != nil {
		config.Logger.Error("Failed to refuse import", zap.Error(err), zap.String("importID", importID.String()))
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Import refused"})
}
