package routes

import (
	"hope-backend/payments/controllers"
	"hope-backend/payments/repositories"
	"hope-backend/payments/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func PaymentRouterInit(
	app *fiber.App,
	db *gorm.DB,
	planRepository repositories.PaymentPlanRepository,
	fspRepository repositories.FspRepository,
) {
	assignmentService := services.NewFspAssignmentService(planRepository, fspRepository)
	exportService := services.NewEntitlementExportService(planRepository)

	paymentPlanController := &controllers.PaymentPlanController{
		PlanRepo:          planRepository,
		AssignmentService: assignmentService,
		ExportService:     exportService,
		DB:                db,
	}

	paymentRoutes := app.Group("/payment-plans")
	paymentRoutes.Get("/", paymentPlanController.GetFilteredPlansController)
	paymentRoutes.Get("/available-fsps", paymentPlanController.AvailableFSPsController)
	paymentRoutes.Get("/:id", paymentPlanController.GetPlanController)
	paymentRoutes.Post("/:id/delivery-mechanisms", paymentPlanController.ChooseDeliveryMechanismsController)
	paymentRoutes.Post("/:id/assign-fsps", paymentPlanController.AssignFSPsController)
	paymentRoutes.Get("/:id/entitlements.xlsx", paymentPlanController.ExportEntitlementsController)
}
