package routes

import (
	"hope-backend/registration/controllers"
	"hope-backend/registration/repositories"
	"hope-backend/registration/services"
	"hope-backend/tasks"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func RegistrationRouterInit(
	app *fiber.App,
	db *gorm.DB,
	importRepository repositories.RegistrationRepository,
	eraseService *services.EraseService,
	queue tasks.Queue,
) {
	registrationController := &controllers.RegistrationController{
		ImportRepo:   importRepository,
		EraseService: eraseService,
		Queue:        queue,
		DB:           db,
	}

	registrationRoutes := app.Group("/registration-data-imports")
	registrationRoutes.Get("/", registrationController.GetFilteredImportsController)
	registrationRoutes.Get("/:id", registrationController.GetImportController)
	registrationRoutes.Post("/:id/merge", registrationController.ScheduleMergeController)
	registrationRoutes.Post("/:id/deduplicate", registrationController.ScheduleDeduplicationController)
	registrationRoutes.Post("/:id/erase", registrationController.EraseImportController)
	registrationRoutes.Post("/:id/refuse", registrationController.RefuseImportController)
}
