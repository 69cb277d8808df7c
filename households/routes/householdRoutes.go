package routes

import (
	"hope-backend/households/controllers"
	"hope-backend/households/repositories"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func HouseholdRouterInit(
	app *fiber.App,
	db *gorm.DB,
	householdRepository repositories.HouseholdRepository,
	individualRepository repositories.IndividualRepository,
) {
	householdController := &controllers.HouseholdController{
		HouseholdRepo:  householdRepository,
		IndividualRepo: individualRepository,
		DB:             db,
	}

	populationRoutes := app.Group("/population")
	populationRoutes.Get("/households", householdController.GetActiveHouseholdsController)
	populationRoutes.Get("/individuals", householdController.GetActiveIndividualsController)
}
