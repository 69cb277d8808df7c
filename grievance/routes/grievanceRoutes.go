package routes

import (
	"hope-backend/grievance/controllers"
	"hope-backend/grievance/repositories"
	"hope-backend/grievance/services"
	search_repositories "hope-backend/search/repositories"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func GrievanceRouterInit(
	app *fiber.App,
	db *gorm.DB,
	ticketRepository repositories.GrievanceRepository,
	ticketSearchRepository search_repositories.TicketSearchRepository,
) {
	ticketService := services.NewTicketService(db, ticketSearchRepository)

	grievanceController := &controllers.GrievanceController{
		TicketRepo:    ticketRepository,
		TicketService: ticketService,
		SearchRepo:    ticketSearchRepository,
		DB:            db,
	}

	grievanceRoutes := app.Group("/grievance-tickets")
	grievanceRoutes.Get("/", grievanceController.GetFilteredTicketsController)
	grievanceRoutes.Get("/search", grievanceController.QuickSearchController)
	grievanceRoutes.Get("/:id", grievanceController.GetTicketController)
	grievanceRoutes.Post("/", grievanceController.CreateTicketController)
	grievanceRoutes.Patch("/:id/status", grievanceController.UpdateTicketStatusController)
}
