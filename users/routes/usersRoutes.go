package routes

import (
	"context"

	"hope-backend/middleware"
	"hope-backend/token"
	"hope-backend/users/controllers"
	"hope-backend/users/repositories"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func UsersRouterInit(
	app *fiber.App,
	userRepo repositories.UserRepository,
	ctx context.Context,
	redisClient *redis.Client,
	tokenMaker token.Maker,
) {
	loginController := &controllers.LoginController{
		UserRepo:    userRepo,
		PasetoMaker: tokenMaker,
		Ctx:         ctx,
		RedisClient: redisClient,
	}

	appContext := &middleware.AppContext{
		PasetoMaker: tokenMaker,
		Ctx:         ctx,
		RedisClient: redisClient,
	}

	publicRoutes := app.Group("/api/v1")
	{
		publicRoutes.Post("/auth/login", loginController.LoginUser)
	}

	protectedRoutes := app.Group("/api/v1")
	protectedRoutes.Use(middleware.ProtectedRoute(appContext))
	{
		protectedRoutes.Post("/auth/logout", loginController.LogoutUser)
		protectedRoutes.Get("/auth/me", loginController.GetCurrentUser)
	}
}
