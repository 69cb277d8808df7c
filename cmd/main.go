package main

import (
	"context"

	appdb "hope-backend/db"

	"hope-backend/config"
	"hope-backend/middleware"
	"hope-backend/tasks"
	"hope-backend/token"
	"hope-backend/utils"

	// Repositories
	grievance_repositories "hope-backend/grievance/repositories"
	households_repositories "hope-backend/households/repositories"
	payments_repositories "hope-backend/payments/repositories"
	registration_repositories "hope-backend/registration/repositories"
	search_repositories "hope-backend/search/repositories"
	users_repositories "hope-backend/users/repositories"

	// Services
	dedup_services "hope-backend/deduplication/services"
	grievance_services "hope-backend/grievance/services"
	households_services "hope-backend/households/services"
	registration_services "hope-backend/registration/services"
	search_services "hope-backend/search/services"

	// Routes
	grievance_routes "hope-backend/grievance/routes"
	household_routes "hope-backend/households/routes"
	payment_routes "hope-backend/payments/routes"
	registration_routes "hope-backend/registration/routes"
	user_routes "hope-backend/users/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Initialize Zap logger
	config.InitLogger()

	// Load environment variables
	if err := godotenv.Load(".env"); err != nil {
		config.Logger.Warn("No .env file found, relying on environment", zap.Error(err))
	}

	app := fiber.New()

	// Apply CORS middleware from middleware package
	middleware.InitCors(app)

	// Initialize database and configs
	db := config.ConfigureDatabase()
	port := config.GetEnv("PORT")
	ctx := context.Background()

	// Redis client for sessions; Asynq holds its own connection internally.
	redisAddr := config.GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379")
	redisClient := config.InitRedisServer(ctx)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: "",
		DB:       0,
	}

	asynqClient := asynq.NewClient(asynqRedisOpt)
	defer asynqClient.Close()
	queue := tasks.NewAsynqQueue(asynqClient)

	tokenKey := config.GetEnv("TOKEN_SYMMETRIC_KEY")
	tokenMaker, err := token.NewPasetoMaker(tokenKey)
	if err != nil {
		config.Logger.Fatal("Cannot create token maker", zap.Error(err))
	}

	// Elasticsearch population index
	esClient := config.InitElasticsearch(ctx)
	populationIndex := search_services.NewPopulationIndexService(esClient, config.Logger)

	// Bleve ticket search index
	indexPath := config.GetEnvOrDefault("BLEVE_INDEX_PATH", "./bleve_data")
	indexingService := search_services.NewIndexingService(config.Logger, indexPath)
	ticketSearchRepo := search_repositories.NewTicketSearchRepository(indexingService)

	// Initialize the mailer
	utils.InitializeMailer()

	// Repositories
	importRepo := registration_repositories.NewRegistrationRepository(db)
	householdRepo := households_repositories.NewHouseholdRepository(db)
	individualRepo := households_repositories.NewIndividualRepository(db)
	grievanceRepo := grievance_repositories.NewGrievanceRepository(db)
	planRepo := payments_repositories.NewPaymentPlanRepository(db)
	fspRepo := payments_repositories.NewFspRepository(db)
	userRepo := users_repositories.NewUserRepository(db)

	// Services
	txManager := &registration_services.GormTxManager{DB: db}
	countService := households_services.NewPopulationCountService(db)
	collectionService := households_services.NewCollectionService(householdRepo, individualRepo)
	ticketFactory := grievance_services.NewTicketFactory(db)
	biographicEngine := dedup_services.NewBiographicEngine(populationIndex)
	sanctionService := dedup_services.NewSanctionListService(
		config.GetEnv("SANCTION_LIST_URL"),
		config.GetEnv("SANCTION_LIST_TOKEN"),
	)
	biometricService := dedup_services.NewBiometricEngineService(
		config.GetEnv("BIOMETRIC_ENGINE_URL"),
		config.GetEnv("BIOMETRIC_ENGINE_TOKEN"),
	)
	mergeNotifier := utils.NewMergeFailureMailer(config.GetEnvOrDefault("MERGE_ALERT_EMAIL", ""))

	mergeService := registration_services.NewMergeService(
		txManager,
		importRepo,
		householdRepo,
		individualRepo,
		countService,
		ticketFactory,
		biographicEngine,
		sanctionService,
		biometricService,
		populationIndex,
		collectionService,
		mergeNotifier,
	)
	eraseService := registration_services.NewEraseService(
		txManager,
		importRepo,
		householdRepo,
		individualRepo,
		grievanceRepo,
		populationIndex,
	)

	// Background worker for merge and deduplication tasks
	worker := tasks.NewWorker(asynqRedisOpt, mergeService)
	if err := worker.Start(); err != nil {
		config.Logger.Fatal("Cannot start task worker", zap.Error(err))
	}
	defer worker.Shutdown()

	// Nightly cleanup of stale imports and orphaned index documents
	cleanup := utils.NewCleanupScheduler(importRepo, populationIndex)
	if err := cleanup.Start(); err != nil {
		config.Logger.Fatal("Cannot schedule cleanup job", zap.Error(err))
	}
	defer cleanup.Stop()

	// Seed reference data
	if err := appdb.SeedDeliveryMechanisms(db); err != nil {
		config.Logger.Error("Delivery mechanism seeding failed", zap.Error(err))
	}
	if err := config.SeedInitialUser(db); err != nil {
		config.Logger.Error("Initial user seeding failed", zap.Error(err))
	}

	// Routes
	user_routes.UsersRouterInit(app, userRepo, ctx, redisClient, tokenMaker)
	registration_routes.RegistrationRouterInit(app, db, importRepo, eraseService, queue)
	household_routes.HouseholdRouterInit(app, db, householdRepo, individualRepo)
	grievance_routes.GrievanceRouterInit(app, db, grievanceRepo, ticketSearchRepo)
	payment_routes.PaymentRouterInit(app, db, planRepo, fspRepo)

	// Start the application
	config.Logger.Info("Server starting", zap.String("port", port))
	config.Logger.Fatal("Server failed", zap.String("port", port), zap.Error(app.Listen(":"+port)))
}
