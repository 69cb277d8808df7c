package config

import (
	"fmt"
	"log"
	"time"

	"hope-backend/db/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// allModels defines all models that should be migrated.
// This is the only place you need to add new models.
var allModels = []interface{}{
	// Business structure
	&models.BusinessArea{},
	&models.Program{},
	&models.User{},

	// Population
	&models.HouseholdCollection{},
	&models.IndividualCollection{},
	&models.Household{},
	&models.Individual{},
	&models.IndividualRoleInHousehold{},
	&models.Document{},
	&models.Account{},

	// Registration data imports
	&models.RegistrationDataImport{},

	// Grievance tickets
	&models.GrievanceTicket{},
	&models.NeedsAdjudicationTicketDetails{},
	&models.PossibleDuplicate{},
	&models.SystemFlaggingTicketDetails{},
	&models.HouseholdDataUpdateTicketDetails{},
	&models.IndividualDataUpdateTicketDetails{},
	&models.AddIndividualTicketDetails{},
	&models.DeleteIndividualTicketDetails{},
	&models.DeleteHouseholdTicketDetails{},
	&models.SensitiveTicketDetails{},
	&models.ComplaintTicketDetails{},
	&models.ReferralTicketDetails{},

	// Payments
	&models.DeliveryMechanism{},
	&models.FinancialServiceProvider{},
	&models.PaymentPlan{},
	&models.DeliveryMechanismPerPaymentPlan{},
}

func ConfigureDatabase() *gorm.DB {
	host := GetEnv("DB_HOST")
	user := GetEnv("POSTGRES_USER")
	password := GetEnv("POSTGRES_PASSWORD")
	dbname := GetEnv("POSTGRES_DB")
	port := GetEnv("DB_PORT")
	timezone := GetEnv("DB_TIMEZONE")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		host, user, password, dbname, port, timezone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("[DB-CONNECT] Failed to connect to database: %v", err)
	}

	// Auto-migrate all models using the allModels slice
	err = db.AutoMigrate(allModels...)
	if err != nil {
		log.Fatalf("failed to migrate tables: %v", err)
	} else {
		log.Println("Tables migrated successfully")
	}

	// Collection membership must be unique per business area so that two
	// concurrent merges cannot create duplicate collections for the same
	// unicef_id (the insert loses to the constraint, not to a read race).
	uniqueIndexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_individual_collections_unicef_ba ON individual_collections (unicef_id, business_area_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_household_collections_unicef_ba ON household_collections (unicef_id, business_area_id)",
	}
	for _, stmt := range uniqueIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			log.Fatalf("[DB-MIGRATE] Failed to create unique index: %v", err)
		}
	}

	// Connection pool configuration
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("[DB-POOL] Failed to get underlying DB connection: %v", err)
	}
	sqlDB.SetMaxOpenConns(30)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	log.Println("[DB-POOL] Connection pool configured")
	log.Println("[DB-STATUS] Database setup complete")
	return db
}
