package config

import (
	"errors"
	"fmt"

	"hope-backend/db/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedInitialUser creates a single admin user for initial system access.
// Credentials come from the environment so fresh deployments never ship
// with a hardcoded password.
func SeedInitialUser(db *gorm.DB) error {
	email := GetEnvOrDefault("INITIAL_ADMIN_EMAIL", "admin@example.com")
	password := GetEnvOrDefault("INITIAL_ADMIN_PASSWORD", "admin123")

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		Logger.Sugar().Infof("Initial user already exists: %s", existing.Email)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("error checking for existing user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:     email,
		Password:  string(hashedPassword),
		FirstName: "System",
		LastName:  "Administrator",
		Role:      "admin",
		IsActive:  true,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("failed to create initial user: %w", err)
	}

	Logger.Sugar().Infof("Initial user created: %s", user.Email)
	return nil
}
