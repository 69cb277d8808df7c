package repositories

import (
	"fmt"

	"hope-backend/db/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FspRepository interface {
	GetByID(tx *gorm.DB, fspID uuid.UUID) (*models.FinancialServiceProvider, error)
	GetAll(tx *gorm.DB) ([]models.FinancialServiceProvider, error)
	GetMechanismsByCodes(tx *gorm.DB, codes []string) ([]models.DeliveryMechanism, error)
}

type fspRepository struct {
	DB *gorm.DB
}

// NewFspRepository initializes a new financial service provider repository
func NewFspRepository(db *gorm.DB) FspRepository {
	return &fspRepository{DB: db}
}

func (fr *fspRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return fr.DB
}

func (fr *fspRepository) GetByID(tx *gorm.DB, fspID uuid.UUID) (*models.FinancialServiceProvider, error) {
	var fsp models.FinancialServiceProvider
	err := fr.conn(tx).
		Preload("DeliveryMechanisms").
		First(&fsp, "id = ?", fspID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get financial service provider: %w", err)
	}
	return &fsp, nil
}

func (fr *fspRepository) GetAll(tx *gorm.DB) ([]models.FinancialServiceProvider, error) {
	var fsps []models.FinancialServiceProvider
	err := fr.conn(tx).
		Preload("DeliveryMechanisms").
		Order("name ASC").
		Find(&fsps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list financial service providers: %w", err)
	}
	return fsps, nil
}

func (fr *fspRepository) GetMechanismsByCodes(tx *gorm.DB, codes []string) ([]models.DeliveryMechanism, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var mechanisms []models.DeliveryMechanism
	err := fr.conn(tx).
		Where("code IN ? AND is_active = true", codes).
		Find(&mechanisms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery mechanisms: %w", err)
	}
	return mechanisms, nil
}
