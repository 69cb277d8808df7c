package repositories

import (
	"fmt"

	"hope-backend/config"
	"hope-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PaymentPlanRepository interface {
	GetByID(tx *gorm.DB, planID uuid.UUID) (*models.PaymentPlan, error)
	GetFilteredPlans(limit, offset int, filters map[string]string) ([]models.PaymentPlan, int64, error)
	ReplaceDeliveryMechanisms(tx *gorm.DB, planID uuid.UUID, mechanisms []models.DeliveryMechanismPerPaymentPlan) error
	AssignFSPToMechanism(tx *gorm.DB, perPlanID uuid.UUID, fspID uuid.UUID) error
	CountUnservedHouseholds(tx *gorm.DB, planID uuid.UUID, mechanismIDs []uuid.UUID) (int64, error)
	UpdateBackgroundAction(tx *gorm.DB, planID uuid.UUID, status models.BackgroundActionStatus) error
	GetPlanHouseholds(tx *gorm.DB, planID uuid.UUID) ([]models.Household, error)
}

type paymentPlanRepository struct {
	DB *gorm.DB
}

// NewPaymentPlanRepository initializes a new payment plan repository
func NewPaymentPlanRepository(db *gorm.DB) PaymentPlanRepository {
	return &paymentPlanRepository{DB: db}
}

func (pr *paymentPlanRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return pr.DB
}

func (pr *paymentPlanRepository) GetByID(tx *gorm.DB, planID uuid.UUID) (*models.PaymentPlan, error) {
	var plan models.PaymentPlan
	err := pr.conn(tx).
		Preload("DeliveryMechanisms", func(db *gorm.DB) *gorm.DB {
			return db.Order(`"order" ASC`)
		}).
		Preload("DeliveryMechanisms.DeliveryMechanism").
		Preload("DeliveryMechanisms.FinancialServiceProvider").
		First(&plan, "id = ?", planID).Error
	if err != nil {
		config.Logger.Error("Failed to get payment plan", zap.Error(err), zap.String("planID", planID.String()))
		return nil, fmt.Errorf("failed to get payment plan: %w", err)
	}
	return &plan, nil
}

func (pr *paymentPlanRepository) GetFilteredPlans(limit, offset int, filters map[string]string) ([]models.PaymentPlan, int64, error) {
	var plans []models.PaymentPlan
	var total int64

	query := pr.DB.Model(&models.PaymentPlan{})

	if status, ok := filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if programID, ok := filters["program_id"]; ok && programID != "" {
		query = query.Where("program_id = ?", programID)
	}
	if businessAreaID, ok := filters["business_area_id"]; ok && businessAreaID != "" {
		query = query.Where("business_area_id = ?", businessAreaID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&plans).Error; err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

// ReplaceDeliveryMechanisms swaps the plan's chosen mechanism list for the
// given one. FSP assignments on the old list are dropped with it.
func (pr *paymentPlanRepository) ReplaceDeliveryMechanisms(tx *gorm.DB, planID uuid.UUID, mechanisms []models.DeliveryMechanismPerPaymentPlan) error {
	conn := pr.conn(tx)

	if err := conn.Unscoped().
		Where("payment_plan_id = ?", planID).
		Delete(&models.DeliveryMechanismPerPaymentPlan{}).Error; err != nil {
		return fmt.Errorf("failed to clear delivery mechanisms: %w", err)
	}
	for i := range mechanisms {
		mechanisms[i].PaymentPlanID = planID
		if err := conn.Create(&mechanisms[i]).Error; err != nil {
			return fmt.Errorf("failed to create delivery mechanism entry: %w", err)
		}
	}
	return nil
}

func (pr *paymentPlanRepository) AssignFSPToMechanism(tx *gorm.DB, perPlanID uuid.UUID, fspID uuid.UUID) error {
	err := pr.conn(tx).Model(&models.DeliveryMechanismPerPaymentPlan{}).
		Where("id = ?", perPlanID).
		Update("financial_service_provider_id", fspID).Error
	if err != nil {
		return fmt.Errorf("failed to assign FSP: %w", err)
	}
	return nil
}

// CountUnservedHouseholds counts plan households where no member holds an
// active account under any of the chosen mechanisms.
func (pr *paymentPlanRepository) CountUnservedHouseholds(tx *gorm.DB, planID uuid.UUID, mechanismIDs []uuid.UUID) (int64, error) {
	conn := pr.conn(tx)

	if len(mechanismIDs) == 0 {
		var total int64
		err := conn.Table("payment_plan_households").
			Where("payment_plan_id = ?", planID).
			Count(&total).Error
		if err != nil {
			return 0, fmt.Errorf("failed to count plan households: %w", err)
		}
		return total, nil
	}

	served := conn.Table("accounts").
		Select("individuals.household_id").
		Joins("JOIN individuals ON individuals.id = accounts.individual_id").
		Where("individuals.household_id IS NOT NULL AND accounts.active = true AND accounts.delivery_mechanism_id IN ?", mechanismIDs)

	var count int64
	err := conn.Table("payment_plan_households").
		Where("payment_plan_id = ?", planID).
		Where("household_id NOT IN (?)", served).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unserved households: %w", err)
	}
	return count, nil
}

func (pr *paymentPlanRepository) UpdateBackgroundAction(tx *gorm.DB, planID uuid.UUID, status models.BackgroundActionStatus) error {
	err := pr.conn(tx).Model(&models.PaymentPlan{}).
		Where("id = ?", planID).
		Update("background_action_status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update background action status: %w", err)
	}
	return nil
}

func (pr *paymentPlanRepository) GetPlanHouseholds(tx *gorm.DB, planID uuid.UUID) ([]models.Household, error) {
	var plan models.PaymentPlan
	err := pr.conn(tx).
		Preload("Households").
		First(&plan, "id = ?", planID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get plan households: %w", err)
	}
	return plan.Households, nil
}
