package repositories

import (
	"fmt"
	"time"

	"hope-backend/config"
	"hope-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegistrationRepository interface {
	GetByID(tx *gorm.DB, importID uuid.UUID) (*models.RegistrationDataImport, error)
	GetFilteredImports(limit, offset int, filters map[string]string) ([]models.RegistrationDataImport, int64, error)
	UpdateStatus(tx *gorm.DB, importID uuid.UUID, status models.ImportStatus) error
	SetMergeError(importID uuid.UUID, message string) error
	UpdateMergeStats(tx *gorm.DB, rdi *models.RegistrationDataImport) error
	IncrementBiometricDuplicates(tx *gorm.DB, importID uuid.UUID, delta int) error
	MarkErased(tx *gorm.DB, importID uuid.UUID) error
	FindStaleLoading(cutoff time.Time) ([]models.RegistrationDataImport, error)
	FindIndexCleanupCandidates() ([]models.RegistrationDataImport, error)
}

type registrationRepository struct {
	DB *gorm.DB
}

// NewRegistrationRepository initializes a new registration data import repository
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{DB: db}
}

func (rr *registrationRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return rr.DB
}

func (rr *registrationRepository) GetByID(tx *gorm.DB, importID uuid.UUID) (*models.RegistrationDataImport, error) {
	var rdi models.RegistrationDataImport
	err := rr.conn(tx).
		Preload("BusinessArea").
		Preload("Program").
		First(&rdi, "id = ?", importID).Error
	if err != nil {
		config.Logger.Error("Failed to get registration data import", zap.Error(err), zap.String("importID", importID.String()))
		return nil, fmt.Errorf("failed to get registration data import: %w", err)
	}
	return &rdi, nil
}

func (rr *registrationRepository) GetFilteredImports(limit, offset int, filters map[string]string) ([]models.RegistrationDataImport, int64, error) {
	var imports []models.RegistrationDataImport
	var total int64

	query := rr.DB.Model(&models.RegistrationDataImport{}).Where("erased = false")

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

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&imports).Error; err != nil {
		return nil, 0, err
	}

	return imports, total, nil
}

func (rr *registrationRepository) UpdateStatus(tx *gorm.DB, importID uuid.UUID, status models.ImportStatus) error {
	err := rr.conn(tx).Model(&models.RegistrationDataImport{}).
		Where("id = ?", importID).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update import status: %w", err)
	}
	return nil
}

// SetMergeError runs on the base connection so the error state survives the
// rolled-back merge transaction.
func (rr *registrationRepository) SetMergeError(importID uuid.UUID, message string) error {
	err := rr.DB.Model(&models.RegistrationDataImport{}).
		Where("id = ?", importID).
		Updates(map[string]interface{}{
			"status":        models.MergeErrorImport,
			"error_message": message,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to set merge error: %w", err)
	}
	return nil
}

func (rr *registrationRepository) UpdateMergeStats(tx *gorm.DB, rdi *models.RegistrationDataImport) error {
	err := rr.conn(tx).Model(&models.RegistrationDataImport{}).
		Where("id = ?", rdi.ID).
		Updates(map[string]interface{}{
			"status":                            rdi.Status,
			"number_of_households":              rdi.NumberOfHouseholds,
			"number_of_individuals":             rdi.NumberOfIndividuals,
			"batch_duplicates":                  rdi.BatchDuplicates,
			"batch_unique":                      rdi.BatchUnique,
			"golden_record_possible_duplicates": rdi.GoldenRecordPossibleDuplicates,
			"golden_record_unique":              rdi.GoldenRecordUnique,
			"biometric_duplicates":              rdi.BiometricDuplicates,
			"error_message":                     rdi.ErrorMessage,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update merge stats: %w", err)
	}
	return nil
}

func (rr *registrationRepository) IncrementBiometricDuplicates(tx *gorm.DB, importID uuid.UUID, delta int) error {
	err := rr.conn(tx).Model(&models.RegistrationDataImport{}).
		Where("id = ?", importID).
		Update("biometric_duplicates", gorm.Expr("biometric_duplicates + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("failed to increment biometric duplicates: %w", err)
	}
	return nil
}

// FindStaleLoading returns imports stuck in LOADING since before the cutoff,
// typically abandoned uploads.
func (rr *registrationRepository) FindStaleLoading(cutoff time.Time) ([]models.RegistrationDataImport, error) {
	var imports []models.RegistrationDataImport
	err := rr.DB.
		Where("status = ? AND updated_at < ?", models.LoadingImport, cutoff).
		Find(&imports).Error
	return imports, err
}

// FindIndexCleanupCandidates returns imports whose search-index documents may
// still be lingering: erased imports and failed merges whose compensation
// delete did not go through.
func (rr *registrationRepository) FindIndexCleanupCandidates() ([]models.RegistrationDataImport, error) {
	var imports []models.RegistrationDataImport
	err := rr.DB.
		Where("erased = true OR status = ?", models.MergeErrorImport).
		Find(&imports).Error
	return imports, err
}

func (rr *registrationRepository) MarkErased(tx *gorm.DB, importID uuid.UUID) error {
	err := rr.conn(tx).Model(&models.RegistrationDataImport{}).
		Where("id = ?", importID).
		Update("erased", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark import erased: %w", err)
	}
	return nil
}
