package repositories

import (
	"fmt"

	"hope-backend/config"
	"hope-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HouseholdRepository exposes explicit merge-status filters instead of
// swappable default scopes, so call sites are unambiguous about which rows
// they operate on.
type HouseholdRepository interface {
	FindActive(tx *gorm.DB, programID uuid.UUID, limit, offset int) ([]models.Household, int64, error)
	FindPendingByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Household, error)
	FindAllByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Household, error)
	FindMergedByUnicefID(tx *gorm.DB, unicefID string, businessAreaID, excludeImportID uuid.UUID) (*models.Household, error)
	MarkMergedByImport(tx *gorm.DB, importID uuid.UUID) error
	SetCollection(tx *gorm.DB, householdID, collectionID uuid.UUID) error
	GetOrCreateCollection(tx *gorm.DB, unicefID string, businessAreaID uuid.UUID) (*models.HouseholdCollection, error)
	DeleteByImport(tx *gorm.DB, importID uuid.UUID) error
}

type householdRepository struct {
	DB *gorm.DB
}

// NewHouseholdRepository initializes a new household repository
func NewHouseholdRepository(db *gorm.DB) HouseholdRepository {
	return &householdRepository{DB: db}
}

func (hr *householdRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return hr.DB
}

func (hr *householdRepository) FindActive(tx *gorm.DB, programID uuid.UUID, limit, offset int) ([]models.Household, int64, error) {
	var households []models.Household
	var total int64

	query := hr.conn(tx).Model(&models.Household{}).
		Where("program_id = ? AND rdi_merge_status = ? AND withdrawn = false", programID, models.MergedMergeStatus)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("updated_at DESC, created_at DESC").Limit(limit).Offset(offset).Find(&households).Error; err != nil {
		return nil, 0, err
	}

	return households, total, nil
}

func (hr *householdRepository) FindPendingByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Household, error) {
	var households []models.Household
	err := hr.conn(tx).
		Where("registration_data_import_id = ? AND rdi_merge_status = ?", importID, models.PendingMergeStatus).
		Find(&households).Error
	if err != nil {
		config.Logger.Error("Failed to get pending households", zap.Error(err), zap.String("importID", importID.String()))
		return nil, fmt.Errorf("failed to get pending households: %w", err)
	}
	return households, nil
}

func (hr *householdRepository) FindAllByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Household, error) {
	var households []models.Household
	err := hr.conn(tx).Where("registration_data_import_id = ?", importID).Find(&households).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get households for import: %w", err)
	}
	return households, nil
}

// FindMergedByUnicefID returns a canonical household with the same unicef_id
// in the business area, registered by a different import. gorm.ErrRecordNotFound
// is flattened to (nil, nil).
func (hr *householdRepository) FindMergedByUnicefID(tx *gorm.DB, unicefID string, businessAreaID, excludeImportID uuid.UUID) (*models.Household, error) {
	var household models.Household
	err := hr.conn(tx).
		Where("unicef_id = ? AND business_area_id = ? AND rdi_merge_status = ? AND registration_data_import_id != ?",
			unicefID, businessAreaID, models.MergedMergeStatus, excludeImportID).
		Order("created_at ASC").
		First(&household).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up household by unicef_id: %w", err)
	}
	return &household, nil
}

func (hr *householdRepository) MarkMergedByImport(tx *gorm.DB, importID uuid.UUID) error {
	err := hr.conn(tx).Model(&models.Household{}).
		Where("registration_data_import_id = ? AND rdi_merge_status = ?", importID, models.PendingMergeStatus).
		Update("rdi_merge_status", models.MergedMergeStatus).Error
	if err != nil {
		return fmt.Errorf("failed to mark households merged: %w", err)
	}
	return nil
}

func (hr *householdRepository) SetCollection(tx *gorm.DB, householdID, collectionID uuid.UUID) error {
	err := hr.conn(tx).Model(&models.Household{}).
		Where("id = ?", householdID).
		Update("collection_id", collectionID).Error
	if err != nil {
		return fmt.Errorf("failed to set household collection: %w", err)
	}
	return nil
}

// GetOrCreateCollection upserts against the (unicef_id, business_area_id)
// unique index so two concurrent merges cannot create duplicate collections.
func (hr *householdRepository) GetOrCreateCollection(tx *gorm.DB, unicefID string, businessAreaID uuid.UUID) (*models.HouseholdCollection, error) {
	collection := models.HouseholdCollection{
		ID:             uuid.New(),
		UnicefID:       unicefID,
		BusinessAreaID: businessAreaID,
	}
	err := hr.conn(tx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "unicef_id"}, {Name: "business_area_id"}},
			DoNothing: true,
		}).
		Create(&collection).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert household collection: %w", err)
	}

	// Re-read to get the surviving row when the insert hit the conflict.
	var existing models.HouseholdCollection
	err = hr.conn(tx).
		Where("unicef_id = ? AND business_area_id = ?", unicefID, businessAreaID).
		First(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read household collection: %w", err)
	}
	return &existing, nil
}

func (hr *householdRepository) DeleteByImport(tx *gorm.DB, importID uuid.UUID) error {
	err := hr.conn(tx).Unscoped().
		Where("registration_data_import_id = ?", importID).
		Delete(&models.Household{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete households for import: %w", err)
	}
	return nil
}
