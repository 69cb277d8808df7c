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

type IndividualRepository interface {
	FindActive(tx *gorm.DB, programID uuid.UUID, limit, offset int) ([]models.Individual, int64, error)
	FindPendingByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Individual, error)
	FindByIDs(tx *gorm.DB, individualIDs []uuid.UUID) ([]models.Individual, error)
	FindMergedByUnicefID(tx *gorm.DB, unicefID string, businessAreaID, excludeImportID uuid.UUID) (*models.Individual, error)
	FindPendingAccountsByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Account, error)
	CountActiveAccountsByUniqueKey(tx *gorm.DB, programID uuid.UUID, mechanismID uuid.UUID, uniqueKey string, excludeAccountID uuid.UUID) (int64, error)
	MarkMergedByImport(tx *gorm.DB, importID uuid.UUID) error
	MarkChildRecordsMergedByImport(tx *gorm.DB, importID uuid.UUID) error
	UpdateDeduplicationResults(tx *gorm.DB, individual *models.Individual) error
	DeactivateAccount(tx *gorm.DB, accountID uuid.UUID) error
	SetAccountUniqueKey(tx *gorm.DB, accountID uuid.UUID, uniqueKey string) error
	SetCollection(tx *gorm.DB, individualID, collectionID uuid.UUID) error
	GetOrCreateCollection(tx *gorm.DB, unicefID string, businessAreaID uuid.UUID) (*models.IndividualCollection, error)
	DeleteByImport(tx *gorm.DB, importID uuid.UUID) error
}

type individualRepository struct {
	DB *gorm.DB
}

// NewIndividualRepository initializes a new individual repository
func NewIndividualRepository(db *gorm.DB) IndividualRepository {
	return &individualRepository{DB: db}
}

func (ir *individualRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ir.DB
}

func (ir *individualRepository) FindActive(tx *gorm.DB, programID uuid.UUID, limit, offset int) ([]models.Individual, int64, error) {
	var individuals []models.Individual
	var total int64

	query := ir.conn(tx).Model(&models.Individual{}).
		Where("program_id = ? AND rdi_merge_status = ? AND withdrawn = false AND duplicate = false", programID, models.MergedMergeStatus)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("updated_at DESC, created_at DESC").Limit(limit).Offset(offset).Find(&individuals).Error; err != nil {
		return nil, 0, err
	}

	return individuals, total, nil
}

func (ir *individualRepository) FindPendingByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Individual, error) {
	var individuals []models.Individual
	err := ir.conn(tx).
		Preload("Documents").
		Where("registration_data_import_id = ? AND rdi_merge_status = ?", importID, models.PendingMergeStatus).
		Find(&individuals).Error
	if err != nil {
		config.Logger.Error("Failed to get pending individuals", zap.Error(err), zap.String("importID", importID.String()))
		return nil, fmt.Errorf("failed to get pending individuals: %w", err)
	}
	return individuals, nil
}

func (ir *individualRepository) FindByIDs(tx *gorm.DB, individualIDs []uuid.UUID) ([]models.Individual, error) {
	if len(individualIDs) == 0 {
		return nil, nil
	}
	var individuals []models.Individual
	err := ir.conn(tx).Where("id IN ?", individualIDs).Find(&individuals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get individuals by ids: %w", err)
	}
	return individuals, nil
}

func (ir *individualRepository) FindMergedByUnicefID(tx *gorm.DB, unicefID string, businessAreaID, excludeImportID uuid.UUID) (*models.Individual, error) {
	var individual models.Individual
	err := ir.conn(tx).
		Where("unicef_id = ? AND business_area_id = ? AND rdi_merge_status = ? AND registration_data_import_id != ?",
			unicefID, businessAreaID, models.MergedMergeStatus, excludeImportID).
		Order("created_at ASC").
		First(&individual).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up individual by unicef_id: %w", err)
	}
	return &individual, nil
}

func (ir *individualRepository) FindPendingAccountsByImport(tx *gorm.DB, importID uuid.UUID) ([]models.Account, error) {
	var accounts []models.Account
	err := ir.conn(tx).
		Preload("DeliveryMechanism").
		Joins("JOIN individuals ON individuals.id = accounts.individual_id").
		Where("individuals.registration_data_import_id = ? AND accounts.rdi_merge_status = ?", importID, models.PendingMergeStatus).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending accounts: %w", err)
	}
	return accounts, nil
}

// CountActiveAccountsByUniqueKey counts already-merged active accounts in the
// program sharing the same unique key and mechanism, for the per-program
// uniqueness check.
func (ir *individualRepository) CountActiveAccountsByUniqueKey(tx *gorm.DB, programID uuid.UUID, mechanismID uuid.UUID, uniqueKey string, excludeAccountID uuid.UUID) (int64, error) {
	var count int64
	err := ir.conn(tx).Model(&models.Account{}).
		Joins("JOIN individuals ON individuals.id = accounts.individual_id").
		Where("individuals.program_id = ? AND accounts.delivery_mechanism_id = ? AND accounts.unique_key = ? AND accounts.active = true AND accounts.id != ?",
			programID, mechanismID, uniqueKey, excludeAccountID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts by unique key: %w", err)
	}
	return count, nil
}

func (ir *individualRepository) MarkMergedByImport(tx *gorm.DB, importID uuid.UUID) error {
	err := ir.conn(tx).Model(&models.Individual{}).
		Where("registration_data_import_id = ? AND rdi_merge_status = ?", importID, models.PendingMergeStatus).
		Update("rdi_merge_status", models.MergedMergeStatus).Error
	if err != nil {
		return fmt.Errorf("failed to mark individuals merged: %w", err)
	}
	return nil
}

// MarkChildRecordsMergedByImport promotes the pending roles, documents and
// accounts belonging to the import's individuals.
func (ir *individualRepository) MarkChildRecordsMergedByImport(tx *gorm.DB, importID uuid.UUID) error {
	conn := ir.conn(tx)

	individualIDs := conn.Model(&models.Individual{}).
		Select("id").
		Where("registration_data_import_id = ?", importID)

	if err := conn.Model(&models.IndividualRoleInHousehold{}).
		Where("individual_id IN (?) AND rdi_merge_status = ?", individualIDs, models.PendingMergeStatus).
		Update("rdi_merge_status", models.MergedMergeStatus).Error; err != nil {
		return fmt.Errorf("failed to mark roles merged: %w", err)
	}

	if err := conn.Model(&models.Document{}).
		Where("individual_id IN (?) AND rdi_merge_status = ?", individualIDs, models.PendingMergeStatus).
		Update("rdi_merge_status", models.MergedMergeStatus).Error; err != nil {
		return fmt.Errorf("failed to mark documents merged: %w", err)
	}

	if err := conn.Model(&models.Account{}).
		Where("individual_id IN (?) AND rdi_merge_status = ?", individualIDs, models.PendingMergeStatus).
		Update("rdi_merge_status", models.MergedMergeStatus).Error; err != nil {
		return fmt.Errorf("failed to mark accounts merged: %w", err)
	}

	return nil
}

func (ir *individualRepository) UpdateDeduplicationResults(tx *gorm.DB, individual *models.Individual) error {
	err := ir.conn(tx).Model(&models.Individual{}).
		Where("id = ?", individual.ID).
		Updates(map[string]interface{}{
			"deduplication_batch_status":          individual.DeduplicationBatchStatus,
			"deduplication_golden_record_status":  individual.DeduplicationGoldenRecordStatus,
			"deduplication_batch_results":         individual.DeduplicationBatchResults,
			"deduplication_golden_record_results": individual.DeduplicationGoldenRecordResults,
			"duplicate":                           individual.Duplicate,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update deduplication results: %w", err)
	}
	return nil
}

func (ir *individualRepository) DeactivateAccount(tx *gorm.DB, accountID uuid.UUID) error {
	err := ir.conn(tx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate account: %w", err)
	}
	return nil
}

func (ir *individualRepository) SetAccountUniqueKey(tx *gorm.DB, accountID uuid.UUID, uniqueKey string) error {
	err := ir.conn(tx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("unique_key", uniqueKey).Error
	if err != nil {
		return fmt.Errorf("failed to set account unique key: %w", err)
	}
	return nil
}

func (ir *individualRepository) SetCollection(tx *gorm.DB, individualID, collectionID uuid.UUID) error {
	err := ir.conn(tx).Model(&models.Individual{}).
		Where("id = ?", individualID).
		Update("collection_id", collectionID).Error
	if err != nil {
		return fmt.Errorf("failed to set individual collection: %w", err)
	}
	return nil
}

func (ir *individualRepository) GetOrCreateCollection(tx *gorm.DB, unicefID string, businessAreaID uuid.UUID) (*models.IndividualCollection, error) {
	collection := models.IndividualCollection{
		ID:             uuid.New(),
		UnicefID:       unicefID,
		BusinessAreaID: businessAreaID,
	}
	err := ir.conn(tx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "unicef_id"}, {Name: "business_area_id"}},
			DoNothing: true,
		}).
		Create(&collection).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert individual collection: %w", err)
	}

	var existing models.IndividualCollection
	err = ir.conn(tx).
		Where("unicef_id = ? AND business_area_id = ?", unicefID, businessAreaID).
		First(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read individual collection: %w", err)
	}
	return &existing, nil
}

// DeleteByImport removes the import's individuals and their child records.
func (ir *individualRepository) DeleteByImport(tx *gorm.DB, importID uuid.UUID) error {
	conn := ir.conn(tx)

	individualIDs := conn.Model(&models.Individual{}).
		Select("id").
		Where("registration_data_import_id = ?", importID)

	if err := conn.Unscoped().Where("individual_id IN (?)", individualIDs).Delete(&models.IndividualRoleInHousehold{}).Error; err != nil {
		return fmt.Errorf("failed to delete roles for import: %w", err)
	}
	if err := conn.Unscoped().Where("individual_id IN (?)", individualIDs).Delete(&models.Document{}).Error; err != nil {
		return fmt.Errorf("failed to delete documents for import: %w", err)
	}
	if err := conn.Unscoped().Where("individual_id IN (?)", individualIDs).Delete(&models.Account{}).Error; err != nil {
		return fmt.Errorf("failed to delete accounts for import: %w", err)
	}
	if err := conn.Unscoped().Where("registration_data_import_id = ?", importID).Delete(&models.Individual{}).Error; err != nil {
		return fmt.Errorf("failed to delete individuals for import: %w", err)
	}
	return nil
}
