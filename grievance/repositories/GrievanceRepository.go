package repositories

import (
	"fmt"

	"hope-backend/config"
	"hope-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GrievanceRepository interface {
	GetTicketByID(tx *gorm.DB, ticketID uuid.UUID) (*models.GrievanceTicket, error)
	GetFilteredTickets(limit, offset int, filters map[string]string) ([]models.GrievanceTicket, int64, error)
	CountByImport(tx *gorm.DB, importID uuid.UUID, category models.TicketCategory) (int64, error)
	DeleteByImport(tx *gorm.DB, importID uuid.UUID) error
	UpdateStatus(tx *gorm.DB, ticketID uuid.UUID, status models.TicketStatus) error
}

type grievanceRepository struct {
	DB *gorm.DB
}

// NewGrievanceRepository initializes a new grievance ticket repository
func NewGrievanceRepository(db *gorm.DB) GrievanceRepository {
	return &grievanceRepository{DB: db}
}

func (gr *grievanceRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return gr.DB
}

func (gr *grievanceRepository) GetTicketByID(tx *gorm.DB, ticketID uuid.UUID) (*models.GrievanceTicket, error) {
	var ticket models.GrievanceTicket
	if err := gr.conn(tx).First(&ticket, "id = ?", ticketID).Error; err != nil {
		return nil, fmt.Errorf("failed to get grievance ticket: %w", err)
	}
	return &ticket, nil
}

func (gr *grievanceRepository) GetFilteredTickets(limit, offset int, filters map[string]string) ([]models.GrievanceTicket, int64, error) {
	var tickets []models.GrievanceTicket
	var total int64

	query := gr.DB.Model(&models.GrievanceTicket{})

	if category, ok := filters["category"]; ok && category != "" {
		query = query.Where("category = ?", category)
	}
	if status, ok := filters["status"]; ok && status != "" {
		query = query.Where("status = ?", status)
	}
	if businessAreaID, ok := filters["business_area_id"]; ok && businessAreaID != "" {
		query = query.Where("business_area_id = ?", businessAreaID)
	}
	if programID, ok := filters["program_id"]; ok && programID != "" {
		query = query.Where("program_id = ?", programID)
	}
	if importID, ok := filters["registration_data_import_id"]; ok && importID != "" {
		query = query.Where("registration_data_import_id = ?", importID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&tickets).Error; err != nil {
		return nil, 0, err
	}

	return tickets, total, nil
}

func (gr *grievanceRepository) CountByImport(tx *gorm.DB, importID uuid.UUID, category models.TicketCategory) (int64, error) {
	var count int64
	err := gr.conn(tx).Model(&models.GrievanceTicket{}).
		Where("registration_data_import_id = ? AND category = ?", importID, category).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets for import: %w", err)
	}
	return count, nil
}

// DeleteByImport removes the system-generated tickets of one import along
// with their details rows. Used by erase.
func (gr *grievanceRepository) DeleteByImport(tx *gorm.DB, importID uuid.UUID) error {
	conn := gr.conn(tx)

	ticketIDs := conn.Model(&models.GrievanceTicket{}).
		Select("id").
		Where("registration_data_import_id = ?", importID)

	detailsIDs := conn.Model(&models.NeedsAdjudicationTicketDetails{}).
		Select("id").
		Where("ticket_id IN (?)", ticketIDs)

	if err := conn.Unscoped().Where("details_id IN (?)", detailsIDs).Delete(&models.PossibleDuplicate{}).Error; err != nil {
		return fmt.Errorf("failed to delete possible duplicates for import: %w", err)
	}
	if err := conn.Unscoped().Where("ticket_id IN (?)", ticketIDs).Delete(&models.NeedsAdjudicationTicketDetails{}).Error; err != nil {
		return fmt.Errorf("failed to delete adjudication details for import: %w", err)
	}
	if err := conn.Unscoped().Where("ticket_id IN (?)", ticketIDs).Delete(&models.SystemFlaggingTicketDetails{}).Error; err != nil {
		return fmt.Errorf("failed to delete flagging details for import: %w", err)
	}
	if err := conn.Unscoped().Where("ticket_id IN (?)", ticketIDs).Delete(&models.IndividualDataUpdateTicketDetails{}).Error; err != nil {
		return fmt.Errorf("failed to delete data update details for import: %w", err)
	}
	if err := conn.Unscoped().Where("registration_data_import_id = ?", importID).Delete(&models.GrievanceTicket{}).Error; err != nil {
		return fmt.Errorf("failed to delete tickets for import: %w", err)
	}

	config.Logger.Info("Deleted system tickets for import", zap.String("importID", importID.String()))
	return nil
}

func (gr *grievanceRepository) UpdateStatus(tx *gorm.DB, ticketID uuid.UUID, status models.TicketStatus) error {
	err := gr.conn(tx).Model(&models.GrievanceTicket{}).
		Where("id = ?", ticketID).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	return nil
}
