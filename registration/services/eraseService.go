package services

import (
	"context"
	"fmt"

	"hope-backend/config"
	"hope-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type importEraseStore interface {
	GetByID(tx *gorm.DB, importID uuid.UUID) (*models.RegistrationDataImport, error)
	UpdateStatus(tx *gorm.DB, importID uuid.UUID, status models.ImportStatus) error
	MarkErased(tx *gorm.DB, importID uuid.UUID) error
}

type householdEraseStore interface {
	DeleteByImport(tx *gorm.DB, importID uuid.UUID) error
}

type individualEraseStore interface {
	DeleteByImport(tx *gorm.DB, importID uuid.UUID) error
}

type ticketEraseStore interface {
	DeleteByImport(tx *gorm.DB, importID uuid.UUID) error
}

type importDocumentRemover interface {
	DeleteImportDocuments(ctx context.Context, importID uuid.UUID) error
}

// EraseService hard-deletes the pending data of a failed import, or refuses
// an import still in review. Merged imports are never erasable; their data
// already belongs to the canonical population.
type EraseService struct {
	tx          txManager
	imports     importEraseStore
	households  householdEraseStore
	individuals individualEraseStore
	tickets     ticketEraseStore
	index       importDocumentRemover
}

func NewEraseService(
	tx txManager,
	imports importEraseStore,
	households householdEraseStore,
	individuals individualEraseStore,
	tickets ticketEraseStore,
	index importDocumentRemover,
) *EraseService {
	return &EraseService{
		tx:          tx,
		imports:     imports,
		households:  households,
		individuals: individuals,
		tickets:     tickets,
		index:       index,
	}
}

// Erase removes an import's households, individuals and system tickets.
// Only permitted from the error states.
func (s *EraseService) Erase(ctx context.Context, importID uuid.UUID) error {
	rdi, err := s.imports.GetByID(nil, importID)
	if err != nil {
		return err
	}
	if !rdi.CanBeErased() {
		return fmt.Errorf("import %s cannot be erased from status %s", rdi.Name, rdi.Status)
	}

	err = s.tx.Transaction(func(tx *gorm.DB) error {
		if err := s.tickets.DeleteByImport(tx, importID); err != nil {
			return err
		}
		if err := s.individuals.DeleteByImport(tx, importID); err != nil {
			return err
		}
		if err := s.households.DeleteByImport(tx, importID); err != nil {
			return err
		}
		return s.imports.MarkErased(tx, importID)
	})
	if err != nil {
		return fmt.Errorf("failed to erase import: %w", err)
	}

	// The failed merge may have left index documents behind; the cleanup
	// cron re-runs this if it fails here.
	if err := s.index.DeleteImportDocuments(ctx, importID); err != nil {
		config.Logger.Warn("Failed to remove index documents for erased import",
			zap.Error(err), zap.String("importID", importID.String()))
	}

	config.Logger.Info("Erased import", zap.String("importID", importID.String()), zap.String("name", rdi.Name))
	return nil
}

// Refuse rejects an in-review import and drops its pending rows.
func (s *EraseService) Refuse(ctx context.Context, importID uuid.UUID) error {
	rdi, err := s.imports.GetByID(nil, importID)
	if err != nil {
		return err
	}
	if !rdi.CanBeRefused() {
		return fmt.Errorf("import %s cannot be refused from status %s", rdi.Name, rdi.Status)
	}

	err = s.tx.Transaction(func(tx *gorm.DB) error {
		if err := s.tickets.DeleteByImport(tx, importID); err != nil {
			return err
		}
		if err := s.individuals.DeleteByImport(tx, importID); err != nil {
			return err
		}
		if err := s.households.DeleteByImport(tx, importID); err != nil {
			return err
		}
		return s.imports.UpdateStatus(tx, importID, models.RefusedImport)
	})
	if err != nil {
		return fmt.Errorf("failed to refuse import: %w", err)
	}

	config.Logger.Info("Refused import", zap.String("importID", importID.String()), zap.String("name", rdi.Name))
	return nil
}
