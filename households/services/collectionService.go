package services

import (
	"fmt"

	"hope-backend/config"
	"hope-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The stores are the subset of the household/individual repositories the
// collection linker needs; tests substitute in-memory fakes.

type householdCollectionStore interface {
	FindMergedByUnicefID(tx *gorm.DB, unicefID string, businessAreaID, excludeImportID uuid.UUID) (*models.Household, error)
	GetOrCreateCollection(tx *gorm.DB, unicefID string, businessAreaID uuid.UUID) (*models.HouseholdCollection, error)
	SetCollection(tx *gorm.DB, householdID, collectionID uuid.UUID) error
}

type individualCollectionStore interface {
	FindMergedByUnicefID(tx *gorm.DB, unicefID string, businessAreaID, excludeImportID uuid.UUID) (*models.Individual, error)
	GetOrCreateCollection(tx *gorm.DB, unicefID string, businessAreaID uuid.UUID) (*models.IndividualCollection, error)
	SetCollection(tx *gorm.DB, individualID, collectionID uuid.UUID) error
}

// CollectionService links newly merged households and individuals into the
// shared collection for their unicef_id within a business area. Linking is
// idempotent: the collection upsert hits a unique index, and memberships are
// only written when they change.
type CollectionService struct {
	households  householdCollectionStore
	individuals individualCollectionStore
}

func NewCollectionService(households householdCollectionStore, individuals individualCollectionStore) *CollectionService {
	return &CollectionService{
		households:  households,
		individuals: individuals,
	}
}

// LinkHousehold attaches the household to the collection shared by other
// representations of the same unicef_id. A household without an existing
// counterpart stays collection-less until a second representation appears.
func (cs *CollectionService) LinkHousehold(tx *gorm.DB, household *models.Household) error {
	if household.UnicefID == "" {
		return nil
	}

	existing, err := cs.households.FindMergedByUnicefID(tx, household.UnicefID, household.BusinessAreaID, household.RegistrationDataImportID)
	if err != nil {
		return fmt.Errorf("failed to find household counterpart: %w", err)
	}
	if existing == nil {
		return nil
	}

	collection, err := cs.households.GetOrCreateCollection(tx, household.UnicefID, household.BusinessAreaID)
	if err != nil {
		return fmt.Errorf("failed to resolve household collection: %w", err)
	}

	if existing.CollectionID == nil {
		if err := cs.households.SetCollection(tx, existing.ID, collection.ID); err != nil {
			return err
		}
	}
	if household.CollectionID == nil || *household.CollectionID != collection.ID {
		if err := cs.households.SetCollection(tx, household.ID, collection.ID); err != nil {
			return err
		}
		household.CollectionID = &collection.ID
	}

	config.Logger.Info("Linked household into collection",
		zap.String("unicefID", household.UnicefID),
		zap.String("collectionID", collection.ID.String()))
	return nil
}

// LinkIndividual is the individual counterpart of LinkHousehold.
func (cs *CollectionService) LinkIndividual(tx *gorm.DB, individual *models.Individual) error {
	if individual.UnicefID == "" {
		return nil
	}

	existing, err := cs.individuals.FindMergedByUnicefID(tx, individual.UnicefID, individual.BusinessAreaID, individual.RegistrationDataImportID)
	if err != nil {
		return fmt.Errorf("failed to find individual counterpart: %w", err)
	}
	if existing == nil {
		return nil
	}

	collection, err := cs.individuals.GetOrCreateCollection(tx, individual.UnicefID, individual.BusinessAreaID)
	if err != nil {
		return fmt.Errorf("failed to resolve individual collection: %w", err)
	}

	if existing.CollectionID == nil {
		if err := cs.individuals.SetCollection(tx, existing.ID, collection.ID); err != nil {
			return err
		}
	}
	if individual.CollectionID == nil || *individual.CollectionID != collection.ID {
		if err := cs.individuals.SetCollection(tx, individual.ID, collection.ID); err != nil {
			return err
		}
		individual.CollectionID = &collection.ID
	}

	config.Logger.Info("Linked individual into collection",
		zap.String("unicefID", individual.UnicefID),
		zap.String("collectionID", collection.ID.String()))
	return nil
}
