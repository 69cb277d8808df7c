package services

import (
	"testing"

	"hope-backend/config"
	"hope-backend/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	config.Logger = zap.NewNop()
}

type fakeIndividualCollectionStore struct {
	merged      []*models.Individual
	collections map[string]*models.IndividualCollection
	memberships map[uuid.UUID]uuid.UUID
}

func newFakeIndividualCollectionStore() *fakeIndividualCollectionStore {
	return &fakeIndividualCollectionStore{
		collections: make(map[string]*models.IndividualCollection),
		memberships: make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeIndividualCollectionStore) FindMergedByUnicefID(tx *gorm.DB, unicefID string, businessAreaID, excludeImportID uuid.UUID) (*models.Individual, error) {
	for _, ind := range f.merged {
		if ind.UnicefID == unicefID && ind.BusinessAreaID == businessAreaID && ind.RegistrationDataImportID != excludeImportID {
			return ind, nil
		}
	}
	return nil, nil
}

func (f *fakeIndividualCollectionStore) GetOrCreateCollection(tx *gorm.DB, unicefID string, businessAreaID uuid.UUID) (*models.IndividualCollection, error) {
	key := unicefID + "/" + businessAreaID.String()
	if existing, ok := f.collections[key]; ok {
		return existing, nil
	}
	collection := &models.IndividualCollection{ID: uuid.New(), UnicefID: unicefID, BusinessAreaID: businessAreaID}
	f.collections[key] = collection
	return collection, nil
}

func (f *fakeIndividualCollectionStore) SetCollection(tx *gorm.DB, individualID, collectionID uuid.UUID) error {
	f.memberships[individualID] = collectionID
	for _, ind := range f.merged {
		if ind.ID == individualID {
			id := collectionID
			ind.CollectionID = &id
		}
	}
	return nil
}

type fakeHouseholdCollectionStore struct {
	merged      []*models.Household
	collections map[string]*models.HouseholdCollection
	memberships map[uuid.UUID]uuid.UUID
}

func newFakeHouseholdCollectionStore() *fakeHouseholdCollectionStore {
	return &fakeHouseholdCollectionStore{
		collections: make(map[string]*models.HouseholdCollection),
		memberships: make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeHouseholdCollectionStore) FindMergedByUnicefID(tx *gorm.DB, unicefID string, businessAreaID, excludeImportID uuid.UUID) (*models.Household, error) {
	for _, hh := range f.merged {
		if hh.UnicefID == unicefID && hh.BusinessAreaID == businessAreaID && hh.RegistrationDataImportID != excludeImportID {
			return hh, nil
		}
	}
	return nil, nil
}

func (f *fakeHouseholdCollectionStore) GetOrCreateCollection(tx *gorm.DB, unicefID string, businessAreaID uuid.UUID) (*models.HouseholdCollection, error) {
	key := unicefID + "/" + businessAreaID.String()
	if existing, ok := f.collections[key]; ok {
		return existing, nil
	}
	collection := &models.HouseholdCollection{ID: uuid.New(), UnicefID: unicefID, BusinessAreaID: businessAreaID}
	f.collections[key] = collection
	return collection, nil
}

func (f *fakeHouseholdCollectionStore) SetCollection(tx *gorm.DB, householdID, collectionID uuid.UUID) error {
	f.memberships[householdID] = collectionID
	for _, hh := range f.merged {
		if hh.ID == householdID {
			id := collectionID
			hh.CollectionID = &id
		}
	}
	return nil
}

func TestLinkIndividual_NoCounterpartStaysCollectionless(t *testing.T) {
	individuals := newFakeIndividualCollectionStore()
	service := NewCollectionService(newFakeHouseholdCollectionStore(), individuals)

	individual := &models.Individual{
		ID:                       uuid.New(),
		UnicefID:                 "IND-001",
		BusinessAreaID:           uuid.New(),
		RegistrationDataImportID: uuid.New(),
	}

	require.NoError(t, service.LinkIndividual(nil, individual))
	assert.Nil(t, individual.CollectionID)
	assert.Empty(t, individuals.collections)
}

func TestLinkIndividual_SecondRepresentationCreatesSharedCollection(t *testing.T) {
	businessAreaID := uuid.New()
	individuals := newFakeIndividualCollectionStore()

	existing := &models.Individual{
		ID:                       uuid.New(),
		UnicefID:                 "IND-001",
		BusinessAreaID:           businessAreaID,
		RegistrationDataImportID: uuid.New(),
	}
	individuals.merged = append(individuals.merged, existing)

	service := NewCollectionService(newFakeHouseholdCollectionStore(), individuals)

	incoming := &models.Individual{
		ID:                       uuid.New(),
		UnicefID:                 "IND-001",
		BusinessAreaID:           businessAreaID,
		RegistrationDataImportID: uuid.New(),
	}
	require.NoError(t, service.LinkIndividual(nil, incoming))

	require.Len(t, individuals.collections, 1)
	require.NotNil(t, incoming.CollectionID)
	require.NotNil(t, existing.CollectionID)
	assert.Equal(t, *existing.CollectionID, *incoming.CollectionID)
}

func TestLinkIndividual_ThirdRepresentationReusesCollection(t *testing.T) {
	businessAreaID := uuid.New()
	individuals := newFakeIndividualCollectionStore()

	first := &models.Individual{
		ID:                       uuid.New(),
		UnicefID:                 "IND-001",
		BusinessAreaID:           businessAreaID,
		RegistrationDataImportID: uuid.New(),
	}
	individuals.merged = append(individuals.merged, first)

	service := NewCollectionService(newFakeHouseholdCollectionStore(), individuals)

	second := &models.Individual{
		ID:                       uuid.New(),
		UnicefID:                 "IND-001",
		BusinessAreaID:           businessAreaID,
		RegistrationDataImportID: uuid.New(),
	}
	require.NoError(t, service.LinkIndividual(nil, second))
	individuals.merged = append(individuals.merged, second)

	third := &models.Individual{
		ID:                       uuid.New(),
		UnicefID:                 "IND-001",
		BusinessAreaID:           businessAreaID,
		RegistrationDataImportID: uuid.New(),
	}
	require.NoError(t, service.LinkIndividual(nil, third))

	// One shared collection, three members, never a second collection.
	require.Len(t, individuals.collections, 1)
	assert.Equal(t, *first.CollectionID, *second.CollectionID)
	assert.Equal(t, *second.CollectionID, *third.CollectionID)
}

func TestLinkIndividual_RepeatedCallIsIdempotent(t *testing.T) {
	businessAreaID := uuid.New()
	individuals := newFakeIndividualCollectionStore()

	existing := &models.Individual{
		ID:                       uuid.New(),
		UnicefID:                 "IND-001",
		BusinessAreaID:           businessAreaID,
		RegistrationDataImportID: uuid.New(),
	}
	individuals.merged = append(individuals.merged, existing)

	service := NewCollectionService(newFakeHouseholdCollectionStore(), individuals)

	incoming := &models.Individual{
		ID:                       uuid.New(),
		UnicefID:                 "IND-001",
		BusinessAreaID:           businessAreaID,
		RegistrationDataImportID: uuid.New(),
	}
	require.NoError(t, service.LinkIndividual(nil, incoming))
	firstCollectionID := *incoming.CollectionID

	require.NoError(t, service.LinkIndividual(nil, incoming))
	require.Len(t, individuals.collections, 1)
	assert.Equal(t, firstCollectionID, *incoming.CollectionID)
}

func TestLinkHousehold_DifferentBusinessAreasDoNotLink(t *testing.T) {
	households := newFakeHouseholdCollectionStore()

	existing := &models.Household{
		ID:                       uuid.New(),
		UnicefID:                 "HH-001",
		BusinessAreaID:           uuid.New(),
		RegistrationDataImportID: uuid.New(),
	}
	households.merged = append(households.merged, existing)

	service := NewCollectionService(households, newFakeIndividualCollectionStore())

	incoming := &models.Household{
		ID:                       uuid.New(),
		UnicefID:                 "HH-001",
		BusinessAreaID:           uuid.New(), // different business area
		RegistrationDataImportID: uuid.New(),
	}
	require.NoError(t, service.LinkHousehold(nil, incoming))
	assert.Nil(t, incoming.CollectionID)
	assert.Empty(t, households.collections)
}
