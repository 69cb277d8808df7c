package services

import (
	"testing"

	"hope-backend/config"
	"hope-backend/db/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	config.Logger = zap.NewNop()
}

type fakePlanStore struct {
	plan     *models.PaymentPlan
	replaced [][]models.DeliveryMechanismPerPaymentPlan
	assigned map[uuid.UUID]uuid.UUID
	unserved int64
}

func newFakePlanStore(plan *models.PaymentPlan) *fakePlanStore {
	return &fakePlanStore{plan: plan, assigned: make(map[uuid.UUID]uuid.UUID)}
}

func (f *fakePlanStore) GetByID(tx *gorm.DB, planID uuid.UUID) (*models.PaymentPlan, error) {
	return f.plan, nil
}

func (f *fakePlanStore) ReplaceDeliveryMechanisms(tx *gorm.DB, planID uuid.UUID, mechanisms []models.DeliveryMechanismPerPaymentPlan) error {
	f.replaced = append(f.replaced, mechanisms)
	return nil
}

func (f *fakePlanStore) AssignFSPToMechanism(tx *gorm.DB, perPlanID uuid.UUID, fspID uuid.UUID) error {
	f.assigned[perPlanID] = fspID
	return nil
}

func (f *fakePlanStore) CountUnservedHouseholds(tx *gorm.DB, planID uuid.UUID, mechanismIDs []uuid.UUID) (int64, error) {
	return f.unserved, nil
}

type fakeFspStore struct {
	fsps       map[uuid.UUID]*models.FinancialServiceProvider
	mechanisms []models.DeliveryMechanism
}

func newFakeFspStore() *fakeFspStore {
	return &fakeFspStore{fsps: make(map[uuid.UUID]*models.FinancialServiceProvider)}
}

func (f *fakeFspStore) GetByID(tx *gorm.DB, fspID uuid.UUID) (*models.FinancialServiceProvider, error) {
	fsp, ok := f.fsps[fspID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return fsp, nil
}

func (f *fakeFspStore) GetAll(tx *gorm.DB) ([]models.FinancialServiceProvider, error) {
	all := make([]models.FinancialServiceProvider, 0, len(f.fsps))
	for _, fsp := range f.fsps {
		all = append(all, *fsp)
	}
	return all, nil
}

func (f *fakeFspStore) GetMechanismsByCodes(tx *gorm.DB, codes []string) ([]models.DeliveryMechanism, error) {
	wanted := make(map[string]bool, len(codes))
	for _, code := range codes {
		wanted[code] = true
	}
	var found []models.DeliveryMechanism
	for _, mechanism := range f.mechanisms {
		if wanted[mechanism.Code] {
			found = append(found, mechanism)
		}
	}
	return found, nil
}

func cashMechanism() models.DeliveryMechanism {
	return models.DeliveryMechanism{ID: uuid.New(), Code: "cash", Name: "Cash"}
}

func transferMechanism() models.DeliveryMechanism {
	return models.DeliveryMechanism{ID: uuid.New(), Code: "transfer", Name: "Transfer to Account"}
}

func lockedPlan() *models.PaymentPlan {
	return &models.PaymentPlan{
		ID:                       uuid.New(),
		Status:                   models.LockedPaymentPlan,
		TotalEntitledQuantityUSD: decimal.NewFromInt(1000),
	}
}

func TestChooseDeliveryMechanisms_OrderedReplace(t *testing.T) {
	cash := cashMechanism()
	transfer := transferMechanism()

	plans := newFakePlanStore(lockedPlan())
	fsps := newFakeFspStore()
	fsps.mechanisms = []models.DeliveryMechanism{cash, transfer}

	service := NewFspAssignmentService(plans, fsps)
	err := service.ChooseDeliveryMechanisms(nil, plans.plan.ID, []string{"transfer", "cash"})
	require.NoError(t, err)

	require.Len(t, plans.replaced, 1)
	entries := plans.replaced[0]
	require.Len(t, entries, 2)
	assert.Equal(t, transfer.ID, entries[0].DeliveryMechanismID)
	assert.Equal(t, 1, entries[0].Order)
	assert.Equal(t, cash.ID, entries[1].DeliveryMechanismID)
	assert.Equal(t, 2, entries[1].Order)
	assert.Nil(t, entries[0].FinancialServiceProviderID)
}

func TestChooseDeliveryMechanisms_EmptyListClearsChoice(t *testing.T) {
	plans := newFakePlanStore(lockedPlan())
	service := NewFspAssignmentService(plans, newFakeFspStore())

	err := service.ChooseDeliveryMechanisms(nil, plans.plan.ID, nil)
	require.NoError(t, err)
	require.Len(t, plans.replaced, 1)
	assert.Empty(t, plans.replaced[0])
}

func TestChooseDeliveryMechanisms_RejectsDuplicates(t *testing.T) {
	plans := newFakePlanStore(lockedPlan())
	service := NewFspAssignmentService(plans, newFakeFspStore())

	err := service.ChooseDeliveryMechanisms(nil, plans.plan.ID, []string{"cash", "cash"})
	assert.ErrorIs(t, err, ErrMechanismsNotUnique)
	assert.Empty(t, plans.replaced)
}

func TestChooseDeliveryMechanisms_RejectsInsufficientCoverage(t *testing.T) {
	cash := cashMechanism()

	plans := newFakePlanStore(lockedPlan())
	plans.unserved = 3
	fsps := newFakeFspStore()
	fsps.mechanisms = []models.DeliveryMechanism{cash}

	service := NewFspAssignmentService(plans, fsps)
	err := service.ChooseDeliveryMechanisms(nil, plans.plan.ID, []string{"cash"})
	assert.ErrorIs(t, err, ErrMechanismsNotSufficient)
	assert.Empty(t, plans.replaced)
}

func TestChooseDeliveryMechanisms_RequiresLockedPlan(t *testing.T) {
	plan := lockedPlan()
	plan.Status = models.OpenPaymentPlan
	plans := newFakePlanStore(plan)

	service := NewFspAssignmentService(plans, newFakeFspStore())
	err := service.ChooseDeliveryMechanisms(nil, plan.ID, []string{"cash"})
	assert.Error(t, err)
}

func planWithMechanisms(mechanisms ...models.DeliveryMechanism) *models.PaymentPlan {
	plan := lockedPlan()
	for i := range mechanisms {
		plan.DeliveryMechanisms = append(plan.DeliveryMechanisms, models.DeliveryMechanismPerPaymentPlan{
			ID:                  uuid.New(),
			PaymentPlanID:       plan.ID,
			DeliveryMechanismID: mechanisms[i].ID,
			DeliveryMechanism:   &mechanisms[i],
			Order:               i + 1,
		})
	}
	return plan
}

func TestAssignFSPs_AssignsEachMechanism(t *testing.T) {
	cash := cashMechanism()
	transfer := transferMechanism()
	plan := planWithMechanisms(cash, transfer)

	fsps := newFakeFspStore()
	provider := &models.FinancialServiceProvider{
		ID:                 uuid.New(),
		Name:               "Acme Bank",
		DeliveryMechanisms: []models.DeliveryMechanism{cash, transfer},
	}
	fsps.fsps[provider.ID] = provider

	plans := newFakePlanStore(plan)
	service := NewFspAssignmentService(plans, fsps)

	err := service.AssignFSPs(nil, plan.ID, map[uuid.UUID]uuid.UUID{
		cash.ID:     provider.ID,
		transfer.ID: provider.ID,
	})
	require.NoError(t, err)
	assert.Len(t, plans.assigned, 2)
	assert.Equal(t, provider.ID, plans.assigned[plan.DeliveryMechanisms[0].ID])
}

func TestAssignFSPs_RejectsPartialAssignment(t *testing.T) {
	cash := cashMechanism()
	transfer := transferMechanism()
	plan := planWithMechanisms(cash, transfer)

	fsps := newFakeFspStore()
	provider := &models.FinancialServiceProvider{
		ID:                 uuid.New(),
		Name:               "Acme Bank",
		DeliveryMechanisms: []models.DeliveryMechanism{cash, transfer},
	}
	fsps.fsps[provider.ID] = provider

	service := NewFspAssignmentService(newFakePlanStore(plan), fsps)
	err := service.AssignFSPs(nil, plan.ID, map[uuid.UUID]uuid.UUID{cash.ID: provider.ID})
	assert.ErrorIs(t, err, ErrFSPsNotAssigned)
}

func TestAssignFSPs_RejectsUnsupportedMechanism(t *testing.T) {
	cash := cashMechanism()
	plan := planWithMechanisms(cash)

	fsps := newFakeFspStore()
	provider := &models.FinancialServiceProvider{
		ID:                 uuid.New(),
		Name:               "Wire Only Corp",
		DeliveryMechanisms: []models.DeliveryMechanism{transferMechanism()},
	}
	fsps.fsps[provider.ID] = provider

	service := NewFspAssignmentService(newFakePlanStore(plan), fsps)
	err := service.AssignFSPs(nil, plan.ID, map[uuid.UUID]uuid.UUID{cash.ID: provider.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Wire Only Corp")
	assert.Contains(t, err.Error(), "Cash")
}

func TestAssignFSPs_NoWritesWhenLaterMappingInvalid(t *testing.T) {
	cash := cashMechanism()
	transfer := transferMechanism()
	plan := planWithMechanisms(cash, transfer)

	fsps := newFakeFspStore()
	cashBank := &models.FinancialServiceProvider{
		ID:                 uuid.New(),
		Name:               "Cash Bank",
		DeliveryMechanisms: []models.DeliveryMechanism{cash, transfer},
	}
	cashOnly := &models.FinancialServiceProvider{
		ID:                 uuid.New(),
		Name:               "Cash Only Corp",
		DeliveryMechanisms: []models.DeliveryMechanism{cash},
	}
	fsps.fsps[cashBank.ID] = cashBank
	fsps.fsps[cashOnly.ID] = cashOnly

	plans := newFakePlanStore(plan)
	service := NewFspAssignmentService(plans, fsps)
	err := service.AssignFSPs(nil, plan.ID, map[uuid.UUID]uuid.UUID{
		cash.ID:     cashBank.ID,
		transfer.ID: cashOnly.ID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cash Only Corp")
	assert.Empty(t, plans.assigned)
}

func TestAssignFSPs_RejectsWhenDistributionLimitExceeded(t *testing.T) {
	cash := cashMechanism()
	plan := planWithMechanisms(cash)
	plan.TotalEntitledQuantityUSD = decimal.NewFromInt(50000)

	limit := decimal.NewFromInt(10000)
	fsps := newFakeFspStore()
	provider := &models.FinancialServiceProvider{
		ID:                 uuid.New(),
		Name:               "Small FSP",
		DistributionLimit:  &limit,
		DeliveryMechanisms: []models.DeliveryMechanism{cash},
	}
	fsps.fsps[provider.ID] = provider

	service := NewFspAssignmentService(newFakePlanStore(plan), fsps)
	err := service.AssignFSPs(nil, plan.ID, map[uuid.UUID]uuid.UUID{cash.ID: provider.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "distribution limit")
}

func TestAvailableFSPsForMechanisms_PreservesRequestedOrder(t *testing.T) {
	cash := cashMechanism()

	fsps := newFakeFspStore()
	cashOnly := &models.FinancialServiceProvider{
		ID: uuid.New(), Name: "Cash Corp",
		DeliveryMechanisms: []models.DeliveryMechanism{cash},
	}
	fsps.fsps[cashOnly.ID] = cashOnly

	service := NewFspAssignmentService(newFakePlanStore(lockedPlan()), fsps)
	choices, err := service.AvailableFSPsForMechanisms(nil, []string{"transfer", "cash"})
	require.NoError(t, err)
	require.Len(t, choices, 2)
	assert.Equal(t, "transfer", choices[0].MechanismCode)
	assert.Empty(t, choices[0].Providers)
	assert.Equal(t, "cash", choices[1].MechanismCode)
	require.Len(t, choices[1].Providers, 1)
	assert.Equal(t, "Cash Corp", choices[1].Providers[0].Name)
}
