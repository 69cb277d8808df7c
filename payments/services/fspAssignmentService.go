package services

import (
	"errors"
	"fmt"

	"hope-backend/config"
	"hope-backend/db/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrMechanismsNotUnique     = errors.New("Delivery mechanisms must be unique")
	ErrMechanismsNotSufficient = errors.New("Selected delivery mechanisms are not sufficient to serve all beneficiaries")
	ErrFSPsNotAssigned         = errors.New("Please assign FSP to all delivery mechanisms before moving to next step")
)

type planStore interface {
	GetByID(tx *gorm.DB, planID uuid.UUID) (*models.PaymentPlan, error)
	ReplaceDeliveryMechanisms(tx *gorm.DB, planID uuid.UUID, mechanisms []models.DeliveryMechanismPerPaymentPlan) error
	AssignFSPToMechanism(tx *gorm.DB, perPlanID uuid.UUID, fspID uuid.UUID) error
	CountUnservedHouseholds(tx *gorm.DB, planID uuid.UUID, mechanismIDs []uuid.UUID) (int64, error)
}

type fspStore interface {
	GetByID(tx *gorm.DB, fspID uuid.UUID) (*models.FinancialServiceProvider, error)
	GetAll(tx *gorm.DB) ([]models.FinancialServiceProvider, error)
	GetMechanismsByCodes(tx *gorm.DB, codes []string) ([]models.DeliveryMechanism, error)
}

// FspAssignmentService drives the two steps between locking a payment plan
// and sending it for approval: choosing the ordered delivery mechanism list,
// then assigning exactly one FSP to each chosen mechanism.
type FspAssignmentService struct {
	plans planStore
	fsps  fspStore
}

func NewFspAssignmentService(plans planStore, fsps fspStore) *FspAssignmentService {
	return &FspAssignmentService{plans: plans, fsps: fsps}
}

// ChooseDeliveryMechanisms replaces the plan's mechanism list with the given
// codes, in order. An empty list is legal and clears the choice. Replacing
// the list drops any FSP assignments made against the previous list.
func (s *FspAssignmentService) ChooseDeliveryMechanisms(tx *gorm.DB, planID uuid.UUID, codes []string) error {
	plan, err := s.plans.GetByID(tx, planID)
	if err != nil {
		return err
	}
	if plan.Status != models.LockedPaymentPlan {
		return fmt.Errorf("payment plan must be locked to choose delivery mechanisms, got %s", plan.Status)
	}

	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		if seen[code] {
			return ErrMechanismsNotUnique
		}
		seen[code] = true
	}

	if len(codes) == 0 {
		return s.plans.ReplaceDeliveryMechanisms(tx, planID, nil)
	}

	mechanisms, err := s.fsps.GetMechanismsByCodes(tx, codes)
	if err != nil {
		return err
	}
	byCode := make(map[string]models.DeliveryMechanism, len(mechanisms))
	for _, mechanism := range mechanisms {
		byCode[mechanism.Code] = mechanism
	}

	entries := make([]models.DeliveryMechanismPerPaymentPlan, 0, len(codes))
	mechanismIDs := make([]uuid.UUID, 0, len(codes))
	for i, code := range codes {
		mechanism, ok := byCode[code]
		if !ok {
			return fmt.Errorf("unknown delivery mechanism %q", code)
		}
		entries = append(entries, models.DeliveryMechanismPerPaymentPlan{
			DeliveryMechanismID: mechanism.ID,
			Order:               i + 1,
		})
		mechanismIDs = append(mechanismIDs, mechanism.ID)
	}

	unserved, err := s.plans.CountUnservedHouseholds(tx, planID, mechanismIDs)
	if err != nil {
		return err
	}
	if unserved > 0 {
		return ErrMechanismsNotSufficient
	}

	if err := s.plans.ReplaceDeliveryMechanisms(tx, planID, entries); err != nil {
		return err
	}
	config.Logger.Info("Chose delivery mechanisms for payment plan",
		zap.String("planID", planID.String()), zap.Strings("codes", codes))
	return nil
}

// AssignFSPs maps each chosen mechanism to an FSP. Every mechanism on the
// plan must receive an assignment in the same call; each FSP must support
// the mechanism it is assigned to and have enough distribution limit left
// for the plan's entitlements.
func (s *FspAssignmentService) AssignFSPs(tx *gorm.DB, planID uuid.UUID, assignments map[uuid.UUID]uuid.UUID) error {
	plan, err := s.plans.GetByID(tx, planID)
	if err != nil {
		return err
	}
	if plan.Status != models.LockedPaymentPlan {
		return fmt.Errorf("payment plan must be locked to assign FSPs, got %s", plan.Status)
	}
	if len(plan.DeliveryMechanisms) == 0 {
		return errors.New("no delivery mechanisms chosen for this payment plan")
	}

	for _, perPlan := range plan.DeliveryMechanisms {
		if _, ok := assignments[perPlan.DeliveryMechanismID]; !ok {
			return ErrFSPsNotAssigned
		}
	}

	// Validate every pair before writing anything: a bad mapping for the
	// last mechanism must not leave the earlier ones assigned.
	for _, perPlan := range plan.DeliveryMechanisms {
		fspID := assignments[perPlan.DeliveryMechanismID]
		fsp, err := s.fsps.GetByID(tx, fspID)
		if err != nil {
			return err
		}
		if perPlan.DeliveryMechanism == nil {
			return fmt.Errorf("delivery mechanism %s is not loaded", perPlan.DeliveryMechanismID)
		}
		if !fsp.SupportsMechanism(perPlan.DeliveryMechanism.Code) {
			return fmt.Errorf("%s does not support delivery mechanism %s", fsp.Name, perPlan.DeliveryMechanism.Name)
		}
		if fsp.DistributionLimit != nil && plan.TotalEntitledQuantityUSD.GreaterThan(*fsp.DistributionLimit) {
			return fmt.Errorf("%s cannot accept the planned amount: distribution limit %s USD exceeded",
				fsp.Name, fsp.DistributionLimit.StringFixed(2))
		}
	}

	for _, perPlan := range plan.DeliveryMechanisms {
		if err := s.plans.AssignFSPToMechanism(tx, perPlan.ID, assignments[perPlan.DeliveryMechanismID]); err != nil {
			return err
		}
	}

	config.Logger.Info("Assigned FSPs to payment plan",
		zap.String("planID", planID.String()), zap.Int("mechanisms", len(plan.DeliveryMechanisms)))
	return nil
}

// FspChoice is one FSP able to serve a requested mechanism.
type FspChoice struct {
	MechanismCode string                            `json:"mechanism_code"`
	Providers     []models.FinancialServiceProvider `json:"providers"`
}

// AvailableFSPsForMechanisms lists, per requested mechanism code and in the
// requested order, the FSPs that support it.
func (s *FspAssignmentService) AvailableFSPsForMechanisms(tx *gorm.DB, codes []string) ([]FspChoice, error) {
	fsps, err := s.fsps.GetAll(tx)
	if err != nil {
		return nil, err
	}

	choices := make([]FspChoice, 0, len(codes))
	for _, code := range codes {
		choice := FspChoice{MechanismCode: code, Providers: []models.FinancialServiceProvider{}}
		for _, fsp := range fsps {
			if fsp.SupportsMechanism(code) {
				choice.Providers = append(choice.Providers, fsp)
			}
		}
		choices = append(choices, choice)
	}
	return choices, nil
}
