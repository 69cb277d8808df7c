package services

import (
	"bytes"
	"fmt"

	"hope-backend/config"
	"hope-backend/db/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type exportPlanStore interface {
	GetByID(tx *gorm.DB, planID uuid.UUID) (*models.PaymentPlan, error)
	GetPlanHouseholds(tx *gorm.DB, planID uuid.UUID) ([]models.Household, error)
	UpdateBackgroundAction(tx *gorm.DB, planID uuid.UUID, status models.BackgroundActionStatus) error
}

// EntitlementExportService renders a payment plan's household entitlements
// as a spreadsheet. The plan's background action status tracks the export so
// a failed render is visible in the plan list.
type EntitlementExportService struct {
	plans exportPlanStore
}

func NewEntitlementExportService(plans exportPlanStore) *EntitlementExportService {
	return &EntitlementExportService{plans: plans}
}

var entitlementHeaders = []string{
	"Household ID", "Address", "Country", "Size", "Children", "Currency", "Entitlement (USD)", "FSP",
}

// ExportXlsx builds the spreadsheet in memory and returns its bytes.
func (s *EntitlementExportService) ExportXlsx(planID uuid.UUID) (*bytes.Buffer, error) {
	plan, err := s.plans.GetByID(nil, planID)
	if err != nil {
		return nil, err
	}

	if err := s.plans.UpdateBackgroundAction(nil, planID, models.XlsxExportingBackgroundAction); err != nil {
		return nil, err
	}

	buffer, err := s.renderXlsx(plan)
	if err != nil {
		if statusErr := s.plans.UpdateBackgroundAction(nil, planID, models.XlsxExportErrorBackgroundAction); statusErr != nil {
			config.Logger.Error("Failed to record export error", zap.Error(statusErr))
		}
		return nil, err
	}

	if err := s.plans.UpdateBackgroundAction(nil, planID, models.NoBackgroundAction); err != nil {
		config.Logger.Error("Failed to clear export status", zap.Error(err))
	}
	return buffer, nil
}

// renderXlsx writes one sheet per chosen delivery mechanism, in mechanism
// order, each carrying the plan's household rows. A plan without chosen
// mechanisms still exports a single "Entitlements" sheet.
func (s *EntitlementExportService) renderXlsx(plan *models.PaymentPlan) (*bytes.Buffer, error) {
	households, err := s.plans.GetPlanHouseholds(nil, plan.ID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	type exportSheet struct {
		name string
		fsp  string
	}
	var sheets []exportSheet
	for _, perPlan := range plan.DeliveryMechanisms {
		name := fmt.Sprintf("Mechanism %d", perPlan.Order)
		if perPlan.DeliveryMechanism != nil {
			name = perPlan.DeliveryMechanism.Name
		}
		fspName := ""
		if perPlan.FinancialServiceProvider != nil {
			fspName = perPlan.FinancialServiceProvider.Name
		}
		sheets = append(sheets, exportSheet{name: name, fsp: fspName})
	}
	if len(sheets) == 0 {
		sheets = []exportSheet{{name: "Entitlements"}}
	}

	// Household-level entitlement: the plan total split evenly is a
	// placeholder until the rule engine writes per-household amounts.
	perHousehold := plan.TotalEntitledQuantityUSD
	if len(households) > 0 {
		perHousehold = plan.TotalEntitledQuantityUSD.DivRound(decimal.NewFromInt(int64(len(households))), 2)
	}

	for i, sheet := range sheets {
		index, err := f.NewSheet(sheet.name)
		if err != nil {
			return nil, fmt.Errorf("error creating sheet %s: %w", sheet.name, err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}

		for col, header := range entitlementHeaders {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return nil, fmt.Errorf("error addressing header cell: %w", err)
			}
			if err := f.SetCellValue(sheet.name, cell, header); err != nil {
				return nil, fmt.Errorf("error setting header %s: %w", header, err)
			}
		}

		for row, hh := range households {
			values := []interface{}{
				hh.UnicefID,
				hh.Address,
				hh.CountryCode,
				hh.Size,
				hh.ChildrenCount,
				plan.Currency,
				perHousehold.StringFixed(2),
				sheet.fsp,
			}
			for col, value := range values {
				cell, err := excelize.CoordinatesToCellName(col+1, row+2)
				if err != nil {
					return nil, fmt.Errorf("error addressing data cell: %w", err)
				}
				if err := f.SetCellValue(sheet.name, cell, value); err != nil {
					return nil, fmt.Errorf("error writing row %d: %w", row+2, err)
				}
			}
		}
	}
	f.DeleteSheet("Sheet1")

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("error rendering spreadsheet: %w", err)
	}
	config.Logger.Info("Exported entitlement spreadsheet",
		zap.String("planID", plan.ID.String()),
		zap.Int("households", len(households)),
		zap.Int("sheets", len(sheets)))
	return buffer, nil
}
