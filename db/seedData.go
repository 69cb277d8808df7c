package db

import (
	"errors"

	"hope-backend/db/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SeedDeliveryMechanisms populates the catalogue of system delivery
// mechanisms. RequiredFields drive account validation at merge time;
// UniqueFields feed the per-program account unique key.
func SeedDeliveryMechanisms(db *gorm.DB) error {
	mechanisms := []models.DeliveryMechanism{
		{
			Code:           "cash",
			Name:           "Cash",
			RequiredFields: datatypes.JSONSlice[string]{},
			UniqueFields:   datatypes.JSONSlice[string]{},
			IsActive:       true,
		},
		{
			Code:           "mobile_money",
			Name:           "Mobile Money",
			RequiredFields: datatypes.JSONSlice[string]{"provider", "number"},
			UniqueFields:   datatypes.JSONSlice[string]{"number"},
			IsActive:       true,
		},
		{
			Code:           "transfer_to_account",
			Name:           "Transfer to Account",
			RequiredFields: datatypes.JSONSlice[string]{"bank_name", "account_number"},
			UniqueFields:   datatypes.JSONSlice[string]{"account_number"},
			IsActive:       true,
		},
		{
			Code:           "atm_card",
			Name:           "ATM Card",
			RequiredFields: datatypes.JSONSlice[string]{"card_number"},
			UniqueFields:   datatypes.JSONSlice[string]{"card_number"},
			IsActive:       true,
		},
		{
			Code:           "voucher",
			Name:           "Voucher",
			RequiredFields: datatypes.JSONSlice[string]{},
			UniqueFields:   datatypes.JSONSlice[string]{},
			IsActive:       true,
		},
	}

	for _, dm := range mechanisms {
		var existing models.DeliveryMechanism
		err := db.Where("code = ?", dm.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&dm).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else {
			// Keep the field lists current without touching the code.
			if err := db.Model(&existing).Updates(map[string]interface{}{
				"name":            dm.Name,
				"required_fields": dm.RequiredFields,
				"unique_fields":   dm.UniqueFields,
				"is_active":       dm.IsActive,
			}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
