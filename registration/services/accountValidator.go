package services

import (
	"fmt"
	"sort"
	"strings"

	"hope-backend/db/models"
)

// MissingAccountFields returns the delivery mechanism's required fields that
// are absent or blank in the account data. The mechanism must be preloaded.
func MissingAccountFields(account models.Account) []string {
	if account.DeliveryMechanism == nil {
		return nil
	}

	var missing []string
	for _, field := range account.DeliveryMechanism.RequiredFields {
		value, ok := account.Data[field]
		if !ok {
			missing = append(missing, field)
			continue
		}
		text, isString := value.(string)
		if isString && strings.TrimSpace(text) == "" {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return missing
}

// AccountUniqueKey builds the normalized uniqueness key from the mechanism's
// unique fields. An empty string means the mechanism declares no unique
// fields, or the account is missing one of them, and no uniqueness check
// applies.
func AccountUniqueKey(account models.Account) string {
	if account.DeliveryMechanism == nil || len(account.DeliveryMechanism.UniqueFields) == 0 {
		return ""
	}

	parts := make([]string, 0, len(account.DeliveryMechanism.UniqueFields))
	for _, field := range account.DeliveryMechanism.UniqueFields {
		value, ok := account.Data[field]
		if !ok {
			return ""
		}
		text := strings.TrimSpace(strings.ToLower(fmt.Sprintf("%v", value)))
		if text == "" {
			return ""
		}
		parts = append(parts, text)
	}
	return account.DeliveryMechanism.Code + "|" + strings.Join(parts, "|")
}
