package models

import (
	"fmt"
)

// ticketDetailsMap is the static mapping from (category, issue type) to the
// details relation holding the ticket payload. Categories mapping to a plain
// string have no issue-type variants; an empty string means the category
// carries no details record at all.
//
// issueTypeMap: categories whose details relation depends on the issue type.
var issueTypeMap = map[TicketCategory]map[TicketIssueType]string{
	DataChangeCategory: {
		HouseholdDataUpdateIssueType:  "household_data_update_ticket_details",
		IndividualDataUpdateIssueType: "individual_data_update_ticket_details",
		AddIndividualIssueType:        "add_individual_ticket_details",
		DeleteIndividualIssueType:     "delete_individual_ticket_details",
		DeleteHouseholdIssueType:      "delete_household_ticket_details",
	},
	SensitiveGrievanceCategory: {
		DataBreachIssueType:                "sensitive_ticket_details",
		BriberyCorruptionKickbackIssueType: "sensitive_ticket_details",
		FraudForgeryIssueType:              "sensitive_ticket_details",
		FraudMisuseIssueType:               "sensitive_ticket_details",
		HarassmentIssueType:                "sensitive_ticket_details",
		InappropriateStaffConductIssueType: "sensitive_ticket_details",
		UnauthorizedUseIssueType:           "sensitive_ticket_details",
		ConflictOfInterestIssueType:        "sensitive_ticket_details",
		GrossMismanagementIssueType:        "sensitive_ticket_details",
		PersonalDisputesIssueType:          "sensitive_ticket_details",
		SexualHarassmentIssueType:          "sensitive_ticket_details",
		MiscellaneousIssueType:             "sensitive_ticket_details",
	},
	GrievanceComplaintCategory: {
		PaymentComplaintIssueType:      "complaint_ticket_details",
		FspComplaintIssueType:          "complaint_ticket_details",
		RegistrationComplaintIssueType: "complaint_ticket_details",
		PartnerComplaintIssueType:      "complaint_ticket_details",
		OtherComplaintIssueType:        "complaint_ticket_details",
	},
}

// directDetailsMap: categories without issue-type variants. Payment
// verification and the feedback categories carry no details record.
var directDetailsMap = map[TicketCategory]string{
	NeedsAdjudicationCategory:   "needs_adjudication_ticket_details",
	SystemFlaggingCategory:      "system_flagging_ticket_details",
	ReferralCategory:            "referral_ticket_details",
	PaymentVerificationCategory: "",
	PositiveFeedbackCategory:    "",
	NegativeFeedbackCategory:    "",
}

// ResolveTicketDetailsRelation returns the details relation for the pair, or
// an empty string for categories without a details record. The error mirrors
// ValidateTicketIssueType for inconsistent pairs.
func ResolveTicketDetailsRelation(category TicketCategory, issueType *TicketIssueType) (string, error) {
	if err := ValidateTicketIssueType(category, issueType); err != nil {
		return "", err
	}
	if byIssueType, ok := issueTypeMap[category]; ok {
		return byIssueType[*issueType], nil
	}
	return directDetailsMap[category], nil
}

// ValidateTicketIssueType rejects an issue type that is present when the
// category has no variants, missing when the category requires one, or not a
// valid key under the category.
func ValidateTicketIssueType(category TicketCategory, issueType *TicketIssueType) error {
	byIssueType, hasVariants := issueTypeMap[category]
	if !hasVariants {
		if _, known := directDetailsMap[category]; !known {
			return fmt.Errorf("unknown grievance category: %s", category)
		}
		if issueType != nil {
			return fmt.Errorf("issue type %s is not allowed for category %s", *issueType, category)
		}
		return nil
	}
	if issueType == nil {
		return fmt.Errorf("issue type is required for category %s", category)
	}
	if _, ok := byIssueType[*issueType]; !ok {
		return fmt.Errorf("invalid issue type %s for category %s", *issueType, category)
	}
	return nil
}
