package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueTypePtr(it TicketIssueType) *TicketIssueType {
	return &it
}

func TestValidateTicketIssueType_AcceptsExactlyMappedPairs(t *testing.T) {
	for category, byIssueType := range issueTypeMap {
		for issueType := range byIssueType {
			assert.NoError(t, ValidateTicketIssueType(category, issueTypePtr(issueType)),
				"pair (%s, %s) should be valid", category, issueType)
		}
		// Missing issue type is rejected for variant categories.
		assert.Error(t, ValidateTicketIssueType(category, nil))
		// Unknown issue type is rejected.
		assert.Error(t, ValidateTicketIssueType(category, issueTypePtr("NOT_A_REAL_ISSUE_TYPE")))
	}

	for category := range directDetailsMap {
		assert.NoError(t, ValidateTicketIssueType(category, nil),
			"category %s without variants should accept nil issue type", category)
		// Present issue type is rejected when the category has no variants.
		assert.Error(t, ValidateTicketIssueType(category, issueTypePtr(PaymentComplaintIssueType)))
	}
}

func TestValidateTicketIssueType_CrossCategoryIssueTypeRejected(t *testing.T) {
	// A valid issue type under a different category is still invalid.
	err := ValidateTicketIssueType(DataChangeCategory, issueTypePtr(DataBreachIssueType))
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(DataBreachIssueType))
}

func TestValidateTicketIssueType_UnknownCategory(t *testing.T) {
	assert.Error(t, ValidateTicketIssueType("NOT_A_CATEGORY", nil))
}

func TestResolveTicketDetailsRelation(t *testing.T) {
	tests := []struct {
		name      string
		category  TicketCategory
		issueType *TicketIssueType
		want      string
		wantErr   bool
	}{
		{
			name:      "individual data update",
			category:  DataChangeCategory,
			issueType: issueTypePtr(IndividualDataUpdateIssueType),
			want:      "individual_data_update_ticket_details",
		},
		{
			name:      "add individual",
			category:  DataChangeCategory,
			issueType: issueTypePtr(AddIndividualIssueType),
			want:      "add_individual_ticket_details",
		},
		{
			name:      "sensitive issue types share one details relation",
			category:  SensitiveGrievanceCategory,
			issueType: issueTypePtr(FraudForgeryIssueType),
			want:      "sensitive_ticket_details",
		},
		{
			name:     "needs adjudication has no issue types",
			category: NeedsAdjudicationCategory,
			want:     "needs_adjudication_ticket_details",
		},
		{
			name:     "system flagging has no issue types",
			category: SystemFlaggingCategory,
			want:     "system_flagging_ticket_details",
		},
		{
			name:     "payment verification has no details record",
			category: PaymentVerificationCategory,
			want:     "",
		},
		{
			name:      "issue type forbidden without variants",
			category:  NeedsAdjudicationCategory,
			issueType: issueTypePtr(PaymentComplaintIssueType),
			wantErr:   true,
		},
		{
			name:     "missing required issue type",
			category: GrievanceComplaintCategory,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTicketDetailsRelation(tt.category, tt.issueType)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
