package services

import (
	"testing"

	"hope-backend/config"
	"hope-backend/db/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	config.Logger = zap.NewNop()
}

func issueType(it models.TicketIssueType) *models.TicketIssueType {
	return &it
}

func TestCreateTicketRejectsBadPairsBeforeTouchingTheDatabase(t *testing.T) {
	// A nil DB would panic on use; rejection must happen before that.
	service := NewTicketService(nil, nil)

	_, err := service.CreateTicket(CreateTicketParams{
		Category:       models.PaymentVerificationCategory,
		IssueType:      issueType(models.DataBreachIssueType),
		BusinessAreaID: uuid.New(),
	})
	assert.Error(t, err)

	_, err = service.CreateTicket(CreateTicketParams{
		Category:       models.DataChangeCategory,
		BusinessAreaID: uuid.New(),
	})
	assert.Error(t, err)

	_, err = service.CreateTicket(CreateTicketParams{
		Category:       models.SensitiveGrievanceCategory,
		IssueType:      issueType(models.PaymentComplaintIssueType),
		BusinessAreaID: uuid.New(),
	})
	assert.Error(t, err)
}
