package repositories

import (
	"fmt"

	"hope-backend/db/models"
	search_services "hope-backend/search/services"

	"github.com/blevesearch/bleve/v2"
)

const ticketsIndexName = "grievance_tickets"

// TicketSearchRepository keeps the local quick-search index of grievance
// tickets in sync and answers free-text lookups for the ops endpoints.
type TicketSearchRepository interface {
	IndexTicket(ticket models.GrievanceTicket) error
	RemoveTicket(ticketID string) error
	SearchTickets(text string, size int) ([]TicketHit, error)
}

// TicketHit is one quick-search result row.
type TicketHit struct {
	ID     string                 `json:"id"`
	Score  float64                `json:"score"`
	Fields map[string]interface{} `json:"fields"`
}

type ticketSearchRepository struct {
	indexing search_services.IndexingServiceInterface
}

func NewTicketSearchRepository(indexing search_services.IndexingServiceInterface) TicketSearchRepository {
	return &ticketSearchRepository{indexing: indexing}
}

type ticketDoc struct {
	Category    string `json:"category"`
	IssueType   string `json:"issue_type"`
	Status      string `json:"status"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
}

func (r *ticketSearchRepository) IndexTicket(ticket models.GrievanceTicket) error {
	doc := ticketDoc{
		Category:    string(ticket.Category),
		Status:      string(ticket.Status),
		Description: ticket.Description,
		CreatedBy:   ticket.CreatedBy,
	}
	if ticket.IssueType != nil {
		doc.IssueType = string(*ticket.IssueType)
	}

	if err := r.indexing.IndexDocument(ticketsIndexName, ticket.ID.String(), doc); err != nil {
		return fmt.Errorf("failed to index grievance ticket: %w", err)
	}
	return nil
}

func (r *ticketSearchRepository) RemoveTicket(ticketID string) error {
	return r.indexing.DeleteDocument(ticketsIndexName, ticketID)
}

func (r *ticketSearchRepository) SearchTickets(text string, size int) ([]TicketHit, error) {
	q := bleve.NewMatchQuery(text)
	q.SetFuzziness(1)

	result, err := r.indexing.SearchIndex(ticketsIndexName, q, size)
	if err != nil {
		return nil, fmt.Errorf("ticket search failed: %w", err)
	}

	hits := make([]TicketHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, TicketHit{
			ID:     hit.ID,
			Score:  hit.Score,
			Fields: hit.Fields,
		})
	}
	return hits, nil
}
