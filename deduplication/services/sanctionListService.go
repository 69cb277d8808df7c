package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"hope-backend/db/models"
)

// SanctionListHit is one individual flagged against the sanction list.
type SanctionListHit struct {
	IndividualID string          `json:"individual_id"`
	ListedName   string          `json:"listed_name"`
	ReferenceID  string          `json:"reference_id"`
	RawRecord    json.RawMessage `json:"raw_record"`
}

// SanctionListService screens individuals against an external sanction-list
// API. Screening failures are reported to the caller but must never block a
// merge, so the service only returns errors, it does not retry.
type SanctionListService struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

func NewSanctionListService(baseURL, apiToken string) *SanctionListService {
	return &SanctionListService{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type screenRequest struct {
	Individuals []screenIndividual `json:"individuals"`
}

type screenIndividual struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	BirthDate string `json:"birth_date,omitempty"`
}

type screenResponse struct {
	Hits []SanctionListHit `json:"hits"`
}

// ScreenIndividuals submits the batch for screening and returns the hits.
func (s *SanctionListService) ScreenIndividuals(ctx context.Context, individuals []models.Individual) ([]SanctionListHit, error) {
	if len(individuals) == 0 {
		return nil, nil
	}

	request := screenRequest{Individuals: make([]screenIndividual, 0, len(individuals))}
	for _, ind := range individuals {
		entry := screenIndividual{
			ID:       ind.ID.String(),
			FullName: ind.FullName,
		}
		if ind.BirthDate != nil {
			entry.BirthDate = ind.BirthDate.Format("2006-01-02")
		}
		request.Individuals = append(request.Individuals, entry)
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal screening request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/screen", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build screening request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sanction list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sanction list returned status %d", resp.StatusCode)
	}

	var parsed screenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode screening response: %w", err)
	}

	return parsed.Hits, nil
}
