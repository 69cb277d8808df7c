package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"hope-backend/db/models"

	"github.com/google/uuid"
)

// BiometricMatch is one cross-batch face match reported by the engine.
type BiometricMatch struct {
	IndividualID        uuid.UUID `json:"individual_id"`
	MatchedIndividualID uuid.UUID `json:"matched_individual_id"`
	Similarity          float64   `json:"similarity"`
}

// BiometricEngineService calls the external face-deduplication engine for
// programs that enable it. Invocation is synchronous during merge; engine
// failures are reported upward but never abort the merge.
type BiometricEngineService struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

func NewBiometricEngineService(baseURL, apiToken string) *BiometricEngineService {
	return &BiometricEngineService{
		baseURL:  baseURL,
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type biometricRequest struct {
	ProgramID   string             `json:"program_id"`
	Individuals []biometricSubject `json:"individuals"`
}

type biometricSubject struct {
	ID        string `json:"id"`
	PhotoPath string `json:"photo_path"`
}

type biometricResponse struct {
	Matches []struct {
		FirstID    string  `json:"first_id"`
		SecondID   string  `json:"second_id"`
		Similarity float64 `json:"similarity"`
	} `json:"matches"`
}

// DeduplicateIndividuals submits the batch's photos and returns cross-batch
// matches. Individuals without a photo are skipped.
func (s *BiometricEngineService) DeduplicateIndividuals(ctx context.Context, programID uuid.UUID, individuals []models.Individual) ([]BiometricMatch, error) {
	request := biometricRequest{ProgramID: programID.String()}
	for _, ind := range individuals {
		if ind.PhotoPath == "" {
			continue
		}
		request.Individuals = append(request.Individuals, biometricSubject{
			ID:        ind.ID.String(),
			PhotoPath: ind.PhotoPath,
		})
	}
	if len(request.Individuals) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal biometric request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/deduplicate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build biometric request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("biometric engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("biometric engine returned status %d", resp.StatusCode)
	}

	var parsed biometricResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode biometric response: %w", err)
	}

	matches := make([]BiometricMatch, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		firstID, err := uuid.Parse(m.FirstID)
		if err != nil {
			continue
		}
		secondID, err := uuid.Parse(m.SecondID)
		if err != nil {
			continue
		}
		matches = append(matches, BiometricMatch{
			IndividualID:        firstID,
			MatchedIndividualID: secondID,
			Similarity:          m.Similarity,
		})
	}
	return matches, nil
}
