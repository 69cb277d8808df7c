package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"hope-backend/db/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	IndividualsIndex = "individuals"
	HouseholdsIndex  = "households"
)

// IndividualDoc is the shape of an individual in the population index.
type IndividualDoc struct {
	ID                       string   `json:"id"`
	UnicefID                 string   `json:"unicef_id"`
	FullName                 string   `json:"full_name"`
	BirthDate                string   `json:"birth_date,omitempty"`
	Sex                      string   `json:"sex"`
	PhoneNumber              string   `json:"phone_number,omitempty"`
	BusinessAreaID           string   `json:"business_area_id"`
	ProgramID                string   `json:"program_id"`
	RegistrationDataImportID string   `json:"registration_data_import_id"`
	DocumentNumbers          []string `json:"document_numbers,omitempty"`
}

// HouseholdDoc is the shape of a household in the population index.
type HouseholdDoc struct {
	ID                       string `json:"id"`
	UnicefID                 string `json:"unicef_id"`
	Address                  string `json:"address,omitempty"`
	CountryCode              string `json:"country_code,omitempty"`
	Size                     int    `json:"size"`
	BusinessAreaID           string `json:"business_area_id"`
	ProgramID                string `json:"program_id"`
	RegistrationDataImportID string `json:"registration_data_import_id"`
}

// PopulationMatch is one existing individual returned by a similarity search.
type PopulationMatch struct {
	IndividualID uuid.UUID
	FullName     string
	Score        float64
}

// PopulationIndexService writes the merged population into Elasticsearch and
// answers the cross-population similarity queries of the deduplication
// engine. Index writes are not part of the merge transaction; the rollback
// path calls DeleteImportDocuments to compensate.
type PopulationIndexService struct {
	es     *elasticsearch.Client
	logger *zap.Logger
}

func NewPopulationIndexService(es *elasticsearch.Client, logger *zap.Logger) *PopulationIndexService {
	return &PopulationIndexService{es: es, logger: logger}
}

func (s *PopulationIndexService) IndexIndividuals(ctx context.Context, individuals []models.Individual) error {
	for _, ind := range individuals {
		doc := IndividualDoc{
			ID:                       ind.ID.String(),
			UnicefID:                 ind.UnicefID,
			FullName:                 ind.FullName,
			Sex:                      string(ind.Sex),
			PhoneNumber:              ind.PhoneNumber,
			BusinessAreaID:           ind.BusinessAreaID.String(),
			ProgramID:                ind.ProgramID.String(),
			RegistrationDataImportID: ind.RegistrationDataImportID.String(),
		}
		if ind.BirthDate != nil {
			doc.BirthDate = ind.BirthDate.Format("2006-01-02")
		}
		for _, document := range ind.Documents {
			doc.DocumentNumbers = append(doc.DocumentNumbers, document.DocumentNumber)
		}

		if err := s.indexDocument(ctx, IndividualsIndex, doc.ID, doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *PopulationIndexService) IndexHouseholds(ctx context.Context, households []models.Household) error {
	for _, hh := range households {
		doc := HouseholdDoc{
			ID:                       hh.ID.String(),
			UnicefID:                 hh.UnicefID,
			Address:                  hh.Address,
			CountryCode:              hh.CountryCode,
			Size:                     hh.Size,
			BusinessAreaID:           hh.BusinessAreaID.String(),
			ProgramID:                hh.ProgramID.String(),
			RegistrationDataImportID: hh.RegistrationDataImportID.String(),
		}
		if err := s.indexDocument(ctx, HouseholdsIndex, doc.ID, doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *PopulationIndexService) indexDocument(ctx context.Context, index, id string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", index, err)
	}

	res, err := s.es.Index(
		index,
		bytes.NewReader(body),
		s.es.Index.WithDocumentID(id),
		s.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index %s document %s: %w", index, id, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch rejected %s document %s: %s", index, id, string(raw))
	}
	return nil
}

// DeleteImportDocuments removes every document written for one import batch
// from both indices. Used to compensate index writes on merge rollback and
// on erase.
func (s *PopulationIndexService) DeleteImportDocuments(ctx context.Context, importID uuid.UUID) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"registration_data_import_id": importID.String(),
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("failed to marshal delete-by-query body: %w", err)
	}

	res, err := s.es.DeleteByQuery(
		[]string{IndividualsIndex, HouseholdsIndex},
		bytes.NewReader(body),
		s.es.DeleteByQuery.WithContext(ctx),
		s.es.DeleteByQuery.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("failed to delete import documents: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return fmt.Errorf("elasticsearch rejected delete-by-query for import %s: %s", importID, string(raw))
	}

	s.logger.Info("Removed search index documents for import", zap.String("importID", importID.String()))
	return nil
}

// SearchSimilarIndividuals finds existing population members that look like
// the given individual: fuzzy name match, boosted by matching birth date,
// phone number or document numbers. The individual's own import batch is
// excluded so a batch never matches against itself.
func (s *PopulationIndexService) SearchSimilarIndividuals(ctx context.Context, individual models.Individual, minScore float64) ([]PopulationMatch, error) {
	should := []map[string]interface{}{
		{
			"match": map[string]interface{}{
				"full_name": map[string]interface{}{
					"query":     individual.FullName,
					"fuzziness": "AUTO",
					"boost":     5.0,
				},
			},
		},
	}
	if individual.BirthDate != nil {
		should = append(should, map[string]interface{}{
			"term": map[string]interface{}{
				"birth_date": map[string]interface{}{
					"value": individual.BirthDate.Format("2006-01-02"),
					"boost": 2.0,
				},
			},
		})
	}
	if individual.PhoneNumber != "" {
		should = append(should, map[string]interface{}{
			"term": map[string]interface{}{
				"phone_number": map[string]interface{}{
					"value": individual.PhoneNumber,
					"boost": 3.0,
				},
			},
		})
	}
	for _, document := range individual.Documents {
		should = append(should, map[string]interface{}{
			"term": map[string]interface{}{
				"document_numbers": map[string]interface{}{
					"value": document.DocumentNumber,
					"boost": 4.0,
				},
			},
		})
	}

	query := map[string]interface{}{
		"min_score": minScore,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should":               should,
				"minimum_should_match": 1,
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"business_area_id": individual.BusinessAreaID.String()}},
				},
				"must_not": []map[string]interface{}{
					{"term": map[string]interface{}{"registration_data_import_id": individual.RegistrationDataImportID.String()}},
				},
			},
		},
		"size": 10,
	}

	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal similarity query: %w", err)
	}

	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(IndividualsIndex),
		s.es.Search.WithBody(bytes.NewReader(body)),
		s.es.Search.WithTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch rejected similarity search: %s", string(raw))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string        `json:"_id"`
				Score  float64       `json:"_score"`
				Source IndividualDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode similarity response: %w", err)
	}

	matches := make([]PopulationMatch, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		individualID, err := uuid.Parse(hit.ID)
		if err != nil {
			s.logger.Warn("Skipping malformed individual id in search hit", zap.String("id", hit.ID))
			continue
		}
		matches = append(matches, PopulationMatch{
			IndividualID: individualID,
			FullName:     hit.Source.FullName,
			Score:        hit.Score,
		})
	}
	return matches, nil
}
