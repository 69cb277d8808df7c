package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hope-backend/db/models"
	search_services "hope-backend/search/services"

	"github.com/google/uuid"
)

// BatchMatch is one same-batch match between two pending individuals.
type BatchMatch struct {
	IndividualID uuid.UUID `json:"individual_id"`
	FullName     string    `json:"full_name"`
	Score        float64   `json:"score"`
	Signal       string    `json:"signal"`
}

const (
	biographicSignalScore = 10.0
	documentSignalScore   = 12.0
)

// populationSearcher is the cross-population side of deduplication, served
// by the Elasticsearch population index.
type populationSearcher interface {
	SearchSimilarIndividuals(ctx context.Context, individual models.Individual, minScore float64) ([]search_services.PopulationMatch, error)
}

// BiographicEngine classifies pending individuals as batch duplicates
// (exact or near-exact matches within the same import) or as needing
// adjudication (ambiguous matches against the existing population).
type BiographicEngine struct {
	population populationSearcher
}

func NewBiographicEngine(population populationSearcher) *BiographicEngine {
	return &BiographicEngine{population: population}
}

// DeduplicateBatch compares the individuals of one import against each
// other. Two individuals match when their normalized name, birth date and
// sex all agree, or when they share an identity document number. The first
// occurrence of each signature is the batch-unique golden record; later
// occurrences are duplicates of it.
func (e *BiographicEngine) DeduplicateBatch(individuals []models.Individual) map[uuid.UUID][]BatchMatch {
	matches := make(map[uuid.UUID][]BatchMatch)

	bySignature := make(map[string]*models.Individual)
	byDocument := make(map[string]*models.Individual)

	for i := range individuals {
		ind := &individuals[i]

		if sig := biographicSignature(ind); sig != "" {
			if first, seen := bySignature[sig]; seen {
				appendMatch(matches, ind.ID, *first, biographicSignalScore, "biographic")
				appendMatch(matches, first.ID, *ind, biographicSignalScore, "biographic")
			} else {
				bySignature[sig] = ind
			}
		}

		for _, doc := range ind.Documents {
			key := documentSignature(doc)
			if key == "" {
				continue
			}
			if first, seen := byDocument[key]; seen {
				if first.ID != ind.ID {
					appendMatch(matches, ind.ID, *first, documentSignalScore, "document")
					appendMatch(matches, first.ID, *ind, documentSignalScore, "document")
				}
			} else {
				byDocument[key] = ind
			}
		}
	}

	return matches
}

// FindPossibleDuplicates queries the existing population for ambiguous
// matches above the business area's adjudication threshold.
func (e *BiographicEngine) FindPossibleDuplicates(ctx context.Context, individual models.Individual, minScore float64) ([]search_services.PopulationMatch, error) {
	matches, err := e.population.SearchSimilarIndividuals(ctx, individual, minScore)
	if err != nil {
		return nil, fmt.Errorf("cross-population deduplication failed: %w", err)
	}
	return matches, nil
}

// MarshalBatchResults serializes match lists for storage on the individual.
func MarshalBatchResults(matches []BatchMatch) []byte {
	raw, err := json.Marshal(matches)
	if err != nil {
		return []byte("[]")
	}
	return raw
}

func appendMatch(matches map[uuid.UUID][]BatchMatch, id uuid.UUID, other models.Individual, score float64, signal string) {
	matches[id] = append(matches[id], BatchMatch{
		IndividualID: other.ID,
		FullName:     other.FullName,
		Score:        score,
		Signal:       signal,
	})
}

// biographicSignature normalizes name, birth date and sex into one
// comparison key. Individuals missing any component never match by
// biographics alone.
func biographicSignature(ind *models.Individual) string {
	if ind.FullName == "" || ind.BirthDate == nil || ind.Sex == "" {
		return ""
	}
	return strings.Join([]string{
		normalizeName(ind.FullName),
		ind.BirthDate.Format("2006-01-02"),
		string(ind.Sex),
	}, "|")
}

func documentSignature(doc models.Document) string {
	number := strings.ToUpper(strings.ReplaceAll(doc.DocumentNumber, " ", ""))
	if number == "" {
		return ""
	}
	return string(doc.Type) + "|" + number
}

// normalizeName lowercases, trims and collapses whitespace so formatting
// differences do not defeat exact comparison.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
