package services

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"
)

// IndexingServiceInterface is the local (bleve) index used for the grievance
// quick-search endpoints. The heavyweight population index lives in
// Elasticsearch; this one only serves operator lookups.
type IndexingServiceInterface interface {
	IndexDocument(indexName, id string, document interface{}) error
	DeleteDocument(indexName, id string) error
	SearchIndex(indexName string, q query.Query, size int) (*bleve.SearchResult, error)
}

type IndexingService struct {
	indexes  map[string]bleve.Index
	logger   *zap.Logger
	basePath string
}

func NewIndexingService(logger *zap.Logger, basePath string) *IndexingService {
	return &IndexingService{
		indexes:  make(map[string]bleve.Index),
		logger:   logger,
		basePath: basePath,
	}
}

func (s *IndexingService) getOrCreateIndex(indexName string) (bleve.Index, error) {
	if idx, ok := s.indexes[indexName]; ok {
		return idx, nil
	}

	fullPath := fmt.Sprintf("%s/%s.bleve", s.basePath, indexName)

	mapping := bleve.NewIndexMapping()

	idx, err := bleve.Open(fullPath)
	if err != nil {
		idx, err = bleve.New(fullPath, mapping)
		if err != nil {
			return nil, fmt.Errorf("failed to create index %s: %w", fullPath, err)
		}
	}

	s.indexes[indexName] = idx
	return idx, nil
}

func (s *IndexingService) IndexDocument(indexName, id string, document interface{}) error {
	idx, err := s.getOrCreateIndex(indexName)
	if err != nil {
		s.logger.Error("Could not get or create index", zap.Error(err))
		return err
	}

	if err := idx.Index(id, document); err != nil {
		s.logger.Error("Failed to index document", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

func (s *IndexingService) DeleteDocument(indexName, id string) error {
	idx, err := s.getOrCreateIndex(indexName)
	if err != nil {
		s.logger.Error("Could not get or create index", zap.Error(err))
		return err
	}

	if err := idx.Delete(id); err != nil {
		s.logger.Error("Failed to delete document", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}

// SearchIndex performs a search and requests stored fields to be included
func (s *IndexingService) SearchIndex(indexName string, q query.Query, size int) (*bleve.SearchResult, error) {
	idx, err := s.getOrCreateIndex(indexName)
	if err != nil {
		s.logger.Error("Could not get or create index", zap.Error(err))
		return nil, err
	}

	searchRequest := bleve.NewSearchRequestOptions(q, size, 0, false)
	searchRequest.Fields = []string{"*"}

	searchResult, err := idx.Search(searchRequest)
	if err != nil {
		s.logger.Error("Search failed", zap.Error(err))
		return nil, err
	}

	return searchResult, nil
}
