package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	domainerrors "github.com/mediashelf/mediashelf-server/internal/errors"
	"github.com/mediashelf/mediashelf-server/internal/search"
)

// SearchService provides search over the records already in the cache.
// It bridges the search index with the store for rebuilds.
type SearchService struct {
	index  *search.SearchIndex
	source search.RecordSource
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, source search.RecordSource, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		source: source,
		logger: logger,
	}
}

// CatalogQuery is a local catalog search request.
type CatalogQuery struct {
	Query   string
	Types   []string
	MinYear int
	MaxYear int
	Limit   int
	Offset  int
}

// Search runs a query against the local catalog. Type names accept the same
// aliases as the media routes.
func (s *SearchService) Search(ctx context.Context, q CatalogQuery) (*search.SearchResult, error) {
	params := search.SearchParams{
		Query:         strings.TrimSpace(q.Query),
		MinYear:       q.MinYear,
		MaxYear:       q.MaxYear,
		Limit:         q.Limit,
		Offset:        q.Offset,
		IncludeFacets: true,
		Highlight:     true,
	}

	for _, name := range q.Types {
		if strings.TrimSpace(name) == "" {
			continue
		}
		t, ok := domain.ParseMediaType(name)
		if !ok {
			return nil, domainerrors.UnsupportedMediaTypef("unsupported media type %q", name)
		}
		params.Types = append(params.Types, t)
	}

	if params.MinYear > 0 && params.MaxYear > 0 && params.MinYear > params.MaxYear {
		return nil, domainerrors.Validation("min_year must not exceed max_year")
	}

	return s.index.Search(ctx, params)
}

// EnsureIndexed rebuilds the index from the store when it is new or empty.
func (s *SearchService) EnsureIndexed(ctx context.Context) error {
	if !s.index.NeedsReindex() {
		count, _ := s.index.DocumentCount()
		s.logger.Debug("search index up to date", "documents", count)
		return nil
	}
	return s.ReindexAll(ctx)
}

// ReindexAll rebuilds the entire search index from the store.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	s.logger.Info("starting full reindex")

	n, err := s.index.Reindex(ctx, s.source)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}

	s.logger.Info("full reindex complete", "documents", n)
	return nil
}

// DocumentCount returns the number of indexed documents.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}
