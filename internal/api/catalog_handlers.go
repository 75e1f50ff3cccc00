package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	"github.com/mediashelf/mediashelf-server/internal/search"
	"github.com/mediashelf/mediashelf-server/internal/service"
	"github.com/mediashelf/mediashelf-server/internal/store"
)

func (s *Server) registerCatalogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/search",
		Summary:     "Search cached catalog",
		Description: "Full-text search over records already in the cache. Never calls upstream providers.",
		Tags:        []string{"Catalog"},
	}, s.handleCatalogSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "browseCatalog",
		Method:      http.MethodGet,
		Path:        "/api/v1/catalog/browse",
		Summary:     "Browse cached records",
		Description: "Lists cached records in key order with cursor pagination. Never calls upstream providers.",
		Tags:        []string{"Catalog"},
	}, s.handleCatalogBrowse)
}

// === DTOs ===

// CatalogSearchInput contains parameters for searching the local catalog.
type CatalogSearchInput struct {
	Query   string `query:"q" maxLength:"200" doc:"Search query. Omit to browse."`
	Types   string `query:"type" maxLength:"100" doc:"Comma-separated media types. Omit for all."`
	MinYear int    `query:"min_year" minimum:"0" doc:"Earliest release year"`
	MaxYear int    `query:"max_year" minimum:"0" doc:"Latest release year"`
	Limit   int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results (default 20)"`
	Offset  int    `query:"offset" minimum:"0" doc:"Pagination offset"`
}

// CatalogHit is a single catalog match.
type CatalogHit struct {
	ID         string            `json:"id" doc:"Cache key (type:external_id)"`
	MediaType  string            `json:"media_type" doc:"Media type"`
	ExternalID string            `json:"external_id" doc:"Upstream provider ID"`
	Title      string            `json:"title" doc:"Display title"`
	Status     string            `json:"status,omitempty" doc:"Upstream lifecycle status"`
	Year       int               `json:"year,omitempty" doc:"Release year"`
	Released   int               `json:"released,omitempty" doc:"Released units"`
	Score      float64           `json:"score" doc:"Search relevance score"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value" doc:"Facet value"`
	Count int    `json:"count" doc:"Number of matches"`
}

// CatalogSearchResponse contains catalog search results.
type CatalogSearchResponse struct {
	Query  string       `json:"query" doc:"Original search query"`
	Total  uint64       `json:"total" doc:"Total matches"`
	TookMs int64        `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []CatalogHit `json:"hits" doc:"Search results"`
	Types  []FacetCount `json:"types,omitempty" doc:"Matches per media type"`
}

// CatalogSearchOutput wraps the catalog search response for Huma.
type CatalogSearchOutput struct {
	Body CatalogSearchResponse
}

// CatalogBrowseInput contains parameters for paging through cached records.
type CatalogBrowseInput struct {
	Type   string `query:"type" maxLength:"20" doc:"Media type. Omit for all."`
	Limit  int    `query:"limit" minimum:"0" maximum:"1000" doc:"Page size (default 100)"`
	Cursor string `query:"cursor" maxLength:"512" doc:"Cursor from the previous page"`
}

// CatalogBrowseResponse is one page of cached records.
type CatalogBrowseResponse struct {
	Items      []MediaResponse `json:"items" doc:"Records in this page"`
	NextCursor string          `json:"next_cursor,omitempty" doc:"Cursor for the next page"`
	HasMore    bool            `json:"has_more" doc:"Whether more pages follow"`
}

// CatalogBrowseOutput wraps the browse response for Huma.
type CatalogBrowseOutput struct {
	Body CatalogBrowseResponse
}

// === Handlers ===

func (s *Server) handleCatalogSearch(ctx context.Context, input *CatalogSearchInput) (*CatalogSearchOutput, error) {
	q := service.CatalogQuery{
		Query:   input.Query,
		MinYear: input.MinYear,
		MaxYear: input.MaxYear,
		Limit:   input.Limit,
		Offset:  input.Offset,
	}
	if input.Types != "" {
		q.Types = strings.Split(input.Types, ",")
	}

	s.logger.Debug("catalog search request",
		"query", input.Query,
		"types", input.Types,
		"limit", input.Limit,
	)

	result, err := s.services.Search.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	return &CatalogSearchOutput{Body: toCatalogResponse(result)}, nil
}

func (s *Server) handleCatalogBrowse(ctx context.Context, input *CatalogBrowseInput) (*CatalogBrowseOutput, error) {
	var mediaType domain.MediaType
	if input.Type != "" {
		t, err := parseMediaType(input.Type)
		if err != nil {
			return nil, err
		}
		mediaType = t
	}

	page, err := s.store.ListMediaPage(ctx, mediaType, store.PaginationParams{
		Limit:  input.Limit,
		Cursor: input.Cursor,
	})
	if err != nil {
		return nil, err
	}

	policy := s.services.MediaCache.Policy()
	resp := CatalogBrowseResponse{
		Items:      make([]MediaResponse, len(page.Items)),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
	for i, r := range page.Items {
		resp.Items[i] = toMediaResponse(r, policy)
	}
	return &CatalogBrowseOutput{Body: resp}, nil
}

func toCatalogResponse(result *search.SearchResult) CatalogSearchResponse {
	resp := CatalogSearchResponse{
		Query:  result.Query,
		Total:  result.Total,
		TookMs: result.TookMs,
		Hits:   make([]CatalogHit, len(result.Hits)),
	}
	for i, h := range result.Hits {
		resp.Hits[i] = CatalogHit{
			ID:         h.ID,
			MediaType:  string(h.MediaType),
			ExternalID: h.ExternalID,
			Title:      h.Title,
			Status:     h.Status,
			Year:       h.Year,
			Released:   h.Released,
			Score:      h.Score,
			Highlights: h.Highlights,
		}
	}
	for _, f := range result.Facets {
		resp.Types = append(resp.Types, FacetCount{Value: f.Value, Count: f.Count})
	}
	return resp
}
