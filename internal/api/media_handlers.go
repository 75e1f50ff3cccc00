package api

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/goccy/go-json"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	domainerrors "github.com/mediashelf/mediashelf-server/internal/errors"
	"github.com/mediashelf/mediashelf-server/internal/freshness"
)

// maxBatchIDs bounds the ids accepted by the batch read.
const maxBatchIDs = 100

func (s *Server) registerMediaRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchUpstreamMedia",
		Method:      http.MethodGet,
		Path:        "/api/v1/media/{type}/search",
		Summary:     "Search upstream provider",
		Description: "Queries the media type's upstream provider. Results are not cached; seed the one the user picks.",
		Tags:        []string{"Media"},
	}, s.handleSearchUpstream)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMedia",
		Method:      http.MethodGet,
		Path:        "/api/v1/media/{type}/{externalId}",
		Summary:     "Get cached media",
		Description: "Returns the cached record, refreshing it from upstream when stale. A stale record is served if the refresh fails.",
		Tags:        []string{"Media"},
	}, s.handleGetMedia)

	huma.Register(s.api, huma.Operation{
		OperationID: "getManyMedia",
		Method:      http.MethodGet,
		Path:        "/api/v1/media/{type}",
		Summary:     "Get cached media in batch",
		Description: "Returns one record per id in request order. Unavailable items come back as placeholders.",
		Tags:        []string{"Media"},
	}, s.handleGetManyMedia)

	huma.Register(s.api, huma.Operation{
		OperationID: "seedMedia",
		Method:      http.MethodPost,
		Path:        "/api/v1/media/{type}",
		Summary:     "Seed cache from search result",
		Description: "Stores caller-supplied metadata without an upstream call. A fresh cached record is returned unchanged.",
		Tags:        []string{"Media"},
	}, s.handleSeedMedia)
}

// === DTOs ===

// MediaResponse is a normalized media record in API responses.
type MediaResponse struct {
	ID              string     `json:"id,omitempty" doc:"Internal record ID"`
	MediaType       string     `json:"media_type" doc:"Media type"`
	ExternalID      string     `json:"external_id" doc:"Upstream provider ID"`
	Title           string     `json:"title" doc:"Display title"`
	ImageURL        string     `json:"image_url" doc:"Cover image URL"`
	Year            int        `json:"year" doc:"Release year, 0 when unknown"`
	Released        int        `json:"released" doc:"Total released units, 0 when unknown"`
	ReleasedUnit    string     `json:"released_unit,omitempty" doc:"What released counts (episodes, chapters, issues, pages)"`
	Status          string     `json:"status" doc:"Upstream lifecycle status"`
	Synopsis        string     `json:"synopsis,omitempty" doc:"Short description"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty" doc:"Last successful write"`
	Fresh           bool       `json:"fresh" doc:"Whether the record is within its freshness policy"`
	Placeholder     bool       `json:"placeholder,omitempty" doc:"True when the item was unavailable and defaults are shown"`
}

// MediaOutput wraps a single record.
type MediaOutput struct {
	Body MediaResponse
}

// MediaListOutput wraps several records.
type MediaListOutput struct {
	Body []MediaResponse
}

// CandidateListOutput wraps upstream search candidates.
type CandidateListOutput struct {
	Body []MediaResponse
}

// GetMediaInput identifies one record.
type GetMediaInput struct {
	Type       string `path:"type" doc:"Media type (anime, manga, show, comic, movie, book, game)"`
	ExternalID string `path:"externalId" maxLength:"128" doc:"Upstream provider ID"`
}

// GetManyMediaInput identifies several records of one type.
type GetManyMediaInput struct {
	Type string `path:"type" doc:"Media type"`
	IDs  string `query:"ids" required:"true" minLength:"1" maxLength:"4096" doc:"Comma-separated upstream IDs"`
}

// SeedMediaInput carries a search candidate in the request body.
type SeedMediaInput struct {
	Type    string `path:"type" doc:"Media type"`
	RawBody []byte `contentType:"application/json"`
}

// SearchUpstreamInput is an upstream search request.
type SearchUpstreamInput struct {
	Type  string `path:"type" doc:"Media type"`
	Query string `query:"q" required:"true" minLength:"1" maxLength:"200" doc:"Search query"`
	Limit int    `query:"limit" minimum:"0" maximum:"25" doc:"Max results (default 10)"`
}

// === Handlers ===

func (s *Server) handleGetMedia(ctx context.Context, input *GetMediaInput) (*MediaOutput, error) {
	mediaType, err := parseMediaType(input.Type)
	if err != nil {
		return nil, err
	}

	record, err := s.services.MediaCache.GetCachedMedia(ctx, mediaType, domain.ExternalID(input.ExternalID))
	if err != nil {
		return nil, err
	}

	return &MediaOutput{Body: toMediaResponse(record, s.services.MediaCache.Policy())}, nil
}

func (s *Server) handleGetManyMedia(ctx context.Context, input *GetManyMediaInput) (*MediaListOutput, error) {
	mediaType, err := parseMediaType(input.Type)
	if err != nil {
		return nil, err
	}

	var ids []domain.ExternalID
	for part := range strings.SplitSeq(input.IDs, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, domain.ExternalID(part))
		}
	}
	if len(ids) == 0 {
		return nil, domainerrors.Validation("ids must list at least one id")
	}
	if len(ids) > maxBatchIDs {
		return nil, domainerrors.Validationf("at most %d ids per request", maxBatchIDs)
	}

	records, err := s.services.MediaCache.GetManyForDisplay(ctx, mediaType, ids)
	if err != nil {
		return nil, err
	}

	policy := s.services.MediaCache.Policy()
	out := make([]MediaResponse, len(records))
	for i, r := range records {
		out[i] = toMediaResponse(r, policy)
	}
	return &MediaListOutput{Body: out}, nil
}

func (s *Server) handleSeedMedia(ctx context.Context, input *SeedMediaInput) (*MediaOutput, error) {
	mediaType, err := parseMediaType(input.Type)
	if err != nil {
		return nil, err
	}

	body := bytes.TrimSpace(input.RawBody)
	if len(body) == 0 {
		return nil, domainerrors.Validation("request body is required")
	}

	var candidate domain.SearchCandidate
	if err := json.Unmarshal(body, &candidate); err != nil {
		return nil, domainerrors.Validationf("invalid candidate JSON: %v", err)
	}

	record, err := s.services.MediaCache.CacheFromSearch(ctx, mediaType, &candidate)
	if err != nil {
		return nil, err
	}

	return &MediaOutput{Body: toMediaResponse(record, s.services.MediaCache.Policy())}, nil
}

func (s *Server) handleSearchUpstream(ctx context.Context, input *SearchUpstreamInput) (*CandidateListOutput, error) {
	mediaType, err := parseMediaType(input.Type)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("upstream search request",
		"media_type", mediaType,
		"query", input.Query,
		"limit", input.Limit,
	)

	candidates, err := s.services.MediaCache.SearchUpstream(ctx, mediaType, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]MediaResponse, 0, len(candidates))
	for i := range candidates {
		record, err := candidates[i].Normalize(mediaType)
		if err != nil {
			// Candidates without an id cannot be seeded later.
			continue
		}
		resp := toMediaResponse(record, nil)
		out = append(out, resp)
	}
	return &CandidateListOutput{Body: out}, nil
}

// === Helpers ===

// parseMediaType resolves a route's media type segment, accepting legacy aliases.
func parseMediaType(s string) (domain.MediaType, error) {
	t, ok := domain.ParseMediaType(s)
	if !ok {
		return "", domainerrors.UnsupportedMediaTypef("unsupported media type %q", s)
	}
	return t, nil
}

// toMediaResponse converts a record. A nil policy leaves Fresh false.
func toMediaResponse(r *domain.MediaRecord, policy *freshness.Policy) MediaResponse {
	resp := MediaResponse{
		ID:           r.ID,
		MediaType:    string(r.MediaType),
		ExternalID:   string(r.ExternalID),
		Title:        r.Title,
		ImageURL:     r.ImageURL,
		Year:         r.Year,
		Released:     r.Released,
		ReleasedUnit: r.MediaType.ReleasedUnit(),
		Status:       r.Status,
		Synopsis:     r.Synopsis,
		Placeholder:  r.LastRefreshedAt.IsZero() && r.ID == "",
	}
	if !r.LastRefreshedAt.IsZero() {
		t := r.LastRefreshedAt
		resp.LastRefreshedAt = &t
	}
	if policy != nil && !resp.Placeholder {
		resp.Fresh = policy.IsFresh(r)
	}
	return resp
}
