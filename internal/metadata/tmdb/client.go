// Package tmdb adapts The Movie Database TV endpoints to the
// metadata.Provider contract for shows.
package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	"github.com/mediashelf/mediashelf-server/internal/metadata"
	"github.com/mediashelf/mediashelf-server/internal/normalize"
	"github.com/mediashelf/mediashelf-server/internal/ratelimit"
)

const (
	// Name is the provider name used for logging, metrics and rate limiting.
	Name = "tmdb"

	// DefaultBaseURL is the TMDB v3 API root.
	DefaultBaseURL = "https://api.themoviedb.org/3"

	// PosterBaseURL prefixes poster_path values.
	PosterBaseURL = "https://image.tmdb.org/t/p/w300"
)

// DefaultQuota is well under TMDB's per-IP limit.
var DefaultQuota = ratelimit.Quota{RPS: 20, Burst: 10}

type rawShow struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	FirstAirDate     string `json:"first_air_date"`
	PosterPath       string `json:"poster_path"`
	NumberOfEpisodes int    `json:"number_of_episodes"`
	Status           string `json:"status"`
	Overview         string `json:"overview"`
}

type searchResponse struct {
	Results []rawShow `json:"results"`
}

// Provider fetches TV show metadata.
type Provider struct {
	fetcher *metadata.Fetcher
	apiKey  string
}

// New creates a TMDB show provider.
func New(f *metadata.Fetcher, apiKey string) *Provider {
	return &Provider{fetcher: f, apiKey: apiKey}
}

// Name implements metadata.Provider.
func (p *Provider) Name() string { return Name }

// Fetch implements metadata.Provider.
func (p *Provider) Fetch(ctx context.Context, externalID domain.ExternalID) (*domain.MediaRecord, error) {
	id := strings.TrimSpace(externalID.String())
	if _, err := strconv.Atoi(id); err != nil {
		return nil, metadata.WrapError("fetch", Name, externalID, fmt.Errorf("%w: non-numeric id", metadata.ErrBadRequest))
	}

	var show rawShow
	if err := p.fetcher.GetJSON(ctx, "/tv/"+url.PathEscape(id), p.query(nil), &show); err != nil {
		return nil, metadata.WrapError("fetch", Name, externalID, err)
	}
	if show.ID == 0 || strings.TrimSpace(show.Name) == "" {
		return nil, metadata.WrapError("fetch", Name, externalID, fmt.Errorf("%w: missing show", metadata.ErrBadPayload))
	}

	return toRecord(&show), nil
}

// Search implements metadata.Provider. TMDB search results carry no
// episode count or status; those are filled on the first Fetch.
func (p *Provider) Search(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error) {
	var resp searchResponse
	if err := p.fetcher.GetJSON(ctx, "/search/tv", p.query(url.Values{"query": {query}, "page": {"1"}}), &resp); err != nil {
		return nil, metadata.WrapError("search", Name, "", err)
	}

	limit = metadata.ClampLimit(limit)
	candidates := make([]domain.SearchCandidate, 0, min(limit, len(resp.Results)))
	for i := range resp.Results {
		if len(candidates) == limit {
			break
		}
		if resp.Results[i].ID == 0 {
			continue
		}
		candidates = append(candidates, domain.CandidateFromRecord(toRecord(&resp.Results[i])))
	}
	return candidates, nil
}

func (p *Provider) query(q url.Values) url.Values {
	if q == nil {
		q = url.Values{}
	}
	if p.apiKey != "" {
		q.Set("api_key", p.apiKey)
	}
	return q
}

func toRecord(s *rawShow) *domain.MediaRecord {
	r := &domain.MediaRecord{
		MediaType:  domain.MediaShow,
		ExternalID: domain.ExternalID(strconv.Itoa(s.ID)),
		Title:      normalize.Title(s.Name),
		Year:       metadata.YearFromDate(s.FirstAirDate),
		Released:   s.NumberOfEpisodes,
		Status:     s.Status,
		Synopsis:   strings.TrimSpace(s.Overview),
	}
	if s.PosterPath != "" {
		r.ImageURL = PosterBaseURL + s.PosterPath
	}
	r.ApplyDefaults()
	return r
}

var _ metadata.Provider = (*Provider)(nil)
