// Package jikan adapts the Jikan (MyAnimeList) API to the metadata.Provider
// contract for anime and manga.
package jikan

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

// Name is the provider name used for logging, metrics and rate limiting.
const Name = "jikan"

// DefaultBaseURL is the public Jikan v4 endpoint.
const DefaultBaseURL = "https://api.jikan.moe/v4"

// DefaultQuota stays under Jikan's documented 3 requests per second.
var DefaultQuota = ratelimit.Quota{RPS: 3, Burst: 3}

// Provider serves one Jikan resource family.
type Provider struct {
	fetcher   *metadata.Fetcher
	mediaType domain.MediaType
	resource  string // "anime" or "manga"
}

// NewAnime creates the anime provider.
func NewAnime(f *metadata.Fetcher) *Provider {
	return &Provider{fetcher: f, mediaType: domain.MediaAnime, resource: "anime"}
}

// NewManga creates the manga provider.
func NewManga(f *metadata.Fetcher) *Provider {
	return &Provider{fetcher: f, mediaType: domain.MediaManga, resource: "manga"}
}

// Name implements metadata.Provider.
func (p *Provider) Name() string { return Name }

// Fetch implements metadata.Provider.
func (p *Provider) Fetch(ctx context.Context, externalID domain.ExternalID) (*domain.MediaRecord, error) {
	id := strings.TrimSpace(externalID.String())
	if _, err := strconv.Atoi(id); err != nil {
		return nil, metadata.WrapError("fetch", Name, externalID, fmt.Errorf("%w: non-numeric id", metadata.ErrBadRequest))
	}

	var resp itemResponse
	if err := p.fetcher.GetJSON(ctx, "/"+p.resource+"/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, metadata.WrapError("fetch", Name, externalID, err)
	}
	if resp.Data == nil || strings.TrimSpace(resp.Data.Title) == "" {
		return nil, metadata.WrapError("fetch", Name, externalID, fmt.Errorf("%w: missing data", metadata.ErrBadPayload))
	}

	return p.toRecord(resp.Data), nil
}

// Search implements metadata.Provider.
func (p *Provider) Search(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error) {
	q := url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(metadata.ClampLimit(limit))},
	}

	var resp searchResponse
	if err := p.fetcher.GetJSON(ctx, "/"+p.resource, q, &resp); err != nil {
		return nil, metadata.WrapError("search", Name, "", err)
	}

	candidates := make([]domain.SearchCandidate, 0, len(resp.Data))
	for i := range resp.Data {
		if resp.Data[i].MalID == 0 {
			continue
		}
		candidates = append(candidates, domain.CandidateFromRecord(p.toRecord(&resp.Data[i])))
	}
	return candidates, nil
}

func (p *Provider) toRecord(e *rawEntry) *domain.MediaRecord {
	r := &domain.MediaRecord{
		MediaType:  p.mediaType,
		ExternalID: domain.ExternalID(strconv.Itoa(e.MalID)),
		Title:      normalize.Title(e.Title),
		ImageURL:   e.Images.JPG.ImageURL,
		Status:     e.Status,
		Synopsis:   strings.TrimSpace(e.Synopsis),
	}

	if p.mediaType == domain.MediaManga {
		r.Year = e.Published.fromYear()
		r.Released = deref(e.Chapters)
	} else {
		r.Year = deref(e.Year)
		if r.Year == 0 {
			r.Year = e.Aired.fromYear()
		}
		r.Released = deref(e.Episodes)
	}

	r.ApplyDefaults()
	return r
}

var _ metadata.Provider = (*Provider)(nil)
