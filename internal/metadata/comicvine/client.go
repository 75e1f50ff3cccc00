// Package comicvine adapts the ComicVine volume API to the metadata.Provider
// contract for comics.
package comicvine

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	"github.com/mediashelf/mediashelf-server/internal/metadata"
	"github.com/mediashelf/mediashelf-server/internal/normalize"
	"github.com/mediashelf/mediashelf-server/internal/ratelimit"
)

const (
	// Name is the provider name used for logging, metrics and rate limiting.
	Name = "comicvine"

	// DefaultBaseURL is the ComicVine API root.
	DefaultBaseURL = "https://comicvine.gamespot.com/api"

	// volumeTypeID prefixes volume ids in resource paths.
	volumeTypeID = "4050"

	// ComicVine reports failures in the body with HTTP 200.
	statusOK       = 1
	statusNotFound = 101

	// A volume updated within this long is still publishing.
	publishingWindow = 365 * 24 * time.Hour

	volumeFields = "id,name,count_of_issues,start_year,image,date_last_updated,deck,description"
)

// DefaultQuota keeps well inside ComicVine's 200 requests per resource per hour.
var DefaultQuota = ratelimit.Quota{RPS: 0.5, Burst: 2}

// envelope is decoded in two steps: error bodies carry an empty array in
// results even where a single object is expected.
type envelope struct {
	Error      string          `json:"error"`
	StatusCode int             `json:"status_code"`
	Results    json.RawMessage `json:"results"`
}

type rawVolume struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	CountOfIssues   int       `json:"count_of_issues"`
	StartYear       string    `json:"start_year"`
	Image           *rawImage `json:"image"`
	DateLastUpdated string    `json:"date_last_updated"`
	Deck            string    `json:"deck"`
	Description     string    `json:"description"`
}

type rawImage struct {
	MediumURL   string `json:"medium_url"`
	OriginalURL string `json:"original_url"`
}

// Provider fetches comic volume metadata.
type Provider struct {
	fetcher *metadata.Fetcher
	apiKey  string
	now     func() time.Time
}

// New creates a ComicVine provider.
func New(f *metadata.Fetcher, apiKey string) *Provider {
	return &Provider{fetcher: f, apiKey: apiKey, now: time.Now}
}

// Name implements metadata.Provider.
func (p *Provider) Name() string { return Name }

// Fetch implements metadata.Provider.
func (p *Provider) Fetch(ctx context.Context, externalID domain.ExternalID) (*domain.MediaRecord, error) {
	id := strings.TrimSpace(externalID.String())
	if _, err := strconv.Atoi(id); err != nil {
		return nil, metadata.WrapError("fetch", Name, externalID, fmt.Errorf("%w: non-numeric id", metadata.ErrBadRequest))
	}

	var vol rawVolume
	path := "/volume/" + volumeTypeID + "-" + url.PathEscape(id) + "/"
	if err := p.get(ctx, path, url.Values{"field_list": {volumeFields}}, &vol); err != nil {
		return nil, metadata.WrapError("fetch", Name, externalID, err)
	}
	if vol.ID == 0 || strings.TrimSpace(vol.Name) == "" {
		return nil, metadata.WrapError("fetch", Name, externalID, fmt.Errorf("%w: missing volume", metadata.ErrBadPayload))
	}

	r := toRecord(&vol)
	r.Status = p.deriveStatus(vol.DateLastUpdated)
	return r, nil
}

// Search implements metadata.Provider. Search results leave status Unknown so
// the first read refetches the volume and derives it.
func (p *Provider) Search(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error) {
	q := url.Values{
		"resources": {"volume"},
		"query":     {query},
		"limit":     {strconv.Itoa(metadata.ClampLimit(limit))},
	}

	var volumes []rawVolume
	if err := p.get(ctx, "/search/", q, &volumes); err != nil {
		return nil, metadata.WrapError("search", Name, "", err)
	}

	candidates := make([]domain.SearchCandidate, 0, len(volumes))
	for i := range volumes {
		if volumes[i].ID == 0 {
			continue
		}
		candidates = append(candidates, domain.CandidateFromRecord(toRecord(&volumes[i])))
	}
	return candidates, nil
}

// get performs the request and decodes results into out once the body
// status says the call succeeded.
func (p *Provider) get(ctx context.Context, path string, q url.Values, out any) error {
	var resp envelope
	if err := p.fetcher.GetJSON(ctx, path, p.query(q), &resp); err != nil {
		return err
	}
	if err := checkStatus(resp.StatusCode, resp.Error); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Results, out); err != nil {
		return fmt.Errorf("%w: %w", metadata.ErrBadPayload, err)
	}
	return nil
}

func (p *Provider) query(q url.Values) url.Values {
	q.Set("format", "json")
	if p.apiKey != "" {
		q.Set("api_key", p.apiKey)
	}
	return q
}

// deriveStatus reports "Publishing" for volumes updated within the last
// year, "Finished" for older ones and "Unknown" when the date is missing.
func (p *Provider) deriveStatus(lastUpdated string) string {
	t := metadata.ParseTimestamp(lastUpdated)
	if t.IsZero() {
		return domain.UnknownStatus
	}
	if p.now().Sub(t) <= publishingWindow {
		return "Publishing"
	}
	return "Finished"
}

func checkStatus(code int, msg string) error {
	switch code {
	case statusOK:
		return nil
	case statusNotFound:
		return metadata.ErrNotFound
	default:
		return fmt.Errorf("%w: status_code %d: %s", metadata.ErrBadPayload, code, msg)
	}
}

func toRecord(v *rawVolume) *domain.MediaRecord {
	r := &domain.MediaRecord{
		MediaType:  domain.MediaComic,
		ExternalID: domain.ExternalID(strconv.Itoa(v.ID)),
		Title:      normalize.Title(v.Name),
		Year:       metadata.YearFromDate(v.StartYear),
		Released:   v.CountOfIssues,
		Synopsis:   synopsis(v),
	}
	if v.Image != nil {
		r.ImageURL = v.Image.MediumURL
	}
	r.ApplyDefaults()
	return r
}

// synopsis prefers the plain-text deck over the HTML description.
func synopsis(v *rawVolume) string {
	if deck := strings.TrimSpace(v.Deck); deck != "" {
		return normalize.StripHTML(deck)
	}
	return normalize.HTMLToMarkdown(v.Description)
}

var _ metadata.Provider = (*Provider)(nil)
