package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	"github.com/mediashelf/mediashelf-server/internal/metadata"
	"github.com/mediashelf/mediashelf-server/internal/ratelimit"
)

const breakingBad = `{
	"id":1396,
	"name":"Breaking Bad",
	"first_air_date":"2008-01-20",
	"poster_path":"/ggFHVNu6YYI5L9pCfOacjizRGt.jpg",
	"number_of_episodes":62,
	"status":"Ended",
	"overview":"A chemistry teacher diagnosed with cancer."
}`

const searchResults = `{"page":1,"results":[
	{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20","poster_path":"/bb.jpg"},
	{"id":0,"name":"ignored"},
	{"id":1397,"name":"Breaking Bad: Extras","first_air_date":""},
	{"id":1398,"name":"Third"}
]}`

func setupTestProvider(t *testing.T, apiKey string) *Provider {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/tv/1396":
			w.Write([]byte(breakingBad)) //nolint:errcheck // test
		case "/search/tv":
			assert.Equal(t, "breaking bad", r.URL.Query().Get("query"))
			w.Write([]byte(searchResults)) //nolint:errcheck // test
		case "/tv/1":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	f := metadata.NewFetcher(metadata.FetcherConfig{
		Name:    t.Name(),
		BaseURL: srv.URL,
		Timeout: time.Second,
		Quota:   ratelimit.Quota{RPS: 1000, Burst: 100},
	}, ratelimit.New(1000, 100), nil)

	return New(f, apiKey)
}

func TestProvider_Fetch(t *testing.T) {
	p := setupTestProvider(t, "key")

	r, err := p.Fetch(context.Background(), "1396")
	require.NoError(t, err)

	assert.Equal(t, domain.MediaShow, r.MediaType)
	assert.Equal(t, "Breaking Bad", r.Title)
	assert.Equal(t, PosterBaseURL+"/ggFHVNu6YYI5L9pCfOacjizRGt.jpg", r.ImageURL)
	assert.Equal(t, 2008, r.Year)
	assert.Equal(t, 62, r.Released)
	assert.Equal(t, "Ended", r.Status)
	assert.Equal(t, "A chemistry teacher diagnosed with cancer.", r.Synopsis)
}

func TestProvider_FetchFailures(t *testing.T) {
	p := setupTestProvider(t, "key")

	_, err := p.Fetch(context.Background(), "1")
	assert.ErrorIs(t, err, metadata.ErrServer)
	assert.ErrorIs(t, err, metadata.ErrUpstreamUnavailable)

	_, err = p.Fetch(context.Background(), "999")
	assert.ErrorIs(t, err, metadata.ErrNotFound)

	_, err = p.Fetch(context.Background(), "tt0903747")
	assert.ErrorIs(t, err, metadata.ErrBadRequest)
}

func TestProvider_FetchWithoutKey(t *testing.T) {
	p := setupTestProvider(t, "")

	_, err := p.Fetch(context.Background(), "1396")
	assert.ErrorIs(t, err, metadata.ErrUpstreamUnavailable)
}

func TestProvider_Search(t *testing.T) {
	p := setupTestProvider(t, "key")

	results, err := p.Search(context.Background(), "breaking bad", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, domain.ExternalID("1396"), results[0].ExternalID)
	assert.Equal(t, PosterBaseURL+"/bb.jpg", results[0].ImageURL)
	assert.Equal(t, domain.FlexInt(2008), results[0].Year)
	assert.Equal(t, domain.UnknownStatus, results[0].Status)

	assert.Equal(t, domain.ExternalID("1397"), results[1].ExternalID)
	assert.Equal(t, domain.FlexInt(0), results[1].Year)
	assert.Equal(t, domain.PlaceholderImageURL, results[1].ImageURL)
}
