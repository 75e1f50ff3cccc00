package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediashelf/mediashelf-server/internal/ratelimit"
)

type payload struct {
	Title string `json:"title"`
}

func newTestFetcher(t *testing.T, name string, handler http.HandlerFunc, timeout time.Duration) (*Fetcher, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(FetcherConfig{
		Name:    name,
		BaseURL: srv.URL,
		Timeout: timeout,
		Quota:   ratelimit.Quota{RPS: 1000, Burst: 100},
		Header:  http.Header{"X-Api-Key": []string{"secret"}},
	}, ratelimit.New(1000, 100), nil)

	return f, &hits
}

func TestFetcher_GetJSON_Success(t *testing.T) {
	f, _ := newTestFetcher(t, "ok", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/anime/5114", r.URL.Path)
		assert.Equal(t, "full", r.URL.Query().Get("view"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"title":"Fullmetal Alchemist: Brotherhood"}`)) //nolint:errcheck // test
	}, time.Second)

	var out payload
	err := f.GetJSON(context.Background(), "/anime/5114", url.Values{"view": {"full"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "Fullmetal Alchemist: Brotherhood", out.Title)
	assert.Equal(t, "ok", f.Name())
}

func TestFetcher_GetJSON_StatusMapping(t *testing.T) {
	tests := []struct {
		status  int
		wantErr error
	}{
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusBadGateway, ErrServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			f, _ := newTestFetcher(t, "status", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}, time.Second)

			var out payload
			err := f.GetJSON(context.Background(), "/x", nil, &out)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestFetcher_GetJSON_MalformedPayload(t *testing.T) {
	f, _ := newTestFetcher(t, "malformed", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"title":`)) //nolint:errcheck // test
	}, time.Second)

	var out payload
	err := f.GetJSON(context.Background(), "/x", nil, &out)
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestFetcher_GetJSON_Timeout(t *testing.T) {
	release := make(chan struct{})
	f, _ := newTestFetcher(t, "slow", func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	start := time.Now()
	var out payload
	err := f.GetJSON(context.Background(), "/x", nil, &out)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetcher_CircuitOpensAfterRepeatedServerErrors(t *testing.T) {
	f, hits := newTestFetcher(t, "flaky", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, time.Second)

	var out payload
	for range breakerTripAfterFails {
		assert.ErrorIs(t, f.GetJSON(context.Background(), "/x", nil, &out), ErrServer)
	}

	err := f.GetJSON(context.Background(), "/x", nil, &out)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(breakerTripAfterFails), hits.Load(), "open circuit must not reach the upstream")
}

func TestFetcher_NotFoundDoesNotTripCircuit(t *testing.T) {
	f, hits := newTestFetcher(t, "missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, time.Second)

	var out payload
	for range breakerTripAfterFails + 3 {
		assert.ErrorIs(t, f.GetJSON(context.Background(), "/x", nil, &out), ErrNotFound)
	}
	assert.Equal(t, int32(breakerTripAfterFails+3), hits.Load())
}

func TestError_MatchesUpstreamUnavailable(t *testing.T) {
	err := WrapError("fetch", "jikan", "5114", ErrServer)

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, "jikan fetch [5114]: metadata: upstream server error", err.Error())

	var metaErr *Error
	require.ErrorAs(t, err, &metaErr)
	assert.Equal(t, "jikan", metaErr.Provider)

	// Wrapping twice keeps the innermost context.
	assert.Same(t, err, WrapError("search", "other", "", err))
	assert.NoError(t, WrapError("fetch", "jikan", "1", nil))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultSearchLimit, ClampLimit(0))
	assert.Equal(t, DefaultSearchLimit, ClampLimit(-3))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, MaxSearchLimit, ClampLimit(500))
}
