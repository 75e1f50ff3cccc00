package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/mediashelf/mediashelf-server/internal/metrics"
	"github.com/mediashelf/mediashelf-server/internal/ratelimit"
)

const (
	// DefaultTimeout bounds one upstream call including rate-limit waits.
	DefaultTimeout = 10 * time.Second

	userAgent = "MediaShelf/1.0"

	// Responses larger than this are treated as malformed.
	maxBodyBytes = 4 << 20

	// Circuit breaker settings.
	breakerMaxHalfOpen    = 1
	breakerInterval       = time.Minute
	breakerOpenTimeout    = 30 * time.Second
	breakerTripAfterFails = 5
)

// FetcherConfig configures one provider's HTTP access.
type FetcherConfig struct {
	Name    string // provider name; also the rate-limit and breaker key
	BaseURL string
	Timeout time.Duration
	Quota   ratelimit.Quota
	// Header is added to every request (API key headers, for example).
	Header http.Header
}

// Fetcher performs rate-limited, circuit-broken JSON GETs against one provider.
type Fetcher struct {
	name    string
	baseURL string
	timeout time.Duration
	header  http.Header
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// NewFetcher creates a Fetcher. limiter may be shared across providers;
// the provider name is the limiter key.
func NewFetcher(cfg FetcherConfig, limiter *ratelimit.KeyedRateLimiter, logger *slog.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if limiter == nil {
		limiter = ratelimit.New(1, 1)
	}
	if cfg.Quota.RPS > 0 {
		limiter.SetQuota(cfg.Name, cfg.Quota)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("provider", cfg.Name))

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: breakerMaxHalfOpen,
		Interval:    breakerInterval,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfterFails
		},
		// A missing item or a client error says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadRequest)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &Fetcher{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		header:  cfg.Header,
		http:    &http.Client{},
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
	}
}

// Name returns the provider name.
func (f *Fetcher) Name() string {
	return f.name
}

// GetJSON requests baseURL+path and decodes the JSON body into out.
// The whole call, including the rate-limit wait, is bounded by the timeout.
func (f *Fetcher) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx, f.name); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := f.breaker.Execute(func() ([]byte, error) {
		return f.doRequest(ctx, path, query)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordUpstream(f.name, "rejected")
			return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		metrics.RecordUpstream(f.name, "failure")
		return err
	}
	metrics.RecordUpstream(f.name, "success")

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	return nil
}

func (f *Fetcher) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := f.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, values := range f.header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	f.logger.Debug("upstream request", "path", path)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return nil, ErrBadRequest
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	default:
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
