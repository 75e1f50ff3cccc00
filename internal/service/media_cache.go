package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	domainerrors "github.com/mediashelf/mediashelf-server/internal/errors"
	"github.com/mediashelf/mediashelf-server/internal/freshness"
	"github.com/mediashelf/mediashelf-server/internal/logger"
	"github.com/mediashelf/mediashelf-server/internal/metadata"
	"github.com/mediashelf/mediashelf-server/internal/metrics"
	"github.com/mediashelf/mediashelf-server/internal/store"
)

// MediaStore is the cache persistence the orchestrator needs.
type MediaStore interface {
	GetMedia(ctx context.Context, t domain.MediaType, externalID domain.ExternalID) (*domain.MediaRecord, error)
	UpsertMedia(ctx context.Context, record *domain.MediaRecord) (*domain.MediaRecord, error)
}

// ProviderLookup resolves the upstream provider for a media type.
type ProviderLookup interface {
	Lookup(t domain.MediaType) (metadata.Provider, error)
}

// maxDisplayConcurrency bounds parallel reads in GetManyForDisplay.
const maxDisplayConcurrency = 4

// MediaCacheService serves normalized media records from the cache,
// refreshing them from upstream providers when the freshness policy says so.
//
// Reads never overwrite a cached record unless a provider fetch succeeded.
// Concurrent refreshes of the same key share one provider call.
type MediaCacheService struct {
	store     MediaStore
	providers ProviderLookup
	policy    *freshness.Policy
	logger    *logger.Logger

	inflight singleflight.Group
}

// NewMediaCacheService creates a new media cache service.
func NewMediaCacheService(
	store MediaStore,
	providers ProviderLookup,
	policy *freshness.Policy,
	log *logger.Logger,
) *MediaCacheService {
	return &MediaCacheService{
		store:     store,
		providers: providers,
		policy:    policy,
		logger:    log,
	}
}

// GetCachedMedia returns the record for (t, externalID).
//
// A fresh cached record is returned without any provider call. Otherwise the
// provider is asked for current data and the result is written back. If the
// provider fails, a stale cached record is served unchanged; with nothing
// cached the call fails with errors.ErrMediaUnavailable.
func (s *MediaCacheService) GetCachedMedia(ctx context.Context, t domain.MediaType, externalID domain.ExternalID) (*domain.MediaRecord, error) {
	if !t.Valid() {
		return nil, domainerrors.UnsupportedMediaTypef("unsupported media type %q", t)
	}
	externalID = domain.ExternalID(strings.TrimSpace(string(externalID)))
	if externalID.IsZero() {
		return nil, domainerrors.ErrMissingExternalID
	}

	log := s.logger.WithMedia(string(t), string(externalID))

	cached, err := s.store.GetMedia(ctx, t, externalID)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		cached = nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		// Treat an unreadable record as absent and try upstream.
		log.WithError(err).Warn("cache lookup failed")
		cached = nil
	}

	if s.policy.IsFresh(cached) {
		metrics.RecordRead(string(t), metrics.OutcomeHit)
		log.Debug("cache hit")
		return cached, nil
	}

	outcome := metrics.OutcomeMiss
	if cached != nil {
		outcome = metrics.OutcomeStale
		log.Debug("cache stale, refreshing", "age", s.policy.Age(cached))
	} else {
		log.Debug("cache miss, fetching")
	}

	// The shared refresh outlives any single caller's cancellation; the
	// provider timeout bounds it.
	refreshCtx := context.WithoutCancel(ctx)
	var led bool
	v, err, shared := s.inflight.Do(domain.MediaKey(t, externalID), func() (any, error) {
		led = true
		return s.refresh(refreshCtx, t, externalID, log)
	})
	// shared is also set for the caller that ran the refresh.
	if shared && !led {
		metrics.CacheSharedRefreshes.WithLabelValues(string(t)).Inc()
	}

	if err == nil {
		metrics.RecordRead(string(t), outcome)
		record := *v.(*domain.MediaRecord)
		return &record, nil
	}

	if cached != nil {
		metrics.RecordRead(string(t), metrics.OutcomeStaleServe)
		log.WithError(err).Warn("refresh failed, serving stale record",
			"age", s.policy.Age(cached),
		)
		return cached, nil
	}

	metrics.RecordRead(string(t), metrics.OutcomeUnavailable)
	if !errors.Is(err, metadata.ErrUpstreamUnavailable) {
		return nil, err
	}
	log.WithError(err).Warn("media unavailable from cache and upstream")
	return nil, domainerrors.ErrMediaUnavailable.WithCause(err)
}

// refresh fetches (t, externalID) from its provider and writes it to the store.
// A failed write is logged and the fetched record is still returned.
func (s *MediaCacheService) refresh(ctx context.Context, t domain.MediaType, externalID domain.ExternalID, log *logger.Logger) (*domain.MediaRecord, error) {
	provider, err := s.providers.Lookup(t)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	fetched, err := provider.Fetch(ctx, externalID)
	if err == nil && fetched == nil {
		err = metadata.WrapError("fetch", provider.Name(), externalID, metadata.ErrBadPayload)
	}
	metrics.RecordRefresh(string(t), time.Since(start), err)
	if err != nil {
		return nil, err
	}

	// The cache key is the caller's, whatever the provider echoes back.
	fetched.MediaType = t
	fetched.ExternalID = externalID

	stored, err := s.store.UpsertMedia(ctx, fetched)
	if err != nil {
		log.WithError(err).Warn("failed to cache refreshed record")
		fetched.ApplyDefaults()
		fetched.LastRefreshedAt = time.Now().UTC()
		return fetched, nil
	}

	log.Debug("refreshed from provider", "provider", provider.Name())
	return stored, nil
}

// CacheFromSearch seeds the cache from metadata the caller already has.
//
// The candidate must carry an external id under one of its aliases. If the
// existing record is still fresh it is returned unchanged; otherwise the
// normalized candidate overwrites it. No provider is called.
func (s *MediaCacheService) CacheFromSearch(ctx context.Context, t domain.MediaType, candidate *domain.SearchCandidate) (*domain.MediaRecord, error) {
	if !t.Valid() {
		return nil, domainerrors.UnsupportedMediaTypef("unsupported media type %q", t)
	}
	if candidate == nil {
		return nil, domainerrors.ErrMissingExternalID
	}

	record, err := candidate.Normalize(t)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithMedia(string(t), string(record.ExternalID))

	existing, err := s.store.GetMedia(ctx, t, record.ExternalID)
	switch {
	case err == nil:
		if s.policy.IsFresh(existing) {
			metrics.RecordSeed(string(t), metrics.SeedSkipped)
			log.Debug("seed skipped, cached record is fresh")
			return existing, nil
		}
	case errors.Is(err, store.ErrNotFound):
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		log.WithError(err).Warn("cache lookup failed before seed")
	}

	stored, err := s.store.UpsertMedia(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", record.Key(), err)
	}

	metrics.RecordSeed(string(t), metrics.SeedWritten)
	log.Debug("seeded cache from search result")
	return stored, nil
}

// SearchUpstream queries the provider for t and returns its candidates.
// Nothing is cached; callers seed the one the user picks.
func (s *MediaCacheService) SearchUpstream(ctx context.Context, t domain.MediaType, query string, limit int) ([]domain.SearchCandidate, error) {
	if !t.Valid() {
		return nil, domainerrors.UnsupportedMediaTypef("unsupported media type %q", t)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domainerrors.Validation("search query is required")
	}

	provider, err := s.providers.Lookup(t)
	if err != nil {
		return nil, err
	}

	candidates, err := provider.Search(ctx, query, metadata.ClampLimit(limit))
	if err != nil {
		s.logger.WithProvider(provider.Name()).WithError(err).Warn("upstream search failed",
			"media_type", t,
			"query", query,
		)
		return nil, domainerrors.Wrap(err, domainerrors.CodeMediaUnavailable, "upstream search failed")
	}

	if candidates == nil {
		candidates = []domain.SearchCandidate{}
	}
	return candidates, nil
}

// GetManyForDisplay reads every id, substituting a placeholder record for any
// that is unavailable so one failure never blocks the list. Results keep the
// order of ids.
func (s *MediaCacheService) GetManyForDisplay(ctx context.Context, t domain.MediaType, ids []domain.ExternalID) ([]*domain.MediaRecord, error) {
	if !t.Valid() {
		return nil, domainerrors.UnsupportedMediaTypef("unsupported media type %q", t)
	}

	records := make([]*domain.MediaRecord, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxDisplayConcurrency)
	for i, externalID := range ids {
		g.Go(func() error {
			record, err := s.GetCachedMedia(gctx, t, externalID)
			switch {
			case err == nil:
				records[i] = record
			case errors.Is(err, domainerrors.ErrMediaUnavailable), errors.Is(err, domainerrors.ErrMissingExternalID):
				records[i] = domain.PlaceholderRecord(t, externalID)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}

// Policy returns the freshness policy the service applies.
func (s *MediaCacheService) Policy() *freshness.Policy {
	return s.policy
}
