package providers

import (
	"github.com/samber/do/v2"

	"github.com/mediashelf/mediashelf-server/internal/config"
	"github.com/mediashelf/mediashelf-server/internal/domain"
	"github.com/mediashelf/mediashelf-server/internal/logger"
	"github.com/mediashelf/mediashelf-server/internal/metadata"
	"github.com/mediashelf/mediashelf-server/internal/metadata/comicvine"
	"github.com/mediashelf/mediashelf-server/internal/metadata/jikan"
	"github.com/mediashelf/mediashelf-server/internal/metadata/static"
	"github.com/mediashelf/mediashelf-server/internal/metadata/tmdb"
	"github.com/mediashelf/mediashelf-server/internal/ratelimit"
)

// ProvideRateLimiter provides the limiter shared by every upstream provider.
// Each provider sets its own quota under its name.
func ProvideRateLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	return ratelimit.New(1, 1), nil
}

// ProvideProviderRegistry maps every media type to its upstream provider.
// Types whose provider needs an API key fall back to the static provider
// when none is configured.
func ProvideProviderRegistry(i do.Injector) (*metadata.Registry, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	limiter := do.MustInvoke[*ratelimit.KeyedRateLimiter](i)

	providerLog := log.Component("metadata").Logger
	registry := metadata.NewRegistry()

	jikanFetcher := metadata.NewFetcher(metadata.FetcherConfig{
		Name:    jikan.Name,
		BaseURL: cfg.Providers.Jikan.BaseURL,
		Timeout: cfg.Providers.Timeout,
		Quota:   jikan.DefaultQuota,
	}, limiter, providerLog)
	registry.Register(domain.MediaAnime, jikan.NewAnime(jikanFetcher))
	registry.Register(domain.MediaManga, jikan.NewManga(jikanFetcher))

	if key := cfg.Providers.TMDB.APIKey; key != "" {
		tmdbFetcher := metadata.NewFetcher(metadata.FetcherConfig{
			Name:    tmdb.Name,
			BaseURL: cfg.Providers.TMDB.BaseURL,
			Timeout: cfg.Providers.Timeout,
			Quota:   tmdb.DefaultQuota,
		}, limiter, providerLog)
		registry.Register(domain.MediaShow, tmdb.New(tmdbFetcher, key))
	} else {
		log.Warn("TMDB_API_KEY not set, shows are served from cache only")
		registry.Register(domain.MediaShow, static.New())
	}

	if key := cfg.Providers.ComicVine.APIKey; key != "" {
		cvFetcher := metadata.NewFetcher(metadata.FetcherConfig{
			Name:    comicvine.Name,
			BaseURL: cfg.Providers.ComicVine.BaseURL,
			Timeout: cfg.Providers.Timeout,
			Quota:   comicvine.DefaultQuota,
		}, limiter, providerLog)
		registry.Register(domain.MediaComic, comicvine.New(cvFetcher, key))
	} else {
		log.Warn("COMICVINE_API_KEY not set, comics are served from cache only")
		registry.Register(domain.MediaComic, static.New())
	}

	for _, t := range []domain.MediaType{domain.MediaMovie, domain.MediaBook, domain.MediaGame} {
		registry.Register(t, static.New())
	}

	log.Info("Metadata providers registered", "media_types", len(registry.Types()))

	return registry, nil
}
