// Package di provides dependency injection configuration for the MediaShelf server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/mediashelf/mediashelf-server/internal/config"
	"github.com/mediashelf/mediashelf-server/internal/di/providers"
	"github.com/mediashelf/mediashelf-server/internal/freshness"
	"github.com/mediashelf/mediashelf-server/internal/logger"
	"github.com/mediashelf/mediashelf-server/internal/metadata"
	"github.com/mediashelf/mediashelf-server/internal/ratelimit"
	"github.com/mediashelf/mediashelf-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Metadata layer
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideProviderRegistry)

	// Business services
	do.Provide(injector, providers.ProvideFreshnessPolicy)
	do.Provide(injector, providers.ProvideMediaCacheService)

	// Workers
	do.Provide(injector, providers.ProvideRecordGaugeJob)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// NewCacheContainer registers only what offline tools need: the store and the
// cache orchestrator, without the HTTP server or background workers.
func NewCacheContainer() *do.RootScope {
	injector := do.New()

	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideProviderRegistry)
	do.Provide(injector, providers.ProvideFreshnessPolicy)
	do.Provide(injector, providers.ProvideMediaCacheService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*ratelimit.KeyedRateLimiter](injector)
	_ = do.MustInvoke[*metadata.Registry](injector)
	_ = do.MustInvoke[*freshness.Policy](injector)
	_ = do.MustInvoke[*service.MediaCacheService](injector)

	// Workers
	_ = do.MustInvoke[*providers.RecordGaugeJob](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
