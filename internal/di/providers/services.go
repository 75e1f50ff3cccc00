package providers

import (
	"github.com/samber/do/v2"

	"github.com/mediashelf/mediashelf-server/internal/config"
	"github.com/mediashelf/mediashelf-server/internal/freshness"
	"github.com/mediashelf/mediashelf-server/internal/logger"
	"github.com/mediashelf/mediashelf-server/internal/metadata"
	"github.com/mediashelf/mediashelf-server/internal/service"
)

// ProvideFreshnessPolicy provides the cache freshness policy.
func ProvideFreshnessPolicy(i do.Injector) (*freshness.Policy, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return freshness.NewPolicy(
		cfg.Cache.FreshnessWindow,
		cfg.Cache.PermanentTypes,
		cfg.Cache.RetryIncompleteTypes,
	), nil
}

// ProvideMediaCacheService provides the media cache orchestrator.
func ProvideMediaCacheService(i do.Injector) (*service.MediaCacheService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	registry := do.MustInvoke[*metadata.Registry](i)
	policy := do.MustInvoke[*freshness.Policy](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMediaCacheService(storeHandle.Store, registry, policy, log.Component("media_cache")), nil
}
