package metadata

import (
	"slices"
	"sync"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	domainerrors "github.com/mediashelf/mediashelf-server/internal/errors"
)

// Registry maps each media type to its provider.
type Registry struct {
	mu        sync.RWMutex
	providers map[domain.MediaType]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[domain.MediaType]Provider)}
}

// Register sets the provider for t, replacing any previous one.
func (r *Registry) Register(t domain.MediaType, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[t] = p
}

// Lookup returns the provider for t, or ErrUnsupportedMediaType.
func (r *Registry) Lookup(t domain.MediaType) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[t]
	if !ok {
		return nil, domainerrors.UnsupportedMediaTypef("no provider registered for media type %q", t)
	}
	return p, nil
}

// Types returns the registered media types in canonical order.
func (r *Registry) Types() []domain.MediaType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]domain.MediaType, 0, len(r.providers))
	for _, t := range domain.AllMediaTypes() {
		if _, ok := r.providers[t]; ok {
			types = append(types, t)
		}
	}
	return slices.Clip(types)
}
