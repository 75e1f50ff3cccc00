// Package static is the provider for media types with no live upstream
// (movies, books, games). Records of these types enter the cache only by
// seeding and are never refreshed.
package static

import (
	"context"

	"github.com/mediashelf/mediashelf-server/internal/domain"
	"github.com/mediashelf/mediashelf-server/internal/metadata"
)

// Name is the provider name.
const Name = "static"

// Provider never touches the network.
type Provider struct{}

// New creates a static provider.
func New() Provider { return Provider{} }

// Name implements metadata.Provider.
func (Provider) Name() string { return Name }

// Fetch always fails with ErrNoLiveProvider, so a read of an uncached item
// surfaces as unavailable and a cached one is served as-is.
func (Provider) Fetch(_ context.Context, externalID domain.ExternalID) (*domain.MediaRecord, error) {
	return nil, metadata.WrapError("fetch", Name, externalID, metadata.ErrNoLiveProvider)
}

// Search returns no candidates.
func (Provider) Search(context.Context, string, int) ([]domain.SearchCandidate, error) {
	return nil, nil
}

var _ metadata.Provider = Provider{}
