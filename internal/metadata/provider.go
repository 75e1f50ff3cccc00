// Package metadata defines the upstream provider contract and the shared
// HTTP plumbing the provider adapters are built on.
package metadata

import (
	"context"

	"github.com/mediashelf/mediashelf-server/internal/domain"
)

// Provider fetches metadata for one media type from one upstream source.
//
// Every error a Provider returns matches ErrUpstreamUnavailable. Fetch
// returns a record with defaults applied; the caller stamps LastRefreshedAt.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, externalID domain.ExternalID) (*domain.MediaRecord, error)
	Search(ctx context.Context, query string, limit int) ([]domain.SearchCandidate, error)
}

// Search result limits.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 25
)

// ClampLimit bounds a caller-supplied search limit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSearchLimit
	case limit > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return limit
	}
}
