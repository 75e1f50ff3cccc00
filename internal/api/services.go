package api

import (
	"github.com/mediashelf/mediashelf-server/internal/service"
)

// Services groups the business logic services used by the API server.
type Services struct {
	MediaCache *service.MediaCacheService // Cached reads, seeds and upstream search
	Search     *service.SearchService     // Local catalog search
}
