package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Component health states.
const (
	healthHealthy   = "healthy"
	healthDegraded  = "degraded"
	healthUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
	Count   *int64 `json:"count,omitempty" doc:"Records or documents held by the component"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Version    string                     `json:"version,omitempty" doc:"Server version"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"search":   s.checkSearchIndex(),
	}

	overall := healthHealthy
	for _, c := range components {
		switch c.Status {
		case healthUnhealthy:
			overall = healthUnhealthy
		case healthDegraded:
			if overall == healthHealthy {
				overall = healthDegraded
			}
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Version:    s.version,
			Components: components,
		},
	}, nil
}

// checkDatabase verifies BadgerDB is readable.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{
			Status:  healthDegraded,
			Message: "database not configured",
		}
	}

	start := time.Now()
	n, err := s.store.CountMedia(ctx, "")
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  healthUnhealthy,
			Latency: latency.String(),
			Message: "database read failed",
		}
	}

	count := int64(n)
	return ComponentHealth{
		Status:  healthHealthy,
		Latency: latency.String(),
		Count:   &count,
	}
}

// checkSearchIndex verifies the Bleve index is accessible.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.services == nil || s.services.Search == nil {
		return ComponentHealth{
			Status:  healthDegraded,
			Message: "search service not configured",
		}
	}

	start := time.Now()
	docCount, err := s.services.Search.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  healthUnhealthy,
			Latency: latency.String(),
			Message: "search index unreachable",
		}
	}

	count := int64(docCount) //nolint:gosec // document counts fit in int64
	if docCount == 0 {
		return ComponentHealth{
			Status:  healthDegraded,
			Latency: latency.String(),
			Message: "search index empty",
			Count:   &count,
		}
	}

	return ComponentHealth{
		Status:  healthHealthy,
		Latency: latency.String(),
		Count:   &count,
	}
}
