package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Component and overall health states.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports whether the database and the search index answer",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Time the probe took"`
	Message string `json:"message,omitempty" doc:"Why the component is not healthy"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Worst status among the components"`
	Components map[string]ComponentHealth `json:"components" doc:"Per-component status"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	resp := HealthResponse{
		Status: StatusHealthy,
		Components: map[string]ComponentHealth{
			"database": s.checkDatabase(ctx),
			"search":   s.checkSearchIndex(),
		},
	}
	for _, c := range resp.Components {
		if severity(c.Status) > severity(resp.Status) {
			resp.Status = c.Status
		}
	}
	return &HealthOutput{Body: resp}, nil
}

func severity(status string) int {
	switch status {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

// probe times fn. A failing fn makes the component unhealthy with failMsg.
func probe(fn func() error, failMsg string) ComponentHealth {
	start := time.Now()
	err := fn()
	h := ComponentHealth{Status: StatusHealthy, Latency: time.Since(start).String()}
	if err != nil {
		h.Status = StatusUnhealthy
		h.Message = failMsg
	}
	return h
}

func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: StatusDegraded, Message: "database not configured"}
	}
	return probe(func() error { return s.store.Ping(ctx) }, "database ping failed")
}

func (s *Server) checkSearchIndex() ComponentHealth {
	if s.services == nil || s.services.Search == nil {
		return ComponentHealth{Status: StatusDegraded, Message: "search service not configured"}
	}

	var docs uint64
	h := probe(func() error {
		var err error
		docs, err = s.services.Search.DocumentCount()
		return err
	}, "search index unreachable")

	// Empty on a fresh install and while a rebuild has not finished.
	if h.Status == StatusHealthy && docs == 0 {
		h.Status = StatusDegraded
		h.Message = "search index empty"
	}
	return h
}
