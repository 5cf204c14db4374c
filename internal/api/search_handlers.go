package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/readup-server/internal/errors"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "rebuildSearchIndex",
		Method:      http.MethodPost,
		Path:        "/api/v1/search/rebuild",
		Summary:     "Rebuild search index",
		Description: "Rebuilds the full-text index from the database. Searches keep using the old index until the new one is ready.",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"user": {}}},
	}, s.handleRebuildSearchIndex)
}

// RebuildResponse reports a completed rebuild.
type RebuildResponse struct {
	Documents uint64 `json:"documents" doc:"Documents in the new index"`
	TookMs    int64  `json:"took_ms" doc:"Rebuild duration in milliseconds"`
}

// RebuildOutput wraps the rebuild response for Huma.
type RebuildOutput struct {
	Body RebuildResponse
}

func (s *Server) handleRebuildSearchIndex(ctx context.Context, _ *struct{}) (*RebuildOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, apiError(err)
	}

	start := time.Now()
	if err := s.services.Search.ReindexAll(ctx); err != nil {
		s.logger.Error("search rebuild failed", "error", err)
		return nil, apiError(domainerrors.Wrap(err, domainerrors.CodeUnavailable, "search index rebuild failed"))
	}

	count, err := s.services.Search.DocumentCount()
	if err != nil {
		return nil, apiError(domainerrors.Wrap(err, domainerrors.CodeUnavailable, "search index unreachable"))
	}

	return &RebuildOutput{Body: RebuildResponse{
		Documents: count,
		TookMs:    time.Since(start).Milliseconds(),
	}}, nil
}
