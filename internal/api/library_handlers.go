package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/readup-server/internal/errors"
	"github.com/listenupapp/readup-server/internal/scanner"
	"github.com/listenupapp/readup-server/internal/store"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "scanLibrary",
		Method:      http.MethodPost,
		Path:        "/api/v1/libraries/{id}/scan",
		Summary:     "Scan library",
		Description: "Rescans the library roots and reconciles stored sidecar files",
		Tags:        []string{"Libraries"},
		Security:    []map[string][]string{{"user": {}}},
	}, s.handleScanLibrary)
}

// ScanLibraryInput contains parameters for scanning a library.
type ScanLibraryInput struct {
	ID string `path:"id" doc:"Library ID"`
}

// ScanLibraryOutput wraps the scan result for Huma.
type ScanLibraryOutput struct {
	Body *scanner.Result
}

func (s *Server) handleScanLibrary(ctx context.Context, input *ScanLibraryInput) (*ScanLibraryOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, apiError(err)
	}

	library, err := s.store.GetLibrary(ctx, input.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apiError(domainerrors.NotFoundf("library %s not found", input.ID))
	}
	if err != nil {
		return nil, apiError(err)
	}

	result, err := s.services.Scanner.Scan(ctx, library)
	if err != nil {
		s.logger.Error("library scan failed", "library_id", library.ID, "error", err)
		return nil, apiError(domainerrors.Wrap(err, domainerrors.CodeUnavailable, "library scan failed"))
	}

	s.logger.Info("library scan complete",
		"library_id", library.ID,
		"added", result.Added,
		"updated", result.Updated,
		"removed", result.Removed,
	)
	return &ScanLibraryOutput{Body: result}, nil
}
