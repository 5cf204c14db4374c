package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readup-server/internal/domain"
)

func (s *Server) registerReadProgressRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "markReadProgress",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}/read-progress",
		Summary:     "Mark read progress",
		Description: "Records the user's current page in a book and whether it is completed",
		Tags:        []string{"Read Progress"},
		Security:    []map[string][]string{{"user": {}}},
	}, s.handleMarkReadProgress)

	huma.Register(s.api, huma.Operation{
		OperationID:   "clearReadProgress",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}/read-progress",
		Summary:       "Clear read progress",
		Description:   "Forgets the user's progress so the book is unread again",
		Tags:          []string{"Read Progress"},
		Security:      []map[string][]string{{"user": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleClearReadProgress)
}

// === DTOs ===

// ReadProgressRequest is the body of a progress update.
type ReadProgressRequest struct {
	Page      int  `json:"page" validate:"gte=0" doc:"Current page, zero when not started"`
	Completed bool `json:"completed" doc:"Whether the book has been read to the end"`
}

// MarkReadProgressInput contains parameters for marking progress.
type MarkReadProgressInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body ReadProgressRequest
}

// ReadProgressOutput wraps the stored progress for Huma.
type ReadProgressOutput struct {
	Body *domain.ReadProgress
}

// ClearReadProgressInput contains parameters for clearing progress.
type ClearReadProgressInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// === Handlers ===

func (s *Server) handleMarkReadProgress(ctx context.Context, input *MarkReadProgressInput) (*ReadProgressOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, apiError(err)
	}

	progress, err := s.services.Progress.MarkProgress(ctx, userID, input.ID, input.Body.Page, input.Body.Completed)
	if err != nil {
		return nil, apiError(err)
	}
	return &ReadProgressOutput{Body: progress}, nil
}

func (s *Server) handleClearReadProgress(ctx context.Context, input *ClearReadProgressInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	if err := s.services.Progress.ClearProgress(ctx, userID, input.ID); err != nil {
		return nil, apiError(err)
	}
	return nil, nil
}
