package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readup-server/internal/domain"
	domainerrors "github.com/listenupapp/readup-server/internal/errors"
	"github.com/listenupapp/readup-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Lists books with full-text search, read status and library filters. " +
			"The search term accepts field clauses such as author:, tag:, release_date:, status: and deleted:.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"user": {}}},
		Middlewares: s.rateLimited(),
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "listOnDeckBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/ondeck",
		Summary:     "List on-deck books",
		Description: "Returns the next unread book of every series the user has started and is not currently reading",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"user": {}}},
		Middlewares: s.rateLimited(),
	}, s.handleListOnDeck)
}

// === DTOs ===

// ListBooksInput contains parameters for listing books.
type ListBooksInput struct {
	Search     string `query:"search" maxLength:"1000" doc:"Full-text search with optional field clauses"`
	ReadStatus string `query:"read_status" doc:"Comma-separated read statuses: READ, UNREAD, IN_PROGRESS"`
	LibraryID  string `query:"library_id" doc:"Comma-separated library IDs"`
	SeriesID   string `query:"series_id" doc:"Comma-separated series IDs"`
	Page       int    `query:"page" minimum:"0" default:"0" doc:"Zero-based page number"`
	Size       int    `query:"size" minimum:"1" maximum:"500" default:"20" doc:"Page size"`
	Sort       string `query:"sort" doc:"Sort as property[,asc|desc]; relevance orders by search rank"`
	Unpaged    bool   `query:"unpaged" doc:"Return every match in one page"`
}

// OnDeckInput contains parameters for listing on-deck books.
type OnDeckInput struct {
	LibraryID string `query:"library_id" doc:"Comma-separated library IDs"`
	Page      int    `query:"page" minimum:"0" default:"0" doc:"Zero-based page number"`
	Size      int    `query:"size" minimum:"1" maximum:"500" default:"20" doc:"Page size"`
}

// BookPageResponse is one page of books with the requesting user's progress.
type BookPageResponse struct {
	Items      []domain.BookSummaryWithProgress `json:"items" doc:"Books on this page"`
	Total      int                              `json:"total" doc:"Matches across all pages"`
	Page       int                              `json:"page" doc:"Zero-based page number"`
	Size       int                              `json:"size" doc:"Page size"`
	TotalPages int                              `json:"total_pages" doc:"Number of pages"`
	Unpaged    bool                             `json:"unpaged" doc:"Whether every match was returned"`
}

// BookPageOutput wraps a book page for Huma.
type BookPageOutput struct {
	Body BookPageResponse
}

// readStatusFilter is validated with the domain read_status tag.
type readStatusFilter struct {
	ReadStatus []string `json:"read_status" validate:"dive,read_status"`
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, apiError(err)
	}

	criteria := domain.BookSearchCriteria{
		LibraryIDs: splitList(input.LibraryID),
		SeriesIDs:  splitList(input.SeriesID),
	}
	if input.Search != "" {
		term := input.Search
		criteria.SearchTerm = &term
	}

	statuses := readStatusFilter{ReadStatus: splitList(input.ReadStatus)}
	if err := s.validator.Validate(statuses); err != nil {
		return nil, apiError(err)
	}
	for _, raw := range statuses.ReadStatus {
		status, err := domain.ParseReadStatus(raw)
		if err != nil {
			return nil, apiError(domainerrors.Validation(err.Error()))
		}
		criteria.ReadStatus = append(criteria.ReadStatus, status)
	}

	page := store.PageRequest{Page: input.Page, Size: input.Size, Unpaged: input.Unpaged}
	if input.Sort != "" {
		order, err := store.ParseOrder(input.Sort)
		if err != nil {
			return nil, apiError(err)
		}
		page.Sort = store.Sort{Orders: []store.Order{order}}
	}

	result, err := s.services.Books.FindAll(ctx, criteria, userID, page)
	if err != nil {
		return nil, apiError(err)
	}
	return &BookPageOutput{Body: toBookPageResponse(result)}, nil
}

func (s *Server) handleListOnDeck(ctx context.Context, input *OnDeckInput) (*BookPageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, apiError(err)
	}

	page := store.PageOf(input.Page, input.Size)
	result, err := s.services.Books.FindAllOnDeck(ctx, userID, splitList(input.LibraryID), page)
	if err != nil {
		return nil, apiError(err)
	}
	return &BookPageOutput{Body: toBookPageResponse(result)}, nil
}

func toBookPageResponse(p *store.Page[domain.BookSummaryWithProgress]) BookPageResponse {
	return BookPageResponse{
		Items:      p.Items,
		Total:      p.Total,
		Page:       p.Page,
		Size:       p.Size,
		TotalPages: p.TotalPages(),
		Unpaged:    p.Unpaged,
	}
}

// splitList splits a comma-separated query value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
