package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/listenupapp/readup-server/internal/domain"
	domainerrors "github.com/listenupapp/readup-server/internal/errors"
	"github.com/listenupapp/readup-server/internal/store"
)

// ReadProgressStore is the storage needed to record reading positions.
type ReadProgressStore interface {
	store.ReadProgressStore
	GetBook(ctx context.Context, id string) (*domain.Book, error)
}

// ReadProgressService records where users are in their books.
type ReadProgressService struct {
	store  ReadProgressStore
	logger *slog.Logger
}

// NewReadProgressService creates a new read progress service.
func NewReadProgressService(s ReadProgressStore, logger *slog.Logger) *ReadProgressService {
	return &ReadProgressService{store: s, logger: logger}
}

// MarkProgress stores the user's page in a book. The record's creation time
// is kept across updates.
func (s *ReadProgressService) MarkProgress(ctx context.Context, userID, bookID string, page int, completed bool) (*domain.ReadProgress, error) {
	if userID == "" {
		return nil, domainerrors.Validation("user is required")
	}
	if page < 0 {
		return nil, domainerrors.Validationf("page must not be negative, got %d", page)
	}
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, storeError(err, "get book "+bookID)
	}

	now := time.Now()
	progress := &domain.ReadProgress{
		BookID:    bookID,
		UserID:    userID,
		Page:      page,
		Completed: completed,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, err := s.store.GetReadProgress(ctx, bookID, userID); err == nil {
		progress.CreatedAt = existing.CreatedAt
	} else if !domainerrors.Is(err, store.ErrNotFound) {
		return nil, storeError(err, "get read progress")
	}

	if err := s.store.SaveReadProgress(ctx, progress); err != nil {
		return nil, storeError(err, "save read progress")
	}

	s.logger.Debug("marked read progress",
		"user_id", userID,
		"book_id", bookID,
		"page", page,
		"completed", completed,
	)
	return progress, nil
}

// ClearProgress forgets the user's position in a book, making it unread.
func (s *ReadProgressService) ClearProgress(ctx context.Context, userID, bookID string) error {
	if err := s.store.DeleteReadProgress(ctx, bookID, userID); err != nil {
		return storeError(err, "delete read progress")
	}
	return nil
}
