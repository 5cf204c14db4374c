// Package service implements ReadUp's application operations on top of the
// store and the search index.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/search"
	"github.com/listenupapp/readup-server/internal/store"
)

var _ store.SearchIndexer = (*SearchService)(nil)

// BookLister lists every book, soft-deleted ones included.
type BookLister interface {
	ListAllBooks(ctx context.Context) ([]*domain.Book, error)
}

// SearchService keeps the search index in sync with the store.
// It implements store.SearchIndexer.
type SearchService struct {
	index  *search.SearchIndex
	books  BookLister
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, books BookLister, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		books:  books,
		logger: logger,
	}
}

// Search resolves a parsed query to ranked book IDs.
func (s *SearchService) Search(ctx context.Context, q search.Query) ([]string, error) {
	return s.index.Search(ctx, q)
}

// IndexBook indexes a single book.
// Call this when a book is created or updated.
func (s *SearchService) IndexBook(_ context.Context, book *domain.Book) error {
	if err := s.index.IndexDocument(search.NewDocument(book)); err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	s.logger.Debug("indexed book", "id", book.ID, "title", book.Metadata.Title)
	return nil
}

// DeleteBook removes a book from the index.
func (s *SearchService) DeleteBook(_ context.Context, bookID string) error {
	return s.index.DeleteDocument(bookID)
}

// DocumentCount returns the number of indexed documents.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll rebuilds the entire search index from the store.
// Soft-deleted books stay indexed so that deleted:true can find them.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	s.logger.Info("starting full reindex")

	books, err := s.books.ListAllBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}

	docs := make([]*search.Document, 0, len(books))
	for _, book := range books {
		docs = append(docs, search.NewDocument(book))
	}

	if err := s.index.Rebuild(ctx, docs); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	s.logger.Info("full reindex complete", "total_documents", len(docs))
	return nil
}

// EnsureIndex rebuilds the index if it was created empty on open.
func (s *SearchService) EnsureIndex(ctx context.Context) error {
	if !s.index.NeedsRebuild() {
		return nil
	}
	return s.ReindexAll(ctx)
}
