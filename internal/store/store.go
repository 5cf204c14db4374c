// Package store defines the persistence capabilities consumed by services,
// along with paging and filtering types shared by implementations.
package store

import (
	"context"
	"net/url"

	"github.com/listenupapp/readup-server/internal/domain"
)

// SidecarStore tracks sidecar files per library.
type SidecarStore interface {
	FindAllSidecars(ctx context.Context) ([]domain.SidecarStored, error)
	FindSidecarsByLibrary(ctx context.Context, libraryID string) ([]domain.SidecarStored, error)
	SaveSidecar(ctx context.Context, libraryID string, sidecar domain.Sidecar) error
	DeleteSidecarsByLibraryAndURLs(ctx context.Context, libraryID string, urls []url.URL) error
}

// BookRecordStore answers filtered book listings.
type BookRecordStore interface {
	FindBookSummaries(ctx context.Context, filter BookFilter, page PageRequest) (*Page[domain.BookSummaryWithProgress], error)
	ListBookRefs(ctx context.Context, filter BookFilter) ([]domain.BookRef, error)
}

// ReadProgressStore persists per-user reading positions.
type ReadProgressStore interface {
	GetReadProgress(ctx context.Context, bookID, userID string) (*domain.ReadProgress, error)
	ListReadProgressByUser(ctx context.Context, userID string) ([]domain.ReadProgress, error)
	SaveReadProgress(ctx context.Context, progress *domain.ReadProgress) error
	DeleteReadProgress(ctx context.Context, bookID, userID string) error
}

// SearchIndexer is the interface for updating the search index.
// Store uses this to keep search in sync without depending on search implementation.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book) error
	DeleteBook(ctx context.Context, bookID string) error
}

// NoopSearchIndexer is a no-op implementation for testing.
type NoopSearchIndexer struct{}

// IndexBook is a no-op.
func (NoopSearchIndexer) IndexBook(context.Context, *domain.Book) error { return nil }

// DeleteBook is a no-op.
func (NoopSearchIndexer) DeleteBook(context.Context, string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer for testing.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}
