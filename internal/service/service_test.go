package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/search"
	"github.com/listenupapp/readup-server/internal/store"
	"github.com/listenupapp/readup-server/internal/store/sqlite"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *sqlite.Store
	search   *SearchService
	books    *BookQueryService
	progress *ReadProgressService

	numbers map[string]int
}

// setupTestEnv opens a SQLite store wired to an in-memory search index.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	index, err := search.NewSearchIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	searchSvc := NewSearchService(index, s, logger)
	s.SetSearchIndexer(searchSvc)

	return &testEnv{
		store:    s,
		search:   searchSvc,
		books:    NewBookQueryService(s, searchSvc, logger),
		progress: NewReadProgressService(s, logger),
		numbers:  make(map[string]int),
	}
}

func (e *testEnv) createLibrary(t *testing.T, id string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, e.store.CreateLibrary(context.Background(), &domain.Library{
		ID:        id,
		Name:      id,
		ScanPaths: []string{"/comics/" + id},
		CreatedAt: now,
		UpdatedAt: now,
	}))
}

func (e *testEnv) createSeries(t *testing.T, libraryID, id string) {
	t.Helper()
	sr := &domain.Series{LibraryID: libraryID, Name: id}
	sr.ID = id
	sr.InitTimestamps()
	require.NoError(t, e.store.CreateSeries(context.Background(), sr))
}

// addBooks creates books titled after names, numbered in the given order.
func (e *testEnv) addBooks(t *testing.T, libraryID, seriesID string, names ...string) []*domain.Book {
	t.Helper()
	books := make([]*domain.Book, 0, len(names))
	for _, name := range names {
		books = append(books, e.addBook(t, libraryID, seriesID, name, nil))
	}
	return books
}

func (e *testEnv) addBook(t *testing.T, libraryID, seriesID, name string, edit func(*domain.Book)) *domain.Book {
	t.Helper()
	e.numbers[seriesID]++
	number := e.numbers[seriesID]
	b := &domain.Book{
		LibraryID:   libraryID,
		SeriesID:    seriesID,
		Name:        name,
		URL:         "file:/comics/" + seriesID + "/" + name + ".cbz",
		Number:      number,
		NumberSort:  float64(number),
		MediaStatus: domain.MediaStatusReady,
		Metadata:    domain.BookMetadata{Title: name},
	}
	b.ID = fmt.Sprintf("%s-book-%02d", seriesID, number)
	b.InitTimestamps()
	if edit != nil {
		edit(b)
	}
	require.NoError(t, e.store.CreateBook(context.Background(), b))
	return b
}

func (e *testEnv) markRead(t *testing.T, userID, bookID string, page int, completed bool) {
	t.Helper()
	_, err := e.progress.MarkProgress(context.Background(), userID, bookID, page, completed)
	require.NoError(t, err)
}

func names(page *store.Page[domain.BookSummaryWithProgress]) []string {
	out := make([]string, len(page.Items))
	for i, item := range page.Items {
		out[i] = item.Name
	}
	return out
}

func titles(page *store.Page[domain.BookSummaryWithProgress]) []string {
	out := make([]string, len(page.Items))
	for i, item := range page.Items {
		out[i] = item.Metadata.Title
	}
	return out
}

func term(s string) *string { return &s }

func byRelevance() store.PageRequest {
	return store.UnpagedSorted(store.Order{Property: store.SortRelevance, Direction: store.Desc})
}
