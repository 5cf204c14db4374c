package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/listenupapp/readup-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func makeTestLibrary(id, name string) *domain.Library {
	now := time.Now()
	return &domain.Library{
		ID:        id,
		Name:      name,
		ScanPaths: []string{"/media/comics"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func makeTestSeries(id, libraryID, name string) *domain.Series {
	sr := &domain.Series{LibraryID: libraryID, Name: name}
	sr.ID = id
	sr.InitTimestamps()
	return sr
}

func makeTestBook(id, libraryID, seriesID string, number int) *domain.Book {
	b := &domain.Book{
		LibraryID:   libraryID,
		SeriesID:    seriesID,
		Name:        id,
		URL:         "file:/media/comics/" + id + ".cbz",
		Number:      number,
		NumberSort:  float64(number),
		MediaStatus: domain.MediaStatusReady,
		Metadata:    domain.BookMetadata{Title: id},
	}
	b.ID = id
	b.InitTimestamps()
	return b
}

// seedSeries creates a library (if needed) and a series inside it.
func seedSeries(t *testing.T, s *Store, libraryID, seriesID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.GetLibrary(ctx, libraryID); err != nil {
		if err := s.CreateLibrary(ctx, makeTestLibrary(libraryID, libraryID)); err != nil {
			t.Fatalf("CreateLibrary(%s): %v", libraryID, err)
		}
	}
	if err := s.CreateSeries(ctx, makeTestSeries(seriesID, libraryID, seriesID)); err != nil {
		t.Fatalf("CreateSeries(%s): %v", seriesID, err)
	}
}

func seedBook(t *testing.T, s *Store, b *domain.Book) {
	t.Helper()
	if err := s.CreateBook(context.Background(), b); err != nil {
		t.Fatalf("CreateBook(%s): %v", b.ID, err)
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	tables := []string{"libraries", "series", "books", "book_authors", "book_tags", "read_progress", "sidecars"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s1, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s1.Close()

	s2, err := Open(dbPath, logger)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	s2.Close()
}

func TestFormatTime_SortsLexically(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 5, 0, time.UTC)
	earlier := formatTime(base)
	later := formatTime(base.Add(100 * time.Millisecond))
	if earlier >= later {
		t.Errorf("expected %q < %q", earlier, later)
	}

	parsed, err := parseTime(later)
	if err != nil {
		t.Fatalf("parseTime: %v", err)
	}
	if !parsed.Equal(base.Add(100 * time.Millisecond)) {
		t.Errorf("round trip: got %v", parsed)
	}
}

// recordingIndexer captures index calls made by the store.
type recordingIndexer struct {
	mu      sync.Mutex
	indexed []string
	deleted []string
}

func (r *recordingIndexer) IndexBook(_ context.Context, b *domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, b.ID)
	return nil
}

func (r *recordingIndexer) DeleteBook(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

func TestSearchIndexerNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	idx := &recordingIndexer{}
	s.SetSearchIndexer(idx)

	seedSeries(t, s, "lib-1", "ser-1")
	seedBook(t, s, makeTestBook("book-1", "lib-1", "ser-1", 1))

	s.SetBulkMode(true)
	seedBook(t, s, makeTestBook("book-2", "lib-1", "ser-1", 2))
	s.SetBulkMode(false)

	if err := s.SoftDeleteBook(ctx, "book-1"); err != nil {
		t.Fatalf("SoftDeleteBook: %v", err)
	}
	if err := s.DeleteLibrary(ctx, "lib-1"); err != nil {
		t.Fatalf("DeleteLibrary: %v", err)
	}

	if got := fmt.Sprint(idx.indexed); got != "[book-1 book-1]" {
		t.Errorf("indexed: got %s", got)
	}
	if len(idx.deleted) != 2 {
		t.Errorf("deleted: got %v, want both books", idx.deleted)
	}
}
