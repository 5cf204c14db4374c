package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/store"
)

func makeTestProgress(bookID, userID string, page int, completed bool, at time.Time) *domain.ReadProgress {
	return &domain.ReadProgress{
		BookID:    bookID,
		UserID:    userID,
		Page:      page,
		Completed: completed,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestReadProgress_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedSeries(t, s, "lib-1", "ser-1")
	seedBook(t, s, makeTestBook("book-1", "lib-1", "ser-1", 1))

	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	if err := s.SaveReadProgress(ctx, makeTestProgress("book-1", "user-1", 5, false, created)); err != nil {
		t.Fatalf("SaveReadProgress: %v", err)
	}

	updated := created.Add(time.Hour)
	p := makeTestProgress("book-1", "user-1", 20, true, updated)
	if err := s.SaveReadProgress(ctx, p); err != nil {
		t.Fatalf("SaveReadProgress update: %v", err)
	}

	got, err := s.GetReadProgress(ctx, "book-1", "user-1")
	if err != nil {
		t.Fatalf("GetReadProgress: %v", err)
	}
	if got.Page != 20 || !got.Completed {
		t.Errorf("progress: got page=%d completed=%v", got.Page, got.Completed)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt must be preserved: got %v", got.CreatedAt)
	}
	if !got.UpdatedAt.Equal(updated) {
		t.Errorf("UpdatedAt: got %v", got.UpdatedAt)
	}
}

func TestReadProgress_MissingBook(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveReadProgress(context.Background(), makeTestProgress("nope", "user-1", 1, false, time.Now()))
	if !errors.Is(err, store.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
}

func TestReadProgress_ListAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedSeries(t, s, "lib-1", "ser-1")
	seedBook(t, s, makeTestBook("book-1", "lib-1", "ser-1", 1))
	seedBook(t, s, makeTestBook("book-2", "lib-1", "ser-1", 2))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, p := range []*domain.ReadProgress{
		makeTestProgress("book-1", "user-1", 1, false, base),
		makeTestProgress("book-2", "user-1", 1, true, base.Add(time.Minute)),
		makeTestProgress("book-1", "user-2", 3, false, base),
	} {
		if err := s.SaveReadProgress(ctx, p); err != nil {
			t.Fatalf("SaveReadProgress: %v", err)
		}
	}

	list, err := s.ListReadProgressByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListReadProgressByUser: %v", err)
	}
	if len(list) != 2 || list[0].BookID != "book-2" {
		t.Errorf("expected most recent first, got %+v", list)
	}

	if err := s.DeleteReadProgress(ctx, "book-2", "user-1"); err != nil {
		t.Fatalf("DeleteReadProgress: %v", err)
	}
	if _, err := s.GetReadProgress(ctx, "book-2", "user-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteReadProgress(ctx, "book-2", "user-1"); err != nil {
		t.Errorf("deleting missing progress should be a no-op, got %v", err)
	}

	if err := s.DeleteReadProgressByUser(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteReadProgressByUser: %v", err)
	}
	list, _ = s.ListReadProgressByUser(ctx, "user-1")
	if len(list) != 0 {
		t.Errorf("expected no progress for user-1, got %d", len(list))
	}
	other, _ := s.ListReadProgressByUser(ctx, "user-2")
	if len(other) != 1 {
		t.Errorf("user-2 progress must remain, got %d", len(other))
	}
}
