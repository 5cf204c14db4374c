package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/listenupapp/readup-server/internal/domain"
	domainerrors "github.com/listenupapp/readup-server/internal/errors"
	"github.com/listenupapp/readup-server/internal/search"
	"github.com/listenupapp/readup-server/internal/store"
)

// BookSearcher resolves a parsed query to ranked book IDs.
type BookSearcher interface {
	Search(ctx context.Context, q search.Query) ([]string, error)
}

// BookQueryStore is the storage needed to compose book listings.
type BookQueryStore interface {
	store.BookRecordStore
	ListReadProgressByUser(ctx context.Context, userID string) ([]domain.ReadProgress, error)
}

// BookQueryService composes full-text search, structured filters and
// per-user read progress into paged book listings.
type BookQueryService struct {
	store    BookQueryStore
	searcher BookSearcher
	logger   *slog.Logger
}

// NewBookQueryService creates a new book query service.
func NewBookQueryService(s BookQueryStore, searcher BookSearcher, logger *slog.Logger) *BookQueryService {
	return &BookQueryService{
		store:    s,
		searcher: searcher,
		logger:   logger,
	}
}

type summaryPage = store.Page[domain.BookSummaryWithProgress]

// FindAll lists the books matching criteria for userID.
//
// A search term that cannot be understood yields an empty page rather than an
// error. Without a deleted: clause only non-deleted books are listed. A
// relevance sort orders by index rank when there is a search term and falls
// back to the number order otherwise.
func (s *BookQueryService) FindAll(ctx context.Context, criteria domain.BookSearchCriteria, userID string, page store.PageRequest) (*summaryPage, error) {
	if err := page.Validate(); err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	filter := store.BookFilter{
		LibraryIDs: criteria.LibraryIDs,
		SeriesIDs:  criteria.SeriesIDs,
		ReadStatus: criteria.ReadStatus,
		Deleted:    store.Bool(false),
		UserID:     userID,
	}

	var ranked []string
	if criteria.HasSearchTerm() {
		q := search.Parse(*criteria.SearchTerm)
		if q.IsNever() {
			s.logger.Debug("search term matches nothing", "term", *criteria.SearchTerm)
			return store.EmptyPage[domain.BookSummaryWithProgress](page), nil
		}

		q, deleted := q.Without(search.FieldDeleted)
		if len(deleted) > 0 {
			want := deleted[0].Value == "true"
			for _, d := range deleted[1:] {
				if (d.Value == "true") != want {
					return store.EmptyPage[domain.BookSummaryWithProgress](page), nil
				}
			}
			filter.Deleted = store.Bool(want)
		}

		if !q.IsEmpty() {
			ids, err := s.searcher.Search(ctx, q)
			if err != nil {
				return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "search index")
			}
			if len(ids) == 0 {
				return store.EmptyPage[domain.BookSummaryWithProgress](page), nil
			}
			ranked = ids
			filter.IDs = ids
		}
		s.logger.Debug("composed book search",
			"term", *criteria.SearchTerm,
			"candidates", len(ranked),
			"deleted", *filter.Deleted,
		)
	}

	if page.Sort.IsRelevance() {
		if ranked != nil {
			return s.findByRank(ctx, filter, ranked, page)
		}
		page.Sort = store.Sort{}
	}

	result, err := s.store.FindBookSummaries(ctx, filter, page)
	if err != nil {
		return nil, storeError(err, "find books")
	}
	return result, nil
}

// findByRank lists every match, orders it by the index rank and pages in memory.
func (s *BookQueryService) findByRank(ctx context.Context, filter store.BookFilter, ranked []string, page store.PageRequest) (*summaryPage, error) {
	all, err := s.store.FindBookSummaries(ctx, filter, store.UnpagedSorted())
	if err != nil {
		return nil, storeError(err, "find books")
	}
	return store.Paginate(orderByIDs(all.Items, ranked), page), nil
}

// FindAllOnDeck lists the next book to read in each series the user has
// started: the series must contain a completed book and no book in progress,
// and it contributes its first unread book. Without a sort the series read
// most recently come first.
func (s *BookQueryService) FindAllOnDeck(ctx context.Context, userID string, libraryIDs []string, page store.PageRequest) (*summaryPage, error) {
	if err := page.Validate(); err != nil {
		return nil, domainerrors.Validation(err.Error())
	}
	if page.Sort.IsRelevance() {
		page.Sort = store.Sort{}
	}

	progress, err := s.store.ListReadProgressByUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, "list read progress")
	}
	if len(progress) == 0 {
		return store.EmptyPage[domain.BookSummaryWithProgress](page), nil
	}

	byBook := make(map[string]domain.ReadProgress, len(progress))
	ids := make([]string, 0, len(progress))
	for _, p := range progress {
		byBook[p.BookID] = p
		ids = append(ids, p.BookID)
	}

	started, err := s.store.ListBookRefs(ctx, store.BookFilter{IDs: ids, Deleted: store.Bool(false)})
	if err != nil {
		return nil, storeError(err, "list started books")
	}

	type seriesActivity struct {
		completed  int
		inProgress int
		lastRead   time.Time
	}
	activity := make(map[string]*seriesActivity)
	for _, ref := range started {
		a, ok := activity[ref.SeriesID]
		if !ok {
			a = &seriesActivity{}
			activity[ref.SeriesID] = a
		}
		p := byBook[ref.ID]
		if p.Completed {
			a.completed++
		} else {
			a.inProgress++
		}
		if p.UpdatedAt.After(a.lastRead) {
			a.lastRead = p.UpdatedAt
		}
	}

	var seriesIDs []string
	for id, a := range activity {
		if a.completed > 0 && a.inProgress == 0 {
			seriesIDs = append(seriesIDs, id)
		}
	}
	if len(seriesIDs) == 0 {
		return store.EmptyPage[domain.BookSummaryWithProgress](page), nil
	}

	unread, err := s.store.ListBookRefs(ctx, store.BookFilter{
		SeriesIDs:  seriesIDs,
		LibraryIDs: libraryIDs,
		Deleted:    store.Bool(false),
		ReadStatus: []domain.ReadStatus{domain.ReadStatusUnread},
		UserID:     userID,
	})
	if err != nil {
		return nil, storeError(err, "list unread books")
	}

	// Refs arrive in series reading order, so the first per series is next.
	next := make([]domain.BookRef, 0, len(seriesIDs))
	seen := make(map[string]bool, len(seriesIDs))
	for _, ref := range unread {
		if seen[ref.SeriesID] {
			continue
		}
		seen[ref.SeriesID] = true
		next = append(next, ref)
	}
	if len(next) == 0 {
		return store.EmptyPage[domain.BookSummaryWithProgress](page), nil
	}

	slices.SortStableFunc(next, func(a, b domain.BookRef) int {
		if c := activity[b.SeriesID].lastRead.Compare(activity[a.SeriesID].lastRead); c != 0 {
			return c
		}
		if a.SeriesID < b.SeriesID {
			return -1
		}
		if a.SeriesID > b.SeriesID {
			return 1
		}
		return 0
	})

	nextIDs := make([]string, len(next))
	for i, ref := range next {
		nextIDs[i] = ref.ID
	}
	filter := store.BookFilter{IDs: nextIDs, Deleted: store.Bool(false), UserID: userID}

	s.logger.Debug("resolved on deck", "user_id", userID, "series", len(seriesIDs), "books", len(nextIDs))

	if !page.Sort.IsUnsorted() {
		result, err := s.store.FindBookSummaries(ctx, filter, page)
		if err != nil {
			return nil, storeError(err, "find on deck books")
		}
		return result, nil
	}
	return s.findByRank(ctx, filter, nextIDs, page)
}

// orderByIDs reorders items to follow ids. Items not in ids are dropped.
func orderByIDs(items []domain.BookSummaryWithProgress, ids []string) []domain.BookSummaryWithProgress {
	byID := make(map[string]domain.BookSummaryWithProgress, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	ordered := make([]domain.BookSummaryWithProgress, 0, len(items))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered
}

// storeError converts a storage failure into a domain error.
func storeError(err error, op string) error {
	switch {
	case domainerrors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation(err.Error())
	case domainerrors.Is(err, store.ErrNotFound):
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, op)
	default:
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, op)
	}
}
