package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/listenupapp/readup-server/internal/domain"
	domainerrors "github.com/listenupapp/readup-server/internal/errors"
	"github.com/listenupapp/readup-server/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "user-1"

// setupReadingBooks creates books "1" (in progress), "2" (read) and "3" (unread).
func setupReadingBooks(t *testing.T, env *testEnv) []*domain.Book {
	t.Helper()
	env.createLibrary(t, "lib-1")
	env.createSeries(t, "lib-1", "ser-1")
	books := env.addBooks(t, "lib-1", "ser-1", "1", "2", "3")
	env.markRead(t, testUser, books[0].ID, 5, false)
	env.markRead(t, testUser, books[1].ID, 5, true)
	return books
}

func TestFindAll_ReadStatus(t *testing.T) {
	env := setupTestEnv(t)
	setupReadingBooks(t, env)
	ctx := context.Background()

	tests := []struct {
		name     string
		statuses []domain.ReadStatus
		want     []string
	}{
		{"read", []domain.ReadStatus{domain.ReadStatusRead}, []string{"2"}},
		{"unread", []domain.ReadStatus{domain.ReadStatusUnread}, []string{"3"}},
		{"in progress", []domain.ReadStatus{domain.ReadStatusInProgress}, []string{"1"}},
		{"read and unread", []domain.ReadStatus{domain.ReadStatusRead, domain.ReadStatusUnread}, []string{"2", "3"}},
		{"read and in progress", []domain.ReadStatus{domain.ReadStatusRead, domain.ReadStatusInProgress}, []string{"1", "2"}},
		{"unread and in progress", []domain.ReadStatus{domain.ReadStatusUnread, domain.ReadStatusInProgress}, []string{"1", "3"}},
		{"all", []domain.ReadStatus{domain.ReadStatusRead, domain.ReadStatusUnread, domain.ReadStatusInProgress}, []string{"1", "2", "3"}},
		{"no filter", nil, []string{"1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := env.books.FindAll(ctx, domain.BookSearchCriteria{ReadStatus: tt.statuses}, testUser, store.UnpagedSorted())
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, names(found))
		})
	}
}

func TestFindAll_ReadProgressAttached(t *testing.T) {
	env := setupTestEnv(t)
	setupReadingBooks(t, env)
	ctx := context.Background()

	found, err := env.books.FindAll(ctx, domain.BookSearchCriteria{
		ReadStatus: []domain.ReadStatus{domain.ReadStatusRead},
	}, testUser, store.UnpagedSorted())
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	require.NotNil(t, found.Items[0].ReadProgress)
	assert.True(t, found.Items[0].ReadProgress.Completed)

	found, err = env.books.FindAll(ctx, domain.BookSearchCriteria{
		ReadStatus: []domain.ReadStatus{domain.ReadStatusUnread},
	}, testUser, store.UnpagedSorted())
	require.NoError(t, err)
	require.Len(t, found.Items, 1)
	assert.Nil(t, found.Items[0].ReadProgress)

	// Another user's progress is invisible.
	found, err = env.books.FindAll(ctx, domain.BookSearchCriteria{
		ReadStatus: []domain.ReadStatus{domain.ReadStatusUnread},
	}, "user-2", store.UnpagedSorted())
	require.NoError(t, err)
	assert.Len(t, found.Items, 3)
}

func TestFindAll_RankedByRelevance(t *testing.T) {
	env := setupTestEnv(t)
	env.createLibrary(t, "lib-1")
	env.createSeries(t, "lib-1", "ser-1")
	env.addBooks(t, "lib-1", "ser-1",
		"The incredible adventures of Batman, the man who is also a bat!",
		"Robin",
		"Batman and Robin",
		"Batman",
	)

	found, err := env.books.FindAll(context.Background(), domain.BookSearchCriteria{SearchTerm: term("batman")}, testUser, byRelevance())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Batman",
		"Batman and Robin",
		"The incredible adventures of Batman, the man who is also a bat!",
	}, names(found))
}

func TestFindAll_RelevancePaging(t *testing.T) {
	env := setupTestEnv(t)
	env.createLibrary(t, "lib-1")
	env.createSeries(t, "lib-1", "ser-1")
	env.addBooks(t, "lib-1", "ser-1",
		"The incredible adventures of Batman, the man who is also a bat!",
		"Batman and Robin",
		"Batman",
	)
	ctx := context.Background()
	relevance := store.Order{Property: store.SortRelevance, Direction: store.Desc}

	first, err := env.books.FindAll(ctx, domain.BookSearchCriteria{SearchTerm: term("batman")}, testUser, store.PageOf(0, 2, relevance))
	require.NoError(t, err)
	assert.Equal(t, []string{"Batman", "Batman and Robin"}, names(first))
	assert.Equal(t, 3, first.Total)
	assert.Equal(t, 2, first.TotalPages())

	second, err := env.books.FindAll(ctx, domain.BookSearchCriteria{SearchTerm: term("batman")}, testUser, store.PageOf(1, 2, relevance))
	require.NoError(t, err)
	assert.Equal(t, []string{"The incredible adventures of Batman, the man who is also a bat!"}, names(second))
}

func TestFindAll_PageBeyondAnyOffset(t *testing.T) {
	env := setupTestEnv(t)
	env.createLibrary(t, "lib-1")
	env.createSeries(t, "lib-1", "ser-1")
	env.addBooks(t, "lib-1", "ser-1", "Batman", "Batman and Robin")
	ctx := context.Background()
	criteria := domain.BookSearchCriteria{SearchTerm: term("batman")}
	huge := math.MaxInt/store.DefaultPageSize + 1

	ranked, err := env.books.FindAll(ctx, criteria, testUser,
		store.PageOf(huge, store.DefaultPageSize, store.Order{Property: store.SortRelevance, Direction: store.Desc}))
	require.NoError(t, err)
	assert.Empty(t, ranked.Items)
	assert.Equal(t, 2, ranked.Total)

	numbered, err := env.books.FindAll(ctx, criteria, testUser, store.PageOf(huge, store.DefaultPageSize))
	require.NoError(t, err)
	assert.Empty(t, numbered.Items)
	assert.Equal(t, 2, numbered.Total)
	assert.Equal(t, store.MaxPage, numbered.Page)
}

func TestFindAll_FieldSortWithSearchTerm(t *testing.T) {
	env := setupTestEnv(t)
	env.createLibrary(t, "lib-1")
	env.createSeries(t, "lib-1", "ser-1")
	env.addBooks(t, "lib-1", "ser-1", "Batman", "Robin", "Batman and Robin")

	found, err := env.books.FindAll(context.Background(),
		domain.BookSearchCriteria{SearchTerm: term("batman")},
		testUser,
		store.UnpagedSorted(store.Order{Property: store.SortNumber, Direction: store.Desc}),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"Batman and Robin", "Batman"}, names(found))
}

func TestFindAll_RelevanceWithoutTermUsesNumberOrder(t *testing.T) {
	env := setupTestEnv(t)
	env.createLibrary(t, "lib-1")
	env.createSeries(t, "lib-1", "ser-1")
	env.addBooks(t, "lib-1", "ser-1", "c", "a", "b")

	found, err := env.books.FindAll(context.Background(), domain.BookSearchCriteria{}, testUser, byRelevance())
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, names(found))
}

func TestFindAll_SearchScenarios(t *testing.T) {
	env := setupTestEnv(t)
	env.createLibrary(t, "lib-1")
	env.createSeries(t, "lib-1", "ser-1")

	env.addBook(t, "lib-1", "ser-1", "Éric le rouge", func(b *domain.Book) {
		released := time.Date(1999, 5, 12, 0, 0, 0, 0, time.UTC)
		b.Metadata.ReleaseDate = &released
		b.Metadata.ISBN = "9782413016878"
		b.Metadata.Tags = []string{"tag1"}
		b.Metadata.Authors = []domain.Author{{Name: "Bob", Role: domain.RoleWriter}}
		b.MediaStatus = domain.MediaStatusError
	})
	env.addBook(t, "lib-1", "ser-1", "Éric le bleu", func(b *domain.Book) {
		released := time.Date(2005, 5, 12, 0, 0, 0, 0, time.UTC)
		b.Metadata.ReleaseDate = &released
	})
	env.addBooks(t, "lib-1", "ser-1",
		"Robin and Batman",
		"Batman and Robin",
		"Batman",
		"S.W.O.R.D.",
		"Another X-Men adventure",
		"X-Men",
		"[不道德公會][河添太一 ][東立]Vol.04-搬运",
	)

	tests := []struct {
		name    string
		term    string
		want    []string
		ordered bool
	}{
		{"accent insensitive", "eric", []string{"Éric le rouge", "Éric le bleu"}, false},
		{"accented query", "éric rouge", []string{"Éric le rouge"}, true},
		{"isbn", "9782413016878", []string{"Éric le rouge"}, true},
		{"tag", "tag:tag1", []string{"Éric le rouge"}, true},
		{"author", "author:bob", []string{"Éric le rouge"}, true},
		{"author by role", "writer:bob", []string{"Éric le rouge"}, true},
		{"author in other role", "penciller:bob", nil, true},
		{"release year", "release_date:1999", []string{"Éric le rouge"}, true},
		{"release year range", "release_date:[1990 TO 2010]", []string{"Éric le rouge", "Éric le bleu"}, true},
		{"media status", "status:error", []string{"Éric le rouge"}, true},
		{"dots", "s.w.o.r.d.", []string{"S.W.O.R.D."}, true},
		{"multiple words", "batman robin", []string{"Batman and Robin", "Robin and Batman"}, false},
		{"hyphenated", "x-men", []string{"X-Men", "Another X-Men adventure"}, true},
		{"cjk", "不道德", []string{"[不道德公會][河添太一 ][東立]Vol.04-搬运"}, true},
		{"combined", "eric release_date:2005", []string{"Éric le bleu"}, true},
		{"unknown field", "publisher:batman", nil, true},
		{"malformed year", "release_date:nineties", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := env.books.FindAll(context.Background(), domain.BookSearchCriteria{SearchTerm: term(tt.term)}, testUser, byRelevance())
			require.NoError(t, err)
			if tt.ordered {
				if tt.want == nil {
					assert.Empty(t, found.Items)
					return
				}
				assert.Equal(t, tt.want, titles(found))
			} else {
				assert.ElementsMatch(t, tt.want, titles(found))
			}
		})
	}
}

func TestFindAll_Deleted(t *testing.T) {
	env := setupTestEnv(t)
	env.createLibrary(t, "lib-1")
	env.createSeries(t, "lib-1", "ser-1")
	env.addBook(t, "lib-1", "ser-1", "Éric le rouge", func(b *domain.Book) {
		now := time.Now()
		b.DeletedAt = &now
	})
	env.addBooks(t, "lib-1", "ser-1", "Batman")
	ctx := context.Background()

	tests := []struct {
		name string
		term *string
		want []string
	}{
		{"deleted only", term("deleted:true"), []string{"Éric le rouge"}},
		{"not deleted", term("deleted:false"), []string{"Batman"}},
		{"default hides deleted", nil, []string{"Batman"}},
		{"deleted with text", term("eric deleted:true"), []string{"Éric le rouge"}},
		{"text skips deleted", term("eric"), nil},
		{"conflicting", term("deleted:true deleted:false"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := env.books.FindAll(ctx, domain.BookSearchCriteria{SearchTerm: tt.term}, testUser, byRelevance())
			require.NoError(t, err)
			if tt.want == nil {
				assert.Empty(t, found.Items)
				return
			}
			assert.Equal(t, tt.want, titles(found))
		})
	}
}

func TestFindAll_LibraryAndSeriesRestriction(t *testing.T) {
	env := setupTestEnv(t)
	env.createLibrary(t, "lib-1")
	env.createLibrary(t, "lib-2")
	env.createSeries(t, "lib-1", "ser-1")
	env.createSeries(t, "lib-1", "ser-2")
	env.createSeries(t, "lib-2", "ser-3")
	env.addBooks(t, "lib-1", "ser-1", "Batman 1")
	env.addBooks(t, "lib-1", "ser-2", "Batman 2")
	env.addBooks(t, "lib-2", "ser-3", "Batman 3")
	ctx := context.Background()

	found, err := env.books.FindAll(ctx, domain.BookSearchCriteria{
		SearchTerm: term("batman"),
		LibraryIDs: []string{"lib-1"},
	}, testUser, byRelevance())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Batman 1", "Batman 2"}, names(found))

	found, err = env.books.FindAll(ctx, domain.BookSearchCriteria{
		SeriesIDs: []string{"ser-2", "ser-3"},
	}, testUser, store.UnpagedSorted())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Batman 2", "Batman 3"}, names(found))
}

func TestFindAll_UnknownSortProperty(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.books.FindAll(context.Background(), domain.BookSearchCriteria{}, testUser,
		store.UnpagedSorted(store.Order{Property: "publisher"}))
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestFindAll_NoMatchIsEmptyPage(t *testing.T) {
	env := setupTestEnv(t)
	env.createLibrary(t, "lib-1")
	env.createSeries(t, "lib-1", "ser-1")
	env.addBooks(t, "lib-1", "ser-1", "Batman")

	found, err := env.books.FindAll(context.Background(), domain.BookSearchCriteria{SearchTerm: term("superman")}, testUser, store.PageOf(0, 20))
	require.NoError(t, err)
	assert.Empty(t, found.Items)
	assert.Equal(t, 0, found.Total)
	assert.Equal(t, 20, found.Size)
}

func TestFindAllOnDeck(t *testing.T) {
	ctx := context.Background()

	t.Run("series with a book in progress is not on deck", func(t *testing.T) {
		env := setupTestEnv(t)
		setupReadingBooks(t, env)

		found, err := env.books.FindAllOnDeck(ctx, testUser, nil, store.PageOf(0, 20))
		require.NoError(t, err)
		assert.Empty(t, found.Items)
	})

	t.Run("page beyond any offset is empty", func(t *testing.T) {
		env := setupTestEnv(t)
		env.createLibrary(t, "lib-1")
		env.createSeries(t, "lib-1", "ser-1")
		books := env.addBooks(t, "lib-1", "ser-1", "1", "2")
		env.markRead(t, testUser, books[0].ID, 5, true)

		found, err := env.books.FindAllOnDeck(ctx, testUser, nil, store.PageOf(math.MaxInt/20+1, 20))
		require.NoError(t, err)
		assert.Empty(t, found.Items)
		assert.Equal(t, 1, found.Total)
	})

	t.Run("series with only unread books is not on deck", func(t *testing.T) {
		env := setupTestEnv(t)
		env.createLibrary(t, "lib-1")
		env.createSeries(t, "lib-1", "ser-1")
		env.addBooks(t, "lib-1", "ser-1", "1", "2", "3")

		found, err := env.books.FindAllOnDeck(ctx, testUser, nil, store.PageOf(0, 20))
		require.NoError(t, err)
		assert.Empty(t, found.Items)
	})

	t.Run("first unread book of a started series", func(t *testing.T) {
		env := setupTestEnv(t)
		env.createLibrary(t, "lib-1")
		env.createSeries(t, "lib-1", "ser-1")
		books := env.addBooks(t, "lib-1", "ser-1", "1", "2", "3")
		env.markRead(t, testUser, books[0].ID, 5, true)

		found, err := env.books.FindAllOnDeck(ctx, testUser, nil, store.PageOf(0, 20))
		require.NoError(t, err)
		assert.Equal(t, []string{"2"}, names(found))
	})

	t.Run("skips read and deleted books", func(t *testing.T) {
		env := setupTestEnv(t)
		env.createLibrary(t, "lib-1")
		env.createSeries(t, "lib-1", "ser-1")
		books := env.addBooks(t, "lib-1", "ser-1", "1", "2", "3", "4")
		env.markRead(t, testUser, books[0].ID, 5, true)
		env.markRead(t, testUser, books[2].ID, 5, true)
		require.NoError(t, env.store.SoftDeleteBook(ctx, books[1].ID))

		found, err := env.books.FindAllOnDeck(ctx, testUser, nil, store.PageOf(0, 20))
		require.NoError(t, err)
		assert.Equal(t, []string{"4"}, names(found))
	})

	t.Run("fully read series is not on deck", func(t *testing.T) {
		env := setupTestEnv(t)
		env.createLibrary(t, "lib-1")
		env.createSeries(t, "lib-1", "ser-1")
		books := env.addBooks(t, "lib-1", "ser-1", "1", "2")
		env.markRead(t, testUser, books[0].ID, 5, true)
		env.markRead(t, testUser, books[1].ID, 5, true)

		found, err := env.books.FindAllOnDeck(ctx, testUser, nil, store.PageOf(0, 20))
		require.NoError(t, err)
		assert.Empty(t, found.Items)
	})

	t.Run("most recently read series first", func(t *testing.T) {
		env := setupTestEnv(t)
		env.createLibrary(t, "lib-1")
		env.createSeries(t, "lib-1", "ser-a")
		env.createSeries(t, "lib-1", "ser-b")
		a := env.addBooks(t, "lib-1", "ser-a", "a1", "a2")
		b := env.addBooks(t, "lib-1", "ser-b", "b1", "b2")

		env.markRead(t, testUser, b[0].ID, 5, true)
		time.Sleep(5 * time.Millisecond)
		env.markRead(t, testUser, a[0].ID, 5, true)

		found, err := env.books.FindAllOnDeck(ctx, testUser, nil, store.PageOf(0, 20))
		require.NoError(t, err)
		assert.Equal(t, []string{"a2", "b2"}, names(found))

		found, err = env.books.FindAllOnDeck(ctx, testUser, nil, store.PageOf(0, 20, store.Order{Property: store.SortName}))
		require.NoError(t, err)
		assert.Equal(t, []string{"a2", "b2"}, names(found))

		found, err = env.books.FindAllOnDeck(ctx, testUser, nil, store.PageOf(0, 1))
		require.NoError(t, err)
		assert.Equal(t, []string{"a2"}, names(found))
		assert.Equal(t, 2, found.Total)
	})

	t.Run("restricted to libraries", func(t *testing.T) {
		env := setupTestEnv(t)
		env.createLibrary(t, "lib-1")
		env.createLibrary(t, "lib-2")
		env.createSeries(t, "lib-1", "ser-1")
		env.createSeries(t, "lib-2", "ser-2")
		one := env.addBooks(t, "lib-1", "ser-1", "x1", "x2")
		two := env.addBooks(t, "lib-2", "ser-2", "y1", "y2")
		env.markRead(t, testUser, one[0].ID, 5, true)
		env.markRead(t, testUser, two[0].ID, 5, true)

		found, err := env.books.FindAllOnDeck(ctx, testUser, []string{"lib-2"}, store.PageOf(0, 20))
		require.NoError(t, err)
		assert.Equal(t, []string{"y2"}, names(found))
	})

	t.Run("progress of other users is ignored", func(t *testing.T) {
		env := setupTestEnv(t)
		env.createLibrary(t, "lib-1")
		env.createSeries(t, "lib-1", "ser-1")
		books := env.addBooks(t, "lib-1", "ser-1", "1", "2")
		env.markRead(t, "user-2", books[0].ID, 5, true)

		found, err := env.books.FindAllOnDeck(ctx, testUser, nil, store.PageOf(0, 20))
		require.NoError(t, err)
		assert.Empty(t, found.Items)
	})
}
