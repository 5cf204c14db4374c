package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/store"
)

// sortColumns maps book sort properties to SQL expressions.
var sortColumns = map[string]string{
	store.SortName:             "b.name COLLATE NOCASE",
	store.SortTitle:            "b.title COLLATE NOCASE",
	store.SortNumber:           "b.number_sort",
	store.SortReleaseDate:      "b.release_date",
	store.SortCreatedDate:      "b.created_at",
	store.SortLastModifiedDate: "b.updated_at",
	store.SortReadDate:         "rp.updated_at",
	store.SortFileSize:         "b.file_size",
}

// bookQuery accumulates the FROM/WHERE part shared by the listing queries.
type bookQuery struct {
	from  string
	where []string
	args  []any
}

// buildBookQuery translates a filter into SQL. Read progress is left-joined
// for the filter's user so that books without progress count as unread.
func buildBookQuery(f store.BookFilter) (*bookQuery, error) {
	q := &bookQuery{
		from: `FROM books b
		LEFT JOIN read_progress rp ON rp.book_id = b.id AND rp.user_id = ?`,
		args: []any{f.UserID},
	}

	inList := func(column string, values []string) error {
		arr, err := jsonArray(values)
		if err != nil {
			return err
		}
		q.where = append(q.where, column+` IN (SELECT value FROM json_each(?))`)
		q.args = append(q.args, arr)
		return nil
	}

	if f.IDs != nil {
		if err := inList("b.id", f.IDs); err != nil {
			return nil, err
		}
	}
	if len(f.LibraryIDs) > 0 {
		if err := inList("b.library_id", f.LibraryIDs); err != nil {
			return nil, err
		}
	}
	if len(f.SeriesIDs) > 0 {
		if err := inList("b.series_id", f.SeriesIDs); err != nil {
			return nil, err
		}
	}

	if f.Deleted != nil {
		if *f.Deleted {
			q.where = append(q.where, "b.deleted_at IS NOT NULL")
		} else {
			q.where = append(q.where, "b.deleted_at IS NULL")
		}
	}

	if len(f.ReadStatus) > 0 {
		var anyOf []string
		for _, rs := range f.ReadStatus {
			switch rs {
			case domain.ReadStatusUnread:
				anyOf = append(anyOf, "rp.book_id IS NULL")
			case domain.ReadStatusRead:
				anyOf = append(anyOf, "rp.completed = 1")
			case domain.ReadStatusInProgress:
				anyOf = append(anyOf, "rp.completed = 0")
			default:
				return nil, fmt.Errorf("%w: read status %q", store.ErrInvalidInput, rs)
			}
		}
		q.where = append(q.where, "("+strings.Join(anyOf, " OR ")+")")
	}

	return q, nil
}

func (q *bookQuery) whereClause() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

// orderBy renders the ORDER BY clause. Relevance is not a column and is
// skipped; the book ID is always the final tie-breaker.
func orderBy(sort store.Sort) (string, error) {
	var parts []string
	for _, o := range sort.Orders {
		if o.Property == store.SortRelevance {
			continue
		}
		col, ok := sortColumns[o.Property]
		if !ok {
			return "", fmt.Errorf("%w: unknown sort property %q", store.ErrInvalidInput, o.Property)
		}
		dir := "ASC"
		if o.Direction == store.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	if len(parts) == 0 {
		parts = append(parts, "b.number_sort ASC")
	}
	parts = append(parts, "b.id ASC")
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

// FindBookSummaries returns one page of books matching the filter, each with
// the filter user's read progress.
func (s *Store) FindBookSummaries(ctx context.Context, filter store.BookFilter, page store.PageRequest) (*store.Page[domain.BookSummaryWithProgress], error) {
	if filter.MatchesNothing() {
		return store.EmptyPage[domain.BookSummaryWithProgress](page), nil
	}

	q, err := buildBookQuery(filter)
	if err != nil {
		return nil, err
	}
	order, err := orderBy(page.Sort)
	if err != nil {
		return nil, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) `+q.from+q.whereClause(), q.args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	query := `SELECT ` + bookColumns + `, rp.page, rp.completed, rp.updated_at ` + q.from + q.whereClause() + order
	args := q.args
	if !page.Unpaged {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, page.Size, page.Offset())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	result := store.EmptyPage[domain.BookSummaryWithProgress](page)
	result.Total = total
	for rows.Next() {
		summary, err := scanBookSummary(rows)
		if err != nil {
			return nil, err
		}
		result.Items = append(result.Items, *summary)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if page.Unpaged {
		result.Size = len(result.Items)
	}

	if err := s.hydrateSummaries(ctx, result.Items); err != nil {
		return nil, err
	}
	return result, nil
}

func scanBookSummary(rows *sql.Rows) (*domain.BookSummaryWithProgress, error) {
	var (
		progressPage    sql.NullInt64
		progressDone    sql.NullBool
		progressUpdated sql.NullString
	)

	book, err := scanBook(appendScanner{rows, []any{&progressPage, &progressDone, &progressUpdated}})
	if err != nil {
		return nil, err
	}

	summary := &domain.BookSummaryWithProgress{
		ID:          book.ID,
		LibraryID:   book.LibraryID,
		SeriesID:    book.SeriesID,
		Name:        book.Name,
		URL:         book.URL,
		Number:      book.Number,
		NumberSort:  book.NumberSort,
		FileSize:    book.FileSize,
		MediaStatus: book.MediaStatus,
		Metadata:    book.Metadata,
		CreatedAt:   book.CreatedAt,
		UpdatedAt:   book.UpdatedAt,
		DeletedAt:   book.DeletedAt,
	}
	if progressUpdated.Valid {
		updated, err := parseTime(progressUpdated.String)
		if err != nil {
			return nil, err
		}
		summary.ReadProgress = &domain.ReadProgressSummary{
			Page:      int(progressPage.Int64),
			Completed: progressDone.Bool,
			UpdatedAt: updated,
		}
	}
	return summary, nil
}

// appendScanner appends extra destinations after the ones a scan function supplies.
type appendScanner struct {
	rowScanner
	extra []any
}

func (a appendScanner) Scan(dest ...any) error {
	return a.rowScanner.Scan(append(dest, a.extra...)...)
}

func (s *Store) hydrateSummaries(ctx context.Context, items []domain.BookSummaryWithProgress) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	authors, err := loadAuthors(ctx, s.db, ids)
	if err != nil {
		return fmt.Errorf("load authors: %w", err)
	}
	tags, err := loadTags(ctx, s.db, ids)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	for i := range items {
		items[i].Metadata.Authors = authors[items[i].ID]
		items[i].Metadata.Tags = tags[items[i].ID]
	}
	return nil
}

// ListBookRefs returns the position of every book matching the filter,
// grouped by series in reading order.
func (s *Store) ListBookRefs(ctx context.Context, filter store.BookFilter) ([]domain.BookRef, error) {
	if filter.MatchesNothing() {
		return nil, nil
	}

	q, err := buildBookQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.series_id, b.library_id, b.number_sort `+q.from+q.whereClause()+
			` ORDER BY b.series_id, b.number_sort, b.id`,
		q.args...)
	if err != nil {
		return nil, fmt.Errorf("query book refs: %w", err)
	}
	defer rows.Close()

	var refs []domain.BookRef
	for rows.Next() {
		var ref domain.BookRef
		if err := rows.Scan(&ref.ID, &ref.SeriesID, &ref.LibraryID, &ref.NumberSort); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
