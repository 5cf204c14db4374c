package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `b.id, b.created_at, b.updated_at, b.deleted_at,
	b.library_id, b.series_id, b.name, b.url, b.number, b.number_sort,
	b.file_size, b.media_status, b.title, b.summary, b.release_date, b.isbn`

func scanBook(scanner rowScanner) (*domain.Book, error) {
	var (
		b           domain.Book
		createdAt   string
		updatedAt   string
		deletedAt   sql.NullString
		mediaStatus string
		summary     sql.NullString
		releaseDate sql.NullString
		isbn        sql.NullString
	)

	err := scanner.Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&b.LibraryID,
		&b.SeriesID,
		&b.Name,
		&b.URL,
		&b.Number,
		&b.NumberSort,
		&b.FileSize,
		&mediaStatus,
		&b.Metadata.Title,
		&summary,
		&releaseDate,
		&isbn,
	)
	if err != nil {
		return nil, err
	}

	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if b.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}
	if b.Metadata.ReleaseDate, err = parseNullableDate(releaseDate); err != nil {
		return nil, err
	}
	b.MediaStatus = domain.MediaStatus(mediaStatus)
	b.Metadata.Summary = summary.String
	b.Metadata.ISBN = isbn.String
	return &b, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// loadAuthors returns the credited authors of the given books, in credit order.
func loadAuthors(ctx context.Context, q querier, bookIDs []string) (map[string][]domain.Author, error) {
	ids, err := jsonArray(bookIDs)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, `
		SELECT book_id, name, role FROM book_authors
		WHERE book_id IN (SELECT value FROM json_each(?))
		ORDER BY book_id, position`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.Author)
	for rows.Next() {
		var bookID string
		var a domain.Author
		if err := rows.Scan(&bookID, &a.Name, &a.Role); err != nil {
			return nil, err
		}
		out[bookID] = append(out[bookID], a)
	}
	return out, rows.Err()
}

// loadTags returns the tags of the given books, alphabetically.
func loadTags(ctx context.Context, q querier, bookIDs []string) (map[string][]string, error) {
	ids, err := jsonArray(bookIDs)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, `
		SELECT book_id, tag FROM book_tags
		WHERE book_id IN (SELECT value FROM json_each(?))
		ORDER BY book_id, tag`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var bookID, tag string
		if err := rows.Scan(&bookID, &tag); err != nil {
			return nil, err
		}
		out[bookID] = append(out[bookID], tag)
	}
	return out, rows.Err()
}

// hydrateBooks fills authors and tags for a batch of books.
func (s *Store) hydrateBooks(ctx context.Context, books []*domain.Book) error {
	if len(books) == 0 {
		return nil
	}
	ids := make([]string, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	authors, err := loadAuthors(ctx, s.db, ids)
	if err != nil {
		return fmt.Errorf("load authors: %w", err)
	}
	tags, err := loadTags(ctx, s.db, ids)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	for _, b := range books {
		b.Metadata.Authors = authors[b.ID]
		b.Metadata.Tags = tags[b.ID]
	}
	return nil
}

func writeBookMetadata(ctx context.Context, tx *sql.Tx, book *domain.Book) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM book_authors WHERE book_id = ?`, book.ID); err != nil {
		return err
	}
	for i, a := range book.Metadata.Authors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO book_authors (book_id, position, name, role) VALUES (?, ?, ?, ?)`,
			book.ID, i, a.Name, a.Role); err != nil {
			return fmt.Errorf("insert author: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM book_tags WHERE book_id = ?`, book.ID); err != nil {
		return err
	}
	for _, tag := range book.Metadata.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO book_tags (book_id, tag) VALUES (?, ?)`,
			book.ID, tag); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}
	return nil
}

// CreateBook inserts a book with its authors and tags, then indexes it.
// Returns store.ErrSeriesNotFound if the series or library does not exist.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	if book.MediaStatus == "" {
		book.MediaStatus = domain.MediaStatusUnknown
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (
			id, created_at, updated_at, deleted_at,
			library_id, series_id, name, url, number, number_sort,
			file_size, media_status, title, summary, release_date, isbn
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		nullTimeString(book.DeletedAt),
		book.LibraryID,
		book.SeriesID,
		book.Name,
		book.URL,
		book.Number,
		book.NumberSort,
		book.FileSize,
		string(book.MediaStatus),
		book.Metadata.Title,
		nullString(book.Metadata.Summary),
		nullDateString(book.Metadata.ReleaseDate),
		nullString(book.Metadata.ISBN),
	)
	switch {
	case isUniqueViolation(err):
		return store.ErrAlreadyExists
	case isForeignKeyViolation(err):
		return store.ErrSeriesNotFound
	case err != nil:
		return err
	}

	if err := writeBookMetadata(ctx, tx, book); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.reindexBook(ctx, book)
	return nil
}

// UpdateBook performs a full update of a book, including soft-deleted ones.
// Returns store.ErrBookNotFound if the book does not exist.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE books SET
			updated_at = ?, series_id = ?, name = ?, url = ?,
			number = ?, number_sort = ?, file_size = ?, media_status = ?,
			title = ?, summary = ?, release_date = ?, isbn = ?
		WHERE id = ?`,
		formatTime(book.UpdatedAt),
		book.SeriesID,
		book.Name,
		book.URL,
		book.Number,
		book.NumberSort,
		book.FileSize,
		string(book.MediaStatus),
		book.Metadata.Title,
		nullString(book.Metadata.Summary),
		nullDateString(book.Metadata.ReleaseDate),
		nullString(book.Metadata.ISBN),
		book.ID,
	)
	if isForeignKeyViolation(err) {
		return store.ErrSeriesNotFound
	}
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrBookNotFound
	}

	if err := writeBookMetadata(ctx, tx, book); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.reindexBook(ctx, book)
	return nil
}

// SoftDeleteBook marks a book deleted. The book stays searchable with
// deleted:true, so its index document is refreshed rather than removed.
// Returns store.ErrBookNotFound if the book does not exist or is already deleted.
func (s *Store) SoftDeleteBook(ctx context.Context, id string) error {
	now := formatTime(time.Now())

	result, err := s.db.ExecContext(ctx, `
		UPDATE books SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrBookNotFound
	}

	if book, err := s.getBook(ctx, id, true); err == nil {
		s.reindexBook(ctx, book)
	}
	return nil
}

// GetBook retrieves a non-deleted book by ID with its authors and tags.
// Returns store.ErrBookNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.getBook(ctx, id, false)
}

func (s *Store) getBook(ctx context.Context, id string, includeDeleted bool) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books b WHERE b.id = ?`
	if !includeDeleted {
		query += ` AND b.deleted_at IS NULL`
	}

	book, err := scanBook(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.hydrateBooks(ctx, []*domain.Book{book}); err != nil {
		return nil, err
	}
	return book, nil
}

// ListAllBooks returns every book, soft-deleted ones included, for index rebuilds.
func (s *Store) ListAllBooks(ctx context.Context) ([]*domain.Book, error) {
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books b ORDER BY b.id`)
}

// ListBooksInSeries returns the non-deleted books of a series in reading order.
func (s *Store) ListBooksInSeries(ctx context.Context, seriesID string) ([]*domain.Book, error) {
	return s.queryBooks(ctx, `
		SELECT `+bookColumns+` FROM books b
		WHERE b.series_id = ? AND b.deleted_at IS NULL
		ORDER BY b.number_sort, b.id`, seriesID)
}

func (s *Store) queryBooks(ctx context.Context, query string, args ...any) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.hydrateBooks(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}
