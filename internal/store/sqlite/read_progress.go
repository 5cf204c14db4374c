package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/store"
)

const readProgressColumns = `book_id, user_id, page, completed, created_at, updated_at`

func scanReadProgress(scanner rowScanner) (*domain.ReadProgress, error) {
	var (
		p         domain.ReadProgress
		completed int
		createdAt string
		updatedAt string
	)
	if err := scanner.Scan(&p.BookID, &p.UserID, &p.Page, &completed, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	p.Completed = completed != 0
	return &p, nil
}

// GetReadProgress returns a user's progress on a book.
// Returns store.ErrNotFound if the user has not started the book.
func (s *Store) GetReadProgress(ctx context.Context, bookID, userID string) (*domain.ReadProgress, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+readProgressColumns+` FROM read_progress WHERE book_id = ? AND user_id = ?`,
		bookID, userID)
	p, err := scanReadProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListReadProgressByUser returns all progress records of a user, most recent first.
func (s *Store) ListReadProgressByUser(ctx context.Context, userID string) ([]domain.ReadProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+readProgressColumns+` FROM read_progress
		WHERE user_id = ?
		ORDER BY updated_at DESC, book_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReadProgress
	for rows.Next() {
		p, err := scanReadProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// SaveReadProgress upserts progress keyed by (book, user). The original
// creation time is preserved on update.
// Returns store.ErrBookNotFound if the book does not exist.
func (s *Store) SaveReadProgress(ctx context.Context, p *domain.ReadProgress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO read_progress (book_id, user_id, page, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (book_id, user_id) DO UPDATE SET
			page = excluded.page,
			completed = excluded.completed,
			updated_at = excluded.updated_at`,
		p.BookID,
		p.UserID,
		p.Page,
		boolToInt(p.Completed),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	)
	if isForeignKeyViolation(err) {
		return store.ErrBookNotFound
	}
	return err
}

// DeleteReadProgress removes a user's progress on a book. Missing rows are not an error.
func (s *Store) DeleteReadProgress(ctx context.Context, bookID, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM read_progress WHERE book_id = ? AND user_id = ?`, bookID, userID)
	return err
}

// DeleteReadProgressByUser removes every progress record of a user.
func (s *Store) DeleteReadProgressByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM read_progress WHERE user_id = ?`, userID)
	return err
}
