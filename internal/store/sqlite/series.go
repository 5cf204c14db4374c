package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/store"
)

const seriesColumns = `id, created_at, updated_at, deleted_at, library_id, name`

func scanSeries(scanner rowScanner) (*domain.Series, error) {
	var (
		sr        domain.Series
		createdAt string
		updatedAt string
		deletedAt sql.NullString
	)

	if err := scanner.Scan(&sr.ID, &createdAt, &updatedAt, &deletedAt, &sr.LibraryID, &sr.Name); err != nil {
		return nil, err
	}

	var err error
	if sr.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sr.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if sr.DeletedAt, err = parseNullableTime(deletedAt); err != nil {
		return nil, err
	}
	return &sr, nil
}

// CreateSeries inserts a new series.
// Returns store.ErrLibraryNotFound if the owning library does not exist.
func (s *Store) CreateSeries(ctx context.Context, sr *domain.Series) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO series (id, created_at, updated_at, deleted_at, library_id, name)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sr.ID,
		formatTime(sr.CreatedAt),
		formatTime(sr.UpdatedAt),
		nullTimeString(sr.DeletedAt),
		sr.LibraryID,
		sr.Name,
	)
	switch {
	case isUniqueViolation(err):
		return store.ErrAlreadyExists
	case isForeignKeyViolation(err):
		return store.ErrLibraryNotFound
	}
	return err
}

// GetSeries retrieves a series by ID, including soft-deleted ones.
func (s *Store) GetSeries(ctx context.Context, id string) (*domain.Series, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+seriesColumns+` FROM series WHERE id = ?`, id)
	sr, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSeriesNotFound
	}
	if err != nil {
		return nil, err
	}
	return sr, nil
}

// ListSeries returns the non-deleted series of a library ordered by name.
func (s *Store) ListSeries(ctx context.Context, libraryID string) ([]*domain.Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+seriesColumns+` FROM series
		WHERE library_id = ? AND deleted_at IS NULL
		ORDER BY name COLLATE NOCASE, id`, libraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Series
	for rows.Next() {
		sr, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}
