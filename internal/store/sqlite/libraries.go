package sqlite

import (
	"context"
	"database/sql"
	"encoding/json/v2"
	"errors"

	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/store"
)

// libraryColumns is the ordered list of columns selected in library queries.
// Must match the scan order in scanLibrary.
const libraryColumns = `id, created_at, updated_at, name, scan_paths`

func scanLibrary(scanner rowScanner) (*domain.Library, error) {
	var (
		lib       domain.Library
		createdAt string
		updatedAt string
		scanPaths string
	)

	if err := scanner.Scan(&lib.ID, &createdAt, &updatedAt, &lib.Name, &scanPaths); err != nil {
		return nil, err
	}

	var err error
	if lib.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if lib.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(scanPaths), &lib.ScanPaths); err != nil {
		return nil, err
	}
	return &lib, nil
}

// CreateLibrary inserts a new library into the database.
// Returns store.ErrAlreadyExists on duplicate ID.
func (s *Store) CreateLibrary(ctx context.Context, lib *domain.Library) error {
	scanPaths, err := jsonArray(lib.ScanPaths)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO libraries (id, created_at, updated_at, name, scan_paths)
		VALUES (?, ?, ?, ?, ?)`,
		lib.ID,
		formatTime(lib.CreatedAt),
		formatTime(lib.UpdatedAt),
		lib.Name,
		scanPaths,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetLibrary retrieves a library by ID.
// Returns store.ErrLibraryNotFound if the library does not exist.
func (s *Store) GetLibrary(ctx context.Context, id string) (*domain.Library, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+libraryColumns+` FROM libraries WHERE id = ?`, id)

	lib, err := scanLibrary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrLibraryNotFound
	}
	if err != nil {
		return nil, err
	}
	return lib, nil
}

// ListLibraries returns all libraries ordered by creation time.
func (s *Store) ListLibraries(ctx context.Context) ([]*domain.Library, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+libraryColumns+` FROM libraries ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var libraries []*domain.Library
	for rows.Next() {
		lib, err := scanLibrary(rows)
		if err != nil {
			return nil, err
		}
		libraries = append(libraries, lib)
	}
	return libraries, rows.Err()
}

// UpdateLibrary replaces the name and scan paths of an existing library.
func (s *Store) UpdateLibrary(ctx context.Context, lib *domain.Library) error {
	scanPaths, err := jsonArray(lib.ScanPaths)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE libraries SET updated_at = ?, name = ?, scan_paths = ?
		WHERE id = ?`,
		formatTime(lib.UpdatedAt), lib.Name, scanPaths, lib.ID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrLibraryNotFound
	}
	return nil
}

// DeleteLibrary removes a library. Series, books, read progress and
// sidecars belonging to it are removed by cascade.
func (s *Store) DeleteLibrary(ctx context.Context, id string) error {
	bookIDs, err := s.bookIDsByLibrary(ctx, id)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM libraries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrLibraryNotFound
	}

	s.unindexBooks(ctx, bookIDs)
	return nil
}

func (s *Store) bookIDsByLibrary(ctx context.Context, libraryID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM books WHERE library_id = ?`, libraryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
