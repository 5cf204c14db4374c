package sqlite

import (
	"context"
	"fmt"
	"net/url"

	"github.com/listenupapp/readup-server/internal/domain"
)

func scanSidecar(scanner rowScanner) (*domain.SidecarStored, error) {
	var (
		sc           domain.SidecarStored
		rawURL       string
		rawParentURL string
		lastModified string
	)
	if err := scanner.Scan(&sc.LibraryID, &rawURL, &rawParentURL, &lastModified); err != nil {
		return nil, err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse sidecar url: %w", err)
	}
	parent, err := url.Parse(rawParentURL)
	if err != nil {
		return nil, fmt.Errorf("parse sidecar parent url: %w", err)
	}
	sc.URL = *u
	sc.ParentURL = *parent
	if sc.LastModifiedTime, err = parseTime(lastModified); err != nil {
		return nil, err
	}
	return &sc, nil
}

// FindAllSidecars returns every stored sidecar across all libraries.
func (s *Store) FindAllSidecars(ctx context.Context) ([]domain.SidecarStored, error) {
	return s.querySidecars(ctx,
		`SELECT library_id, url, parent_url, last_modified_time FROM sidecars`)
}

// FindSidecarsByLibrary returns the stored sidecars of one library.
func (s *Store) FindSidecarsByLibrary(ctx context.Context, libraryID string) ([]domain.SidecarStored, error) {
	return s.querySidecars(ctx, `
		SELECT library_id, url, parent_url, last_modified_time FROM sidecars
		WHERE library_id = ?`, libraryID)
}

func (s *Store) querySidecars(ctx context.Context, query string, args ...any) ([]domain.SidecarStored, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SidecarStored
	for rows.Next() {
		sc, err := scanSidecar(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

// SaveSidecar inserts or updates the sidecar keyed by (library, url).
// Saving the same sidecar twice leaves exactly one row.
func (s *Store) SaveSidecar(ctx context.Context, libraryID string, sidecar domain.Sidecar) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sidecars (library_id, url, parent_url, last_modified_time)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (library_id, url) DO UPDATE SET
			parent_url = excluded.parent_url,
			last_modified_time = excluded.last_modified_time`,
		libraryID,
		sidecar.URL.String(),
		sidecar.ParentURL.String(),
		formatTime(sidecar.LastModifiedTime),
	)
	if err != nil {
		return fmt.Errorf("save sidecar: %w", err)
	}
	return nil
}

// DeleteSidecarsByLibraryAndURLs removes the given sidecars of a library.
// Unknown URLs are ignored.
func (s *Store) DeleteSidecarsByLibraryAndURLs(ctx context.Context, libraryID string, urls []url.URL) error {
	if len(urls) == 0 {
		return nil
	}
	keys := make([]string, len(urls))
	for i, u := range urls {
		keys[i] = u.String()
	}
	arr, err := jsonArray(keys)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		DELETE FROM sidecars
		WHERE library_id = ? AND url IN (SELECT value FROM json_each(?))`,
		libraryID, arr)
	return err
}
