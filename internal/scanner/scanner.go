// Package scanner discovers sidecar files in library scan paths and keeps
// the sidecar store in line with what is on disk.
package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/listenupapp/readup-server/internal/domain"
	"github.com/listenupapp/readup-server/internal/store"
)

// Scanner reconciles the sidecars of a library with its scan paths.
type Scanner struct {
	store  store.SidecarStore
	walker *Walker
	logger *slog.Logger

	// One scan per library at a time.
	mu      sync.Mutex
	running map[string]*sync.Mutex
}

// NewScanner creates a new scanner instance.
func NewScanner(s store.SidecarStore, logger *slog.Logger) *Scanner {
	return &Scanner{
		store:   s,
		walker:  NewWalker(logger),
		logger:  logger,
		running: make(map[string]*sync.Mutex),
	}
}

func (s *Scanner) libraryLock(libraryID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.running[libraryID]
	if !ok {
		l = &sync.Mutex{}
		s.running[libraryID] = l
	}
	return l
}

// Scan walks every scan path of the library, saves new and changed
// sidecars, and deletes the ones that vanished. If a scan path cannot be
// read at all, nothing is deleted so that an unmounted drive does not wipe
// the library's sidecars.
func (s *Scanner) Scan(ctx context.Context, library *domain.Library) (*Result, error) {
	lock := s.libraryLock(library.ID)
	lock.Lock()
	defer lock.Unlock()

	result := &Result{LibraryID: library.ID, StartedAt: time.Now()}

	var (
		scanned    []domain.Sidecar
		unreadable bool
	)
	for _, root := range library.ScanPaths {
		for r := range s.walker.Walk(ctx, root) {
			if r.Error != nil {
				result.Errors = append(result.Errors, ScanError{Path: r.Path, Error: r.Error.Error()})
				if r.Path == root {
					unreadable = true
				}
				continue
			}
			scanned = append(scanned, domain.Sidecar{
				URL:              domain.FileURL(r.Path),
				ParentURL:        domain.FileURL(r.Parent),
				LastModifiedTime: r.ModTime,
			})
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	stored, err := s.store.FindSidecarsByLibrary(ctx, library.ID)
	if err != nil {
		return nil, fmt.Errorf("list stored sidecars: %w", err)
	}

	diff := ComputeDiff(scanned, stored)

	for _, sc := range slices.Concat(diff.Added, diff.Updated) {
		if err := s.store.SaveSidecar(ctx, library.ID, sc); err != nil {
			return nil, fmt.Errorf("save sidecar %s: %w", sc.URL.String(), err)
		}
	}

	if unreadable && len(diff.Removed) > 0 {
		s.logger.Warn("scan path unreadable, keeping stored sidecars",
			"library_id", library.ID,
			"kept", len(diff.Removed),
		)
		result.Unchanged += len(diff.Removed)
		diff.Removed = nil
	}
	if err := s.store.DeleteSidecarsByLibraryAndURLs(ctx, library.ID, diff.Removed); err != nil {
		return nil, fmt.Errorf("delete sidecars: %w", err)
	}

	result.Added = len(diff.Added)
	result.Updated = len(diff.Updated)
	result.Removed = len(diff.Removed)
	result.Unchanged += diff.Unchanged
	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	s.logger.Info("sidecar scan complete",
		"library_id", library.ID,
		"added", result.Added,
		"updated", result.Updated,
		"removed", result.Removed,
		"unchanged", result.Unchanged,
		"errors", len(result.Errors),
		"duration", result.Duration,
	)
	return result, nil
}

// ScanAll scans each library in turn. A failing library is logged and skipped.
func (s *Scanner) ScanAll(ctx context.Context, libraries []*domain.Library) ([]*Result, error) {
	results := make([]*Result, 0, len(libraries))
	for _, lib := range libraries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r, err := s.Scan(ctx, lib)
		if err != nil {
			s.logger.Error("library scan failed", "library_id", lib.ID, "error", err)
			continue
		}
		results = append(results, r)
	}
	return results, nil
}
