package domain

import (
	"slices"
	"time"
)

// Library represents a comic/e-book collection rooted at one or more filesystem paths.
// A library can scan multiple filesystem paths and presents them as a single
// unified collection.
type Library struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	ScanPaths []string `json:"scan_paths"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddScanPath adds a root to the library, ignoring duplicates.
func (l *Library) AddScanPath(path string) {
	if slices.Contains(l.ScanPaths, path) {
		return
	}
	l.ScanPaths = append(l.ScanPaths, path)
}

// RemoveScanPath drops a root from the library.
func (l *Library) RemoveScanPath(path string) {
	l.ScanPaths = slices.DeleteFunc(l.ScanPaths, func(existing string) bool {
		return existing == path
	})
}
