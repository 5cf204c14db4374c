package scanner

import (
	"net/url"

	"github.com/listenupapp/readup-server/internal/domain"
)

// Diff lists the changes needed to bring stored sidecars in line with disk.
type Diff struct {
	Added     []domain.Sidecar
	Updated   []domain.Sidecar
	Removed   []url.URL
	Unchanged int
}

// ComputeDiff compares scanned sidecars against stored ones, matching by URL.
// A sidecar counts as updated when its modification time or parent changed.
func ComputeDiff(scanned []domain.Sidecar, stored []domain.SidecarStored) *Diff {
	diff := &Diff{}

	existing := make(map[string]domain.SidecarStored, len(stored))
	for _, s := range stored {
		existing[s.URL.String()] = s
	}

	seen := make(map[string]bool, len(scanned))
	for _, s := range scanned {
		key := s.URL.String()
		seen[key] = true

		old, ok := existing[key]
		switch {
		case !ok:
			diff.Added = append(diff.Added, s)
		case !old.LastModifiedTime.Equal(s.LastModifiedTime) || old.ParentURL.String() != s.ParentURL.String():
			diff.Updated = append(diff.Updated, s)
		default:
			diff.Unchanged++
		}
	}

	for _, s := range stored {
		if !seen[s.URL.String()] {
			diff.Removed = append(diff.Removed, s.URL)
		}
	}
	return diff
}
