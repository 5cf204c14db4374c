package domain

import (
	"net/url"
	"time"
)

// Sidecar is an auxiliary file living next to library content, such as local
// artwork or a series.json descriptor. It is tracked so that changes can be
// detected between scans.
type Sidecar struct {
	URL              url.URL   `json:"url"`
	ParentURL        url.URL   `json:"parent_url"`
	LastModifiedTime time.Time `json:"last_modified_time"`
}

// SidecarStored is a sidecar as persisted, tagged with its owning library.
type SidecarStored struct {
	Sidecar
	LibraryID string `json:"library_id"`
}

// FileURL converts a filesystem path to a file: URL.
func FileURL(path string) url.URL {
	return url.URL{Scheme: "file", Path: path}
}
