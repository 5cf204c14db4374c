package scanner

import (
	"path/filepath"
	"strings"
	"time"
)

// SidecarKind classifies a sidecar file.
type SidecarKind string

// Sidecar kinds recognized during a scan.
const (
	KindArtwork     SidecarKind = "artwork"
	KindSeriesJSON  SidecarKind = "series_json"
	KindComicInfo   SidecarKind = "comic_info"
	KindNFO         SidecarKind = "nfo"
	KindNotASidecar SidecarKind = ""
)

const (
	seriesJSONName = "series.json"
	comicInfoName  = "comicinfo.xml"
)

var artworkExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".tbn":  true,
}

// ClassifySidecar returns the sidecar kind of a file name, or KindNotASidecar.
func ClassifySidecar(name string) SidecarKind {
	base := strings.ToLower(filepath.Base(name))
	switch {
	case base == seriesJSONName:
		return KindSeriesJSON
	case base == comicInfoName:
		return KindComicInfo
	case filepath.Ext(base) == ".nfo":
		return KindNFO
	case artworkExtensions[filepath.Ext(base)]:
		return KindArtwork
	default:
		return KindNotASidecar
	}
}

// Result summarizes a reconciliation of one library.
type Result struct {
	LibraryID   string        `json:"library_id"`
	Added       int           `json:"added"`
	Updated     int           `json:"updated"`
	Removed     int           `json:"removed"`
	Unchanged   int           `json:"unchanged"`
	Errors      []ScanError   `json:"errors,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
}

// ScanError records a path that could not be scanned.
type ScanError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}
