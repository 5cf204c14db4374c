// Package domain contains the core entities of the ReadUp comic and e-book library.
package domain

import (
	"slices"
	"strings"
	"time"
)

// MediaStatus describes whether a book's file has been analyzed successfully.
type MediaStatus string

// Media statuses, as reported by the analyzer.
const (
	MediaStatusUnknown     MediaStatus = "UNKNOWN"
	MediaStatusError       MediaStatus = "ERROR"
	MediaStatusReady       MediaStatus = "READY"
	MediaStatusUnsupported MediaStatus = "UNSUPPORTED"
	MediaStatusOutdated    MediaStatus = "OUTDATED"
)

// MediaStatuses lists every known media status.
var MediaStatuses = []MediaStatus{
	MediaStatusUnknown,
	MediaStatusError,
	MediaStatusReady,
	MediaStatusUnsupported,
	MediaStatusOutdated,
}

// ParseMediaStatus resolves a status name case-insensitively.
func ParseMediaStatus(s string) (MediaStatus, bool) {
	for _, status := range MediaStatuses {
		if strings.EqualFold(string(status), s) {
			return status, true
		}
	}
	return "", false
}

// Author roles recognized by metadata providers and the search grammar.
const (
	RoleWriter     = "writer"
	RolePenciller  = "penciller"
	RoleInker      = "inker"
	RoleColorist   = "colorist"
	RoleLetterer   = "letterer"
	RoleCover      = "cover"
	RoleEditor     = "editor"
	RoleTranslator = "translator"
)

// AuthorRoles lists the known roles in display order.
var AuthorRoles = []string{
	RoleWriter,
	RolePenciller,
	RoleInker,
	RoleColorist,
	RoleLetterer,
	RoleCover,
	RoleEditor,
	RoleTranslator,
}

// IsAuthorRole reports whether role is one of the known author roles.
func IsAuthorRole(role string) bool {
	return slices.Contains(AuthorRoles, role)
}

// Author credits a person with a role on a book.
type Author struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// BookMetadata is the descriptive metadata of a book.
type BookMetadata struct {
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	ISBN        string     `json:"isbn,omitempty"`
	Authors     []Author   `json:"authors"`
	Tags        []string   `json:"tags"`
}

// ReleaseYear returns the release year, or 0 if no release date is set.
func (m BookMetadata) ReleaseYear() int {
	if m.ReleaseDate == nil {
		return 0
	}
	return m.ReleaseDate.Year()
}

// Book is a single file (comic archive, e-book) inside a series.
type Book struct {
	Syncable
	LibraryID   string       `json:"library_id"`
	SeriesID    string       `json:"series_id"`
	Name        string       `json:"name"`
	URL         string       `json:"url"`
	Number      int          `json:"number"`
	NumberSort  float64      `json:"number_sort"`
	FileSize    int64        `json:"file_size"`
	MediaStatus MediaStatus  `json:"media_status"`
	Metadata    BookMetadata `json:"metadata"`
}

// BookRef is the positional projection of a book used to walk series in order.
type BookRef struct {
	ID         string
	SeriesID   string
	LibraryID  string
	NumberSort float64
}
