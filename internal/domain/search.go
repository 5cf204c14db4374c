package domain

import "time"

// BookSearchCriteria describes a book listing request. A nil SearchTerm lists
// without full-text matching; an empty ReadStatus set applies no read filter.
type BookSearchCriteria struct {
	SearchTerm *string
	ReadStatus []ReadStatus
	LibraryIDs []string
	SeriesIDs  []string
}

// HasSearchTerm reports whether a non-blank search term was supplied.
func (c BookSearchCriteria) HasSearchTerm() bool {
	return c.SearchTerm != nil && *c.SearchTerm != ""
}

// ReadProgressSummary is the requesting user's progress embedded in a book summary.
type ReadProgressSummary struct {
	Page      int       `json:"page"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BookSummaryWithProgress is a read-only projection of a book enriched with
// the requesting user's progress. ReadProgress is nil when the user has none.
type BookSummaryWithProgress struct {
	ID           string               `json:"id"`
	LibraryID    string               `json:"library_id"`
	SeriesID     string               `json:"series_id"`
	Name         string               `json:"name"`
	URL          string               `json:"url"`
	Number       int                  `json:"number"`
	NumberSort   float64              `json:"number_sort"`
	FileSize     int64                `json:"file_size"`
	MediaStatus  MediaStatus          `json:"media_status"`
	Metadata     BookMetadata         `json:"metadata"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	DeletedAt    *time.Time           `json:"deleted_at,omitempty"`
	ReadProgress *ReadProgressSummary `json:"read_progress,omitempty"`
}
