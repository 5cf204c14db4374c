package store

import "github.com/listenupapp/readup-server/internal/domain"

// BookFilter restricts a book listing. Zero values mean "unrestricted",
// except IDs: a non-nil empty slice matches nothing.
type BookFilter struct {
	IDs        []string
	LibraryIDs []string
	SeriesIDs  []string
	Deleted    *bool
	ReadStatus []domain.ReadStatus
	// UserID selects whose read progress is joined and filtered on.
	UserID string
}

// MatchesNothing reports whether the filter is known to select no rows.
func (f BookFilter) MatchesNothing() bool {
	return f.IDs != nil && len(f.IDs) == 0
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
