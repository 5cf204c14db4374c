package domain

// Series represents an ordered sequence of books inside a library.
type Series struct {
	Syncable
	LibraryID string `json:"library_id"`
	Name      string `json:"name"`
}
