// Package search provides the book full-text index and the query grammar
// used to search it.
package search

import (
	"strings"

	"github.com/listenupapp/readup-server/internal/domain"
)

// Document is the indexed form of a book.
type Document struct {
	ID          string
	Title       string
	ISBN        string
	Authors     []domain.Author
	Tags        []string
	Status      domain.MediaStatus
	ReleaseYear int
	NumberSort  float64
}

// NewDocument builds the index document for a book. Books without a
// metadata title are indexed under their file name.
func NewDocument(b *domain.Book) *Document {
	title := b.Metadata.Title
	if title == "" {
		title = b.Name
	}
	return &Document{
		ID:          b.ID,
		Title:       title,
		ISBN:        b.Metadata.ISBN,
		Authors:     b.Metadata.Authors,
		Tags:        b.Metadata.Tags,
		Status:      b.MediaStatus,
		ReleaseYear: b.Metadata.ReleaseYear(),
		NumberSort:  b.NumberSort,
	}
}

// ToMap converts the document to the field layout of the index mapping.
// Text is accent-folded here because the analyzer chain does not do it.
func (d *Document) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		fieldTitle:      foldAccents(d.Title),
		fieldStatus:     strings.ToLower(string(d.Status)),
		fieldNumberSort: d.NumberSort,
	}

	if d.ISBN != "" {
		m[fieldISBN] = normalizeISBN(d.ISBN)
	}
	if d.ReleaseYear > 0 {
		m[fieldReleaseYear] = float64(d.ReleaseYear)
	}

	if len(d.Tags) > 0 {
		tags := make([]string, len(d.Tags))
		for i, t := range d.Tags {
			tags[i] = foldKeyword(t)
		}
		m[fieldTags] = tags
	}

	if len(d.Authors) > 0 {
		all := make([]string, 0, len(d.Authors))
		byRole := make(map[string][]string)
		for _, a := range d.Authors {
			name := foldAccents(a.Name)
			all = append(all, name)
			role := strings.ToLower(a.Role)
			if domain.IsAuthorRole(role) {
				byRole[role] = append(byRole[role], name)
			}
		}
		m[fieldAuthors] = all
		for role, names := range byRole {
			m[roleField(role)] = names
		}
	}

	return m
}
