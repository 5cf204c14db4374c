package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/listenupapp/readup-server/internal/domain"
)

// textAnalyzer splits on UAX#29 word boundaries, so "x-men" yields "x" and
// "men" while "s.w.o.r.d." stays whole; CJK runs become bigrams.
const textAnalyzer = "book_text"

// Index field names.
const (
	fieldTitle       = "title"
	fieldISBN        = "isbn"
	fieldAuthors     = "authors"
	fieldTags        = "tags"
	fieldStatus      = "status"
	fieldReleaseYear = "release_year"
	fieldNumberSort  = "number_sort"
)

// roleField is the index field holding author names credited with role.
func roleField(role string) string {
	return "author_" + role
}

// buildIndexMapping creates the Bleve index mapping for book documents.
func buildIndexMapping() (mapping.IndexMapping, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(textAnalyzer, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			cjk.WidthName,
			lowercase.Name,
			cjk.BigramName,
			porter.Name,
		},
	})
	if err != nil {
		return nil, err
	}
	indexMapping.DefaultAnalyzer = textAnalyzer

	docMapping := bleve.NewDocumentMapping()

	textField := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = textAnalyzer
		return f
	}
	keywordField := func() *mapping.FieldMapping {
		f := bleve.NewTextFieldMapping()
		f.Analyzer = keyword.Name
		return f
	}

	// Title is the primary free-text target; term vectors back phrase matching.
	title := textField()
	title.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(fieldTitle, title)

	docMapping.AddFieldMappingsAt(fieldAuthors, textField())
	for _, role := range domain.AuthorRoles {
		docMapping.AddFieldMappingsAt(roleField(role), textField())
	}

	docMapping.AddFieldMappingsAt(fieldISBN, keywordField())
	docMapping.AddFieldMappingsAt(fieldTags, keywordField())
	docMapping.AddFieldMappingsAt(fieldStatus, keywordField())

	docMapping.AddFieldMappingsAt(fieldReleaseYear, bleve.NewNumericFieldMapping())
	docMapping.AddFieldMappingsAt(fieldNumberSort, bleve.NewNumericFieldMapping())

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping, nil
}
