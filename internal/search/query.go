package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// phraseBoost ranks titles containing the words adjacent above titles that
// merely contain all of them.
const phraseBoost = 2.0

// Search returns the IDs of every document matching q, best match first.
// Ties are broken by number_sort then ID so results are stable. Queries
// without free text have no meaningful score and are ordered by number_sort.
// A query that can match nothing returns no IDs without touching the index.
func (s *SearchIndex) Search(ctx context.Context, q Query) ([]string, error) {
	if q.IsNever() {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count, err := s.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if count == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), int(count), 0, false)
	if q.hasText() {
		req.SortBy([]string{"-_score", fieldNumberSort, "_id"})
	} else {
		req.SortBy([]string{fieldNumberSort, "_id"})
	}

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ids := make([]string, len(result.Hits))
	for i, hit := range result.Hits {
		ids[i] = hit.ID
	}
	return ids, nil
}

// buildQuery converts parsed clauses into a Bleve conjunction. Consecutive
// bare words are matched together so that adjacency can boost the score.
func buildQuery(q Query) query.Query {
	var (
		queries []query.Query
		words   []string
	)

	for _, c := range q.Clauses {
		switch c := c.(type) {
		case FreeText:
			if c.Phrase {
				phrase := bleve.NewMatchPhraseQuery(foldAccents(c.Text))
				phrase.SetField(fieldTitle)
				queries = append(queries, phrase)
			} else {
				words = append(words, c.Text)
			}
		case FieldEquals:
			queries = append(queries, fieldQuery(c))
		case FieldRange:
			queries = append(queries, rangeQuery(c))
		case Never:
			return bleve.NewMatchNoneQuery()
		}
	}

	if len(words) > 0 {
		queries = append(queries, freeTextQuery(strings.Join(words, " ")))
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	return bleve.NewConjunctionQuery(queries...)
}

// freeTextQuery matches all words in the title, prefers them as a phrase,
// or matches the text as an ISBN.
func freeTextQuery(text string) query.Query {
	folded := foldAccents(text)

	all := bleve.NewMatchQuery(folded)
	all.SetField(fieldTitle)
	all.SetOperator(query.MatchQueryOperatorAnd)

	phrase := bleve.NewMatchPhraseQuery(folded)
	phrase.SetField(fieldTitle)
	phrase.SetBoost(phraseBoost)

	isbn := bleve.NewTermQuery(normalizeISBN(text))
	isbn.SetField(fieldISBN)

	return bleve.NewDisjunctionQuery(all, phrase, isbn)
}

func fieldQuery(c FieldEquals) query.Query {
	switch c.Field {
	case FieldTag:
		tq := bleve.NewTermQuery(foldKeyword(c.Value))
		tq.SetField(fieldTags)
		return tq
	case FieldStatus:
		tq := bleve.NewTermQuery(strings.ToLower(c.Value))
		tq.SetField(fieldStatus)
		return tq
	case FieldAuthor:
		return nameQuery(fieldAuthors, c.Value)
	case FieldDeleted:
		// Deletion state lives in the record store, not the index.
		return bleve.NewMatchAllQuery()
	default:
		return nameQuery(roleField(c.Field), c.Value)
	}
}

func nameQuery(field, value string) query.Query {
	mq := bleve.NewMatchQuery(foldAccents(value))
	mq.SetField(field)
	mq.SetOperator(query.MatchQueryOperatorAnd)
	return mq
}

func rangeQuery(c FieldRange) query.Query {
	var from, to *float64
	if c.From != nil {
		f := float64(*c.From)
		from = &f
	}
	if c.To != nil {
		t := float64(*c.To)
		to = &t
	}
	if from == nil && to == nil {
		// [* TO *] still requires a release year; stored years are positive.
		zero := 0.0
		from = &zero
	}
	inclusive := true
	rq := bleve.NewNumericRangeInclusiveQuery(from, to, &inclusive, &inclusive)
	rq.SetField(fieldReleaseYear)
	return rq
}
