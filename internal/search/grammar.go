package search

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/listenupapp/readup-server/internal/domain"
)

// Searchable fields of the query grammar.
const (
	FieldTag         = "tag"
	FieldAuthor      = "author"
	FieldReleaseDate = "release_date"
	FieldStatus      = "status"
	FieldDeleted     = "deleted"
)

// Clause is one AND-ed term of a parsed query.
type Clause interface {
	clause()
}

// FreeText matches book titles (and ISBNs). Phrase requires the words adjacent.
type FreeText struct {
	Text   string
	Phrase bool
}

// FieldEquals matches a field value. Role fields use the role name as Field.
type FieldEquals struct {
	Field string
	Value string
}

// FieldRange matches an inclusive numeric range; a nil bound is open.
type FieldRange struct {
	Field string
	From  *int
	To    *int
}

// Never matches nothing. It replaces any clause that could not be understood.
type Never struct {
	Reason string
}

func (FreeText) clause()    {}
func (FieldEquals) clause() {}
func (FieldRange) clause()  {}
func (Never) clause()       {}

// Query is a parsed search term: a conjunction of clauses.
type Query struct {
	Clauses []Clause
}

// IsNever reports whether the query contains a clause that matches nothing.
func (q Query) IsNever() bool {
	for _, c := range q.Clauses {
		if _, ok := c.(Never); ok {
			return true
		}
	}
	return false
}

func (q Query) hasText() bool {
	for _, c := range q.Clauses {
		if _, ok := c.(FreeText); ok {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the query has no clauses at all.
func (q Query) IsEmpty() bool { return len(q.Clauses) == 0 }

// Without returns the query minus clauses on the given field, and the removed clauses.
func (q Query) Without(field string) (Query, []FieldEquals) {
	var kept []Clause
	var removed []FieldEquals
	for _, c := range q.Clauses {
		if fe, ok := c.(FieldEquals); ok && fe.Field == field {
			removed = append(removed, fe)
			continue
		}
		kept = append(kept, c)
	}
	return Query{Clauses: kept}, removed
}

// Parse turns a search term into clauses. It never fails: anything it cannot
// interpret becomes a Never clause, which empties the result.
//
// Syntax: bare words, "quoted phrases", field:value, field:"quoted value"
// and field:[from TO to] where either bound may be *.
func Parse(input string) Query {
	p := &parser{in: []rune(input)}
	var q Query
	for {
		p.skipSpace()
		if p.eof() {
			return q
		}
		if c := p.next(); c != nil {
			q.Clauses = append(q.Clauses, c)
		}
	}
}

type parser struct {
	in  []rune
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.in) }

func (p *parser) peek() rune { return p.in[p.pos] }

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.pos++
	}
}

// readUntil consumes runes up to (not including) stop, reporting whether stop was found.
func (p *parser) readUntil(stop rune) (string, bool) {
	start := p.pos
	for !p.eof() {
		if p.peek() == stop {
			s := string(p.in[start:p.pos])
			p.pos++
			return s, true
		}
		p.pos++
	}
	return string(p.in[start:]), false
}

func (p *parser) readWord() string {
	start := p.pos
	for !p.eof() && !unicode.IsSpace(p.peek()) {
		p.pos++
	}
	return string(p.in[start:p.pos])
}

// fieldName returns the identifier at the cursor if it is followed by ':'.
func (p *parser) fieldName() (string, bool) {
	end := p.pos
	for end < len(p.in) && (p.in[end] == '_' || unicode.IsLetter(p.in[end])) {
		end++
	}
	if end == p.pos || end >= len(p.in) || p.in[end] != ':' {
		return "", false
	}
	name := string(p.in[p.pos:end])
	p.pos = end + 1
	return strings.ToLower(name), true
}

func (p *parser) next() Clause {
	if p.peek() == '"' {
		p.pos++
		text, complete := p.readUntil('"')
		if !complete {
			return Never{Reason: "unterminated phrase"}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
		return FreeText{Text: text, Phrase: true}
	}

	if field, ok := p.fieldName(); ok {
		return p.fieldClause(field)
	}
	return FreeText{Text: p.readWord()}
}

func (p *parser) fieldClause(field string) Clause {
	var (
		value    string
		isRange  bool
		complete = true
	)
	switch {
	case p.eof() || unicode.IsSpace(p.peek()):
		return Never{Reason: "empty value for " + field}
	case p.peek() == '"':
		p.pos++
		value, complete = p.readUntil('"')
	case p.peek() == '[':
		p.pos++
		value, complete = p.readUntil(']')
		isRange = true
	default:
		value = p.readWord()
	}
	if !complete {
		return Never{Reason: "unterminated value for " + field}
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return Never{Reason: "empty value for " + field}
	}

	switch {
	case field == FieldReleaseDate:
		if isRange {
			return parseYearRange(value)
		}
		year, err := strconv.Atoi(value)
		if err != nil {
			return Never{Reason: "invalid year " + strconv.Quote(value)}
		}
		return FieldRange{Field: field, From: &year, To: &year}
	case isRange:
		return Never{Reason: "range not supported for " + field}
	case field == FieldTag, field == FieldAuthor, domain.IsAuthorRole(field):
		return FieldEquals{Field: field, Value: value}
	case field == FieldStatus:
		status, ok := domain.ParseMediaStatus(value)
		if !ok {
			return Never{Reason: "unknown media status " + strconv.Quote(value)}
		}
		return FieldEquals{Field: field, Value: string(status)}
	case field == FieldDeleted:
		switch strings.ToLower(value) {
		case "true", "false":
			return FieldEquals{Field: field, Value: strings.ToLower(value)}
		}
		return Never{Reason: "invalid boolean " + strconv.Quote(value)}
	default:
		return Never{Reason: "unknown field " + strconv.Quote(field)}
	}
}

// parseYearRange parses "A TO B" where A and B are years or *.
func parseYearRange(value string) Clause {
	parts := strings.Fields(value)
	if len(parts) != 3 || !strings.EqualFold(parts[1], "TO") {
		return Never{Reason: "malformed range " + strconv.Quote(value)}
	}
	bound := func(s string) (*int, bool) {
		if s == "*" {
			return nil, true
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, false
		}
		return &n, true
	}
	from, ok := bound(parts[0])
	if !ok {
		return Never{Reason: "invalid range bound " + strconv.Quote(parts[0])}
	}
	to, ok := bound(parts[2])
	if !ok {
		return Never{Reason: "invalid range bound " + strconv.Quote(parts[2])}
	}
	if from != nil && to != nil && *from > *to {
		return Never{Reason: "inverted range " + strconv.Quote(value)}
	}
	return FieldRange{Field: FieldReleaseDate, From: from, To: to}
}
