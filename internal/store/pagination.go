package store

import (
	"fmt"
	"math"
	"strings"
)

// Page bounds. MaxPage keeps Page*Size within an int.
const (
	DefaultPageSize = 20
	MaxPageSize     = 500
	MaxPage         = math.MaxInt / MaxPageSize
)

// SortRelevance is the pseudo-property requesting full-text relevance order.
const SortRelevance = "relevance"

// Book sort properties understood by the record store.
const (
	SortName             = "name"
	SortTitle            = "title"
	SortNumber           = "number"
	SortReleaseDate      = "release_date"
	SortCreatedDate      = "created_date"
	SortLastModifiedDate = "last_modified_date"
	SortReadDate         = "read_date"
	SortFileSize         = "file_size"
)

var bookSortProperties = map[string]bool{
	SortRelevance:        true,
	SortName:             true,
	SortTitle:            true,
	SortNumber:           true,
	SortReleaseDate:      true,
	SortCreatedDate:      true,
	SortLastModifiedDate: true,
	SortReadDate:         true,
	SortFileSize:         true,
}

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order sorts by a single property.
type Order struct {
	Property  string
	Direction Direction
}

// Sort is an ordered list of sort orders; earlier orders take precedence.
type Sort struct {
	Orders []Order
}

// IsUnsorted reports whether no order was requested.
func (s Sort) IsUnsorted() bool { return len(s.Orders) == 0 }

// IsRelevance reports whether the primary order is relevance.
func (s Sort) IsRelevance() bool {
	return len(s.Orders) > 0 && s.Orders[0].Property == SortRelevance
}

// ParseOrder parses "property[,asc|desc]".
func ParseOrder(raw string) (Order, error) {
	prop, dir, _ := strings.Cut(strings.TrimSpace(raw), ",")
	o := Order{Property: strings.ToLower(strings.TrimSpace(prop)), Direction: Asc}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		o.Direction = Desc
	default:
		return Order{}, fmt.Errorf("%w: sort direction %q", ErrInvalidInput, dir)
	}
	if o.Property == "" {
		return Order{}, fmt.Errorf("%w: empty sort property", ErrInvalidInput)
	}
	return o, nil
}

// PageRequest asks for one page of a sorted result.
type PageRequest struct {
	Page    int  // zero-based
	Size    int  // items per page (defaults to 20 with a maximum of 500)
	Sort    Sort // empty means the caller's default order
	Unpaged bool // return every item; Page and Size are ignored
}

// PageOf builds a paged request.
func PageOf(page, size int, orders ...Order) PageRequest {
	return PageRequest{Page: page, Size: size, Sort: Sort{Orders: orders}}
}

// UnpagedSorted builds a request returning everything in the given order.
func UnpagedSorted(orders ...Order) PageRequest {
	return PageRequest{Unpaged: true, Sort: Sort{Orders: orders}}
}

// ByRelevance requests the first default-size page in relevance order.
func ByRelevance() PageRequest {
	return PageOf(0, DefaultPageSize, Order{Property: SortRelevance, Direction: Desc})
}

// Validate checks and corrects page parameters, and rejects unknown sort properties.
func (p *PageRequest) Validate() error {
	p.Page = min(max(p.Page, 0), MaxPage)
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	for i, o := range p.Sort.Orders {
		if !bookSortProperties[o.Property] {
			return fmt.Errorf("%w: unknown sort property %q", ErrInvalidInput, o.Property)
		}
		if o.Direction == "" {
			p.Sort.Orders[i].Direction = Asc
		}
	}
	return nil
}

// Offset returns the index of the first item on the requested page.
func (p PageRequest) Offset() int {
	if p.Unpaged || p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// Page holds one page of results plus the total across all pages.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Size    int  `json:"size"`
	Unpaged bool `json:"unpaged"`
}

// TotalPages returns the number of pages needed to hold Total items.
func (p *Page[T]) TotalPages() int {
	if p.Unpaged {
		return 1
	}
	if p.Size <= 0 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.Size - 1) / p.Size
}

// EmptyPage returns a page with no items for the given request.
func EmptyPage[T any](req PageRequest) *Page[T] {
	return &Page[T]{Items: []T{}, Page: req.Page, Size: req.Size, Unpaged: req.Unpaged}
}

// Paginate slices an already-ordered list according to req.
func Paginate[T any](items []T, req PageRequest) *Page[T] {
	page := EmptyPage[T](req)
	page.Total = len(items)
	if req.Unpaged {
		page.Items = append(page.Items, items...)
		page.Size = len(items)
		return page
	}
	start := min(req.Offset(), len(items))
	end := start + min(max(req.Size, 0), len(items)-start)
	page.Items = append(page.Items, items[start:end]...)
	return page
}
