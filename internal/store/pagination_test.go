package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequest_Validate(t *testing.T) {
	tests := []struct {
		name         string
		input        PageRequest
		expectedPage int
		expectedSize int
	}{
		{"valid parameters", PageOf(2, 50), 2, 50},
		{"zero size defaults to 20", PageOf(0, 0), 0, 20},
		{"negative size defaults to 20", PageOf(0, -10), 0, 20},
		{"size over 500 caps at 500", PageOf(0, 5000), 0, 500},
		{"negative page clamps to zero", PageOf(-3, 10), 0, 10},
		{"huge page clamps to the last addressable page", PageOf(math.MaxInt/20+1, 20), MaxPage, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.input
			require.NoError(t, req.Validate())
			assert.Equal(t, tt.expectedPage, req.Page)
			assert.Equal(t, tt.expectedSize, req.Size)
		})
	}
}

func TestPageRequest_ValidateRejectsUnknownSort(t *testing.T) {
	req := PageOf(0, 10, Order{Property: "shoe_size"})
	err := req.Validate()
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPageRequest_ValidateDefaultsDirection(t *testing.T) {
	req := PageOf(0, 10, Order{Property: SortTitle})
	require.NoError(t, req.Validate())
	assert.Equal(t, Asc, req.Sort.Orders[0].Direction)
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("Release_Date,desc")
	require.NoError(t, err)
	assert.Equal(t, Order{Property: SortReleaseDate, Direction: Desc}, o)

	o, err = ParseOrder("title")
	require.NoError(t, err)
	assert.Equal(t, Asc, o.Direction)

	_, err = ParseOrder("title,sideways")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = ParseOrder(",asc")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page := Paginate(items, PageOf(1, 2))
	assert.Equal(t, []int{3, 4}, page.Items)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages())

	last := Paginate(items, PageOf(2, 2))
	assert.Equal(t, []int{5}, last.Items)

	beyond := Paginate(items, PageOf(7, 2))
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 5, beyond.Total)

	all := Paginate(items, UnpagedSorted())
	assert.Equal(t, items, all.Items)
	assert.Equal(t, 1, all.TotalPages())
}

func TestPageRequest_OffsetSaturates(t *testing.T) {
	assert.Equal(t, 40, PageOf(2, 20).Offset())
	assert.Equal(t, math.MaxInt, PageOf(math.MaxInt/20+1, 20).Offset())
	assert.Zero(t, PageOf(-1, 20).Offset())

	req := PageOf(math.MaxInt, MaxPageSize)
	require.NoError(t, req.Validate())
	assert.Positive(t, req.Offset())
}

func TestPaginate_HugePage(t *testing.T) {
	page := Paginate([]int{1, 2, 3}, PageOf(math.MaxInt/20+1, 20))
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Total)
}

func TestSort_IsRelevance(t *testing.T) {
	assert.True(t, ByRelevance().Sort.IsRelevance())
	assert.False(t, PageOf(0, 10, Order{Property: SortTitle}).Sort.IsRelevance())
	assert.True(t, PageOf(0, 10).Sort.IsUnsorted())
}

func TestBookFilter_MatchesNothing(t *testing.T) {
	assert.False(t, BookFilter{}.MatchesNothing())
	assert.True(t, BookFilter{IDs: []string{}}.MatchesNothing())
	assert.False(t, BookFilter{IDs: []string{"a"}}.MatchesNothing())
}
