package rundeck_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fivetwenty-io/rundeck-admin/pkg/rundeck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPageUnavailable = errors.New("page unavailable")

type item struct {
	ID    int64
	HasID bool
}

func itemID(it item) (int64, bool) {
	return it.ID, it.HasID
}

func intPtr(value int) *int {
	return &value
}

// pagedServer serves pages of the given sizes with consecutive ids and
// records the requested offsets.
func pagedServer(sizes []int, total *int, offsets *[]int) rundeck.PageFetcher[item] {
	next := int64(1)
	calls := 0

	return func(_ context.Context, offset, limit int) (*rundeck.Page[item], error) {
		*offsets = append(*offsets, offset)

		size := 0
		if calls < len(sizes) {
			size = sizes[calls]
		}

		calls++

		items := make([]item, 0, size)
		for range size {
			items = append(items, item{ID: next, HasID: true})
			next++
		}

		return &rundeck.Page[item]{
			Items: items,
			// Offset is echoed as 0 to check the requested offset is used.
			Paging: rundeck.Paging{Count: size, Total: total, Offset: 0, Max: limit},
		}, nil
	}
}

func TestEnumerateIDs_PagesUntilRemainingIsZero(t *testing.T) {
	t.Parallel()

	var offsets []int

	ids, requests, err := rundeck.EnumerateIDs(context.Background(),
		pagedServer([]int{25, 25, 25, 10}, intPtr(85), &offsets), itemID, rundeck.DefaultPageSize)
	require.NoError(t, err)
	assert.Equal(t, 4, requests)
	assert.Len(t, ids, 85)
	assert.Equal(t, []int{0, 25, 50, 75}, offsets)
}

func TestEnumerateIDs_ExactPageBoundary(t *testing.T) {
	t.Parallel()

	var offsets []int

	ids, requests, err := rundeck.EnumerateIDs(context.Background(),
		pagedServer([]int{25, 25}, intPtr(50), &offsets), itemID, 25)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
	assert.Len(t, ids, 50)
}

func TestEnumerateIDs_WithoutTotalStopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	var offsets []int

	ids, requests, err := rundeck.EnumerateIDs(context.Background(),
		pagedServer([]int{25, 25, 25, 10}, nil, &offsets), itemID, 25)
	require.NoError(t, err)
	assert.Equal(t, 5, requests)
	assert.Len(t, ids, 85)
}

func TestEnumerateIDs_StaleTotalStopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	var offsets []int

	_, requests, err := rundeck.EnumerateIDs(context.Background(),
		pagedServer([]int{25}, intPtr(1000), &offsets), itemID, 25)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
}

func TestEnumerateIDs_DedupesAndSkipsMissingIDs(t *testing.T) {
	t.Parallel()

	pages := [][]item{
		{{ID: 5, HasID: true}, {ID: 7, HasID: true}, {HasID: false}},
		{{ID: 7, HasID: true}, {ID: 9, HasID: true}},
	}

	fetch := func(_ context.Context, offset, limit int) (*rundeck.Page[item], error) {
		page := pages[offset/limit]

		return &rundeck.Page[item]{
			Items:  page,
			Paging: rundeck.Paging{Count: len(page), Total: intPtr(5), Offset: offset, Max: limit},
		}, nil
	}

	ids, requests, err := rundeck.EnumerateIDs(context.Background(), fetch, itemID, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, requests)
	assert.Equal(t, []int64{5, 7, 9}, ids)
}

func TestEnumerateIDs_Errors(t *testing.T) {
	t.Parallel()

	_, _, err := rundeck.EnumerateIDs(context.Background(), nil, itemID, 0)
	require.ErrorIs(t, err, rundeck.ErrInvalidPageSize)

	fetch := func(context.Context, int, int) (*rundeck.Page[item], error) {
		return nil, errPageUnavailable
	}

	_, requests, err := rundeck.EnumerateIDs(context.Background(), fetch, itemID, 25)
	require.ErrorIs(t, err, errPageUnavailable)
	assert.Equal(t, 1, requests)
}

func TestPaging_Remaining(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 60, rundeck.Paging{Count: 25, Total: intPtr(85), Offset: 0}.Remaining())
	assert.Equal(t, 0, rundeck.Paging{Count: 10, Total: intPtr(85), Offset: 75}.Remaining())
	assert.Equal(t, 0, rundeck.Paging{Count: 10, Total: intPtr(5), Offset: 75}.Remaining())
	assert.Equal(t, 25, rundeck.Paging{Count: 25}.Remaining())
}

func TestDedupe(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int64{3, 1, 2}, rundeck.Dedupe([]int64{3, 1, 3, 2, 1}))
	assert.Empty(t, rundeck.Dedupe[string](nil))
}
