package rundeck

import (
	"context"
	"fmt"
)

// DefaultPageSize is the page size used when walking paginated listings.
const DefaultPageSize = 25

// Page is one bounded slice of a paginated listing.
type Page[T any] struct {
	Items  []T
	Paging Paging
}

// PageFetcher fetches the page starting at offset holding at most max items.
type PageFetcher[T any] func(ctx context.Context, offset, max int) (*Page[T], error)

// EnumerateIDs walks a listing page by page and returns the distinct ids in
// first-seen order, together with the number of page requests issued.
//
// The offset starts at 0 and grows by pageSize after every request. The walk
// ends when the server reports nothing remaining, or when a page comes back
// empty. Items for which id reports false are skipped. Windows may overlap
// when the server mutates concurrently, so duplicates are dropped.
func EnumerateIDs[T any, ID comparable](
	ctx context.Context,
	fetch PageFetcher[T],
	id func(T) (ID, bool),
	pageSize int,
) ([]ID, int, error) {
	if pageSize <= 0 {
		return nil, 0, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}

	seen := make(map[ID]struct{})
	ids := make([]ID, 0)
	requests := 0

	for offset := 0; ; offset += pageSize {
		err := ctx.Err()
		if err != nil {
			return ids, requests, err
		}

		page, err := fetch(ctx, offset, pageSize)
		requests++

		if err != nil {
			return ids, requests, fmt.Errorf("fetching page at offset %d: %w", offset, err)
		}

		for _, item := range page.Items {
			value, ok := id(item)
			if !ok {
				continue
			}

			if _, dup := seen[value]; dup {
				continue
			}

			seen[value] = struct{}{}
			ids = append(ids, value)
		}

		// The requested offset is authoritative; some servers echo 0.
		paging := page.Paging
		paging.Offset = offset

		if len(page.Items) == 0 || paging.Remaining() == 0 {
			return ids, requests, nil
		}
	}
}

// Dedupe returns values with duplicates removed, keeping first-seen order.
func Dedupe[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))

	for _, value := range values {
		if _, dup := seen[value]; dup {
			continue
		}

		seen[value] = struct{}{}
		out = append(out, value)
	}

	return out
}
