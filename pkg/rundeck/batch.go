package rundeck

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// DefaultChunkSize is the number of ids sent per bulk delete request.
const DefaultChunkSize = 25

// BatchResult aggregates the outcome of a chunked bulk operation.
type BatchResult struct {
	Requested int `json:"requested" yaml:"requested"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed"    yaml:"failed"`
	// Chunks is the number of requests issued.
	Chunks int `json:"chunks" yaml:"chunks"`
}

// Add folds one chunk's response into the running totals.
func (r *BatchResult) Add(resp *BulkDeleteResponse) {
	r.Chunks++
	r.Requested += resp.RequestCount
	r.Succeeded += resp.SuccessCount
	r.Failed += resp.FailedCount
}

// AllSuccessful reports whether no id failed.
func (r BatchResult) AllSuccessful() bool {
	return r.Failed == 0
}

// BatchDeleter issues one mutating request for a chunk of ids.
type BatchDeleter[ID any] func(ctx context.Context, chunk []ID) (*BulkDeleteResponse, error)

// Chunk partitions ids into consecutive slices of at most size elements.
func Chunk[ID any](ids []ID, size int) [][]ID {
	if size <= 0 || len(ids) == 0 {
		return nil
	}

	chunks := make([][]ID, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end])
	}

	return chunks
}

// DeleteInChunks sends ids to del in consecutive chunks, one request at a
// time. A failed chunk does not stop the remaining ones: its ids are counted
// as failed and its error is collected into the returned multierror.
func DeleteInChunks[ID any](ctx context.Context, ids []ID, chunkSize int, del BatchDeleter[ID]) (BatchResult, error) {
	var result BatchResult

	if chunkSize <= 0 {
		return result, fmt.Errorf("%w: %d", ErrInvalidChunkSize, chunkSize)
	}

	var errs *multierror.Error

	for index, chunk := range Chunk(ids, chunkSize) {
		err := ctx.Err()
		if err != nil {
			return result, multierror.Append(errs, err).ErrorOrNil()
		}

		resp, err := del(ctx, chunk)
		if err != nil {
			result.Chunks++
			result.Requested += len(chunk)
			result.Failed += len(chunk)
			errs = multierror.Append(errs, fmt.Errorf("chunk %d (%d ids): %w", index+1, len(chunk), err))

			continue
		}

		result.Add(resp)
	}

	return result, errs.ErrorOrNil()
}
