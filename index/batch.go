package index

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// SearchBatch runs Search for every query concurrently and returns the
// results in query order. The first failing query cancels the rest.
func (x *EmbeddingIndex) SearchBatch(ctx context.Context, queries [][]float32, k int) ([]SearchResult, error) {
	results := make([]SearchResult, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := x.Search(q, k)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
