package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const minChunk = 64

// parallelFor splits [0, n) into contiguous chunks and runs fn on each with
// at most workers goroutines. Cancellation is checked before every chunk.
func parallelFor(ctx context.Context, n, workers int, fn func(lo, hi int)) error {
	if n == 0 {
		return ctx.Err()
	}
	chunk := max(minChunk, (n+workers*4-1)/(workers*4))
	if workers <= 1 || n <= chunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(0, n)
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}
