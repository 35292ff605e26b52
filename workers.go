package provisions

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// parallelFor runs fn for every index in [0, n) on at most workers goroutines.
// fn must only write to state owned by its own index.
func parallelFor(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := 0; i < n; i++ {
		if err := egCtx.Err(); err != nil {
			break
		}
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			return fn(egCtx, i)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// parallelFold reduces items with an associative combine. Items are split in
// contiguous chunks, each chunk is folded by one worker and the partial
// results are merged in chunk order, so the result matches a sequential fold.
func parallelFold[T, A any](ctx context.Context, workers int, items []T, zero func() A, step func(A, T) A, combine func(A, A) A) (A, error) {
	chunks := workers
	if chunks > len(items) {
		chunks = len(items)
	}
	if chunks < 1 {
		return zero(), ctx.Err()
	}
	size := (len(items) + chunks - 1) / chunks
	partials := make([]A, chunks)
	err := parallelFor(ctx, workers, chunks, func(_ context.Context, c int) error {
		acc := zero()
		end := min((c+1)*size, len(items))
		for i := c * size; i < end; i++ {
			acc = step(acc, items[i])
		}
		partials[c] = acc
		return nil
	})
	if err != nil {
		var empty A
		return empty, err
	}
	result := zero()
	for _, p := range partials {
		result = combine(result, p)
	}
	return result, nil
}
