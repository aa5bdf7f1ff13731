package digest

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/theimaginaryfoundation/review-digest/digest/metrics"
)

// ErrCountMismatch is returned when a collaborator answers a batch with a different number of
// results than inputs.
var ErrCountMismatch = errors.New("collaborator result count does not match input count")

// mapBatches splits inputs into batches of batchSize, runs fn over them with at most limit in
// flight, and stitches the results back in input order. The first failure cancels the rest.
func mapBatches[T any](ctx context.Context, collaborator string, inputs []string, batchSize, limit int, fn func(context.Context, []string) ([]T, error)) ([]T, error) {
	out := make([]T, len(inputs))
	if len(inputs) == 0 {
		return out, nil
	}
	if batchSize <= 0 {
		batchSize = len(inputs)
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for start := 0; start < len(inputs); start += batchSize {
		end := min(start+batchSize, len(inputs))
		g.Go(func() error {
			res, err := fn(gctx, inputs[start:end])
			if err != nil {
				metrics.CollaboratorCalls.WithLabelValues(collaborator, "error").Inc()
				return fmt.Errorf("%s batch [%d:%d]: %w", collaborator, start, end, err)
			}
			if len(res) != end-start {
				metrics.CollaboratorCalls.WithLabelValues(collaborator, "error").Inc()
				return fmt.Errorf("%s batch [%d:%d]: got %d results: %w", collaborator, start, end, len(res), ErrCountMismatch)
			}
			metrics.CollaboratorCalls.WithLabelValues(collaborator, "ok").Inc()
			copy(out[start:end], res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
