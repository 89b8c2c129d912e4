package payg

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/manageitwa/payg-tax/generic"
)

// =============================================================================
// BATCH - A payroll run over many workers
// =============================================================================

// BatchItem is one payment in a payroll run.
type BatchItem struct {
	Ref      generic.WorkerRef
	Employer Employer
	Worker   Worker
	Payment  Payment
}

// BatchResult pairs an item with its outcome. Err is set when that item
// failed; other items are unaffected.
type BatchResult struct {
	Ref    generic.WorkerRef
	Result Result
	Err    error
}

// RunBatch calculates every item on a pool of at most workers goroutines.
// Results keep the order of items. The returned error is only set when ctx
// is cancelled before every item was processed.
func RunBatch(ctx context.Context, calc *Calculator, items []BatchItem, workers int) ([]BatchResult, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]BatchResult, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := calc.Calculate(item.Employer, item.Worker, item.Payment)
			results[i] = BatchResult{Ref: item.Ref, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
