package services

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/livefire2015/ez-credit/src/logger"
	"github.com/livefire2015/ez-credit/src/models"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchWorkers bounds per-customer parallelism in batch runs
const DefaultBatchWorkers = 4

// customerTask processes one customer. index is the customer's position in
// the input slice so results can be written without extra locking.
type customerTask func(ctx context.Context, index int, customer models.Customer) error

// forEachCustomer runs task for every customer with at most workers running
// at once. A failing or panicking customer is recorded and the rest of the
// batch continues. Failures are returned in input order.
func forEachCustomer(ctx context.Context, workers int, customers []models.Customer, task customerTask) []models.CustomerFailure {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}

	errs := make([]error, len(customers))

	var g errgroup.Group
	g.SetLimit(workers)

	for i := range customers {
		i := i
		g.Go(func() error {
			customer := customers[i]
			customerCtx := logger.WithCustomer(ctx, customer.ID)

			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic: %v", r)
					logger.Error(customerCtx, "customer processing panicked",
						"panic", r,
						"stack", string(debug.Stack()))
				}
			}()

			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			if err := task(customerCtx, i, customer); err != nil {
				errs[i] = err
				logger.Warn(customerCtx, "customer skipped in batch", "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var failures []models.CustomerFailure
	for i, err := range errs {
		if err == nil {
			continue
		}
		failures = append(failures, models.CustomerFailure{
			CustomerID: customers[i].ID,
			Err:        err,
			Message:    err.Error(),
		})
	}
	return failures
}
