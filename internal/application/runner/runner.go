// Package runner ties the batch compiler, QP solver driver, and batch
// store together into the single "run one batch at instant t"
// operation described in spec section 3's data-flow diagram and
// section 4.3 ("outcomes are persisted as an append-only batch record
// that re-enters the bid book for historical query").
package runner

import (
	"context"
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/adapters/metrics"
	"github.com/andrescamacho/flowtrading-go/internal/application/compiler"
	"github.com/andrescamacho/flowtrading-go/internal/application/solver"
	"github.com/andrescamacho/flowtrading-go/internal/domain/batch"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// Runner runs one batch end to end: gather, solve, persist.
type Runner struct {
	gather          *compiler.GatherBatchHandler
	driver          *solver.Driver
	store           batch.Store
	timeUnitSeconds float64
	timeout         time.Duration
}

func New(gather *compiler.GatherBatchHandler, driver *solver.Driver, store batch.Store, timeUnitSeconds float64, timeout time.Duration) *Runner {
	return &Runner{gather: gather, driver: driver, store: store, timeUnitSeconds: timeUnitSeconds, timeout: timeout}
}

// RunAt gathers the book at t, solves the resulting QP, and persists
// the outcome as the new open batch record, closing whatever record
// was previously open. A solve failure (InfeasibleError,
// NumericalFailureError) produces no batch record: the previously
// open record is left untouched (spec section 5, "on timeout the
// solve fails ... and no batch record is produced").
func (r *Runner) RunAt(ctx context.Context, t time.Time) (*batch.Record, error) {
	start := time.Now()

	input, err := r.gather.Gather(ctx, t)
	if err != nil {
		metrics.RecordBatchRun(time.Since(start).Seconds(), 0, 0, "gather_failed")
		return nil, err
	}

	outcomes, err := r.driver.Solve(ctx, input, r.timeUnitSeconds, r.timeout)
	if err != nil {
		metrics.RecordBatchRun(time.Since(start).Seconds(), 0, 0, "solve_failed")
		return nil, err
	}

	rec := &batch.Record{
		ID:                shared.NewBatchID(),
		ValidFrom:         t,
		PortfolioOutcomes: make(map[shared.PortfolioID]batch.PortfolioOutcome, len(outcomes.Portfolios)),
		ProductOutcomes:   make(map[shared.ProductID]batch.ProductOutcome, len(outcomes.Products)),
		TimeUnitSeconds:   r.timeUnitSeconds,
	}
	for id, o := range outcomes.Portfolios {
		rec.PortfolioOutcomes[id] = batch.PortfolioOutcome{TradeRate: o.TradeRate, MarginalPrice: o.MarginalPrice}
	}
	for id, o := range outcomes.Products {
		rec.ProductOutcomes[id] = batch.ProductOutcome{TradedQuantity: o.TradedQuantity, ClearingPrice: o.ClearingPrice}
	}

	if err := r.store.CloseOpen(ctx, t); err != nil {
		metrics.RecordBatchRun(time.Since(start).Seconds(), 0, 0, "storage_failed")
		return nil, shared.NewStorageFailureError(err)
	}
	if err := r.store.Insert(ctx, rec); err != nil {
		metrics.RecordBatchRun(time.Since(start).Seconds(), 0, 0, "storage_failed")
		return nil, shared.NewStorageFailureError(err)
	}
	metrics.RecordBatchRun(time.Since(start).Seconds(), len(rec.PortfolioOutcomes), len(rec.ProductOutcomes), "settled")
	return rec, nil
}
