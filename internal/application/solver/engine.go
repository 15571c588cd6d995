package solver

import (
	"context"
	"errors"
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/adapters/metrics"
	"github.com/andrescamacho/flowtrading-go/internal/application/compiler"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// Tolerances declares the termination tolerances a convex-QP engine
// must honor (spec section 4.4, "Solver model").
type Tolerances struct {
	Primal float64
	Dual   float64
	Gap    float64
}

// DefaultTolerances are sane defaults for a batch running at 1-second
// to multi-hour durations.
var DefaultTolerances = Tolerances{Primal: 1e-6, Dual: 1e-6, Gap: 1e-6}

// Engine is the uniform interface a convex-QP solver implementation
// must satisfy (spec section 4.4, "Implementations plug in a
// convex-QP engine ... behind a uniform interface").
type Engine interface {
	Solve(ctx context.Context, p *Problem, tol Tolerances) (Solution, error)
}

// Driver ties Build, an Engine, and Attribute together: the QP
// solver driver of spec section 4.4.
type Driver struct {
	engine Engine
	tol    Tolerances
}

func NewDriver(engine Engine, tol Tolerances) *Driver {
	return &Driver{engine: engine, tol: tol}
}

// Solve builds and solves the QP for input at the given batch
// duration, dispatching the CPU-bound solve onto its own goroutine so
// a blocked or slow solve never starves the caller's I/O scheduler
// (spec section 5). A zero timeout means no deadline beyond ctx's own.
func (d *Driver) Solve(ctx context.Context, input *compiler.SolverInput, durationSeconds float64, timeout time.Duration) (Outcomes, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	problem := Build(input, durationSeconds)

	if len(problem.Variables) == 0 {
		// Empty submission: solves trivially with all-zero outcomes.
		return Outcomes{
			Portfolios: make(map[shared.PortfolioID]PortfolioOutcome),
			Products:   make(map[shared.ProductID]ProductOutcome),
		}, nil
	}

	type result struct {
		sol Solution
		err error
	}
	resultCh := make(chan result, 1)
	start := time.Now()
	go func() {
		sol, err := d.engine.Solve(ctx, problem, d.tol)
		resultCh <- result{sol: sol, err: err}
	}()

	select {
	case <-ctx.Done():
		metrics.RecordSolve(time.Since(start).Seconds(), 0, "timeout")
		return Outcomes{}, shared.NewNumericalFailureError(shared.ErrNumericalFailureTimeout)
	case r := <-resultCh:
		if r.err != nil {
			metrics.RecordSolve(time.Since(start).Seconds(), r.sol.Iterations, solveFailureStatus(r.err))
			return Outcomes{}, r.err
		}
		metrics.RecordSolve(time.Since(start).Seconds(), r.sol.Iterations, "ok")
		outcomes := Attribute(problem, r.sol)
		AttributeMarginalPrices(outcomes, resolvedBasisByPortfolio(input))
		return outcomes, nil
	}
}

func solveFailureStatus(err error) string {
	var infeasible *shared.InfeasibleError
	if errors.As(err, &infeasible) {
		return "infeasible"
	}
	return "numerical_failure"
}

func resolvedBasisByPortfolio(input *compiler.SolverInput) map[shared.PortfolioID]map[shared.ProductID]float64 {
	out := make(map[shared.PortfolioID]map[shared.ProductID]float64, len(input.Portfolios))
	for id, pf := range input.Portfolios {
		out[id] = pf.ResolvedBasis
	}
	return out
}
