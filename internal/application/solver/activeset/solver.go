// Package activeset implements solver.Engine with an active-set
// method specialised to the separable, diagonal-Hessian structure of
// the Flow Trading QP (spec section 4.4): the objective is quadratic
// only in the per-segment slack variables, portfolio trade-rate
// variables are always free, and every row is a homogeneous equality
// (right-hand side zero), so z=0 is always a feasible starting point.
//
// At each iteration the restricted KKT system for the current
// free/active partition is solved directly via gonum's dense linear
// solve; bound violations among free variables are clamped into the
// active set, and active variables whose reduced gradient has the
// wrong sign are released, following the textbook active-set method
// for box-constrained convex QP.
package activeset

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/andrescamacho/flowtrading-go/internal/application/solver"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// Solver is the gonum-backed convex-QP engine.
type Solver struct {
	MaxIterations int
}

func New() *Solver {
	return &Solver{MaxIterations: 200}
}

// Solve implements solver.Engine.
func (s *Solver) Solve(ctx context.Context, p *solver.Problem, tol solver.Tolerances) (solver.Solution, error) {
	n := len(p.Variables)
	m := len(p.Constraints)

	// Minimize g(z) = sum(-a_i z_i - b_i/2 z_i^2), equivalent to
	// maximizing the declared objective f(z) = sum(a_i z_i + b_i/2 z_i^2).
	H := make([]float64, n)
	c := make([]float64, n)
	for i, v := range p.Variables {
		H[i] = -v.Quadratic
		c[i] = -v.Linear
	}

	A := mat.NewDense(m, n, nil)
	for row, cons := range p.Constraints {
		for varIdx, coeff := range cons.Coeffs {
			A.Set(row, varIdx, coeff)
		}
	}

	active := make([]bool, n)
	boundVal := make([]float64, n)
	z := make([]float64, n)
	lambda := make([]float64, m)

	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = 200
	}

	for iter := 0; iter < maxIter; iter++ {
		select {
		case <-ctx.Done():
			return solver.Solution{}, shared.NewNumericalFailureError(ctx.Err())
		default:
		}

		var free []int
		for i := 0; i < n; i++ {
			if !active[i] {
				free = append(free, i)
			}
		}

		zFree, lam, err := solveKKT(A, H, c, free, active, boundVal, m)
		if err != nil {
			return solver.Solution{}, shared.NewInfeasibleError(err.Error())
		}

		for idx, fi := range free {
			z[fi] = zFree[idx]
		}
		for i := 0; i < n; i++ {
			if active[i] {
				z[i] = boundVal[i]
			}
		}
		lambda = lam

		if fi, bound := mostViolated(p, z, free, tol); fi >= 0 {
			boundVal[fi] = bound
			active[fi] = true
			continue
		}

		if ri := releaseCandidate(p, A, H, c, z, lambda, active, tol); ri >= 0 {
			active[ri] = false
			continue
		}

		return solver.Solution{Primal: z, Multipliers: lambda, Iterations: iter + 1}, nil
	}

	return solver.Solution{}, shared.NewNumericalFailureError(errors.New("active-set iteration limit reached"))
}

// solveKKT solves the restricted KKT system for the current
// free/active partition:
//
//	[ H_F   A_F^T ] [z_F]   [-c_F]
//	[ A_F     0   ] [ λ  ] = [rhs]
//
// where rhs accounts for the contribution of variables currently
// fixed at a bound.
func solveKKT(A *mat.Dense, H, c []float64, free []int, active []bool, boundVal []float64, m int) ([]float64, []float64, error) {
	nf := len(free)
	size := nf + m
	if size == 0 {
		return nil, nil, nil
	}

	M := mat.NewDense(size, size, nil)
	rhs := mat.NewVecDense(size, nil)

	for i, fi := range free {
		M.Set(i, i, H[fi])
		rhs.SetVec(i, -c[fi])
	}

	n := len(active)
	for row := 0; row < m; row++ {
		for i, fi := range free {
			v := A.At(row, fi)
			M.Set(nf+row, i, v)
			M.Set(i, nf+row, v)
		}
		var fixedContribution float64
		for col := 0; col < n; col++ {
			if active[col] {
				fixedContribution += A.At(row, col) * boundVal[col]
			}
		}
		rhs.SetVec(nf+row, -fixedContribution)
	}

	var x mat.VecDense
	if err := x.SolveVec(M, rhs); err != nil {
		return nil, nil, err
	}

	zFree := make([]float64, nf)
	lambda := make([]float64, m)
	for i := range zFree {
		zFree[i] = x.AtVec(i)
	}
	for row := 0; row < m; row++ {
		lambda[row] = x.AtVec(nf + row)
	}
	return zFree, lambda, nil
}

// mostViolated returns the free variable furthest outside its bounds
// (and the bound it should be clamped to), or -1 if none are violated.
func mostViolated(p *solver.Problem, z []float64, free []int, tol solver.Tolerances) (int, float64) {
	best := -1
	bestBound := 0.0
	worst := tol.Primal
	for _, fi := range free {
		v := p.Variables[fi]
		if z[fi] < v.Lower-tol.Primal {
			if d := v.Lower - z[fi]; d > worst {
				worst, best, bestBound = d, fi, v.Lower
			}
		} else if z[fi] > v.Upper+tol.Primal {
			if d := z[fi] - v.Upper; d > worst {
				worst, best, bestBound = d, fi, v.Upper
			}
		}
	}
	return best, bestBound
}

// releaseCandidate returns an active (bound-fixed) variable whose
// reduced gradient has the wrong sign to remain fixed, or -1 if the
// active set is already optimal.
func releaseCandidate(p *solver.Problem, A *mat.Dense, H, c, z, lambda []float64, active []bool, tol solver.Tolerances) int {
	m, n := A.Dims()
	for i := 0; i < n; i++ {
		if !active[i] {
			continue
		}
		var atl float64
		for row := 0; row < m; row++ {
			atl += A.At(row, i) * lambda[row]
		}
		grad := H[i]*z[i] + c[i] + atl
		atLower := math.Abs(z[i]-p.Variables[i].Lower) < 1e-9
		if atLower && grad < -tol.Dual {
			return i
		}
		if !atLower && grad > tol.Dual {
			return i
		}
	}
	return -1
}
