// Package solver builds the convex quadratic programme described in
// spec section 4.4 from a compiled batch (compiler.SolverInput),
// drives a pluggable QP engine to solve it, and attributes the
// primal/dual solution back to portfolios and products.
package solver

import (
	"fmt"
	"math"

	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// VarKind distinguishes the two variable families of spec section 4.4.
type VarKind uint8

const (
	// KindTrade is a portfolio trade-rate variable x_p: free (no bounds).
	KindTrade VarKind = iota
	// KindSlack is a demand-curve segment slack variable y_{d,k}: bounded.
	KindSlack
)

// Variable is one column of the programme.
type Variable struct {
	Name  string // stable, derived from ids: "x_<portfolio>" / "y_<demand>_<k>"
	Kind  VarKind
	Lower float64 // math.Inf(-1) for unbounded below
	Upper float64 // math.Inf(1) for unbounded above

	// Linear and Quadratic are the objective coefficients a, b in
	// a*y + (b/2)*y^2. Always zero for KindTrade variables: the
	// objective depends only on slack variables (spec section 4.4).
	Linear    float64
	Quadratic float64

	Portfolio shared.PortfolioID // set iff Kind == KindTrade
	Demand    shared.DemandID    // set iff Kind == KindSlack
	Segment   int                // segment index, set iff Kind == KindSlack
}

// ConstraintKind distinguishes the two row families of spec section 4.4.
type ConstraintKind uint8

const (
	ConstraintClearing ConstraintKind = iota // Σ_p basis(p,q)·x_p = 0
	ConstraintLinkage                        // Σ_p demand_map(p,d)·x_p − Σ_k y_{d,k} = 0
)

// Constraint is one equality row: Σ_i Coeffs[i]·z[i] = 0. Both row
// families in spec section 4.4 have a zero right-hand side.
type Constraint struct {
	Kind    ConstraintKind
	Product shared.ProductID // set iff Kind == ConstraintClearing
	Demand  shared.DemandID  // set iff Kind == ConstraintLinkage

	// Coeffs maps a variable index (into Problem.Variables) to its
	// coefficient in this row.
	Coeffs map[int]float64
}

// Problem is the assembled convex QP: maximise the (separable,
// concave) quadratic objective over Variables subject to Constraints
// and per-variable bounds.
type Problem struct {
	Variables   []Variable
	Constraints []Constraint

	// index lookups, populated by Build.
	tradeIndex map[shared.PortfolioID]int
	slackIndex map[shared.DemandID][]int // segment index -> variable index
}

func newProblem() *Problem {
	return &Problem{
		tradeIndex: make(map[shared.PortfolioID]int),
		slackIndex: make(map[shared.DemandID][]int),
	}
}

func (p *Problem) addTradeVar(id shared.PortfolioID) int {
	idx := len(p.Variables)
	p.Variables = append(p.Variables, Variable{
		Name:      "x_" + id.String(),
		Kind:      KindTrade,
		Lower:     math.Inf(-1),
		Upper:     math.Inf(1),
		Portfolio: id,
	})
	p.tradeIndex[id] = idx
	return idx
}

func (p *Problem) addSlackVar(id shared.DemandID, segment int, lower, upper, a, b float64) int {
	idx := len(p.Variables)
	p.Variables = append(p.Variables, Variable{
		Name:      fmt.Sprintf("y_%s_%d", id.String(), segment),
		Kind:      KindSlack,
		Lower:     lower,
		Upper:     upper,
		Linear:    a,
		Quadratic: b,
		Demand:    id,
		Segment:   segment,
	})
	p.slackIndex[id] = append(p.slackIndex[id], idx)
	return idx
}

// TradeIndex returns the variable index for a portfolio's trade-rate
// variable, or -1 if the portfolio did not participate.
func (p *Problem) TradeIndex(id shared.PortfolioID) int {
	idx, ok := p.tradeIndex[id]
	if !ok {
		return -1
	}
	return idx
}

// SlackIndices returns the variable indices of a demand's segment
// slack variables, in segment order.
func (p *Problem) SlackIndices(id shared.DemandID) []int {
	return p.slackIndex[id]
}
