package solver

import (
	"maps"
	"math"
	"slices"

	"github.com/andrescamacho/flowtrading-go/internal/application/compiler"
	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// Build assembles the QP of spec section 4.4 from a compiled batch,
// for a batch duration of durationSeconds.
func Build(input *compiler.SolverInput, durationSeconds float64) *Problem {
	p := newProblem()

	for _, portfolioID := range slices.SortedFunc(maps.Keys(input.Portfolios), shared.PortfolioID.Compare) {
		p.addTradeVar(portfolioID)
	}

	for _, demandID := range slices.SortedFunc(maps.Keys(input.Demands), shared.DemandID.Compare) {
		addDemandSegments(p, demandID, input.Demands[demandID], durationSeconds)
	}

	p.Constraints = buildConstraints(p, input)
	return p
}

// addDemandSegments adds one slack variable per PWL segment (or a
// single slack variable for a constant curve), per the breakpoint and
// extrapolation rules of spec section 4.4.
func addDemandSegments(p *Problem, id shared.DemandID, c *curve.Curve, durationSeconds float64) {
	if c == nil {
		return
	}
	switch {
	case c.IsConstant():
		lower := -math.Inf(1)
		upper := math.Inf(1)
		if c.Constant.MinRate != nil {
			lower = *c.Constant.MinRate * durationSeconds
		}
		if c.Constant.MaxRate != nil {
			upper = *c.Constant.MaxRate * durationSeconds
		}
		p.addSlackVar(id, 0, lower, upper, c.Constant.Price, 0)

	case c.IsPWL():
		points := c.PWL
		n := len(points)

		var lowSlope, highSlope float64
		if n >= 2 {
			lowSlope = segmentSlope(points[0], points[1], durationSeconds)
			highSlope = segmentSlope(points[n-2], points[n-1], durationSeconds)
		}

		// Low tail: rate in (-Inf, points[0].Rate], extending the
		// first real segment's slope rather than flattening to it
		// (spec section 4.4's extrapolation policy: "retain the
		// terminal slope"). points[0].Rate <= 0 always (curve.Validate
		// requires the rate domain to cover 0), so this is always a
		// negative-side segment: bounded above by 0, unbounded below.
		p.addSlackVar(id, 0, math.Inf(-1), 0, points[0].Price, lowSlope)

		for k := 1; k < n; k++ {
			lo, hi := points[k-1], points[k]
			rateSpan := (hi.Rate - lo.Rate) * durationSeconds
			b := segmentSlope(lo, hi, durationSeconds)

			// Segments are filled outward from rate 0 in both
			// directions, so each segment's y is referenced against
			// whichever endpoint faces rate 0: the negative-side
			// segment's zero is its hi (closer to 0), the
			// positive-side segment's zero is its lo.
			var lower, upper, a float64
			if hi.Rate <= 0 {
				lower, upper, a = -rateSpan, 0, hi.Price
			} else {
				lower, upper, a = 0, rateSpan, lo.Price
			}
			p.addSlackVar(id, k, lower, upper, a, b)
		}

		// High tail: rate in [points[n-1].Rate, +Inf), extending the
		// last real segment's slope. points[n-1].Rate >= 0 always.
		p.addSlackVar(id, n, 0, math.Inf(1), points[n-1].Price, highSlope)
	}
}

// segmentSlope is b_{d,k} of spec section 4.4: the change in price
// per unit of y over the segment from lo to hi.
func segmentSlope(lo, hi curve.Point, durationSeconds float64) float64 {
	return (hi.Price - lo.Price) / ((hi.Rate - lo.Rate) * durationSeconds)
}

// buildConstraints assembles one clearing row per product named in
// any resolved basis, and one linkage row per demand.
func buildConstraints(p *Problem, input *compiler.SolverInput) []Constraint {
	clearing := make(map[shared.ProductID]*Constraint)
	linkage := make(map[shared.DemandID]*Constraint)

	for demandID := range input.Demands {
		linkage[demandID] = &Constraint{Kind: ConstraintLinkage, Demand: demandID, Coeffs: make(map[int]float64)}
		for _, varIdx := range p.SlackIndices(demandID) {
			linkage[demandID].Coeffs[varIdx] = -1
		}
	}

	for portfolioID, pf := range input.Portfolios {
		xIdx := p.TradeIndex(portfolioID)
		if xIdx < 0 {
			continue
		}
		for productID, weight := range pf.ResolvedBasis {
			c, ok := clearing[productID]
			if !ok {
				c = &Constraint{Kind: ConstraintClearing, Product: productID, Coeffs: make(map[int]float64)}
				clearing[productID] = c
			}
			c.Coeffs[xIdx] += weight
		}
		for demandID, weight := range pf.DemandMap {
			c, ok := linkage[demandID]
			if !ok {
				// Demand referenced by a portfolio but inactive/absent
				// from the gathered demand set: no segments to link
				// against, skip (it contributes nothing to the QP).
				continue
			}
			c.Coeffs[xIdx] += weight
		}
	}

	out := make([]Constraint, 0, len(clearing)+len(linkage))
	for _, productID := range slices.SortedFunc(maps.Keys(clearing), shared.ProductID.Compare) {
		out = append(out, *clearing[productID])
	}
	for _, demandID := range slices.SortedFunc(maps.Keys(linkage), shared.DemandID.Compare) {
		out = append(out, *linkage[demandID])
	}
	return out
}
