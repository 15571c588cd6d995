package solver

import "github.com/andrescamacho/flowtrading-go/internal/domain/shared"

// Solution is the raw primal/dual output of an Engine.Solve call:
// one value per variable, and one Lagrange multiplier per constraint
// row, in Problem.Variables/Constraints order.
type Solution struct {
	Primal      []float64
	Multipliers []float64
	Iterations  int
}

// PortfolioOutcome is a solved portfolio's trade and marginal price
// (spec section 4.4, "Result extraction").
type PortfolioOutcome struct {
	TradeRate      float64 // x_p
	MarginalPrice  float64 // Σ_q basis(p,q)·π_q
}

// ProductOutcome is a solved product's net traded quantity (zero at
// clearing, up to solver tolerance) and clearing price.
type ProductOutcome struct {
	TradedQuantity float64
	ClearingPrice  float64
}

// Outcomes is the attributed result of a solved batch.
type Outcomes struct {
	Portfolios map[shared.PortfolioID]PortfolioOutcome
	Products   map[shared.ProductID]ProductOutcome
}

// Attribute converts a raw Solution back into per-portfolio and
// per-product outcomes, per spec section 4.4's result-extraction
// rules. durationSeconds scales rate into quantity is left to
// callers that need quantity; outcomes here are rates, matching the
// spec's "x_p -> portfolio trade (rate)".
func Attribute(p *Problem, sol Solution) Outcomes {
	clearingPrice := make(map[shared.ProductID]float64)
	tradedQty := make(map[shared.ProductID]float64)
	for i, c := range p.Constraints {
		if c.Kind != ConstraintClearing {
			continue
		}
		clearingPrice[c.Product] = sol.Multipliers[i]
		var traded float64
		for varIdx, coeff := range c.Coeffs {
			traded += coeff * sol.Primal[varIdx]
		}
		tradedQty[c.Product] = traded
	}

	portfolios := make(map[shared.PortfolioID]PortfolioOutcome, len(p.tradeIndex))
	for id, idx := range p.tradeIndex {
		portfolios[id] = PortfolioOutcome{TradeRate: sol.Primal[idx]}
	}

	products := make(map[shared.ProductID]ProductOutcome, len(clearingPrice))
	for id, price := range clearingPrice {
		products[id] = ProductOutcome{TradedQuantity: tradedQty[id], ClearingPrice: price}
	}

	return Outcomes{Portfolios: portfolios, Products: products}
}

// AttributeMarginalPrices fills in each portfolio's marginal price
// (Σ_q basis(p,q)·π_q) given the resolved basis maps used to build the
// problem. Kept separate from Attribute because it needs the
// compiler's resolved-basis view, which Problem does not retain.
func AttributeMarginalPrices(outcomes Outcomes, resolvedBasis map[shared.PortfolioID]map[shared.ProductID]float64) {
	for id, basis := range resolvedBasis {
		o, ok := outcomes.Portfolios[id]
		if !ok {
			continue
		}
		var price float64
		for productID, weight := range basis {
			price += weight * outcomes.Products[productID].ClearingPrice
		}
		o.MarginalPrice = price
		outcomes.Portfolios[id] = o
	}
}
