// Package curve models the tagged-variant demand curve: either a
// piecewise-linear schedule of (rate, price) breakpoints, or a
// constant marginal price over a bounded rate interval. The PWL/
// constant dichotomy is the single place variant differences matter;
// downstream, the QP solver driver's addDemandSegments branches on
// IsConstant/IsPWL to lower either variant into QP segments.
package curve

import "fmt"

// Curve is a demand curve: marginal willingness-to-pay as a function
// of signed trade rate. A nil *Curve denotes an inactive demand.
type Curve struct {
	PWL      []Point // non-nil => piecewise-linear representation
	Constant *ConstantCurve
}

// Point is one breakpoint of a piecewise-linear curve.
type Point struct {
	Rate  float64
	Price float64
}

// ConstantCurve is a single marginal price over [MinRate, MaxRate].
// Nil MinRate/MaxRate denote -Inf/+Inf respectively.
type ConstantCurve struct {
	MinRate *float64
	MaxRate *float64
	Price   float64
}

// IsPWL reports whether c is the piecewise-linear variant.
func (c *Curve) IsPWL() bool {
	return c != nil && c.PWL != nil
}

// IsConstant reports whether c is the constant variant.
func (c *Curve) IsConstant() bool {
	return c != nil && c.Constant != nil
}

// Validate enforces the curve validity predicates of spec section
// 4.2.1. A PWL curve must be non-empty, strictly increasing in rate,
// weakly decreasing in price, and its rate domain must cover 0. A
// constant curve requires MinRate <= 0 <= MaxRate (when finite) and
// MinRate <= MaxRate.
func Validate(c *Curve) error {
	if c == nil {
		return nil // inactive demand, always valid
	}
	switch {
	case c.IsPWL() && c.IsConstant():
		return fmt.Errorf("curve must be exactly one of pwl or constant")
	case c.IsPWL():
		return validatePWL(c.PWL)
	case c.IsConstant():
		return validateConstant(c.Constant)
	default:
		return fmt.Errorf("curve must be exactly one of pwl or constant")
	}
}

func validatePWL(points []Point) error {
	if len(points) == 0 {
		return fmt.Errorf("pwl curve must have at least one breakpoint")
	}
	for i := 1; i < len(points); i++ {
		if points[i].Rate <= points[i-1].Rate {
			return fmt.Errorf("pwl rate must be strictly increasing: breakpoint %d (%v) <= breakpoint %d (%v)",
				i, points[i].Rate, i-1, points[i-1].Rate)
		}
		if points[i].Price > points[i-1].Price {
			return fmt.Errorf("pwl price must be weakly decreasing: breakpoint %d (%v) > breakpoint %d (%v)",
				i, points[i].Price, i-1, points[i-1].Price)
		}
	}
	if points[0].Rate > 0 || points[len(points)-1].Rate < 0 {
		return fmt.Errorf("pwl rate domain [%v, %v] must cover 0", points[0].Rate, points[len(points)-1].Rate)
	}
	return nil
}

func validateConstant(c *ConstantCurve) error {
	if c.MinRate != nil && c.MaxRate != nil && *c.MinRate > *c.MaxRate {
		return fmt.Errorf("constant curve min_rate %v > max_rate %v", *c.MinRate, *c.MaxRate)
	}
	if c.MinRate != nil && *c.MinRate > 0 {
		return fmt.Errorf("constant curve min_rate %v must be <= 0", *c.MinRate)
	}
	if c.MaxRate != nil && *c.MaxRate < 0 {
		return fmt.Errorf("constant curve max_rate %v must be >= 0", *c.MaxRate)
	}
	return nil
}
