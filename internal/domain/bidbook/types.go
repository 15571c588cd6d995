// Package bidbook is the bitemporal bid book: the append-only,
// lifetime-tracked data model for demands and portfolios (spec section
// 4.2). At any instant t it can answer "what was each bidder's active
// submission at time t" and replay history without ever mutating a
// prior row.
package bidbook

import (
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// Demand is a bidder-owned entity. CurveData is the only
// lifetime-tracked field; AppData is set at creation and immutable
// thereafter (the spec does not version it).
type Demand struct {
	ID       shared.DemandID
	BidderID shared.BidderID
	AppData  map[string]any
}

// DemandSnapshot is a point-in-time composite read of a Demand: the
// static fields plus the curve row active at the query instant, with
// the row's own validity window attached (section 4.2.3 composite
// read rule — trivial here since Demand has exactly one lifetime
// field, so the composite window equals the curve row's window).
type DemandSnapshot struct {
	Demand
	Curve      *curve.Curve
	ValidFrom  time.Time
	ValidUntil *time.Time
}

// Portfolio is a bidder-owned entity: a direction in product space
// (Basis) plus an association to demand curves (Demand), both
// lifetime-tracked maps that may independently be replaced wholly.
type Portfolio struct {
	ID       shared.PortfolioID
	BidderID shared.BidderID
	AppData  map[string]any
}

// PortfolioSnapshot is a point-in-time composite read of a Portfolio.
// Per section 4.2.3, ValidFrom is the max of the two component rows'
// ValidFrom and ValidUntil is the min of their ValidUntil (nil treated
// as +Inf) — the interval over which the whole composite is
// unchanged.
type PortfolioSnapshot struct {
	Portfolio
	DemandMap  map[shared.DemandID]float64
	BasisMap   map[shared.ProductID]float64
	ValidFrom  time.Time
	ValidUntil *time.Time
}

// curveActive reports whether a demand snapshot counts as active: curve
// non-null (the portfolio-membership half of the predicate is
// evaluated by the book, which has portfolio visibility).
func (d DemandSnapshot) curveActive() bool {
	return d.Curve != nil
}

// Active reports whether a portfolio snapshot counts as active: both
// maps non-empty.
func (p PortfolioSnapshot) Active() bool {
	return len(p.DemandMap) > 0 && len(p.BasisMap) > 0
}

func minUntil(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Before(*b) {
		return a
	}
	return b
}

func maxFrom(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
