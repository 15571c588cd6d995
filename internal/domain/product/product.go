// Package product implements the append-only product tree: an
// operator-created forest of tradable abstractions, plus the derived
// transitive-closure edge set that lets a portfolio's basis be
// resolved against a product's current leaf decomposition without the
// bidder re-expressing anything (spec section 4.1).
package product

import (
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// Product is an operator-created entity. A product never becomes a
// parent after creation: Parent and ParentRatio are immutable once
// set, and are only ever read, never closed/reopened as a lifetime
// row (unlike curve data or portfolio weights).
type Product struct {
	ID          shared.ProductID
	AsOf        time.Time
	Parent      *shared.ProductID
	ParentRatio float64 // positive for child products; unused for root products
}

// Edge is a derived transitive-closure relation: "one unit of
// ancestor Src, at this epoch, equals Ratio units of descendant Dst,
// at tree distance Depth." Every product is created with a self-edge
// (p -> p, ratio=1, depth=0); like the product's other incoming edges,
// it is closed when a child product refines p.
type Edge struct {
	Src        shared.ProductID
	Dst        shared.ProductID
	Ratio      float64
	Depth      int
	ValidFrom  time.Time
	ValidUntil *time.Time
}

// Contains reports whether the edge is active at t (half-open
// interval [ValidFrom, ValidUntil)).
func (e Edge) Contains(t time.Time) bool {
	if t.Before(e.ValidFrom) {
		return false
	}
	return e.ValidUntil == nil || t.Before(*e.ValidUntil)
}
