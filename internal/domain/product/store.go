package product

import (
	"context"
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// EdgeStore is the narrow persistence port the product hierarchy is
// built on (spec section 6.2): point-in-time and point-in-interval
// reads of the edge table, plus the transactional close/open pair the
// transitive-closure maintenance algorithm needs. Implementations:
// memstore (in-process) and adapters/persistence (GORM).
type EdgeStore interface {
	// SaveProduct inserts a new product row. Returns shared.ErrIdExists
	// if id is already present.
	SaveProduct(ctx context.Context, p Product) error

	// FindProduct returns the product row for id, or shared.ErrNotFound.
	FindProduct(ctx context.Context, id shared.ProductID) (Product, error)

	// EdgesWithDst returns every currently-open edge whose Dst is id.
	EdgesWithDst(ctx context.Context, id shared.ProductID) ([]Edge, error)

	// EdgesWithSrc returns every edge with Src == id active at t.
	EdgesWithSrc(ctx context.Context, id shared.ProductID, t time.Time) ([]Edge, error)

	// EdgesWithDstAt returns every edge with Dst == id active at t
	// (used for Ancestors()).
	EdgesWithDstAt(ctx context.Context, id shared.ProductID, t time.Time) ([]Edge, error)

	// CloseEdges closes every currently-open row among ids at t.
	CloseEdges(ctx context.Context, edges []Edge, t time.Time) error

	// OpenEdges appends new open rows.
	OpenEdges(ctx context.Context, edges []Edge) error
}
