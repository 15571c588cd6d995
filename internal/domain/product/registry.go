package product

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// Registry is the application-facing entry point to the product
// hierarchy: CreateProduct and BasisAt exactly as spec section 4.1.
type Registry struct {
	store EdgeStore
	clock shared.Clock
}

func NewRegistry(store EdgeStore, clock shared.Clock) *Registry {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Registry{store: store, clock: clock}
}

// CreateProduct inserts a new product, maintaining the transitive
// closure of tree edges:
//
//  1. Close every then-open edge whose Dst is the parent.
//  2. For every such closed edge (a -> parent, r, d), open a new edge
//     (a -> child, r*parentRatio, d+1).
//  3. Open the self-edge (child -> child, 1.0, 0).
//
// Naming a non-existent parent is fatal to the call; refining a
// product that already has descendants is allowed (further
// refinement just adds another generation of edges).
func (r *Registry) CreateProduct(ctx context.Context, id shared.ProductID, parent *shared.ProductID, parentRatio float64) error {
	t := r.clock.Now()

	if parent != nil {
		if parentRatio <= 0 {
			return fmt.Errorf("parent_ratio must be positive, got %v", parentRatio)
		}
		if _, err := r.store.FindProduct(ctx, *parent); err != nil {
			return shared.NewParentMissingError(parent.String())
		}
	}

	p := Product{ID: id, AsOf: t, Parent: parent, ParentRatio: parentRatio}
	if err := r.store.SaveProduct(ctx, p); err != nil {
		return err
	}

	if parent != nil {
		parentEdges, err := r.store.EdgesWithDst(ctx, *parent)
		if err != nil {
			return err
		}
		if err := r.store.CloseEdges(ctx, parentEdges, t); err != nil {
			return err
		}

		newEdges := make([]Edge, 0, len(parentEdges)+1)
		for _, pe := range parentEdges {
			newEdges = append(newEdges, Edge{
				Src:       pe.Src,
				Dst:       id,
				Ratio:     pe.Ratio * parentRatio,
				Depth:     pe.Depth + 1,
				ValidFrom: t,
			})
		}
		newEdges = append(newEdges, Edge{Src: id, Dst: id, Ratio: 1.0, Depth: 0, ValidFrom: t})
		if err := r.store.OpenEdges(ctx, newEdges); err != nil {
			return err
		}
		return nil
	}

	// Root product: only the self-edge.
	return r.store.OpenEdges(ctx, []Edge{{Src: id, Dst: id, Ratio: 1.0, Depth: 0, ValidFrom: t}})
}

// BasisAt returns the current leaf decomposition of product at
// instant t: a mapping from leaf ProductID to the positive ratio one
// unit of product decomposes into.
func (r *Registry) BasisAt(ctx context.Context, productID shared.ProductID, t time.Time) (map[shared.ProductID]float64, error) {
	edges, err := r.store.EdgesWithSrc(ctx, productID, t)
	if err != nil {
		return nil, err
	}
	leaves := make(map[shared.ProductID]float64, len(edges))
	for _, e := range edges {
		leaves[e.Dst] += e.Ratio
	}
	return leaves, nil
}

// Ancestors returns every product that currently decomposes (directly
// or transitively) into id, i.e. the inverse of BasisAt.
func (r *Registry) Ancestors(ctx context.Context, id shared.ProductID, t time.Time) ([]Edge, error) {
	return r.store.EdgesWithDstAt(ctx, id, t)
}

// IsDescendant reports whether b is reachable from a through an
// active edge at t.
func (r *Registry) IsDescendant(ctx context.Context, a, b shared.ProductID, t time.Time) (bool, error) {
	basis, err := r.BasisAt(ctx, a, t)
	if err != nil {
		return false, err
	}
	_, ok := basis[b]
	return ok, nil
}
