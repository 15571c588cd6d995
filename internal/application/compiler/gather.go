// Package compiler implements the batch compiler (spec section 4.3):
// it snapshots the live bid book at an instant t, resolves each
// portfolio's basis through the product hierarchy, and assembles the
// input the QP solver driver consumes.
package compiler

import (
	"context"
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/application/mediator"
	"github.com/andrescamacho/flowtrading-go/internal/domain/bidbook"
	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/product"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// PortfolioInput is a compiled portfolio: its raw demand map kept
// verbatim, and its basis resolved to leaf products.
type PortfolioInput struct {
	BidderID      shared.BidderID
	DemandMap     map[shared.DemandID]float64
	ResolvedBasis map[shared.ProductID]float64
}

// SolverInput is the gather() output of spec section 4.3.
type SolverInput struct {
	At         time.Time
	Demands    map[shared.DemandID]*curve.Curve
	Portfolios map[shared.PortfolioID]PortfolioInput
}

// GatherBatchQuery requests a compiled solver input at instant At.
type GatherBatchQuery struct {
	At time.Time
}

// GatherBatchHandler implements the CQRS query handler over the bid
// book and product registry, in the teacher's commands/queries idiom
// (constructor-injected ports, Handle(ctx, mediator.Request) method).
type GatherBatchHandler struct {
	book     *bidbook.Book
	registry *product.Registry
}

func NewGatherBatchHandler(book *bidbook.Book, registry *product.Registry) *GatherBatchHandler {
	return &GatherBatchHandler{book: book, registry: registry}
}

// Handle adapts Gather to the mediator.RequestHandler interface.
func (h *GatherBatchHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	q, ok := request.(*GatherBatchQuery)
	if !ok {
		return nil, shared.NewValidationError("request", "expected *GatherBatchQuery")
	}
	return h.Gather(ctx, q.At)
}

// Gather pulls, in one logical transaction (spec section 4.3):
//  1. every active curve row at t,
//  2. every portfolio whose demand and basis maps are both non-empty
//     at t, with the basis resolved through the product hierarchy.
func (h *GatherBatchHandler) Gather(ctx context.Context, t time.Time) (*SolverInput, error) {
	activeDemandIDs, err := h.book.ActiveDemands(ctx, nil, t)
	if err != nil {
		return nil, err
	}
	demands := make(map[shared.DemandID]*curve.Curve, len(activeDemandIDs))
	for _, id := range activeDemandIDs {
		snap, err := h.book.ReadDemand(ctx, id, t)
		if err != nil {
			return nil, err
		}
		demands[id] = snap.Curve
	}

	activePortfolioIDs, err := h.book.ActivePortfolios(ctx, nil, t)
	if err != nil {
		return nil, err
	}
	portfolios := make(map[shared.PortfolioID]PortfolioInput, len(activePortfolioIDs))
	for _, id := range activePortfolioIDs {
		snap, err := h.book.ReadPortfolio(ctx, id, t)
		if err != nil {
			return nil, err
		}
		resolved, err := h.resolveBasis(ctx, snap.BasisMap, t)
		if err != nil {
			return nil, err
		}
		portfolios[id] = PortfolioInput{
			BidderID:      snap.BidderID,
			DemandMap:     snap.DemandMap,
			ResolvedBasis: resolved,
		}
	}

	return &SolverInput{At: t, Demands: demands, Portfolios: portfolios}, nil
}

// resolveBasis expands a raw basis map through the current leaf
// decomposition of each named product, summing contributions by leaf
// (spec section 4.3 step 2).
func (h *GatherBatchHandler) resolveBasis(ctx context.Context, raw map[shared.ProductID]float64, t time.Time) (map[shared.ProductID]float64, error) {
	resolved := make(map[shared.ProductID]float64)
	for productID, weight := range raw {
		leaves, err := h.registry.BasisAt(ctx, productID, t)
		if err != nil {
			return nil, err
		}
		for leaf, ratio := range leaves {
			resolved[leaf] += weight * ratio
		}
	}
	return resolved, nil
}
