package compiler_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/flowtrading-go/internal/application/compiler"
	"github.com/andrescamacho/flowtrading-go/internal/domain/bidbook"
	"github.com/andrescamacho/flowtrading-go/internal/domain/bidbook/memstore"
	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/product"
	productstore "github.com/andrescamacho/flowtrading-go/internal/domain/product/memstore"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

func constCurve(price float64) *curve.Curve {
	return &curve.Curve{Constant: &curve.ConstantCurve{Price: price}}
}

// TestGather_RefinementResolvesThroughLatestBasis covers scenario 6:
// create parent A, then child B with parent=A, ratio=2. A portfolio
// whose basis is {A:3} must, when compiled at a later instant, appear
// to the solver as {B:6}.
func TestGather_RefinementResolvesThroughLatestBasis(t *testing.T) {
	ctx := context.Background()
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	edges := productstore.New()
	reg := product.NewRegistry(edges, clock)
	existence := product.NewExistenceChecker(edges)
	book := bidbook.NewBook(memstore.New(), existence, clock)

	a := shared.NewProductID()
	require.NoError(t, reg.CreateProduct(ctx, a, nil, 0))

	bidder := shared.NewBidderID()
	d := shared.NewDemandID()
	require.NoError(t, book.CreateDemand(ctx, d, bidder, constCurve(10), nil))

	p := shared.NewPortfolioID()
	require.NoError(t, book.CreatePortfolio(ctx, p, bidder,
		map[shared.DemandID]float64{d: 1},
		map[shared.ProductID]float64{a: 3},
		nil))

	clock.Advance(time.Minute)
	b := shared.NewProductID()
	require.NoError(t, reg.CreateProduct(ctx, b, &a, 2.0))

	handler := compiler.NewGatherBatchHandler(book, reg)
	input, err := handler.Gather(ctx, clock.Now())
	require.NoError(t, err)

	require.Equal(t, map[shared.ProductID]float64{b: 6}, input.Portfolios[p].ResolvedBasis)
}
