package solver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/flowtrading-go/internal/application/compiler"
	"github.com/andrescamacho/flowtrading-go/internal/application/solver"
	"github.com/andrescamacho/flowtrading-go/internal/application/solver/activeset"
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

const scenarioOneTolerance = 1e-3

// TestTwoSidedClearing covers scenario 1: bidder A holds demand D1
// with constant curve price=10, portfolio P1={D1:1} basis {X:1}.
// Bidder B holds demand D2 with PWL [(0,15),(10,5)], portfolio
// P2={D2:1} basis {X:1}. X must clear at price 10, rate 5, with
// P1.rate ≈ -5 and P2.rate ≈ +5.
func TestTwoSidedClearing(t *testing.T) {
	ctx := context.Background()
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	edges := productstore.New()
	reg := product.NewRegistry(edges, clock)
	existence := product.NewExistenceChecker(edges)
	book := bidbook.NewBook(memstore.New(), existence, clock)

	x := shared.NewProductID()
	require.NoError(t, reg.CreateProduct(ctx, x, nil, 0))

	bidderA := shared.NewBidderID()
	d1 := shared.NewDemandID()
	require.NoError(t, book.CreateDemand(ctx, d1, bidderA, constCurve(10), nil))
	p1 := shared.NewPortfolioID()
	require.NoError(t, book.CreatePortfolio(ctx, p1, bidderA,
		map[shared.DemandID]float64{d1: 1}, map[shared.ProductID]float64{x: 1}, nil))

	bidderB := shared.NewBidderID()
	d2 := shared.NewDemandID()
	d2Curve := &curve.Curve{PWL: []curve.Point{{Rate: 0, Price: 15}, {Rate: 10, Price: 5}}}
	require.NoError(t, book.CreateDemand(ctx, d2, bidderB, d2Curve, nil))
	p2 := shared.NewPortfolioID()
	require.NoError(t, book.CreatePortfolio(ctx, p2, bidderB,
		map[shared.DemandID]float64{d2: 1}, map[shared.ProductID]float64{x: 1}, nil))

	handler := compiler.NewGatherBatchHandler(book, reg)
	input, err := handler.Gather(ctx, clock.Now())
	require.NoError(t, err)

	driver := solver.NewDriver(activeset.New(), solver.DefaultTolerances)
	outcomes, err := driver.Solve(ctx, input, 1, 0)
	require.NoError(t, err)

	require.InDelta(t, 10, outcomes.Products[x].ClearingPrice, scenarioOneTolerance)
	require.InDelta(t, -5, outcomes.Portfolios[p1].TradeRate, scenarioOneTolerance)
	require.InDelta(t, 5, outcomes.Portfolios[p2].TradeRate, scenarioOneTolerance)
}
