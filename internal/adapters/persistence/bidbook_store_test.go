package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/flowtrading-go/internal/adapters/persistence"
	"github.com/andrescamacho/flowtrading-go/internal/domain/bidbook"
	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
	"github.com/andrescamacho/flowtrading-go/test/helpers"
)

func TestGormBidBookStore_CurveLifetime(t *testing.T) {
	db := helpers.NewTestDB(t)
	store := persistence.NewGormBidBookStore(db)
	ctx := context.Background()

	demandID := shared.NewDemandID()
	bidderID := shared.NewBidderID()
	require.NoError(t, store.SaveDemand(ctx, bidbook.Demand{ID: demandID, BidderID: bidderID}))

	t0 := time.Now().UTC()
	c1 := &curve.Curve{Constant: &curve.ConstantCurve{Price: 10}}
	require.NoError(t, store.ReplaceCurve(ctx, demandID, c1, t0))

	row, ok, err := store.CurrentCurve(ctx, demandID, t0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 10.0, row.Value.Constant.Price)
	require.Nil(t, row.ValidUntil)

	t1 := t0.Add(time.Minute)
	c2 := &curve.Curve{Constant: &curve.ConstantCurve{Price: 20}}
	require.NoError(t, store.ReplaceCurve(ctx, demandID, c2, t1))

	atT0, ok, err := store.CurrentCurve(ctx, demandID, t0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 10.0, atT0.Value.Constant.Price)
	require.NotNil(t, atT0.ValidUntil)

	atT1, ok, err := store.CurrentCurve(ctx, demandID, t1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 20.0, atT1.Value.Constant.Price)

	hist, err := store.CurveHistory(ctx, demandID, bidbook.HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, hist, 2)
}

func TestGormBidBookStore_PortfolioMaps(t *testing.T) {
	db := helpers.NewTestDB(t)
	store := persistence.NewGormBidBookStore(db)
	ctx := context.Background()

	portfolioID := shared.NewPortfolioID()
	bidderID := shared.NewBidderID()
	require.NoError(t, store.SavePortfolio(ctx, bidbook.Portfolio{ID: portfolioID, BidderID: bidderID}))

	demandID := shared.NewDemandID()
	productID := shared.NewProductID()
	t0 := time.Now().UTC()

	require.NoError(t, store.ReplaceDemandMap(ctx, portfolioID, map[shared.DemandID]float64{demandID: 1}, t0))
	require.NoError(t, store.ReplaceBasisMap(ctx, portfolioID, map[shared.ProductID]float64{productID: 1}, t0))

	dRow, ok, err := store.CurrentDemandMap(ctx, portfolioID, t0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1.0, dRow.Value[demandID])

	bRow, ok, err := store.CurrentBasisMap(ctx, portfolioID, t0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1.0, bRow.Value[productID])
}
