package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/flowtrading-go/internal/adapters/persistence"
	"github.com/andrescamacho/flowtrading-go/internal/domain/batch"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
	"github.com/andrescamacho/flowtrading-go/test/helpers"
)

func TestGormBatchStore_InsertAndQuery(t *testing.T) {
	db := helpers.NewTestDB(t)
	store := persistence.NewGormBatchStore(db)
	ctx := context.Background()

	portfolioID := shared.NewPortfolioID()
	productID := shared.NewProductID()

	t0 := time.Now().UTC()
	rec1 := &batch.Record{
		ID:        shared.NewBatchID(),
		ValidFrom: t0,
		PortfolioOutcomes: map[shared.PortfolioID]batch.PortfolioOutcome{
			portfolioID: {TradeRate: 5, MarginalPrice: 2.5},
		},
		ProductOutcomes: map[shared.ProductID]batch.ProductOutcome{
			productID: {TradedQuantity: 5, ClearingPrice: 2.5},
		},
		TimeUnitSeconds: 3600,
	}
	require.NoError(t, store.Insert(ctx, rec1))

	open, err := store.Open(ctx)
	require.NoError(t, err)
	require.NotNil(t, open)
	require.Equal(t, rec1.ID, open.ID)
	require.True(t, open.Open())

	t1 := t0.Add(time.Hour)
	require.NoError(t, store.CloseOpen(ctx, t1))

	rec2 := &batch.Record{
		ID:        shared.NewBatchID(),
		ValidFrom: t1,
		PortfolioOutcomes: map[shared.PortfolioID]batch.PortfolioOutcome{
			portfolioID: {TradeRate: 3, MarginalPrice: 2.8},
		},
		ProductOutcomes: map[shared.ProductID]batch.ProductOutcome{
			productID: {TradedQuantity: 3, ClearingPrice: 2.8},
		},
		TimeUnitSeconds: 3600,
	}
	require.NoError(t, store.Insert(ctx, rec2))

	stillOpen, err := store.Open(ctx)
	require.NoError(t, err)
	require.Equal(t, rec2.ID, stillOpen.ID)

	atT0, err := store.AtInstant(ctx, t0)
	require.NoError(t, err)
	require.NotNil(t, atT0)
	require.Equal(t, rec1.ID, atT0.ID)

	hist, err := store.History(ctx, t0, t1.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, hist, 2)
}
