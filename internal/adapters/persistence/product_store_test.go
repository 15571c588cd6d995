package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/flowtrading-go/internal/adapters/persistence"
	"github.com/andrescamacho/flowtrading-go/internal/domain/product"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
	"github.com/andrescamacho/flowtrading-go/test/helpers"
)

func TestGormProductStore_SaveAndFind(t *testing.T) {
	db := helpers.NewTestDB(t)
	store := persistence.NewGormProductStore(db)
	ctx := context.Background()

	id := shared.NewProductID()
	require.NoError(t, store.SaveProduct(ctx, product.Product{ID: id, AsOf: time.Now().UTC()}))

	got, err := store.FindProduct(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)

	_, err = store.FindProduct(ctx, shared.NewProductID())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductStore_EdgeLifecycle(t *testing.T) {
	db := helpers.NewTestDB(t)
	store := persistence.NewGormProductStore(db)
	ctx := context.Background()

	p, q := shared.NewProductID(), shared.NewProductID()
	t0 := time.Now().UTC()

	require.NoError(t, store.OpenEdges(ctx, []product.Edge{
		{Src: p, Dst: p, Ratio: 1, Depth: 0, ValidFrom: t0},
		{Src: p, Dst: q, Ratio: 2, Depth: 1, ValidFrom: t0},
	}))

	open, err := store.EdgesWithDst(ctx, q)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, 2.0, open[0].Ratio)

	t1 := t0.Add(time.Minute)
	require.NoError(t, store.CloseEdges(ctx, []product.Edge{{Src: p, Dst: q}}, t1))

	stillOpen, err := store.EdgesWithDst(ctx, q)
	require.NoError(t, err)
	require.Empty(t, stillOpen)

	atT0, err := store.EdgesWithSrc(ctx, p, t0)
	require.NoError(t, err)
	require.Len(t, atT0, 2)

	atT1, err := store.EdgesWithSrc(ctx, p, t1)
	require.NoError(t, err)
	require.Len(t, atT1, 1)
}
