package product_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/flowtrading-go/internal/domain/product"
	"github.com/andrescamacho/flowtrading-go/internal/domain/product/memstore"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

func TestRegistry_RefinementRewritesBasis(t *testing.T) {
	// Scenario 6: parent A, child B with ratio=2. A basis of {A:3} must
	// resolve to {B:6} once B exists.
	ctx := context.Background()
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	reg := product.NewRegistry(memstore.New(), clock)

	a := shared.NewProductID()
	require.NoError(t, reg.CreateProduct(ctx, a, nil, 0))

	basis, err := reg.BasisAt(ctx, a, clock.Now())
	require.NoError(t, err)
	require.Equal(t, map[shared.ProductID]float64{a: 1.0}, basis)

	clock.Advance(time.Minute)
	b := shared.NewProductID()
	require.NoError(t, reg.CreateProduct(ctx, b, &a, 2.0))

	basis, err = reg.BasisAt(ctx, a, clock.Now())
	require.NoError(t, err)
	require.Equal(t, map[shared.ProductID]float64{b: 2.0}, basis)
}

func TestRegistry_DeeperRefinement(t *testing.T) {
	ctx := context.Background()
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	reg := product.NewRegistry(memstore.New(), clock)

	a := shared.NewProductID()
	require.NoError(t, reg.CreateProduct(ctx, a, nil, 0))

	clock.Advance(time.Minute)
	b := shared.NewProductID()
	require.NoError(t, reg.CreateProduct(ctx, b, &a, 2.0))

	clock.Advance(time.Minute)
	c := shared.NewProductID()
	require.NoError(t, reg.CreateProduct(ctx, c, &b, 3.0))

	basis, err := reg.BasisAt(ctx, a, clock.Now())
	require.NoError(t, err)
	require.Equal(t, map[shared.ProductID]float64{c: 6.0}, basis)

	// b itself now decomposes into c too (further refinement).
	basis, err = reg.BasisAt(ctx, b, clock.Now())
	require.NoError(t, err)
	require.Equal(t, map[shared.ProductID]float64{c: 3.0}, basis)
}

func TestRegistry_ParentMissing(t *testing.T) {
	ctx := context.Background()
	clock := shared.NewMockClock(time.Now())
	reg := product.NewRegistry(memstore.New(), clock)

	missing := shared.NewProductID()
	err := reg.CreateProduct(ctx, shared.NewProductID(), &missing, 1.0)
	require.Error(t, err)
	var pme *shared.ParentMissingError
	require.ErrorAs(t, err, &pme)
}

func TestRegistry_LeafIsSelf(t *testing.T) {
	ctx := context.Background()
	clock := shared.NewMockClock(time.Now())
	reg := product.NewRegistry(memstore.New(), clock)

	leaf := shared.NewProductID()
	require.NoError(t, reg.CreateProduct(ctx, leaf, nil, 0))

	basis, err := reg.BasisAt(ctx, leaf, clock.Now())
	require.NoError(t, err)
	require.Equal(t, map[shared.ProductID]float64{leaf: 1.0}, basis)
}
