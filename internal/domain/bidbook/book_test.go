package bidbook_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/flowtrading-go/internal/domain/bidbook"
	"github.com/andrescamacho/flowtrading-go/internal/domain/bidbook/memstore"
	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

func newBook(clock *shared.MockClock) *bidbook.Book {
	return bidbook.NewBook(memstore.New(), nil, clock)
}

func constCurve(price float64) *curve.Curve {
	return &curve.Curve{Constant: &curve.ConstantCurve{Price: price}}
}

func TestDemandLifetimeAudit(t *testing.T) {
	// Scenario 3: create demand D, set curve twice, delete.
	// read_history(D) length >= 2; first row closed; current row nil/open.
	ctx := context.Background()
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	book := newBook(clock)
	bidder := shared.NewBidderID()
	d := shared.NewDemandID()

	require.NoError(t, book.CreateDemand(ctx, d, bidder, constCurve(10), nil))

	clock.Advance(time.Minute)
	require.NoError(t, book.SetCurve(ctx, d, constCurve(20)))

	clock.Advance(time.Minute)
	require.NoError(t, book.DeleteDemand(ctx, d))

	hist, err := book.ReadDemandHistory(ctx, d, bidbook.HistoryQuery{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(hist), 2)

	// Reverse-chronological: most recent first.
	require.Nil(t, hist[0].Value)
	require.Nil(t, hist[0].ValidUntil)

	last := hist[len(hist)-1]
	require.NotNil(t, last.ValidUntil)
}

func TestCreateDemand_InvalidCurveRejected(t *testing.T) {
	// Scenario 2: min_rate=5, max_rate=10, price=10 -> InvalidCurve.
	ctx := context.Background()
	clock := shared.NewMockClock(time.Now())
	book := newBook(clock)
	bidder := shared.NewBidderID()

	min, max := 5.0, 10.0
	bad := &curve.Curve{Constant: &curve.ConstantCurve{MinRate: &min, MaxRate: &max, Price: 10}}

	err := book.CreateDemand(ctx, shared.NewDemandID(), bidder, bad, nil)
	require.Error(t, err)
	var ice *shared.InvalidCurveError
	require.ErrorAs(t, err, &ice)
}

func TestPortfolioDisassociation(t *testing.T) {
	// Scenario 4: portfolio P has demand={D1:2, D2:1}. PATCH demand={D1:1}.
	// D2's demand-history entry for P is closed; the in-force map no
	// longer contains D2.
	ctx := context.Background()
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	book := newBook(clock)
	bidder := shared.NewBidderID()

	d1, d2 := shared.NewDemandID(), shared.NewDemandID()
	require.NoError(t, book.CreateDemand(ctx, d1, bidder, constCurve(10), nil))
	require.NoError(t, book.CreateDemand(ctx, d2, bidder, constCurve(5), nil))

	product := shared.NewProductID()
	p := shared.NewPortfolioID()
	require.NoError(t, book.CreatePortfolio(ctx, p, bidder,
		map[shared.DemandID]float64{d1: 2, d2: 1},
		map[shared.ProductID]float64{product: 1},
		nil))

	clock.Advance(time.Minute)
	require.NoError(t, book.UpdatePortfolio(ctx, p, map[shared.DemandID]float64{d1: 1}, nil))

	snap, err := book.ReadPortfolio(ctx, p, clock.Now())
	require.NoError(t, err)
	_, hasD2 := snap.DemandMap[d2]
	require.False(t, hasD2)

	hist, err := book.ReadDemandMapHistory(ctx, p, bidbook.HistoryQuery{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(hist), 2)
	require.NotNil(t, hist[1].ValidUntil) // the closed {D1:2,D2:1} row
}

func TestActiveDemandsRequiresPortfolioReference(t *testing.T) {
	ctx := context.Background()
	clock := shared.NewMockClock(time.Now())
	book := newBook(clock)
	bidder := shared.NewBidderID()

	d := shared.NewDemandID()
	require.NoError(t, book.CreateDemand(ctx, d, bidder, constCurve(10), nil))

	active, err := book.ActiveDemands(ctx, nil, clock.Now())
	require.NoError(t, err)
	require.Empty(t, active, "demand with no referencing portfolio is not active")

	product := shared.NewProductID()
	p := shared.NewPortfolioID()
	require.NoError(t, book.CreatePortfolio(ctx, p, bidder,
		map[shared.DemandID]float64{d: 1}, map[shared.ProductID]float64{product: 1}, nil))

	active, err = book.ActiveDemands(ctx, nil, clock.Now())
	require.NoError(t, err)
	require.Contains(t, active, d)
}

func TestCreatePortfolio_UnknownDemand(t *testing.T) {
	ctx := context.Background()
	clock := shared.NewMockClock(time.Now())
	book := newBook(clock)
	bidder := shared.NewBidderID()

	err := book.CreatePortfolio(ctx, shared.NewPortfolioID(), bidder,
		map[shared.DemandID]float64{shared.NewDemandID(): 1}, nil, nil)
	require.Error(t, err)
	var ure *shared.UnknownReferenceError
	require.ErrorAs(t, err, &ure)
	require.Equal(t, "demand", ure.Kind)
}

func TestDeletePortfolio_RoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := shared.NewMockClock(time.Now())
	book := newBook(clock)
	bidder := shared.NewBidderID()

	d := shared.NewDemandID()
	require.NoError(t, book.CreateDemand(ctx, d, bidder, constCurve(10), nil))
	product := shared.NewProductID()
	p := shared.NewPortfolioID()
	require.NoError(t, book.CreatePortfolio(ctx, p, bidder,
		map[shared.DemandID]float64{d: 1}, map[shared.ProductID]float64{product: 1}, nil))

	clock.Advance(time.Second)
	require.NoError(t, book.DeletePortfolio(ctx, p))

	snap, err := book.ReadPortfolio(ctx, p, clock.Now())
	require.NoError(t, err)
	require.Empty(t, snap.DemandMap)
	require.Empty(t, snap.BasisMap)
	require.False(t, snap.Active())
}
