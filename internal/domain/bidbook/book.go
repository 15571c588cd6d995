package bidbook

import (
	"context"
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// Book is the bid book: the demand and portfolio lifecycle operations
// of spec section 4.2, built over a Store port and a product
// existence check.
type Book struct {
	store    Store
	products ProductExistence
	clock    shared.Clock
}

func NewBook(store Store, products ProductExistence, clock shared.Clock) *Book {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &Book{store: store, products: products, clock: clock}
}

// CreateDemand records a new demand at the current instant. curveData
// may be nil (an inactive demand at creation).
func (b *Book) CreateDemand(ctx context.Context, id shared.DemandID, bidder shared.BidderID, curveData *curve.Curve, appData map[string]any) error {
	if err := curve.Validate(curveData); err != nil {
		return shared.NewInvalidCurveError(err.Error())
	}
	t := b.clock.Now()
	if err := b.store.SaveDemand(ctx, Demand{ID: id, BidderID: bidder, AppData: appData}); err != nil {
		return err
	}
	return b.store.ReplaceCurve(ctx, id, curveData, t)
}

// SetCurve replaces a demand's curve, closing the previously open
// curve row and opening a new one at the current instant. Passing nil
// marks the demand inactive without deleting its identity.
func (b *Book) SetCurve(ctx context.Context, id shared.DemandID, curveData *curve.Curve) error {
	if _, err := b.store.FindDemand(ctx, id); err != nil {
		return err
	}
	if err := curve.Validate(curveData); err != nil {
		return shared.NewInvalidCurveError(err.Error())
	}
	return b.store.ReplaceCurve(ctx, id, curveData, b.clock.Now())
}

// DeleteDemand is equivalent to SetCurve(id, nil).
func (b *Book) DeleteDemand(ctx context.Context, id shared.DemandID) error {
	return b.SetCurve(ctx, id, nil)
}

// ReadDemand returns the demand composite active at t.
func (b *Book) ReadDemand(ctx context.Context, id shared.DemandID, t time.Time) (DemandSnapshot, error) {
	d, err := b.store.FindDemand(ctx, id)
	if err != nil {
		return DemandSnapshot{}, err
	}
	row, ok, err := b.store.CurrentCurve(ctx, id, t)
	if err != nil {
		return DemandSnapshot{}, err
	}
	if !ok {
		return DemandSnapshot{}, shared.ErrNotFound
	}
	return DemandSnapshot{Demand: d, Curve: row.Value, ValidFrom: row.ValidFrom, ValidUntil: row.ValidUntil}, nil
}

// ReadDemandHistory returns curve rows in reverse-chronological order.
func (b *Book) ReadDemandHistory(ctx context.Context, id shared.DemandID, q HistoryQuery) ([]shared.Row[*curve.Curve], error) {
	if _, err := b.store.FindDemand(ctx, id); err != nil {
		return nil, err
	}
	return b.store.CurveHistory(ctx, id, q)
}

// ActiveDemands returns the ids of demands active at t for the given
// bidders (empty slice means "all bidders"): curve non-null AND
// referenced by at least one portfolio's current demand map.
func (b *Book) ActiveDemands(ctx context.Context, bidders []shared.BidderID, t time.Time) ([]shared.DemandID, error) {
	ids, err := b.store.DemandIDs(ctx, bidders)
	if err != nil {
		return nil, err
	}
	referenced, err := b.referencedDemands(ctx, t)
	if err != nil {
		return nil, err
	}

	var active []shared.DemandID
	for _, id := range ids {
		row, ok, err := b.store.CurrentCurve(ctx, id, t)
		if err != nil {
			return nil, err
		}
		if ok && row.Value != nil && referenced[id] {
			active = append(active, id)
		}
	}
	return active, nil
}

func (b *Book) referencedDemands(ctx context.Context, t time.Time) (map[shared.DemandID]bool, error) {
	pids, err := b.store.PortfolioIDs(ctx, nil)
	if err != nil {
		return nil, err
	}
	referenced := make(map[shared.DemandID]bool)
	for _, pid := range pids {
		row, ok, err := b.store.CurrentDemandMap(ctx, pid, t)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for did := range row.Value {
			referenced[did] = true
		}
	}
	return referenced, nil
}

// CreatePortfolio records a new portfolio at the current instant,
// validating that every referenced demand/product exists.
func (b *Book) CreatePortfolio(ctx context.Context, id shared.PortfolioID, bidder shared.BidderID, demandMap map[shared.DemandID]float64, basisMap map[shared.ProductID]float64, appData map[string]any) error {
	if err := b.validateDemandMap(ctx, demandMap); err != nil {
		return err
	}
	if err := b.validateBasisMap(ctx, basisMap); err != nil {
		return err
	}
	t := b.clock.Now()
	if err := b.store.SavePortfolio(ctx, Portfolio{ID: id, BidderID: bidder, AppData: appData}); err != nil {
		return err
	}
	if err := b.store.ReplaceDemandMap(ctx, id, demandMap, t); err != nil {
		return err
	}
	return b.store.ReplaceBasisMap(ctx, id, basisMap, t)
}

// UpdatePortfolio replaces either or both of a portfolio's weight
// maps; a nil map argument leaves that map untouched. Pass an
// empty-but-non-nil map to explicitly clear a map.
func (b *Book) UpdatePortfolio(ctx context.Context, id shared.PortfolioID, newDemandMap map[shared.DemandID]float64, newBasisMap map[shared.ProductID]float64) error {
	if _, err := b.store.FindPortfolio(ctx, id); err != nil {
		return err
	}
	if newDemandMap != nil {
		if err := b.validateDemandMap(ctx, newDemandMap); err != nil {
			return err
		}
	}
	if newBasisMap != nil {
		if err := b.validateBasisMap(ctx, newBasisMap); err != nil {
			return err
		}
	}
	t := b.clock.Now()
	if newDemandMap != nil {
		if err := b.store.ReplaceDemandMap(ctx, id, newDemandMap, t); err != nil {
			return err
		}
	}
	if newBasisMap != nil {
		if err := b.store.ReplaceBasisMap(ctx, id, newBasisMap, t); err != nil {
			return err
		}
	}
	return nil
}

// DeletePortfolio replaces both maps with the empty map at the
// current instant.
func (b *Book) DeletePortfolio(ctx context.Context, id shared.PortfolioID) error {
	if _, err := b.store.FindPortfolio(ctx, id); err != nil {
		return err
	}
	t := b.clock.Now()
	if err := b.store.ReplaceDemandMap(ctx, id, map[shared.DemandID]float64{}, t); err != nil {
		return err
	}
	return b.store.ReplaceBasisMap(ctx, id, map[shared.ProductID]float64{}, t)
}

// ReadPortfolio returns the portfolio composite active at t: the
// window over which both the demand map and basis map are unchanged.
func (b *Book) ReadPortfolio(ctx context.Context, id shared.PortfolioID, t time.Time) (PortfolioSnapshot, error) {
	p, err := b.store.FindPortfolio(ctx, id)
	if err != nil {
		return PortfolioSnapshot{}, err
	}
	dRow, ok, err := b.store.CurrentDemandMap(ctx, id, t)
	if err != nil {
		return PortfolioSnapshot{}, err
	}
	if !ok {
		return PortfolioSnapshot{}, shared.ErrNotFound
	}
	bRow, ok, err := b.store.CurrentBasisMap(ctx, id, t)
	if err != nil {
		return PortfolioSnapshot{}, err
	}
	if !ok {
		return PortfolioSnapshot{}, shared.ErrNotFound
	}

	return PortfolioSnapshot{
		Portfolio:  p,
		DemandMap:  dRow.Value,
		BasisMap:   bRow.Value,
		ValidFrom:  maxFrom(dRow.ValidFrom, bRow.ValidFrom),
		ValidUntil: minUntil(dRow.ValidUntil, bRow.ValidUntil),
	}, nil
}

// ReadDemandMapHistory returns a portfolio's demand-map rows in
// reverse-chronological order.
func (b *Book) ReadDemandMapHistory(ctx context.Context, id shared.PortfolioID, q HistoryQuery) ([]shared.Row[map[shared.DemandID]float64], error) {
	if _, err := b.store.FindPortfolio(ctx, id); err != nil {
		return nil, err
	}
	return b.store.DemandMapHistory(ctx, id, q)
}

// ReadBasisHistory returns a portfolio's basis-map rows in
// reverse-chronological order.
func (b *Book) ReadBasisHistory(ctx context.Context, id shared.PortfolioID, q HistoryQuery) ([]shared.Row[map[shared.ProductID]float64], error) {
	if _, err := b.store.FindPortfolio(ctx, id); err != nil {
		return nil, err
	}
	return b.store.BasisMapHistory(ctx, id, q)
}

// ActivePortfolios returns ids of portfolios active at t for the
// given bidders (empty slice means "all bidders"): both maps
// non-empty.
func (b *Book) ActivePortfolios(ctx context.Context, bidders []shared.BidderID, t time.Time) ([]shared.PortfolioID, error) {
	ids, err := b.store.PortfolioIDs(ctx, bidders)
	if err != nil {
		return nil, err
	}
	var active []shared.PortfolioID
	for _, id := range ids {
		dRow, ok, err := b.store.CurrentDemandMap(ctx, id, t)
		if err != nil {
			return nil, err
		}
		if !ok || len(dRow.Value) == 0 {
			continue
		}
		bRow, ok, err := b.store.CurrentBasisMap(ctx, id, t)
		if err != nil {
			return nil, err
		}
		if !ok || len(bRow.Value) == 0 {
			continue
		}
		active = append(active, id)
	}
	return active, nil
}

func (b *Book) validateDemandMap(ctx context.Context, m map[shared.DemandID]float64) error {
	for did := range m {
		if _, err := b.store.FindDemand(ctx, did); err != nil {
			return shared.NewUnknownReferenceError("demand", did.String())
		}
	}
	return nil
}

func (b *Book) validateBasisMap(ctx context.Context, m map[shared.ProductID]float64) error {
	if b.products == nil {
		return nil
	}
	for pid := range m {
		ok, err := b.products.ProductExists(ctx, pid)
		if err != nil {
			return err
		}
		if !ok {
			return shared.NewUnknownReferenceError("product", pid.String())
		}
	}
	return nil
}
