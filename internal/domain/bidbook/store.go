package bidbook

import (
	"context"
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// HistoryQuery pages a reverse-chronological read of a lifetime
// stream, per spec section 6.2(b).
type HistoryQuery struct {
	Before *time.Time // only rows that opened before this instant
	After  *time.Time // only rows that opened after this instant
	Limit  int        // 0 means unbounded
}

// Store is the narrow persistence port the bid book is built on
// (spec section 6.2): point-in-time reads, reverse-chronological
// paged reads, and transactional replacement of an open row with a
// closed row plus a new open row. Implementations: memstore
// (in-process) and adapters/persistence (GORM over Postgres/SQLite).
type Store interface {
	SaveDemand(ctx context.Context, d Demand) error
	FindDemand(ctx context.Context, id shared.DemandID) (Demand, error)
	DemandIDs(ctx context.Context, bidders []shared.BidderID) ([]shared.DemandID, error)

	CurrentCurve(ctx context.Context, id shared.DemandID, t time.Time) (shared.Row[*curve.Curve], bool, error)
	CurveHistory(ctx context.Context, id shared.DemandID, q HistoryQuery) ([]shared.Row[*curve.Curve], error)
	// ReplaceCurve atomically closes the open curve row (if any) at t
	// and opens a new row with value at t.
	ReplaceCurve(ctx context.Context, id shared.DemandID, value *curve.Curve, t time.Time) error

	SavePortfolio(ctx context.Context, p Portfolio) error
	FindPortfolio(ctx context.Context, id shared.PortfolioID) (Portfolio, error)
	PortfolioIDs(ctx context.Context, bidders []shared.BidderID) ([]shared.PortfolioID, error)

	CurrentDemandMap(ctx context.Context, id shared.PortfolioID, t time.Time) (shared.Row[map[shared.DemandID]float64], bool, error)
	DemandMapHistory(ctx context.Context, id shared.PortfolioID, q HistoryQuery) ([]shared.Row[map[shared.DemandID]float64], error)
	ReplaceDemandMap(ctx context.Context, id shared.PortfolioID, value map[shared.DemandID]float64, t time.Time) error

	CurrentBasisMap(ctx context.Context, id shared.PortfolioID, t time.Time) (shared.Row[map[shared.ProductID]float64], bool, error)
	BasisMapHistory(ctx context.Context, id shared.PortfolioID, q HistoryQuery) ([]shared.Row[map[shared.ProductID]float64], error)
	ReplaceBasisMap(ctx context.Context, id shared.PortfolioID, value map[shared.ProductID]float64, t time.Time) error
}

// ProductExistence is the minimal view of the product hierarchy the
// bid book needs to validate a portfolio's basis references.
type ProductExistence interface {
	ProductExists(ctx context.Context, id shared.ProductID) (bool, error)
}
