// Package batch models the append-only batch record of spec section
// 3 ("Batch. An append-only record (id, valid_from, valid_until,
// portfolio_outcomes, product_outcomes, settled, time_unit)"): the
// persisted result of one solved auction, which re-enters the bid
// book's storage for historical query.
package batch

import (
	"context"
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// PortfolioOutcome is a solved portfolio's trade rate and marginal
// price, as persisted in a Record (mirrors solver.PortfolioOutcome,
// kept as an independent type so the domain layer does not depend on
// the application layer's solver package).
type PortfolioOutcome struct {
	TradeRate     float64
	MarginalPrice float64
}

// ProductOutcome is a solved product's net traded quantity (zero at
// clearing, up to solver tolerance) and clearing price.
type ProductOutcome struct {
	TradedQuantity float64
	ClearingPrice  float64
}

// Record is one batch: the output of a single solved auction at
// ValidFrom, superseded at ValidUntil by the next batch (or still
// open if ValidUntil is nil).
type Record struct {
	ID                shared.BatchID
	ValidFrom         time.Time
	ValidUntil        *time.Time
	PortfolioOutcomes map[shared.PortfolioID]PortfolioOutcome
	ProductOutcomes   map[shared.ProductID]ProductOutcome
	Settled           bool
	TimeUnitSeconds   float64
}

// Open reports whether this record has not yet been superseded.
func (r *Record) Open() bool { return r.ValidUntil == nil }

// Store is the narrow persistence port batch records are written
// through and read back from (spec section 4.1's hexagonal-separation
// style, applied to the batch record).
type Store interface {
	// Insert appends a new batch record as the open record.
	Insert(ctx context.Context, rec *Record) error

	// CloseOpen sets the currently-open record's ValidUntil to t, if
	// one exists. A no-op if no record is open.
	CloseOpen(ctx context.Context, t time.Time) error

	// Open returns the currently-open record, or nil if none exists.
	Open(ctx context.Context) (*Record, error)

	// AtInstant returns the record whose [ValidFrom, ValidUntil) interval
	// contains t, or nil if none does.
	AtInstant(ctx context.Context, t time.Time) (*Record, error)

	// History returns every record whose interval intersects [from, to),
	// ordered by ValidFrom ascending.
	History(ctx context.Context, from, to time.Time) ([]*Record, error)
}
