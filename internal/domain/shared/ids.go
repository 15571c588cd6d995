package shared

import (
	"fmt"

	"github.com/google/uuid"
)

// idKind tags a typed id with its entity kind so that two ids minted
// from the same underlying uuid for different entities are never
// interchangeable at compile time.
type idKind uint8

const (
	kindBidder idKind = iota
	kindProduct
	kindDemand
	kindPortfolio
	kindBatch
)

// typedID is the shared representation behind every identifier type.
// It is comparable (usable as a map key, supports ==) which gives the
// Eq/Hash semantics the spec requires for free; Compare gives a total
// order for deterministic iteration and stable LP/MPS naming.
type typedID struct {
	kind  idKind
	value uuid.UUID
}

func (t typedID) String() string {
	return t.value.String()
}

func (t typedID) Compare(other typedID) int {
	if t.kind != other.kind {
		if t.kind < other.kind {
			return -1
		}
		return 1
	}
	for i := range t.value {
		if t.value[i] != other.value[i] {
			if t.value[i] < other.value[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (t typedID) IsZero() bool {
	return t.value == uuid.Nil
}

func newTypedID(kind idKind) typedID {
	return typedID{kind: kind, value: uuid.New()}
}

func parseTypedID(kind idKind, s string) (typedID, error) {
	v, err := uuid.Parse(s)
	if err != nil {
		return typedID{}, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return typedID{kind: kind, value: v}, nil
}

// BidderID identifies a marketplace participant.
type BidderID struct{ typedID }

func NewBidderID() BidderID                     { return BidderID{newTypedID(kindBidder)} }
func ParseBidderID(s string) (BidderID, error)  { t, e := parseTypedID(kindBidder, s); return BidderID{t}, e }
func (a BidderID) Compare(b BidderID) int       { return a.typedID.Compare(b.typedID) }

// ProductID identifies a product in the hierarchy.
type ProductID struct{ typedID }

func NewProductID() ProductID                    { return ProductID{newTypedID(kindProduct)} }
func ParseProductID(s string) (ProductID, error) { t, e := parseTypedID(kindProduct, s); return ProductID{t}, e }
func (a ProductID) Compare(b ProductID) int      { return a.typedID.Compare(b.typedID) }

// DemandID identifies a bidder-owned demand curve.
type DemandID struct{ typedID }

func NewDemandID() DemandID                    { return DemandID{newTypedID(kindDemand)} }
func ParseDemandID(s string) (DemandID, error) { t, e := parseTypedID(kindDemand, s); return DemandID{t}, e }
func (a DemandID) Compare(b DemandID) int      { return a.typedID.Compare(b.typedID) }

// PortfolioID identifies a bidder-owned portfolio.
type PortfolioID struct{ typedID }

func NewPortfolioID() PortfolioID                    { return PortfolioID{newTypedID(kindPortfolio)} }
func ParsePortfolioID(s string) (PortfolioID, error) { t, e := parseTypedID(kindPortfolio, s); return PortfolioID{t}, e }
func (a PortfolioID) Compare(b PortfolioID) int      { return a.typedID.Compare(b.typedID) }

// BatchID identifies a batch auction record.
type BatchID struct{ typedID }

func NewBatchID() BatchID                    { return BatchID{newTypedID(kindBatch)} }
func ParseBatchID(s string) (BatchID, error) { t, e := parseTypedID(kindBatch, s); return BatchID{t}, e }
func (a BatchID) Compare(b BatchID) int      { return a.typedID.Compare(b.typedID) }
