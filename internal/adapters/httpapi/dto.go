package httpapi

import (
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// pointDTO is the wire shape of one PWL breakpoint.
type pointDTO struct {
	Rate  float64 `json:"rate"`
	Price float64 `json:"price"`
}

// curveDTO is the wire shape of curve.Curve's tagged variant: exactly
// one of PWL or Constant is set.
type curveDTO struct {
	PWL      []pointDTO      `json:"pwl,omitempty"`
	Constant *constantDTO    `json:"constant,omitempty"`
}

type constantDTO struct {
	MinRate *float64 `json:"min_rate,omitempty"`
	MaxRate *float64 `json:"max_rate,omitempty"`
	Price   float64  `json:"price"`
}

func curveToDTO(c *curve.Curve) *curveDTO {
	if c == nil {
		return nil
	}
	if c.IsPWL() {
		points := make([]pointDTO, len(c.PWL))
		for i, p := range c.PWL {
			points[i] = pointDTO{Rate: p.Rate, Price: p.Price}
		}
		return &curveDTO{PWL: points}
	}
	if c.IsConstant() {
		return &curveDTO{Constant: &constantDTO{
			MinRate: c.Constant.MinRate,
			MaxRate: c.Constant.MaxRate,
			Price:   c.Constant.Price,
		}}
	}
	return nil
}

func dtoToCurve(d *curveDTO) *curve.Curve {
	if d == nil {
		return nil
	}
	if d.PWL != nil {
		points := make([]curve.Point, len(d.PWL))
		for i, p := range d.PWL {
			points[i] = curve.Point{Rate: p.Rate, Price: p.Price}
		}
		return &curve.Curve{PWL: points}
	}
	if d.Constant != nil {
		return &curve.Curve{Constant: &curve.ConstantCurve{
			MinRate: d.Constant.MinRate,
			MaxRate: d.Constant.MaxRate,
			Price:   d.Constant.Price,
		}}
	}
	return nil
}

type demandDTO struct {
	ID         string                 `json:"id"`
	BidderID   string                 `json:"bidder_id"`
	Curve      *curveDTO              `json:"curve"`
	AppData    map[string]any         `json:"app_data,omitempty"`
	ValidFrom  time.Time              `json:"valid_from"`
	ValidUntil *time.Time             `json:"valid_until,omitempty"`
}

type createDemandRequest struct {
	Curve   *curveDTO      `json:"curve,omitempty"`
	AppData map[string]any `json:"app_data,omitempty"`
}

type setCurveRequest struct {
	Curve *curveDTO `json:"curve"`
}

type curveHistoryRowDTO struct {
	Curve      *curveDTO  `json:"curve"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

type portfolioDTO struct {
	ID         string             `json:"id"`
	BidderID   string             `json:"bidder_id"`
	DemandMap  map[string]float64 `json:"demand_map"`
	BasisMap   map[string]float64 `json:"basis_map"`
	AppData    map[string]any     `json:"app_data,omitempty"`
	ValidFrom  time.Time          `json:"valid_from"`
	ValidUntil *time.Time         `json:"valid_until,omitempty"`
}

type createPortfolioRequest struct {
	DemandMap map[string]float64 `json:"demand_map"`
	BasisMap  map[string]float64 `json:"basis_map"`
	AppData   map[string]any     `json:"app_data,omitempty"`
}

type updatePortfolioRequest struct {
	DemandMap map[string]float64 `json:"demand_map,omitempty"`
	BasisMap  map[string]float64 `json:"basis_map,omitempty"`
}

func demandMapToDTO(m map[shared.DemandID]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for id, w := range m {
		out[id.String()] = w
	}
	return out
}

func demandMapFromDTO(m map[string]float64) (map[shared.DemandID]float64, error) {
	out := make(map[shared.DemandID]float64, len(m))
	for raw, w := range m {
		id, err := shared.ParseDemandID(raw)
		if err != nil {
			return nil, err
		}
		out[id] = w
	}
	return out, nil
}

func basisMapToDTO(m map[shared.ProductID]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for id, w := range m {
		out[id.String()] = w
	}
	return out
}

func basisMapFromDTO(m map[string]float64) (map[shared.ProductID]float64, error) {
	out := make(map[shared.ProductID]float64, len(m))
	for raw, w := range m {
		id, err := shared.ParseProductID(raw)
		if err != nil {
			return nil, err
		}
		out[id] = w
	}
	return out, nil
}

type productDTO struct {
	ID          string    `json:"id"`
	AsOf        time.Time `json:"as_of"`
	Parent      *string   `json:"parent,omitempty"`
	ParentRatio float64   `json:"parent_ratio,omitempty"`
}

type createProductRequest struct {
	Parent      *string `json:"parent,omitempty"`
	ParentRatio float64 `json:"parent_ratio,omitempty"`
}

type refineProductRequest struct {
	ParentRatio float64 `json:"parent_ratio"`
}

type portfolioOutcomeDTO struct {
	PortfolioID   string  `json:"portfolio_id"`
	TradeRate     float64 `json:"trade_rate"`
	MarginalPrice float64 `json:"marginal_price"`
}

type productOutcomeDTO struct {
	ProductID      string  `json:"product_id"`
	TradedQuantity float64 `json:"traded_quantity"`
	ClearingPrice  float64 `json:"clearing_price"`
}

type batchSummaryDTO struct {
	BatchID    string    `json:"batch_id"`
	ValidFrom  time.Time `json:"valid_from"`
	Portfolios int       `json:"portfolio_count"`
	Products   int       `json:"product_count"`
}
