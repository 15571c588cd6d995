package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/flowtrading-go/internal/domain/bidbook"
	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

// GormBidBookStore implements bidbook.Store over GORM: one table per
// entity plus one table per lifetime-tracked field, following the
// teacher's history-table convention
// (market_price_history_repository.go) generalized from
// insert-only history to the replace-open-row-with-closed-row-plus-
// new-open-row pattern spec section 4.2 requires.
type GormBidBookStore struct {
	db *gorm.DB
}

func NewGormBidBookStore(db *gorm.DB) *GormBidBookStore {
	return &GormBidBookStore{db: db}
}

func (s *GormBidBookStore) SaveDemand(ctx context.Context, d bidbook.Demand) error {
	appData, err := json.Marshal(d.AppData)
	if err != nil {
		return fmt.Errorf("marshal app data: %w", err)
	}
	model := &DemandModel{ID: d.ID.String(), BidderID: d.BidderID.String(), AppData: string(appData)}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return shared.ErrIdExists
	}
	return nil
}

func (s *GormBidBookStore) FindDemand(ctx context.Context, id shared.DemandID) (bidbook.Demand, error) {
	var model DemandModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return bidbook.Demand{}, shared.ErrNotFound
		}
		return bidbook.Demand{}, shared.NewStorageFailureError(err)
	}
	return modelToDemand(model)
}

func modelToDemand(model DemandModel) (bidbook.Demand, error) {
	id, err := shared.ParseDemandID(model.ID)
	if err != nil {
		return bidbook.Demand{}, fmt.Errorf("invalid demand id %q: %w", model.ID, err)
	}
	bidderID, err := shared.ParseBidderID(model.BidderID)
	if err != nil {
		return bidbook.Demand{}, fmt.Errorf("invalid bidder id %q: %w", model.BidderID, err)
	}
	var appData map[string]any
	if model.AppData != "" {
		if err := json.Unmarshal([]byte(model.AppData), &appData); err != nil {
			return bidbook.Demand{}, fmt.Errorf("unmarshal app data: %w", err)
		}
	}
	return bidbook.Demand{ID: id, BidderID: bidderID, AppData: appData}, nil
}

func (s *GormBidBookStore) DemandIDs(ctx context.Context, bidders []shared.BidderID) ([]shared.DemandID, error) {
	q := s.db.WithContext(ctx).Model(&DemandModel{}).Order("id")
	if len(bidders) > 0 {
		q = q.Where("bidder_id IN ?", stringifyBidders(bidders))
	}
	var models []DemandModel
	if err := q.Find(&models).Error; err != nil {
		return nil, shared.NewStorageFailureError(err)
	}
	out := make([]shared.DemandID, 0, len(models))
	for _, m := range models {
		id, err := shared.ParseDemandID(m.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid demand id %q: %w", m.ID, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *GormBidBookStore) CurrentCurve(ctx context.Context, id shared.DemandID, t time.Time) (shared.Row[*curve.Curve], bool, error) {
	var model DemandCurveRowModel
	err := s.db.WithContext(ctx).
		Where("demand_id = ? AND valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)", id.String(), t, t).
		Order("valid_from DESC").
		First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return shared.Row[*curve.Curve]{}, false, nil
	}
	if err != nil {
		return shared.Row[*curve.Curve]{}, false, shared.NewStorageFailureError(err)
	}
	row, err := curveRowFromModel(model)
	return row, true, err
}

func (s *GormBidBookStore) CurveHistory(ctx context.Context, id shared.DemandID, q bidbook.HistoryQuery) ([]shared.Row[*curve.Curve], error) {
	query := s.db.WithContext(ctx).Where("demand_id = ?", id.String()).Order("valid_from DESC")
	query = applyHistoryQuery(query, q)
	var models []DemandCurveRowModel
	if err := query.Find(&models).Error; err != nil {
		return nil, shared.NewStorageFailureError(err)
	}
	out := make([]shared.Row[*curve.Curve], 0, len(models))
	for _, m := range models {
		row, err := curveRowFromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *GormBidBookStore) ReplaceCurve(ctx context.Context, id shared.DemandID, value *curve.Curve, t time.Time) error {
	var curveJSON *string
	if value != nil {
		b, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal curve: %w", err)
		}
		str := string(b)
		curveJSON = &str
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&DemandCurveRowModel{}).
			Where("demand_id = ? AND valid_until IS NULL", id.String()).
			Update("valid_until", t).Error; err != nil {
			return err
		}
		return tx.Create(&DemandCurveRowModel{DemandID: id.String(), CurveJSON: curveJSON, ValidFrom: t}).Error
	})
}

func curveRowFromModel(m DemandCurveRowModel) (shared.Row[*curve.Curve], error) {
	var c *curve.Curve
	if m.CurveJSON != nil {
		c = &curve.Curve{}
		if err := json.Unmarshal([]byte(*m.CurveJSON), c); err != nil {
			return shared.Row[*curve.Curve]{}, fmt.Errorf("unmarshal curve: %w", err)
		}
	}
	return shared.Row[*curve.Curve]{Value: c, ValidFrom: m.ValidFrom, ValidUntil: m.ValidUntil}, nil
}

func (s *GormBidBookStore) SavePortfolio(ctx context.Context, p bidbook.Portfolio) error {
	appData, err := json.Marshal(p.AppData)
	if err != nil {
		return fmt.Errorf("marshal app data: %w", err)
	}
	model := &PortfolioModel{ID: p.ID.String(), BidderID: p.BidderID.String(), AppData: string(appData)}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return shared.ErrIdExists
	}
	return nil
}

func (s *GormBidBookStore) FindPortfolio(ctx context.Context, id shared.PortfolioID) (bidbook.Portfolio, error) {
	var model PortfolioModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return bidbook.Portfolio{}, shared.ErrNotFound
		}
		return bidbook.Portfolio{}, shared.NewStorageFailureError(err)
	}
	id2, err := shared.ParsePortfolioID(model.ID)
	if err != nil {
		return bidbook.Portfolio{}, fmt.Errorf("invalid portfolio id %q: %w", model.ID, err)
	}
	bidderID, err := shared.ParseBidderID(model.BidderID)
	if err != nil {
		return bidbook.Portfolio{}, fmt.Errorf("invalid bidder id %q: %w", model.BidderID, err)
	}
	var appData map[string]any
	if model.AppData != "" {
		if err := json.Unmarshal([]byte(model.AppData), &appData); err != nil {
			return bidbook.Portfolio{}, fmt.Errorf("unmarshal app data: %w", err)
		}
	}
	return bidbook.Portfolio{ID: id2, BidderID: bidderID, AppData: appData}, nil
}

func (s *GormBidBookStore) PortfolioIDs(ctx context.Context, bidders []shared.BidderID) ([]shared.PortfolioID, error) {
	q := s.db.WithContext(ctx).Model(&PortfolioModel{}).Order("id")
	if len(bidders) > 0 {
		q = q.Where("bidder_id IN ?", stringifyBidders(bidders))
	}
	var models []PortfolioModel
	if err := q.Find(&models).Error; err != nil {
		return nil, shared.NewStorageFailureError(err)
	}
	out := make([]shared.PortfolioID, 0, len(models))
	for _, m := range models {
		id, err := shared.ParsePortfolioID(m.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid portfolio id %q: %w", m.ID, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *GormBidBookStore) CurrentDemandMap(ctx context.Context, id shared.PortfolioID, t time.Time) (shared.Row[map[shared.DemandID]float64], bool, error) {
	var model PortfolioDemandMapRowModel
	err := s.db.WithContext(ctx).
		Where("portfolio_id = ? AND valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)", id.String(), t, t).
		Order("valid_from DESC").
		First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return shared.Row[map[shared.DemandID]float64]{}, false, nil
	}
	if err != nil {
		return shared.Row[map[shared.DemandID]float64]{}, false, shared.NewStorageFailureError(err)
	}
	row, err := demandMapRowFromModel(model)
	return row, true, err
}

func (s *GormBidBookStore) DemandMapHistory(ctx context.Context, id shared.PortfolioID, q bidbook.HistoryQuery) ([]shared.Row[map[shared.DemandID]float64], error) {
	query := s.db.WithContext(ctx).Where("portfolio_id = ?", id.String()).Order("valid_from DESC")
	query = applyHistoryQuery(query, q)
	var models []PortfolioDemandMapRowModel
	if err := query.Find(&models).Error; err != nil {
		return nil, shared.NewStorageFailureError(err)
	}
	out := make([]shared.Row[map[shared.DemandID]float64], 0, len(models))
	for _, m := range models {
		row, err := demandMapRowFromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *GormBidBookStore) ReplaceDemandMap(ctx context.Context, id shared.PortfolioID, value map[shared.DemandID]float64, t time.Time) error {
	b, err := json.Marshal(stringifyDemandMap(value))
	if err != nil {
		return fmt.Errorf("marshal demand map: %w", err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&PortfolioDemandMapRowModel{}).
			Where("portfolio_id = ? AND valid_until IS NULL", id.String()).
			Update("valid_until", t).Error; err != nil {
			return err
		}
		return tx.Create(&PortfolioDemandMapRowModel{PortfolioID: id.String(), DemandMapJSON: string(b), ValidFrom: t}).Error
	})
}

func demandMapRowFromModel(m PortfolioDemandMapRowModel) (shared.Row[map[shared.DemandID]float64], error) {
	var raw map[string]float64
	if err := json.Unmarshal([]byte(m.DemandMapJSON), &raw); err != nil {
		return shared.Row[map[shared.DemandID]float64]{}, fmt.Errorf("unmarshal demand map: %w", err)
	}
	value := make(map[shared.DemandID]float64, len(raw))
	for k, v := range raw {
		id, err := shared.ParseDemandID(k)
		if err != nil {
			return shared.Row[map[shared.DemandID]float64]{}, fmt.Errorf("invalid demand id %q: %w", k, err)
		}
		value[id] = v
	}
	return shared.Row[map[shared.DemandID]float64]{Value: value, ValidFrom: m.ValidFrom, ValidUntil: m.ValidUntil}, nil
}

func (s *GormBidBookStore) CurrentBasisMap(ctx context.Context, id shared.PortfolioID, t time.Time) (shared.Row[map[shared.ProductID]float64], bool, error) {
	var model PortfolioBasisMapRowModel
	err := s.db.WithContext(ctx).
		Where("portfolio_id = ? AND valid_from <= ? AND (valid_until IS NULL OR valid_until > ?)", id.String(), t, t).
		Order("valid_from DESC").
		First(&model).Error
	if err == gorm.ErrRecordNotFound {
		return shared.Row[map[shared.ProductID]float64]{}, false, nil
	}
	if err != nil {
		return shared.Row[map[shared.ProductID]float64]{}, false, shared.NewStorageFailureError(err)
	}
	row, err := basisMapRowFromModel(model)
	return row, true, err
}

func (s *GormBidBookStore) BasisMapHistory(ctx context.Context, id shared.PortfolioID, q bidbook.HistoryQuery) ([]shared.Row[map[shared.ProductID]float64], error) {
	query := s.db.WithContext(ctx).Where("portfolio_id = ?", id.String()).Order("valid_from DESC")
	query = applyHistoryQuery(query, q)
	var models []PortfolioBasisMapRowModel
	if err := query.Find(&models).Error; err != nil {
		return nil, shared.NewStorageFailureError(err)
	}
	out := make([]shared.Row[map[shared.ProductID]float64], 0, len(models))
	for _, m := range models {
		row, err := basisMapRowFromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *GormBidBookStore) ReplaceBasisMap(ctx context.Context, id shared.PortfolioID, value map[shared.ProductID]float64, t time.Time) error {
	b, err := json.Marshal(stringifyBasisMap(value))
	if err != nil {
		return fmt.Errorf("marshal basis map: %w", err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&PortfolioBasisMapRowModel{}).
			Where("portfolio_id = ? AND valid_until IS NULL", id.String()).
			Update("valid_until", t).Error; err != nil {
			return err
		}
		return tx.Create(&PortfolioBasisMapRowModel{PortfolioID: id.String(), BasisMapJSON: string(b), ValidFrom: t}).Error
	})
}

func basisMapRowFromModel(m PortfolioBasisMapRowModel) (shared.Row[map[shared.ProductID]float64], error) {
	var raw map[string]float64
	if err := json.Unmarshal([]byte(m.BasisMapJSON), &raw); err != nil {
		return shared.Row[map[shared.ProductID]float64]{}, fmt.Errorf("unmarshal basis map: %w", err)
	}
	value := make(map[shared.ProductID]float64, len(raw))
	for k, v := range raw {
		id, err := shared.ParseProductID(k)
		if err != nil {
			return shared.Row[map[shared.ProductID]float64]{}, fmt.Errorf("invalid product id %q: %w", k, err)
		}
		value[id] = v
	}
	return shared.Row[map[shared.ProductID]float64]{Value: value, ValidFrom: m.ValidFrom, ValidUntil: m.ValidUntil}, nil
}

func stringifyBidders(bidders []shared.BidderID) []string {
	out := make([]string, len(bidders))
	for i, b := range bidders {
		out[i] = b.String()
	}
	return out
}

func stringifyDemandMap(m map[shared.DemandID]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k.String()] = v
	}
	return out
}

func stringifyBasisMap(m map[shared.ProductID]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k.String()] = v
	}
	return out
}

func applyHistoryQuery(q *gorm.DB, hq bidbook.HistoryQuery) *gorm.DB {
	if hq.Before != nil {
		q = q.Where("valid_from < ?", *hq.Before)
	}
	if hq.After != nil {
		q = q.Where("valid_from > ?", *hq.After)
	}
	if hq.Limit > 0 {
		q = q.Limit(hq.Limit)
	}
	return q
}

var _ bidbook.Store = (*GormBidBookStore)(nil)
