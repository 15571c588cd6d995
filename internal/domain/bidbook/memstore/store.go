// Package memstore is the in-process bidbook.Store implementation,
// mirroring the teacher's mutex-guarded-map convention: one RWMutex
// guarding every stream, writes rare relative to reads (spec section
// 5).
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/domain/bidbook"
	"github.com/andrescamacho/flowtrading-go/internal/domain/curve"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

type Store struct {
	mu sync.RWMutex

	demands    map[shared.DemandID]bidbook.Demand
	curveRows  map[shared.DemandID][]shared.Row[*curve.Curve]

	portfolios map[shared.PortfolioID]bidbook.Portfolio
	demandRows map[shared.PortfolioID][]shared.Row[map[shared.DemandID]float64]
	basisRows  map[shared.PortfolioID][]shared.Row[map[shared.ProductID]float64]
}

func New() *Store {
	return &Store{
		demands:    make(map[shared.DemandID]bidbook.Demand),
		curveRows:  make(map[shared.DemandID][]shared.Row[*curve.Curve]),
		portfolios: make(map[shared.PortfolioID]bidbook.Portfolio),
		demandRows: make(map[shared.PortfolioID][]shared.Row[map[shared.DemandID]float64]),
		basisRows:  make(map[shared.PortfolioID][]shared.Row[map[shared.ProductID]float64]),
	}
}

func (s *Store) SaveDemand(ctx context.Context, d bidbook.Demand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.demands[d.ID]; exists {
		return shared.ErrIdExists
	}
	s.demands[d.ID] = d
	return nil
}

func (s *Store) FindDemand(ctx context.Context, id shared.DemandID) (bidbook.Demand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.demands[id]
	if !ok {
		return bidbook.Demand{}, shared.ErrNotFound
	}
	return d, nil
}

func (s *Store) DemandIDs(ctx context.Context, bidders []shared.BidderID) ([]shared.DemandID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allowed := bidderSet(bidders)
	var out []shared.DemandID
	for id, d := range s.demands {
		if allowed == nil || allowed[d.BidderID] {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out, nil
}

func (s *Store) CurrentCurve(ctx context.Context, id shared.DemandID, t time.Time) (shared.Row[*curve.Curve], bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := shared.AtInstant(s.curveRows[id], t)
	return row, ok, nil
}

func (s *Store) CurveHistory(ctx context.Context, id shared.DemandID, q bidbook.HistoryQuery) ([]shared.Row[*curve.Curve], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := append([]shared.Row[*curve.Curve]{}, s.curveRows[id]...)
	return filterHistory(rows, q, func(r shared.Row[*curve.Curve]) time.Time { return r.ValidFrom }), nil
}

func (s *Store) ReplaceCurve(ctx context.Context, id shared.DemandID, value *curve.Curve, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := shared.CloseOpen(s.curveRows[id], t)
	rows = append(rows, shared.Row[*curve.Curve]{Value: value, ValidFrom: t})
	s.curveRows[id] = rows
	return nil
}

func (s *Store) SavePortfolio(ctx context.Context, p bidbook.Portfolio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.portfolios[p.ID]; exists {
		return shared.ErrIdExists
	}
	s.portfolios[p.ID] = p
	return nil
}

func (s *Store) FindPortfolio(ctx context.Context, id shared.PortfolioID) (bidbook.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.portfolios[id]
	if !ok {
		return bidbook.Portfolio{}, shared.ErrNotFound
	}
	return p, nil
}

func (s *Store) PortfolioIDs(ctx context.Context, bidders []shared.BidderID) ([]shared.PortfolioID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allowed := bidderSet(bidders)
	var out []shared.PortfolioID
	for id, p := range s.portfolios {
		if allowed == nil || allowed[p.BidderID] {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out, nil
}

func (s *Store) CurrentDemandMap(ctx context.Context, id shared.PortfolioID, t time.Time) (shared.Row[map[shared.DemandID]float64], bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := shared.AtInstant(s.demandRows[id], t)
	return row, ok, nil
}

func (s *Store) DemandMapHistory(ctx context.Context, id shared.PortfolioID, q bidbook.HistoryQuery) ([]shared.Row[map[shared.DemandID]float64], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := append([]shared.Row[map[shared.DemandID]float64]{}, s.demandRows[id]...)
	return filterHistory(rows, q, func(r shared.Row[map[shared.DemandID]float64]) time.Time { return r.ValidFrom }), nil
}

func (s *Store) ReplaceDemandMap(ctx context.Context, id shared.PortfolioID, value map[shared.DemandID]float64, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := shared.CloseOpen(s.demandRows[id], t)
	rows = append(rows, shared.Row[map[shared.DemandID]float64]{Value: value, ValidFrom: t})
	s.demandRows[id] = rows
	return nil
}

func (s *Store) CurrentBasisMap(ctx context.Context, id shared.PortfolioID, t time.Time) (shared.Row[map[shared.ProductID]float64], bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := shared.AtInstant(s.basisRows[id], t)
	return row, ok, nil
}

func (s *Store) BasisMapHistory(ctx context.Context, id shared.PortfolioID, q bidbook.HistoryQuery) ([]shared.Row[map[shared.ProductID]float64], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := append([]shared.Row[map[shared.ProductID]float64]{}, s.basisRows[id]...)
	return filterHistory(rows, q, func(r shared.Row[map[shared.ProductID]float64]) time.Time { return r.ValidFrom }), nil
}

func (s *Store) ReplaceBasisMap(ctx context.Context, id shared.PortfolioID, value map[shared.ProductID]float64, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := shared.CloseOpen(s.basisRows[id], t)
	rows = append(rows, shared.Row[map[shared.ProductID]float64]{Value: value, ValidFrom: t})
	s.basisRows[id] = rows
	return nil
}

func bidderSet(bidders []shared.BidderID) map[shared.BidderID]bool {
	if len(bidders) == 0 {
		return nil
	}
	m := make(map[shared.BidderID]bool, len(bidders))
	for _, b := range bidders {
		m[b] = true
	}
	return m
}

func filterHistory[T any](rows []shared.Row[T], q bidbook.HistoryQuery, from func(shared.Row[T]) time.Time) []shared.Row[T] {
	sort.Slice(rows, func(i, j int) bool { return from(rows[i]).After(from(rows[j])) })
	var out []shared.Row[T]
	for _, r := range rows {
		if q.Before != nil && !from(r).Before(*q.Before) {
			continue
		}
		if q.After != nil && !from(r).After(*q.After) {
			continue
		}
		out = append(out, r)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out
}
