// Package memstore is the in-process EdgeStore implementation: a
// mutex-guarded slice per stream, used by tests (the daemon wires the
// GORM store in adapters/persistence). Mirrors the teacher's channel-coordinator
// convention of a single sync.RWMutex guarding a handful of maps/
// slices rather than per-row locks (writes are rare relative to
// reads; see spec section 5).
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/andrescamacho/flowtrading-go/internal/domain/product"
	"github.com/andrescamacho/flowtrading-go/internal/domain/shared"
)

type Store struct {
	mu       sync.RWMutex
	products map[shared.ProductID]product.Product
	edges    []product.Edge
}

func New() *Store {
	return &Store{
		products: make(map[shared.ProductID]product.Product),
	}
}

func (s *Store) SaveProduct(ctx context.Context, p product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[p.ID]; exists {
		return shared.ErrIdExists
	}
	s.products[p.ID] = p
	return nil
}

func (s *Store) FindProduct(ctx context.Context, id shared.ProductID) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return product.Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (s *Store) EdgesWithDst(ctx context.Context, id shared.ProductID) ([]product.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []product.Edge
	for _, e := range s.edges {
		if e.Dst == id && e.ValidUntil == nil {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) EdgesWithSrc(ctx context.Context, id shared.ProductID, t time.Time) ([]product.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []product.Edge
	for _, e := range s.edges {
		if e.Src == id && e.Contains(t) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) EdgesWithDstAt(ctx context.Context, id shared.ProductID, t time.Time) ([]product.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []product.Edge
	for _, e := range s.edges {
		if e.Dst == id && e.Contains(t) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) CloseEdges(ctx context.Context, edges []product.Edge, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.edges {
		for _, target := range edges {
			if s.edges[i].Src == target.Src && s.edges[i].Dst == target.Dst && s.edges[i].ValidUntil == nil {
				closedAt := t
				s.edges[i].ValidUntil = &closedAt
			}
		}
	}
	return nil
}

func (s *Store) OpenEdges(ctx context.Context, edges []product.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, edges...)
	return nil
}
